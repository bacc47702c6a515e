package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-wiki-migrate/internal/state"
)

// mediaFolderPrefix names the sibling folder the export places a page's
// attachments in: Media_<page file name without extension>.
const mediaFolderPrefix = "Media_"

// Discover walks the source directory and builds the migration tree: one
// channel per top-level directory holding a same-named root document, child
// pages from the like-named subdirectory, attachments from Media_ folders.
// When a structure snapshot already exists the phase is skipped entirely;
// there is no partial-discovery merge.
func (o *Orchestrator) Discover(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if o.store.StructureExists() {
		o.logger.Warn("skipping discovery: structure snapshot already exists", "path", o.store.StructurePath())
		return nil
	}

	entries, err := os.ReadDir(o.baseDir)
	if err != nil {
		return fmt.Errorf("migrate: read source directory %s: %w", o.baseDir, err)
	}

	structure := state.Structure{}
	urlMap := state.URLMap{}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		channel := entry.Name()
		channelPath := filepath.Join(o.baseDir, channel)

		rootPath := filepath.Join(channelPath, channel+".md")
		if !isFile(rootPath) {
			o.logger.Debug("skipping directory without root document", "channel", channel)
			continue
		}

		spaceKey := GenerateSpaceKey(channel)
		urlMap.Register(rootPath, o.urls.SpaceURL(spaceKey))

		_, private := o.private[channel]
		o.logger.Debug("discovered channel", "channel", channel, "space_key", spaceKey, "private", private)

		unit := &state.Unit{
			Kind:     state.KindChannel,
			Private:  private,
			SpaceKey: spaceKey,
			Path:     rootPath,
			Media:    map[string]*state.MediaStatus{},
			Children: map[string]*state.Unit{},
		}

		childFolder := filepath.Join(channelPath, channel)
		if isDir(childFolder) {
			children, err := o.parsePageTree(childFolder, channel, false)
			if err != nil {
				return err
			}
			unit.Children = children
		}

		structure[channel] = unit
	}

	if err := o.store.SaveStructure(structure); err != nil {
		return err
	}
	if err := o.store.SaveURLMap(urlMap); err != nil {
		return err
	}

	o.logger.Info("discovery complete", "channels", len(structure))
	return nil
}

// parsePageTree builds page units for every markdown file in folder. A
// sibling directory named after the page holds its children; a Media_
// sibling folder holds its attachments. parentIsPage distinguishes pages
// nested under another page from pages hanging directly off the channel.
func (o *Orchestrator) parsePageTree(folder, parent string, parentIsPage bool) (map[string]*state.Unit, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("migrate: read page folder %s: %w", folder, err)
	}

	pages := map[string]*state.Unit{}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}

		pageName := strings.TrimSuffix(name, ".md")
		pagePath := filepath.Join(folder, name)

		o.logger.Debug("discovered page", "title", pageName, "parent", parent)

		media := map[string]*state.MediaStatus{}
		mediaFolder := filepath.Join(folder, mediaFolderPrefix+pageName)
		if isDir(mediaFolder) {
			mediaEntries, err := os.ReadDir(mediaFolder)
			if err != nil {
				return nil, fmt.Errorf("migrate: read media folder %s: %w", mediaFolder, err)
			}
			for _, mediaEntry := range mediaEntries {
				if mediaEntry.IsDir() {
					continue
				}
				media[mediaEntry.Name()] = &state.MediaStatus{}
			}
			o.logger.Debug("found media folder", "page", pageName, "files", len(media))
		}

		children := map[string]*state.Unit{}
		childDir := filepath.Join(folder, pageName)
		if isDir(childDir) {
			children, err = o.parsePageTree(childDir, pageName, true)
			if err != nil {
				return nil, err
			}
		}

		unit := &state.Unit{
			Kind:     state.KindPage,
			Path:     pagePath,
			Media:    media,
			Children: children,
		}
		if parentIsPage {
			unit.Parent = parent
		}

		pages[pageName] = unit
	}

	return pages, nil
}

// GenerateSpaceKey derives a destination space key from a channel name:
// the first letter of each word upper-cased, capped at ten characters, with
// the name's own first characters as fallback for single-word names that
// yield nothing useful.
func GenerateSpaceKey(name string) string {
	cleaned := strings.ReplaceAll(strings.ToUpper(name), "-", " ")

	var key []rune
	for _, word := range strings.Fields(cleaned) {
		runes := []rune(word)
		if len(runes) == 0 {
			continue
		}
		key = append(key, runes[0])
		if len(key) == 10 {
			break
		}
	}

	if len(key) == 0 {
		runes := []rune(strings.ToUpper(name))
		if len(runes) > 10 {
			runes = runes[:10]
		}
		return string(runes)
	}
	return string(key)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
