package migrate

import (
	"context"
	"sort"

	"github.com/lithammer/shortuuid"

	"github.com/goliatone/go-wiki-migrate/internal/logging"
	"github.com/goliatone/go-wiki-migrate/internal/state"
	"github.com/goliatone/go-wiki-migrate/pkg/interfaces"
)

// suffixLength bounds the random disambiguation suffix appended when the
// parent-qualified rename still collides.
const suffixLength = 8

type titleEntry struct {
	parent      *state.Unit
	parentTitle string
	title       string
}

// DeduplicateTitles renames colliding page titles within each channel. The
// destination rejects two pages with the same title in one space, so every
// member of a case-insensitive collision group is renamed to
// "title (parent title)", with a short random suffix when even that form is
// taken. The pass runs at most once per channel: renames are keyed to the
// tree's current shape, and repeating them after pages exist on the
// destination would desynchronise titles from created pages.
func (o *Orchestrator) DeduplicateTitles(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	structure, err := o.store.LoadStructure()
	if err != nil {
		return err
	}

	for _, channel := range structure.ChannelNames() {
		unit := structure[channel]
		logger := logging.WithUnitContext(o.logger, channel, unit.Path, phaseDedupe)

		if unit.TitlesDeduped {
			logger.Debug("titles already deduplicated")
			continue
		}

		renamed := o.dedupeChannel(logger, channel, unit)
		unit.TitlesDeduped = true
		logger.Info("titles deduplicated", "renamed", renamed)
	}

	return o.store.SaveStructure(structure)
}

func (o *Orchestrator) dedupeChannel(logger interfaces.Logger, channel string, unit *state.Unit) int {
	groups := map[string][]titleEntry{}
	collectTitles(unit, channel, groups)

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	renamed := 0
	used := map[string]struct{}{}

	for _, key := range keys {
		entries := groups[key]
		if len(entries) < 2 {
			continue
		}

		for _, entry := range entries {
			newTitle := entry.title + " (" + entry.parentTitle + ")"
			if _, taken := used[newTitle]; taken {
				newTitle += " " + shortuuid.New()[:suffixLength]
			}
			used[newTitle] = struct{}{}

			page := entry.parent.Children[entry.title]
			delete(entry.parent.Children, entry.title)
			entry.parent.Children[newTitle] = page

			logger.Warn("renamed colliding title", "from", entry.title, "to", newTitle)
			renamed++
		}
	}

	return renamed
}

// collectTitles groups every page of the subtree by its case-insensitive
// title key, remembering the owning parent so a rename can re-key the child
// map in place.
func collectTitles(parent *state.Unit, parentTitle string, groups map[string][]titleEntry) {
	for _, title := range parent.ChildTitles() {
		child := parent.Children[title]
		groups[state.TitleKey(title)] = append(groups[state.TitleKey(title)], titleEntry{
			parent:      parent,
			parentTitle: parentTitle,
			title:       title,
		})
		collectTitles(child, title, groups)
	}
}
