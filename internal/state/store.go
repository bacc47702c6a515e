package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-wiki-migrate/internal/logging"
	"github.com/goliatone/go-wiki-migrate/pkg/interfaces"
)

const (
	structureFile = "structure.json"
	urlMapFile    = "url_map.json"
)

// ErrStructureMissing is returned by LoadStructure when no snapshot exists
// yet. Discovery treats it as the signal to build the tree fresh.
var ErrStructureMissing = errors.New("state: structure snapshot not found")

// Store persists the migration tree and URL map as indented JSON snapshots
// under the source base directory. Every save writes the whole document to a
// sibling temp file and renames it into place, so a crash leaves either the
// previous snapshot or the new one, never a torn file. Exactly one process is
// assumed to operate on a base directory at a time; the mutex only guards
// accidental concurrent saves within that process.
type Store struct {
	baseDir string
	logger  interfaces.Logger

	mu sync.Mutex

	compileOnce sync.Once
	schema      *jsonschema.Schema
	compileErr  error
}

// NewStore builds a Store rooted at the migration source directory.
func NewStore(baseDir string, provider interfaces.LoggerProvider) *Store {
	return &Store{
		baseDir: filepath.Clean(baseDir),
		logger:  logging.StateLogger(provider),
	}
}

// BaseDir returns the source root the store persists under.
func (s *Store) BaseDir() string { return s.baseDir }

// StructurePath returns the location of the structure snapshot.
func (s *Store) StructurePath() string { return filepath.Join(s.baseDir, structureFile) }

// URLMapPath returns the location of the URL map snapshot.
func (s *Store) URLMapPath() string { return filepath.Join(s.baseDir, urlMapFile) }

// StructureExists reports whether a structure snapshot has been persisted.
// Discovery is skipped entirely when one exists.
func (s *Store) StructureExists() bool {
	_, err := os.Stat(s.StructurePath())
	return err == nil
}

// SaveStructure rewrites the structure snapshot wholesale.
func (s *Store) SaveStructure(structure Structure) error {
	return s.save(s.StructurePath(), structure)
}

// SaveURLMap rewrites the URL map snapshot wholesale.
func (s *Store) SaveURLMap(urlMap URLMap) error {
	return s.save(s.URLMapPath(), urlMap)
}

// LoadStructure reads and validates the structure snapshot. A missing file
// returns ErrStructureMissing; a snapshot that fails schema validation is an
// error because resuming from a corrupt tree would silently drop work.
func (s *Store) LoadStructure() (Structure, error) {
	data, err := os.ReadFile(s.StructurePath())
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Error("structure snapshot not found", "path", s.StructurePath())
			return nil, ErrStructureMissing
		}
		return nil, fmt.Errorf("state: read structure: %w", err)
	}

	if err := s.validateStructure(data); err != nil {
		return nil, err
	}

	var structure Structure
	if err := json.Unmarshal(data, &structure); err != nil {
		return nil, fmt.Errorf("state: decode structure: %w", err)
	}

	s.logger.Debug("loaded structure snapshot", "path", s.StructurePath(), "channels", len(structure))
	return structure, nil
}

// LoadURLMap reads the URL map snapshot. A missing file is tolerated and
// yields an empty map so early phases can run before any page exists.
func (s *Store) LoadURLMap() (URLMap, error) {
	data, err := os.ReadFile(s.URLMapPath())
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("url map snapshot not found, starting empty", "path", s.URLMapPath())
			return URLMap{}, nil
		}
		return nil, fmt.Errorf("state: read url map: %w", err)
	}

	var urlMap URLMap
	if err := json.Unmarshal(data, &urlMap); err != nil {
		return nil, fmt.Errorf("state: decode url map: %w", err)
	}
	if urlMap == nil {
		urlMap = URLMap{}
	}

	s.logger.Debug("loaded url map snapshot", "path", s.URLMapPath(), "entries", len(urlMap))
	return urlMap, nil
}

func (s *Store) save(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(value, "", "    ")
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("state: write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("state: replace %s: %w", filepath.Base(path), err)
	}

	s.logger.Debug("saved snapshot", "path", path)
	return nil
}

func (s *Store) validateStructure(data []byte) error {
	schema, err := s.compiledSchema()
	if err != nil {
		return err
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("state: decode structure: %w", err)
	}

	if err := schema.Validate(decoded); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return fmt.Errorf("state: structure snapshot invalid: %s", flattenIssues(validationErr))
		}
		return fmt.Errorf("state: structure snapshot invalid: %w", err)
	}
	return nil
}

func (s *Store) compiledSchema() (*jsonschema.Schema, error) {
	s.compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("structure.schema.json", strings.NewReader(structureSchema)); err != nil {
			s.compileErr = fmt.Errorf("state: add structure schema: %w", err)
			return
		}
		schema, err := compiler.Compile("structure.schema.json")
		if err != nil {
			s.compileErr = fmt.Errorf("state: compile structure schema: %w", err)
			return
		}
		s.schema = schema
	})
	return s.schema, s.compileErr
}

func flattenIssues(err *jsonschema.ValidationError) string {
	issues := []string{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			location := strings.TrimSpace(node.InstanceLocation)
			if location == "" {
				location = "#"
			}
			issues = append(issues, fmt.Sprintf("%s: %s", location, strings.TrimSpace(node.Message)))
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return strings.Join(issues, "; ")
}
