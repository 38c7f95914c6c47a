package storage

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/pixil98/holdfast/internal/game"
)

// FileStore holds the assets found in a directory tree of json files.
type FileStore[T ValidatingSpec] struct {
	path    string
	records map[string]T

	mu sync.RWMutex
}

func NewFileStore[T ValidatingSpec](path string) (*FileStore[T], error) {
	s := &FileStore[T]{
		path:    path,
		records: map[string]T{},
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *FileStore[T]) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = map[string]T{}

	return filepath.Walk(s.path, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		asset, err := s.loadAsset(path)
		if err != nil {
			return fmt.Errorf("loading %s: %w", filepath.Base(path), err)
		}
		if err := asset.Validate(); err != nil {
			return fmt.Errorf("validating %s: %w", filepath.Base(path), err)
		}
		if _, ok := s.records[asset.Identifier]; ok {
			return fmt.Errorf("duplicate key detected: %s", asset.Identifier)
		}

		s.records[asset.Identifier] = asset.Spec
		return nil
	})
}

func (s *FileStore[T]) loadAsset(path string) (*Asset[T], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	asset := &Asset[T]{}
	if err := json.Unmarshal(data, asset); err != nil {
		return nil, fmt.Errorf("unmarshalling asset: %w", err)
	}
	return asset, nil
}

// Get returns the asset stored under id, or the zero value.
func (s *FileStore[T]) Get(id string) T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[id]
}

// GetAll returns a copy of every asset keyed by id.
func (s *FileStore[T]) GetAll() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vals := make(map[string]T, len(s.records))
	for id, v := range s.records {
		vals[id] = v
	}
	return vals
}

// LoadTerritorySeeds reads the territory definitions under dir, ordered by
// territory id. An empty dir yields no seeds.
func LoadTerritorySeeds(dir string) ([]*game.TerritorySeed, error) {
	if dir == "" {
		return nil, nil
	}

	fs, err := NewFileStore[*game.TerritorySeed](dir)
	if err != nil {
		return nil, err
	}

	seen := map[game.TerritoryID]string{}
	seeds := make([]*game.TerritorySeed, 0, len(fs.records))
	for key, s := range fs.GetAll() {
		if other, ok := seen[s.ID]; ok {
			return nil, fmt.Errorf("territory %d defined by both %s and %s", s.ID, other, key)
		}
		seen[s.ID] = key
		seeds = append(seeds, s)
	}
	slices.SortFunc(seeds, func(a, b *game.TerritorySeed) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return seeds, nil
}
