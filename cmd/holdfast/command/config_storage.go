package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
)

type StorageConfig struct {
	DatabasePath    string `json:"database_path"`
	EventLogPath    string `json:"event_log_path,omitempty"`
	TerritoriesPath string `json:"territories_path,omitempty"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	if c.DatabasePath == "" {
		el.Add(fmt.Errorf("storage: database_path is required"))
	}

	if c.TerritoriesPath != "" {
		info, err := os.Stat(c.TerritoriesPath)
		if err != nil {
			el.Add(fmt.Errorf("storage: invalid territories_path %q: %w", c.TerritoriesPath, err))
		} else if !info.IsDir() {
			el.Add(fmt.Errorf("storage: territories_path %q is not a directory", c.TerritoriesPath))
		}
	}

	return el.Err()
}
