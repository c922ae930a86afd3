package config

import (
	"fmt"
)

// StoreConfig selects the assignment store backend.
type StoreConfig struct {
	// Backend selects the store type: "memory" or "sqlite".
	Backend string `json:"backend"`
	// Path is the database file location for the sqlite backend.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "sqlite"
	}
	if c.Path == "" {
		c.Path = "routing.db"
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	if c.Backend != "memory" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown store backend %s", c.Backend)
	}
	if c.Backend == "sqlite" && c.Path == "" {
		return fmt.Errorf("path is required for sqlite store")
	}
	return nil
}
