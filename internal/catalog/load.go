package catalog

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// fileCategory mirrors one [categories.<key>] table in the TOML file.
type fileCategory struct {
	Ordered bool     `toml:"ordered"`
	Words   []string `toml:"words"`
	Emojis  []string `toml:"emojis"`
}

type categoriesFile struct {
	Categories map[string]fileCategory `toml:"categories"`
}

// LoadUserCategories merges user-defined categories from a TOML file into
// the catalog. A missing file is not an error; user keys override builtins.
func (c *Catalog) LoadUserCategories(path string) error {
	if path == "" {
		return fmt.Errorf("categories path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat categories file: %w", err)
	}
	var file categoriesFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fmt.Errorf("failed to decode categories file: %w", err)
	}
	for key, fc := range file.Categories {
		cat := Category{
			Ordered: fc.Ordered,
			Words:   fc.Words,
			Emojis:  fc.Emojis,
		}
		if err := c.Add(key, cat); err != nil {
			return fmt.Errorf("invalid category in %s: %w", path, err)
		}
	}
	return nil
}
