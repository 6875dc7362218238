// Package catalog holds the vocabulary categories available for practice.
package catalog

import (
	"fmt"
	"sort"

	"github.com/flipfox/flipfox/internal/model"
)

// Category is one vocabulary set. If Emojis is non-empty it is aligned
// by index with Words.
type Category struct {
	Ordered bool
	Words   []string
	Emojis  []string
}

// HasEmoji reports whether the category carries an emoji column.
func (c Category) HasEmoji() bool {
	return len(c.Emojis) > 0
}

// Catalog maps category keys to their vocabulary.
type Catalog struct {
	categories map[string]Category
}

// Builtin returns the catalog shipped with the app.
func Builtin() *Catalog {
	return &Catalog{categories: map[string]Category{
		"days": {
			Ordered: true,
			Words:   []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
		},
		"months": {
			Ordered: true,
			Words:   []string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
		},
		"seasons": {
			Ordered: true,
			Words:   []string{"Spring", "Summer", "Autumn", "Winter"},
			Emojis:  []string{"🌱", "☀️", "🍂", "❄️"},
		},
		"colors": {
			Words:  []string{"red", "blue", "green", "yellow", "black", "white", "orange", "purple", "pink", "brown", "gray"},
			Emojis: []string{"🔴", "🔵", "🟢", "🟡", "⚫", "⚪", "🟠", "🟣", "🌸", "🤎", "⬜"},
		},
		"animals": {
			Words:  []string{"dog", "cat", "horse", "cow", "sheep", "pig", "chicken", "duck", "bird", "fish"},
			Emojis: []string{"🐶", "🐱", "🐴", "🐮", "🐑", "🐷", "🐔", "🦆", "🐦", "🐟"},
		},
		"food": {
			Words:  []string{"apple", "banana", "carrot", "bread", "cheese", "egg", "rice", "pizza", "burger", "milk"},
			Emojis: []string{"🍎", "🍌", "🥕", "🍞", "🧀", "🥚", "🍚", "🍕", "🍔", "🥛"},
		},
	}}
}

// Keys returns all category keys in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.categories))
	for k := range c.categories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get looks up a category by key.
func (c *Catalog) Get(key string) (Category, bool) {
	cat, ok := c.categories[key]
	return cat, ok
}

// Has reports whether the key names a known category.
func (c *Catalog) Has(key string) bool {
	_, ok := c.categories[key]
	return ok
}

// Add registers a category, validating emoji alignment.
func (c *Catalog) Add(key string, cat Category) error {
	if key == "" {
		return fmt.Errorf("category key must not be empty")
	}
	if len(cat.Words) == 0 {
		return fmt.Errorf("category %q has no words", key)
	}
	if cat.HasEmoji() && len(cat.Emojis) != len(cat.Words) {
		return fmt.Errorf("category %q has %d emojis for %d words", key, len(cat.Emojis), len(cat.Words))
	}
	c.categories[key] = cat
	return nil
}

// ModesFor lists the quiz modes a category supports. Categories with
// neither ordering nor emojis still offer the numeric modes, treating the
// positional index as the number.
func (c *Catalog) ModesFor(key string) []model.Mode {
	cat, ok := c.categories[key]
	if !ok {
		return nil
	}
	var modes []model.Mode
	if cat.Ordered {
		modes = append(modes, model.ModeNumToWord, model.ModeWordToNum)
	}
	if cat.HasEmoji() {
		modes = append(modes, model.ModeEmojiToWord, model.ModeWordToEmoji)
	}
	if len(modes) == 0 {
		modes = append(modes, model.ModeNumToWord, model.ModeWordToNum)
	}
	return modes
}

// SupportsMode reports whether the category offers the given mode.
func (c *Catalog) SupportsMode(key string, mode model.Mode) bool {
	for _, m := range c.ModesFor(key) {
		if m == mode {
			return true
		}
	}
	return false
}
