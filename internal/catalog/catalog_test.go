package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flipfox/flipfox/internal/model"
)

func TestBuiltinEmojiAlignment(t *testing.T) {
	c := Builtin()
	for _, key := range c.Keys() {
		cat, ok := c.Get(key)
		if !ok {
			t.Fatalf("missing category %q", key)
		}
		if len(cat.Words) == 0 {
			t.Fatalf("category %q has no words", key)
		}
		if cat.HasEmoji() && len(cat.Emojis) != len(cat.Words) {
			t.Fatalf("category %q: %d emojis for %d words", key, len(cat.Emojis), len(cat.Words))
		}
	}
}

func TestModesFor(t *testing.T) {
	c := Builtin()
	tests := []struct {
		key  string
		want []model.Mode
	}{
		{"days", []model.Mode{model.ModeNumToWord, model.ModeWordToNum}},
		{"seasons", []model.Mode{model.ModeNumToWord, model.ModeWordToNum, model.ModeEmojiToWord, model.ModeWordToEmoji}},
		{"colors", []model.Mode{model.ModeEmojiToWord, model.ModeWordToEmoji}},
	}
	for _, tc := range tests {
		got := c.ModesFor(tc.key)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: expected %d modes, got %v", tc.key, len(tc.want), got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: expected %v, got %v", tc.key, tc.want, got)
			}
		}
	}
}

func TestModesForFallsBackToNumeric(t *testing.T) {
	c := Builtin()
	if err := c.Add("plain", Category{Words: []string{"one", "two"}}); err != nil {
		t.Fatalf("add category: %v", err)
	}
	modes := c.ModesFor("plain")
	if len(modes) != 2 || modes[0] != model.ModeNumToWord || modes[1] != model.ModeWordToNum {
		t.Fatalf("expected numeric fallback, got %v", modes)
	}
}

func TestAddRejectsMisalignedEmojis(t *testing.T) {
	c := Builtin()
	err := c.Add("bad", Category{
		Words:  []string{"a", "b"},
		Emojis: []string{"🅰️"},
	})
	if err == nil {
		t.Fatalf("expected alignment error")
	}
}

func TestLoadUserCategories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.toml")
	content := `[categories.planets]
ordered = true
words = ["Mercury", "Venus", "Earth"]

[categories.fruits]
words = ["apple", "pear"]
emojis = ["🍎", "🍐"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write categories: %v", err)
	}

	c := Builtin()
	if err := c.LoadUserCategories(path); err != nil {
		t.Fatalf("load categories: %v", err)
	}
	planets, ok := c.Get("planets")
	if !ok || !planets.Ordered || len(planets.Words) != 3 {
		t.Fatalf("unexpected planets category: %+v", planets)
	}
	if !c.SupportsMode("fruits", model.ModeEmojiToWord) {
		t.Fatalf("expected fruits to support emoji mode")
	}
}

func TestLoadUserCategoriesMissingFile(t *testing.T) {
	c := Builtin()
	before := len(c.Keys())
	if err := c.LoadUserCategories(filepath.Join(t.TempDir(), "none.toml")); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(c.Keys()) != before {
		t.Fatalf("catalog changed on missing file")
	}
}
