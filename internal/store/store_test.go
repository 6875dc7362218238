package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/flipfox/flipfox/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	st, err := Open(filepath.Join(dir, "flipfox.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestKVRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := st.Get(ctx, "settings"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := st.Set(ctx, "settings", `{"category":"days"}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.Set(ctx, "settings", `{"category":"animals"}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, ok, err := st.Get(ctx, "settings")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if value != `{"category":"animals"}` {
		t.Fatalf("unexpected value: %s", value)
	}
}

func TestInsertAndListGames(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Unix(0, 0)
	for i := 0; i < 3; i++ {
		game := model.GameRecord{
			PlayedAt:   base.Add(time.Duration(i) * time.Hour),
			Category:   "days",
			Mode:       model.ModeNumToWord,
			Count:      7,
			Seen:       7,
			Correct:    5 + i,
			Accuracy:   70 + i*10,
			DurationMs: 30000,
		}
		if i == 1 {
			game.Category = "animals"
			game.Mode = model.ModeEmojiToWord
		}
		if _, err := st.InsertGame(ctx, game); err != nil {
			t.Fatalf("insert game: %v", err)
		}
	}

	all, err := st.ListGames(ctx, model.HistoryFilter{})
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 games, got %d", len(all))
	}
	if !all[0].PlayedAt.Before(all[2].PlayedAt) {
		t.Fatalf("games not in chronological order")
	}

	days, err := st.ListGames(ctx, model.HistoryFilter{Category: "days"})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days games, got %d", len(days))
	}

	since := base.Add(90 * time.Minute)
	recent, err := st.ListGames(ctx, model.HistoryFilter{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 recent game, got %d", len(recent))
	}

	last, err := st.ListGames(ctx, model.HistoryFilter{Last: 2})
	if err != nil {
		t.Fatalf("list last: %v", err)
	}
	if len(last) != 2 || last[1].Accuracy != 90 {
		t.Fatalf("expected the 2 most recent games, got %+v", last)
	}
}

func TestDeleteGames(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if _, err := st.InsertGame(ctx, model.GameRecord{PlayedAt: time.Unix(0, 0), Category: "days", Mode: model.ModeNumToWord}); err != nil {
		t.Fatalf("insert game: %v", err)
	}
	if err := st.DeleteGames(ctx); err != nil {
		t.Fatalf("delete games: %v", err)
	}
	games, err := st.ListGames(ctx, model.HistoryFilter{})
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(games) != 0 {
		t.Fatalf("expected empty history, got %d", len(games))
	}
}
