package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/flipfox/flipfox/internal/catalog"
	"github.com/flipfox/flipfox/internal/model"
)

type memStore struct {
	kv      map[string]string
	games   []model.GameRecord
	setErr  error
	getErr  error
	setCnt  int
	gameCnt int
}

func newMemStore() *memStore {
	return &memStore{kv: map[string]string{}}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.kv[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.setCnt++
	s.kv[key] = value
	return nil
}

func (s *memStore) InsertGame(_ context.Context, game model.GameRecord) (int64, error) {
	s.gameCnt++
	s.games = append(s.games, game)
	return int64(len(s.games)), nil
}

type clock struct{ t time.Time }

func newClock() *clock {
	return &clock{t: time.Unix(1000, 0)}
}

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(t *testing.T, store *memStore) (*Engine, *clock) {
	t.Helper()
	clk := newClock()
	e := New(context.Background(), catalog.Builtin(), store, Options{
		Now:  clk.now,
		Rand: rand.New(rand.NewSource(1)),
	})
	return e, clk
}

func configure(t *testing.T, e *Engine, category string, delaySec float64, count int, mode model.Mode) {
	t.Helper()
	e.Configure(context.Background(), Patch{
		Category: &category,
		DelaySec: &delaySec,
		Count:    &count,
		Mode:     &mode,
	})
}

func TestBuildOrderValidity(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	tests := []struct {
		poolSize int
		count    int
	}{
		{7, 7},
		{7, 3},
		{7, 20},
		{12, 1},
		{4, 11},
	}
	for _, tc := range tests {
		order := buildOrder(rnd, tc.poolSize, tc.count)
		if len(order) != tc.count {
			t.Fatalf("pool %d count %d: got len %d", tc.poolSize, tc.count, len(order))
		}
		for _, idx := range order {
			if idx < 0 || idx >= tc.poolSize {
				t.Fatalf("pool %d: index %d out of range", tc.poolSize, idx)
			}
		}
	}
}

func TestBuildOrderEmptyPool(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	if order := buildOrder(rnd, 0, 5); order != nil {
		t.Fatalf("expected nil order for empty pool, got %v", order)
	}
}

func TestDaysScenario(t *testing.T) {
	store := newMemStore()
	e, _ := newTestEngine(t, store)
	configure(t, e, "days", 0, 7, model.ModeNumToWord)
	e.StartNewGame()

	snap := e.Snapshot()
	if snap.CardTotal != 7 {
		t.Fatalf("expected 7 cards, got %d", snap.CardTotal)
	}
	if !snap.ShowingAnswer {
		t.Fatalf("zero delay must show the answer immediately")
	}
	seenIdx := map[int]bool{}
	for i := 0; i < 7; i++ {
		e.Mark(true)
		snap = e.Snapshot()
		if !snap.Holding && i < 6 {
			t.Fatalf("card %d: expected hold phase", i)
		}
		seenIdx[snap.LastChoice.PoolIndex] = true
		e.ContinueNow(context.Background())
	}
	snap = e.Snapshot()
	if !snap.Finished {
		t.Fatalf("expected finished session")
	}
	if snap.Seen != 7 || snap.Correct != 7 || snap.Accuracy != 100 {
		t.Fatalf("unexpected totals: seen=%d correct=%d accuracy=%d", snap.Seen, snap.Correct, snap.Accuracy)
	}
	if len(seenIdx) != 7 {
		t.Fatalf("order is not a permutation: saw %d distinct indices", len(seenIdx))
	}
	if snap.Statistics.TotalGames != 1 {
		t.Fatalf("expected 1 total game, got %d", snap.Statistics.TotalGames)
	}
	if len(store.games) != 1 {
		t.Fatalf("expected 1 recorded game, got %d", len(store.games))
	}
}

func TestAccuracyInvariant(t *testing.T) {
	e, _ := newTestEngine(t, newMemStore())
	configure(t, e, "animals", 0, 10, model.ModeEmojiToWord)
	e.StartNewGame()

	for i := 0; i < 10; i++ {
		e.Mark(i%3 == 0)
		snap := e.Snapshot()
		want := int(math.Round(float64(snap.Correct) / float64(snap.Seen) * 100))
		if snap.Accuracy != want {
			t.Fatalf("after mark %d: accuracy %d, want %d", i, snap.Accuracy, want)
		}
		e.ContinueNow(context.Background())
	}
}

func TestMutualExclusion(t *testing.T) {
	e, clk := newTestEngine(t, newMemStore())
	configure(t, e, "days", 2, 7, model.ModeNumToWord)
	e.StartNewGame()
	e.StartTimer()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		e.Mark(true)
		snap := e.Snapshot()
		if snap.Holding && !e.revealStart.IsZero() {
			t.Fatalf("reveal timer armed while holding")
		}
		clk.advance(10 * time.Millisecond)
		e.Tick(ctx, clk.now())
		e.ContinueNow(ctx)
		snap = e.Snapshot()
		if snap.Holding {
			t.Fatalf("still holding after continue")
		}
	}
}

func TestSingleCorrection(t *testing.T) {
	e, _ := newTestEngine(t, newMemStore())
	configure(t, e, "days", 0, 7, model.ModeNumToWord)
	e.StartNewGame()

	e.Mark(false)
	before := e.Snapshot()
	e.ChangeLastToWrong()
	after := e.Snapshot()
	if after.Correct != before.Correct || after.LastChoice.WasCorrect {
		t.Fatalf("correction after wrong mark must be a no-op")
	}
	e.ContinueNow(context.Background())

	e.Mark(true)
	before = e.Snapshot()
	e.ChangeLastToWrong()
	after = e.Snapshot()
	if after.Correct != before.Correct-1 {
		t.Fatalf("expected correct to drop by 1, got %d -> %d", before.Correct, after.Correct)
	}
	if after.LastChoice.WasCorrect {
		t.Fatalf("lastChoice should be flipped to wrong")
	}
	e.ChangeLastToWrong()
	again := e.Snapshot()
	if again.Correct != after.Correct {
		t.Fatalf("second correction must be idempotent")
	}
}

func TestTerminationFoldsOnce(t *testing.T) {
	store := newMemStore()
	e, clk := newTestEngine(t, store)
	configure(t, e, "seasons", 1, 4, model.ModeEmojiToWord)
	e.StartNewGame()
	e.StartTimer()

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		e.Mark(true)
		// Let the hold window expire naturally.
		clk.advance(DefaultHold)
		e.Tick(ctx, clk.now())
	}
	snap := e.Snapshot()
	if !snap.Finished {
		t.Fatalf("expected finished after %d marks", 4)
	}
	if snap.Statistics.TotalGames != 1 || snap.Statistics.TotalSeen != 4 {
		t.Fatalf("statistics folded incorrectly: %+v", snap.Statistics)
	}
	if store.gameCnt != 1 {
		t.Fatalf("expected exactly one game record, got %d", store.gameCnt)
	}

	// Commands on a finished session are no-ops.
	e.Mark(true)
	e.ContinueNow(ctx)
	e.EndGame(ctx)
	if got := e.Snapshot().Statistics.TotalGames; got != 1 {
		t.Fatalf("finished session folded again: %d games", got)
	}
}

func TestRevealTimerProgress(t *testing.T) {
	e, clk := newTestEngine(t, newMemStore())
	configure(t, e, "days", 2, 7, model.ModeNumToWord)
	e.StartNewGame()

	snap := e.Snapshot()
	if snap.ShowingAnswer {
		t.Fatalf("answer visible before the delay elapsed")
	}
	e.StartTimer()
	ctx := context.Background()

	clk.advance(time.Second)
	e.Tick(ctx, clk.now())
	snap = e.Snapshot()
	if snap.ShowingAnswer {
		t.Fatalf("answer revealed at half delay")
	}
	if snap.RevealPct < 49 || snap.RevealPct > 51 {
		t.Fatalf("expected ~50%% progress, got %.1f", snap.RevealPct)
	}

	clk.advance(time.Second)
	e.Tick(ctx, clk.now())
	snap = e.Snapshot()
	if !snap.ShowingAnswer || snap.RevealPct != 100 {
		t.Fatalf("expected reveal at full delay: showing=%v pct=%.1f", snap.ShowingAnswer, snap.RevealPct)
	}
	if e.TimerActive() {
		t.Fatalf("reveal timer should disarm after firing")
	}
}

func TestHoldExpiryAdvancesAndRearms(t *testing.T) {
	e, clk := newTestEngine(t, newMemStore())
	configure(t, e, "days", 2, 7, model.ModeNumToWord)
	e.StartNewGame()
	e.StartTimer()

	ctx := context.Background()
	e.Mark(true)
	clk.advance(DefaultHold / 2)
	e.Tick(ctx, clk.now())
	snap := e.Snapshot()
	if !snap.Holding || snap.HoldPct < 45 || snap.HoldPct > 55 {
		t.Fatalf("expected mid-hold progress, got holding=%v pct=%.1f", snap.Holding, snap.HoldPct)
	}

	clk.advance(DefaultHold)
	e.Tick(ctx, clk.now())
	snap = e.Snapshot()
	if snap.Holding {
		t.Fatalf("hold phase should end after the window")
	}
	if snap.CardNumber != 2 {
		t.Fatalf("expected advance to card 2, got %d", snap.CardNumber)
	}
	if snap.RevealPct != 0 || snap.ShowingAnswer {
		t.Fatalf("next card must start hidden with progress reset")
	}
	if !e.TimerActive() {
		t.Fatalf("reveal timer should be re-armed for the next card")
	}
}

func TestPauseSuspendsTimers(t *testing.T) {
	e, clk := newTestEngine(t, newMemStore())
	configure(t, e, "days", 2, 7, model.ModeNumToWord)
	e.StartNewGame()
	e.StartTimer()

	ctx := context.Background()
	e.TogglePause()
	if e.TimerActive() {
		t.Fatalf("pause must disarm timers")
	}
	e.Mark(true)
	if e.Snapshot().Seen != 0 {
		t.Fatalf("mark while paused must be a no-op")
	}

	clk.advance(10 * time.Second)
	e.Tick(ctx, clk.now())
	if e.Snapshot().ShowingAnswer {
		t.Fatalf("ticks while paused must not reveal")
	}

	e.TogglePause()
	e.StartTimer()
	clk.advance(2 * time.Second)
	e.Tick(ctx, clk.now())
	if !e.Snapshot().ShowingAnswer {
		t.Fatalf("timer should run again after resume")
	}
}

func TestResumeWhileHoldingRestartsWindow(t *testing.T) {
	e, clk := newTestEngine(t, newMemStore())
	configure(t, e, "days", 2, 7, model.ModeNumToWord)
	e.StartNewGame()
	e.Mark(true)

	ctx := context.Background()
	clk.advance(DefaultHold - 100*time.Millisecond)
	e.Tick(ctx, clk.now())
	e.TogglePause()
	e.TogglePause()
	snap := e.Snapshot()
	if !snap.Holding || snap.HoldPct != 0 {
		t.Fatalf("resume should restart the hold window: holding=%v pct=%.1f", snap.Holding, snap.HoldPct)
	}
	clk.advance(DefaultHold)
	e.Tick(ctx, clk.now())
	if e.Snapshot().Holding {
		t.Fatalf("hold should expire after the restarted window")
	}
}

func TestEndGameFoldsPartialProgress(t *testing.T) {
	store := newMemStore()
	e, _ := newTestEngine(t, store)
	configure(t, e, "days", 0, 7, model.ModeNumToWord)
	e.StartNewGame()

	ctx := context.Background()
	e.Mark(true)
	e.ContinueNow(ctx)
	e.Mark(false)
	e.ContinueNow(ctx)
	e.EndGame(ctx)

	snap := e.Snapshot()
	if !snap.Finished {
		t.Fatalf("expected finished after EndGame")
	}
	if snap.Statistics.TotalGames != 1 || snap.Statistics.TotalSeen != 2 || snap.Statistics.TotalCorrect != 1 {
		t.Fatalf("partial fold incorrect: %+v", snap.Statistics)
	}
	bucket := snap.Statistics.Categories["days"]
	if bucket.Games != 1 || bucket.Seen != 2 || bucket.Correct != 1 {
		t.Fatalf("category bucket incorrect: %+v", bucket)
	}
}

func TestEndGameWithoutProgressDoesNotFold(t *testing.T) {
	store := newMemStore()
	e, _ := newTestEngine(t, store)
	configure(t, e, "days", 0, 7, model.ModeNumToWord)
	e.StartNewGame()
	e.EndGame(context.Background())

	if got := e.Snapshot().Statistics.TotalGames; got != 0 {
		t.Fatalf("empty session must not fold: %d games", got)
	}
	if store.gameCnt != 0 {
		t.Fatalf("empty session must not be recorded")
	}
}

func TestConfigureClampsAndDerivesMode(t *testing.T) {
	e, _ := newTestEngine(t, newMemStore())
	ctx := context.Background()

	count := 0
	e.Configure(ctx, Patch{Count: &count})
	if got := e.Snapshot().Settings.Count; got != 1 {
		t.Fatalf("count 0 should clamp to 1, got %d", got)
	}
	count = 9999
	e.Configure(ctx, Patch{Count: &count})
	if got := e.Snapshot().Settings.Count; got != 500 {
		t.Fatalf("count 9999 should clamp to 500, got %d", got)
	}
	delay := -4.0
	e.Configure(ctx, Patch{DelaySec: &delay})
	if got := e.Snapshot().Settings.DelaySec; got != 0 {
		t.Fatalf("negative delay should clamp to 0, got %v", got)
	}

	// colors has no ordering, so the numeric mode is replaced by the first
	// supported one.
	category := "colors"
	e.Configure(ctx, Patch{Category: &category})
	if got := e.Snapshot().Settings.Mode; got != model.ModeEmojiToWord {
		t.Fatalf("expected mode re-derivation for colors, got %v", got)
	}

	category = "ghost"
	e.Configure(ctx, Patch{Category: &category})
	if got := e.Snapshot().Settings.Category; got != "colors" {
		t.Fatalf("unknown category must keep the previous one, got %q", got)
	}
}

func TestRepeatedOrderBeyondPoolSize(t *testing.T) {
	e, _ := newTestEngine(t, newMemStore())
	configure(t, e, "seasons", 0, 11, model.ModeNumToWord)
	e.StartNewGame()

	snap := e.Snapshot()
	if snap.CardTotal != 11 {
		t.Fatalf("expected 11 cards over a 4-word pool, got %d", snap.CardTotal)
	}
	ctx := context.Background()
	for i := 0; i < 11; i++ {
		e.Mark(true)
		e.ContinueNow(ctx)
	}
	if !e.Snapshot().Finished {
		t.Fatalf("expected finished after walking the repeated order")
	}
}

func TestSettingsPersistenceRoundTrip(t *testing.T) {
	store := newMemStore()
	e, _ := newTestEngine(t, store)
	configure(t, e, "animals", 1.5, 5, model.ModeWordToEmoji)
	e.StartNewGame()
	for i := 0; i < 5; i++ {
		e.Mark(i%2 == 0)
		e.ContinueNow(context.Background())
	}

	reloaded, _ := newTestEngine(t, store)
	snap := reloaded.Snapshot()
	if snap.Settings.Category != "animals" || snap.Settings.Count != 5 || snap.Settings.Mode != model.ModeWordToEmoji {
		t.Fatalf("settings did not round-trip: %+v", snap.Settings)
	}
	if snap.Settings.DelaySec != 1.5 {
		t.Fatalf("delay did not round-trip: %v", snap.Settings.DelaySec)
	}
	if snap.Statistics.TotalGames != 1 || snap.Statistics.TotalSeen != 5 {
		t.Fatalf("statistics did not round-trip: %+v", snap.Statistics)
	}
}

func TestCorruptPersistenceFallsBackToDefaults(t *testing.T) {
	store := newMemStore()
	store.kv[SettingsKey] = "{not json"
	store.kv[StatisticsKey] = "][junk"
	e, _ := newTestEngine(t, store)

	snap := e.Snapshot()
	if snap.Settings != model.DefaultSettings() {
		t.Fatalf("expected default settings, got %+v", snap.Settings)
	}
	if snap.Statistics.TotalGames != 0 || snap.Statistics.Categories == nil {
		t.Fatalf("expected zeroed statistics, got %+v", snap.Statistics)
	}
}

func TestStoreFailureIsSwallowed(t *testing.T) {
	store := newMemStore()
	store.setErr = fmt.Errorf("disk full")
	e, _ := newTestEngine(t, store)
	configure(t, e, "days", 0, 3, model.ModeNumToWord)
	e.StartNewGame()
	e.Mark(true)
	e.ContinueNow(context.Background())
	// No panic and the in-memory state keeps advancing.
	if e.Snapshot().Seen != 1 {
		t.Fatalf("engine state must survive store failures")
	}
}

func TestResetStatistics(t *testing.T) {
	store := newMemStore()
	e, _ := newTestEngine(t, store)
	configure(t, e, "days", 0, 2, model.ModeNumToWord)
	e.StartNewGame()
	ctx := context.Background()
	e.Mark(true)
	e.ContinueNow(ctx)
	e.Mark(true)
	e.ContinueNow(ctx)
	if e.Snapshot().Statistics.TotalGames != 1 {
		t.Fatalf("expected folded game before reset")
	}

	e.ResetStatistics(ctx)
	snap := e.Snapshot()
	if snap.Statistics.TotalGames != 0 || snap.Statistics.BestAccuracy != 0 {
		t.Fatalf("reset left statistics behind: %+v", snap.Statistics)
	}
	reloaded, _ := newTestEngine(t, store)
	if reloaded.Snapshot().Statistics.TotalGames != 0 {
		t.Fatalf("reset was not persisted")
	}
}

func TestBestAccuracyIsRunningMaximum(t *testing.T) {
	store := newMemStore()
	e, _ := newTestEngine(t, store)
	configure(t, e, "days", 0, 2, model.ModeNumToWord)
	ctx := context.Background()

	playGame := func(results []bool) {
		e.StartNewGame()
		for _, good := range results {
			e.Mark(good)
			e.ContinueNow(ctx)
		}
	}
	playGame([]bool{true, true})
	playGame([]bool{true, false})

	snap := e.Snapshot()
	if snap.Statistics.BestAccuracy != 100 {
		t.Fatalf("best accuracy should stay at 100, got %d", snap.Statistics.BestAccuracy)
	}
	if snap.Statistics.TotalGames != 2 || snap.Statistics.TotalCorrect != 3 {
		t.Fatalf("unexpected accumulation: %+v", snap.Statistics)
	}
}

func TestDismissResults(t *testing.T) {
	e, _ := newTestEngine(t, newMemStore())
	configure(t, e, "days", 0, 1, model.ModeNumToWord)
	e.StartNewGame()
	ctx := context.Background()
	e.Mark(true)
	e.ContinueNow(ctx)
	if !e.Snapshot().ShowingResults {
		t.Fatalf("results should show after finishing")
	}
	e.DismissResults()
	snap := e.Snapshot()
	if snap.ShowingResults {
		t.Fatalf("dismiss should clear the results flag")
	}
	if snap.Statistics.TotalGames != 1 {
		t.Fatalf("dismiss must not touch statistics")
	}
}
