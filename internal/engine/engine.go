// Package engine owns the flashcard session state machine.
package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/flipfox/flipfox/internal/catalog"
	"github.com/flipfox/flipfox/internal/model"
)

// Phase is the top-level session state. Paused is an orthogonal flag that
// suspends timer activity, not a phase of its own.
type Phase int

// Session phases.
const (
	PhaseIdle Phase = iota
	PhaseRevealing
	PhaseHolding
	PhaseFinished
)

// Defaults for the timing constants; both are overridable via Options.
const (
	DefaultHold = 1500 * time.Millisecond
	DefaultTick = 50 * time.Millisecond
)

// Clamping bounds for configuration input.
const (
	maxCount    = 500
	maxDelaySec = 60
)

// Store persists settings, statistics, and the game history.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	InsertGame(ctx context.Context, game model.GameRecord) (int64, error)
}

// PoolItem identifies one vocabulary entry eligible for the session.
type PoolItem struct {
	Category  string
	WordIndex int
}

// Choice records the most recent self-grade for one-step correction.
type Choice struct {
	PoolIndex  int
	WasCorrect bool
}

// Snapshot is the read-only view the UI renders from. Mutating a snapshot
// has no effect on the engine.
type Snapshot struct {
	Settings   model.Settings
	Statistics model.Statistics

	Phase          Phase
	Paused         bool
	Finished       bool
	Holding        bool
	ShowingAnswer  bool
	ShowingResults bool

	Prompt    string
	Answer    string
	RevealPct float64
	HoldPct   float64

	CardNumber int
	CardTotal  int
	Seen       int
	Correct    int
	Accuracy   int
	LastChoice *Choice
}

// Options tunes engine timing and randomness; zero values pick defaults.
type Options struct {
	Hold time.Duration
	Now  func() time.Time
	Rand *rand.Rand
}

// Engine runs one flashcard session at a time and folds finished sessions
// into lifetime statistics. It is single-threaded: callers must serialize
// commands on one event loop.
type Engine struct {
	catalog *catalog.Catalog
	store   Store
	now     func() time.Time
	rnd     *rand.Rand
	hold    time.Duration

	settings model.Settings
	stats    model.Statistics

	pool         []PoolItem
	order        []int
	currentIndex int
	seen         int
	correct      int
	accuracy     int

	prompt         string
	answer         string
	revealPct      float64
	holdPct        float64
	showingAnswer  bool
	showingResults bool
	lastChoice     *Choice

	phase  Phase
	paused bool
	folded bool

	startedAt   time.Time
	revealStart time.Time // zero while the reveal timer is disarmed
	holdStart   time.Time
}

// New constructs an engine, loading persisted settings and statistics from
// the store (missing or corrupt values fall back to defaults).
func New(ctx context.Context, cat *catalog.Catalog, store Store, opts Options) *Engine {
	e := &Engine{
		catalog: cat,
		store:   store,
		now:     opts.Now,
		rnd:     opts.Rand,
		hold:    opts.Hold,
		stats:   model.NewStatistics(),
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.rnd == nil {
		e.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.hold <= 0 {
		e.hold = DefaultHold
	}
	e.settings = e.loadSettings(ctx)
	e.stats = e.loadStatistics(ctx)
	return e
}

// Patch carries partial settings for Configure; nil fields are unchanged.
type Patch struct {
	Category *string
	DelaySec *float64
	Count    *int
	Mode     *model.Mode
}

// Configure merges the patch into the current settings, clamps numeric
// values, re-derives the mode when the category no longer supports it, and
// persists the result. It does not start a new game.
func (e *Engine) Configure(ctx context.Context, p Patch) {
	merged := e.settings
	if p.Category != nil && e.catalog.Has(*p.Category) {
		merged.Category = *p.Category
	}
	if p.DelaySec != nil {
		merged.DelaySec = clampFloat(*p.DelaySec, 0, maxDelaySec)
	}
	if p.Count != nil {
		merged.Count = clampInt(*p.Count, 1, maxCount)
	}
	if p.Mode != nil {
		merged.Mode = *p.Mode
	}
	if !e.catalog.SupportsMode(merged.Category, merged.Mode) {
		merged.Mode = e.catalog.ModesFor(merged.Category)[0]
	}
	e.settings = merged
	e.saveSettings(ctx)
}

// StartNewGame rebuilds the pool and presentation order from the current
// settings and resets all session state. Any in-flight timers are dropped.
func (e *Engine) StartNewGame() {
	e.pool = e.buildPool()
	e.order = buildOrder(e.rnd, len(e.pool), e.settings.Count)
	e.currentIndex = 0
	e.seen = 0
	e.correct = 0
	e.accuracy = 0
	e.lastChoice = nil
	e.paused = false
	e.folded = false
	e.showingResults = false
	e.phase = PhaseRevealing
	e.revealStart = time.Time{}
	e.holdStart = time.Time{}
	e.holdPct = 0
	e.startedAt = e.now()
	e.projectCard()
	e.showingAnswer = e.settings.DelaySec == 0
	e.revealPct = 0
}

// StartTimer arms the reveal countdown for the current card. It is a no-op
// when the delay is zero, or while paused, holding, or finished. Calling it
// with a timer already armed restarts the countdown.
func (e *Engine) StartTimer() {
	if e.settings.DelaySec <= 0 || e.paused || e.phase == PhaseHolding || e.phase == PhaseFinished {
		return
	}
	e.revealStart = e.now()
	e.revealPct = 0
}

// StopTimer disarms the reveal countdown; safe when none is armed.
func (e *Engine) StopTimer() {
	e.revealStart = time.Time{}
}

// TogglePause flips the paused flag. Pausing disarms the reveal timer;
// resuming while holding restarts the hold window from zero, while the UI
// re-invokes StartTimer for the reveal phase.
func (e *Engine) TogglePause() {
	if e.phase == PhaseFinished {
		return
	}
	e.paused = !e.paused
	if e.paused {
		e.StopTimer()
		return
	}
	if e.phase == PhaseHolding {
		e.holdStart = e.now()
		e.holdPct = 0
	}
}

// Mark self-grades the current card and enters the hold phase. The reveal
// timer is disarmed first so a stale tick can never touch the next card.
func (e *Engine) Mark(wasCorrect bool) {
	if e.phase != PhaseRevealing || e.paused || len(e.order) == 0 {
		return
	}
	e.StopTimer()
	e.showingAnswer = true
	e.seen++
	if wasCorrect {
		e.correct++
	}
	e.recomputeAccuracy()
	e.lastChoice = &Choice{PoolIndex: e.order[e.currentIndex], WasCorrect: wasCorrect}
	e.phase = PhaseHolding
	e.holdStart = e.now()
	e.holdPct = 0
}

// ContinueNow exits the hold phase early, with the same end state as
// letting the hold window expire.
func (e *Engine) ContinueNow(ctx context.Context) {
	if e.phase != PhaseHolding || e.paused {
		return
	}
	e.holdStart = time.Time{}
	e.advance(ctx)
	e.StartTimer()
}

// ChangeLastToWrong flips the most recent correct grade to incorrect.
// It is a narrow one-step undo: a second call, or a call after a wrong
// grade, has no effect.
func (e *Engine) ChangeLastToWrong() {
	if e.phase == PhaseFinished || e.lastChoice == nil || !e.lastChoice.WasCorrect {
		return
	}
	if e.correct > 0 {
		e.correct--
	}
	e.recomputeAccuracy()
	e.lastChoice.WasCorrect = false
}

// EndGame terminates the session immediately without completing the
// remaining cards. Partial progress still folds into statistics.
func (e *Engine) EndGame(ctx context.Context) {
	if e.phase == PhaseFinished {
		return
	}
	e.StopTimer()
	e.holdStart = time.Time{}
	e.finish(ctx)
}

// ResetStatistics zeroes the lifetime statistics and persists them. The
// in-progress session is unaffected.
func (e *Engine) ResetStatistics(ctx context.Context) {
	e.stats = model.NewStatistics()
	e.saveStatistics(ctx)
}

// DismissResults clears the results flag after the UI has shown them.
func (e *Engine) DismissResults() {
	e.showingResults = false
}

// Tick advances whichever phase timer is armed. Only one timer can be
// outstanding at a time: the reveal timer exists only in PhaseRevealing and
// the hold timer only in PhaseHolding.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	if e.paused {
		return
	}
	switch e.phase {
	case PhaseRevealing:
		if e.revealStart.IsZero() {
			return
		}
		total := time.Duration(e.settings.DelaySec * float64(time.Second))
		elapsed := now.Sub(e.revealStart)
		if elapsed >= total {
			e.revealPct = 100
			e.showingAnswer = true
			e.StopTimer()
			return
		}
		e.revealPct = float64(elapsed) / float64(total) * 100
	case PhaseHolding:
		if e.holdStart.IsZero() {
			return
		}
		elapsed := now.Sub(e.holdStart)
		if elapsed >= e.hold {
			e.holdStart = time.Time{}
			e.advance(ctx)
			e.StartTimer()
			return
		}
		e.holdPct = math.Min(100, float64(elapsed)/float64(e.hold)*100)
	}
}

// TimerActive reports whether the caller should keep scheduling ticks.
func (e *Engine) TimerActive() bool {
	if e.paused {
		return false
	}
	switch e.phase {
	case PhaseRevealing:
		return !e.revealStart.IsZero()
	case PhaseHolding:
		return !e.holdStart.IsZero()
	}
	return false
}

// Snapshot returns a copy of the current state for rendering.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Settings:       e.settings,
		Statistics:     copyStatistics(e.stats),
		Phase:          e.phase,
		Paused:         e.paused,
		Finished:       e.phase == PhaseFinished,
		Holding:        e.phase == PhaseHolding,
		ShowingAnswer:  e.showingAnswer,
		ShowingResults: e.showingResults,
		Prompt:         e.prompt,
		Answer:         e.answer,
		RevealPct:      e.revealPct,
		HoldPct:        e.holdPct,
		CardNumber:     e.currentIndex + 1,
		CardTotal:      len(e.order),
		Seen:           e.seen,
		Correct:        e.correct,
		Accuracy:       e.accuracy,
	}
	if e.lastChoice != nil {
		choice := *e.lastChoice
		s.LastChoice = &choice
	}
	return s
}

func (e *Engine) advance(ctx context.Context) {
	if e.currentIndex >= len(e.order)-1 {
		e.finish(ctx)
		return
	}
	e.currentIndex++
	e.projectCard()
	e.showingAnswer = e.settings.DelaySec == 0
	e.revealPct = 0
	e.holdPct = 0
	e.phase = PhaseRevealing
}

func (e *Engine) finish(ctx context.Context) {
	e.phase = PhaseFinished
	e.paused = false
	e.showingAnswer = true
	e.showingResults = true
	e.revealPct = 100
	if e.folded || e.seen == 0 {
		return
	}
	e.folded = true
	e.foldStatistics()
	e.saveStatistics(ctx)
	e.recordGame(ctx)
}

func (e *Engine) foldStatistics() {
	e.stats.TotalGames++
	e.stats.TotalCorrect += e.correct
	e.stats.TotalSeen += e.seen
	if e.accuracy > e.stats.BestAccuracy {
		e.stats.BestAccuracy = e.accuracy
	}
	if e.stats.Categories == nil {
		e.stats.Categories = map[string]model.CategoryStats{}
	}
	bucket := e.stats.Categories[e.settings.Category]
	bucket.Games++
	bucket.Correct += e.correct
	bucket.Seen += e.seen
	e.stats.Categories[e.settings.Category] = bucket
}

func (e *Engine) recordGame(ctx context.Context) {
	endedAt := e.now()
	game := model.GameRecord{
		PlayedAt:   endedAt,
		Category:   e.settings.Category,
		Mode:       e.settings.Mode,
		Count:      len(e.order),
		Seen:       e.seen,
		Correct:    e.correct,
		Accuracy:   e.accuracy,
		DurationMs: endedAt.Sub(e.startedAt).Milliseconds(),
	}
	if _, err := e.store.InsertGame(ctx, game); err != nil {
		logErrf("failed to record game: %v\n", err)
	}
}

func (e *Engine) recomputeAccuracy() {
	if e.seen == 0 {
		e.accuracy = 0
		return
	}
	e.accuracy = int(math.Round(float64(e.correct) / float64(e.seen) * 100))
}

func (e *Engine) buildPool() []PoolItem {
	cat, ok := e.catalog.Get(e.settings.Category)
	if !ok {
		return nil
	}
	pool := make([]PoolItem, len(cat.Words))
	for i := range cat.Words {
		pool[i] = PoolItem{Category: e.settings.Category, WordIndex: i}
	}
	return pool
}

// buildOrder shuffles the full pool once and takes a prefix; counts beyond
// the pool size concatenate independent shuffles and truncate.
func buildOrder(rnd *rand.Rand, poolSize, count int) []int {
	if poolSize == 0 || count <= 0 {
		return nil
	}
	order := make([]int, 0, count)
	for len(order) < count {
		perm := rnd.Perm(poolSize)
		order = append(order, perm...)
	}
	return order[:count]
}

// projectCard computes the prompt/answer pair for the current card from the
// active mode. An empty order degrades to a placeholder card.
func (e *Engine) projectCard() {
	if len(e.order) == 0 || e.currentIndex >= len(e.order) {
		e.prompt = "—"
		e.answer = ""
		return
	}
	item := e.pool[e.order[e.currentIndex]]
	cat, ok := e.catalog.Get(item.Category)
	if !ok {
		e.prompt = "—"
		e.answer = ""
		return
	}
	word := cat.Words[item.WordIndex]
	emoji := ""
	if item.WordIndex < len(cat.Emojis) {
		emoji = cat.Emojis[item.WordIndex]
	}
	num := strconv.Itoa(item.WordIndex + 1)

	switch e.settings.Mode {
	case model.ModeWordToNum:
		e.prompt, e.answer = word, num
	case model.ModeEmojiToWord:
		e.prompt, e.answer = emojiOrDash(emoji), word
	case model.ModeWordToEmoji:
		e.prompt, e.answer = word, emojiOrDash(emoji)
	default:
		e.prompt, e.answer = num, word
	}
}

func emojiOrDash(emoji string) string {
	if emoji == "" {
		return "—"
	}
	return emoji
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func copyStatistics(stats model.Statistics) model.Statistics {
	out := stats
	out.Categories = make(map[string]model.CategoryStats, len(stats.Categories))
	for k, v := range stats.Categories {
		out.Categories[k] = v
	}
	return out
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
