// Package model defines shared data structures.
package model

import "time"

// Mode is the prompt-to-answer projection direction for a card.
type Mode string

// Quiz modes.
const (
	ModeNumToWord   Mode = "num-to-word"
	ModeWordToNum   Mode = "word-to-num"
	ModeEmojiToWord Mode = "emoji-to-word"
	ModeWordToEmoji Mode = "word-to-emoji"
)

// Label returns a human-readable label for the mode.
func (m Mode) Label() string {
	switch m {
	case ModeNumToWord:
		return "Number → Word"
	case ModeWordToNum:
		return "Word → Number"
	case ModeEmojiToWord:
		return "Emoji → Word"
	case ModeWordToEmoji:
		return "Word → Emoji"
	}
	return string(m)
}

// Settings holds the persisted practice configuration.
type Settings struct {
	Category string  `json:"category"`
	DelaySec float64 `json:"delaySec"`
	Count    int     `json:"count"`
	Mode     Mode    `json:"mode"`
}

// DefaultSettings returns the configuration used when nothing is persisted.
func DefaultSettings() Settings {
	return Settings{
		Category: "days",
		DelaySec: 2,
		Count:    7,
		Mode:     ModeNumToWord,
	}
}

// CategoryStats accumulates per-category lifetime counters.
type CategoryStats struct {
	Games   int `json:"games"`
	Correct int `json:"correct"`
	Seen    int `json:"seen"`
}

// Statistics holds lifetime counters persisted across runs.
type Statistics struct {
	TotalGames   int                      `json:"totalGames"`
	TotalCorrect int                      `json:"totalCorrect"`
	TotalSeen    int                      `json:"totalSeen"`
	BestAccuracy int                      `json:"bestAccuracy"`
	Categories   map[string]CategoryStats `json:"categoryStats"`
}

// NewStatistics returns zeroed statistics with an initialized category map.
func NewStatistics() Statistics {
	return Statistics{Categories: map[string]CategoryStats{}}
}

// GameRecord captures one finished game for the history table.
type GameRecord struct {
	ID         int64
	PlayedAt   time.Time
	Category   string
	Mode       Mode
	Count      int
	Seen       int
	Correct    int
	Accuracy   int
	DurationMs int64
}

// HistoryFilter narrows the games returned by the store.
type HistoryFilter struct {
	Category string
	Since    *time.Time
	Last     int
}
