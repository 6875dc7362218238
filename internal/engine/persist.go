package engine

import (
	"context"
	"encoding/json"

	"github.com/flipfox/flipfox/internal/model"
)

// Store keys for the persisted JSON records.
const (
	SettingsKey   = "settings"
	StatisticsKey = "statistics"
)

// Persistence is write-through and best-effort: failures are logged and
// swallowed so they never surface as user-visible errors.

func (e *Engine) loadSettings(ctx context.Context) model.Settings {
	defaults := model.DefaultSettings()
	raw, ok, err := e.store.Get(ctx, SettingsKey)
	if err != nil {
		logErrf("failed to load settings: %v\n", err)
		return defaults
	}
	if !ok {
		return defaults
	}
	settings := defaults
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		logErrf("failed to decode settings, using defaults: %v\n", err)
		return defaults
	}
	if !e.catalog.Has(settings.Category) {
		settings.Category = defaults.Category
	}
	settings.Count = clampInt(settings.Count, 1, maxCount)
	settings.DelaySec = clampFloat(settings.DelaySec, 0, maxDelaySec)
	if !e.catalog.SupportsMode(settings.Category, settings.Mode) {
		settings.Mode = e.catalog.ModesFor(settings.Category)[0]
	}
	return settings
}

func (e *Engine) loadStatistics(ctx context.Context) model.Statistics {
	raw, ok, err := e.store.Get(ctx, StatisticsKey)
	if err != nil {
		logErrf("failed to load statistics: %v\n", err)
		return model.NewStatistics()
	}
	if !ok {
		return model.NewStatistics()
	}
	stats := model.NewStatistics()
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		logErrf("failed to decode statistics, using defaults: %v\n", err)
		return model.NewStatistics()
	}
	if stats.Categories == nil {
		stats.Categories = map[string]model.CategoryStats{}
	}
	return stats
}

func (e *Engine) saveSettings(ctx context.Context) {
	raw, err := json.Marshal(e.settings)
	if err != nil {
		logErrf("failed to encode settings: %v\n", err)
		return
	}
	if err := e.store.Set(ctx, SettingsKey, string(raw)); err != nil {
		logErrf("failed to save settings: %v\n", err)
	}
}

func (e *Engine) saveStatistics(ctx context.Context) {
	raw, err := json.Marshal(e.stats)
	if err != nil {
		logErrf("failed to encode statistics: %v\n", err)
		return
	}
	if err := e.store.Set(ctx, StatisticsKey, string(raw)); err != nil {
		logErrf("failed to save statistics: %v\n", err)
	}
}
