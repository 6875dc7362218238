// Package main provides the CLI entrypoint for flipfox.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/flipfox/flipfox/internal/catalog"
	"github.com/flipfox/flipfox/internal/config"
	"github.com/flipfox/flipfox/internal/engine"
	"github.com/flipfox/flipfox/internal/model"
	"github.com/flipfox/flipfox/internal/stats"
	"github.com/flipfox/flipfox/internal/statsui"
	"github.com/flipfox/flipfox/internal/store"
	"github.com/flipfox/flipfox/internal/tui"
)

const (
	defaultCategory   = "days"
	defaultCount      = 7
	defaultDelay      = 2.0
	defaultHoldMs     = 1500
	defaultTickMs     = 50
	defaultStatsLast  = 20
	defaultCurveWidth = 40
)

var (
	playCategory string
	playMode     string
	playCount    int
	playDelay    float64
	playHoldMs   int
	playTickMs   int

	statsCategory string
	statsSince    string
	statsLast     int
	statsWindow   int
	statsReset    bool
	statsTUI      bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "flipfox",
		Short:         "TUI flashcard trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playCategory, "category", defaultCategory, "vocabulary category")
	rootCmd.Flags().StringVar(&playMode, "mode", "", "quiz mode (num-to-word, word-to-num, emoji-to-word, word-to-emoji)")
	rootCmd.Flags().IntVar(&playCount, "count", defaultCount, "cards per game")
	rootCmd.Flags().Float64Var(&playDelay, "delay", defaultDelay, "seconds before the answer reveals (0 = immediate)")
	rootCmd.Flags().IntVar(&playHoldMs, "hold-ms", defaultHoldMs, "grace window after grading, in milliseconds")
	rootCmd.Flags().IntVar(&playTickMs, "tick-ms", defaultTickMs, "timer tick resolution, in milliseconds")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCategoriesCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "category", &playCategory, fileCfg.Game.Category)
	applyStringConfig(cmd, "mode", &playMode, fileCfg.Game.Mode)
	applyIntConfig(cmd, "count", &playCount, fileCfg.Game.Count)
	applyFloatConfig(cmd, "delay", &playDelay, fileCfg.Game.Delay)
	applyIntConfig(cmd, "hold-ms", &playHoldMs, fileCfg.Game.HoldMs)
	applyIntConfig(cmd, "tick-ms", &playTickMs, fileCfg.Game.TickMs)

	if playHoldMs <= 0 {
		return fmt.Errorf("--hold-ms must be > 0")
	}
	if playTickMs <= 0 {
		return fmt.Errorf("--tick-ms must be > 0")
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	eng := engine.New(ctx, cat, st, engine.Options{
		Hold: time.Duration(playHoldMs) * time.Millisecond,
	})

	patch, err := buildPatch(cmd, cat, fileCfg)
	if err != nil {
		return err
	}
	eng.Configure(ctx, patch)
	eng.StartNewGame()

	ui := tui.NewModel(eng, time.Duration(playTickMs)*time.Millisecond)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// buildPatch carries only the values the user set explicitly (flag or
// config file); everything else keeps the persisted settings.
func buildPatch(cmd *cobra.Command, cat *catalog.Catalog, fileCfg config.FileConfig) (engine.Patch, error) {
	patch := engine.Patch{}
	if cmd.Flags().Changed("category") || fileCfg.Game.Category != nil {
		if !cat.Has(playCategory) {
			return patch, fmt.Errorf("unknown category %q (available: %s)", playCategory, strings.Join(cat.Keys(), ", "))
		}
		patch.Category = &playCategory
	}
	if cmd.Flags().Changed("mode") || fileCfg.Game.Mode != nil {
		if playMode != "" {
			mode, err := parseMode(playMode)
			if err != nil {
				return patch, err
			}
			patch.Mode = &mode
		}
	}
	if cmd.Flags().Changed("count") || fileCfg.Game.Count != nil {
		if playCount < 1 {
			return patch, fmt.Errorf("--count must be >= 1")
		}
		patch.Count = &playCount
	}
	if cmd.Flags().Changed("delay") || fileCfg.Game.Delay != nil {
		if playDelay < 0 {
			return patch, fmt.Errorf("--delay must be >= 0")
		}
		patch.DelaySec = &playDelay
	}
	return patch, nil
}

func parseMode(s string) (model.Mode, error) {
	switch model.Mode(s) {
	case model.ModeNumToWord, model.ModeWordToNum, model.ModeEmojiToWord, model.ModeWordToEmoji:
		return model.Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

func loadCatalog() (*catalog.Catalog, error) {
	cat := catalog.Builtin()
	if err := cat.LoadUserCategories(config.DefaultCategoriesPath()); err != nil {
		return nil, fmt.Errorf("failed to load user categories: %w", err)
	}
	return cat, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories and their quiz modes",
		Args:  cobra.NoArgs,
		RunE:  runCategoriesCmd,
	}
}

func runCategoriesCmd(cmd *cobra.Command, _ []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, key := range cat.Keys() {
		category, _ := cat.Get(key)
		modes := make([]string, 0, 4)
		for _, mode := range cat.ModesFor(key) {
			modes = append(modes, string(mode))
		}
		if _, err := fmt.Fprintf(out, "%s (%d words): %s\n", key, len(category.Words), strings.Join(modes, ", ")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show lifetime statistics",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsCategory, "category", "", "category filter for the history")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", defaultStatsLast, "limit to last N games")
	cmd.Flags().IntVar(&statsWindow, "window", 5, "moving average window for the trend")
	cmd.Flags().BoolVar(&statsReset, "reset", false, "reset all statistics and history")
	cmd.Flags().BoolVar(&statsTUI, "tui", false, "browse statistics interactively")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	eng := engine.New(ctx, cat, st, engine.Options{})
	out := cmd.OutOrStdout()

	if statsReset {
		eng.ResetStatistics(ctx)
		if err := st.DeleteGames(ctx); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		_, err := fmt.Fprintln(out, "Statistics reset.")
		return err
	}

	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	snapshot := eng.Snapshot()
	if statsTUI {
		ui := statsui.NewModel(st, snapshot.Statistics, statsui.Config{
			Filter: model.HistoryFilter{
				Category: statsCategory,
				Since:    sinceTime,
				Last:     statsLast,
			},
			Window: statsWindow,
		})
		program := tea.NewProgram(ui, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	if err := stats.RenderSummary(out, snapshot.Statistics); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	if err := stats.RenderCategoryTable(out, snapshot.Statistics); err != nil {
		return fmt.Errorf("failed to render categories: %w", err)
	}

	games, err := st.ListGames(ctx, model.HistoryFilter{
		Category: statsCategory,
		Since:    sinceTime,
		Last:     statsLast,
	})
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	width := stats.TerminalWidth() - 20
	if width < defaultCurveWidth {
		width = defaultCurveWidth
	}
	if err := stats.RenderHistory(out, games, statsWindow, width); err != nil {
		return fmt.Errorf("failed to render history: %w", err)
	}
	if err := stats.RenderAccuracyPlot(out, games, statsWindow, width, 0); err != nil {
		return fmt.Errorf("failed to render accuracy plot: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# flipfox configuration
# Uncomment a value to enable it. CLI flags override config values.

[game]
# category = %q        # Vocabulary category (see: flipfox categories)
# mode = "num-to-word" # Quiz mode; must be supported by the category
# count = %d           # Cards per game
# delay = %.1f         # Seconds before the answer reveals (0 = immediate)
# hold-ms = %d         # Grace window after grading, in milliseconds
# tick-ms = %d         # Timer tick resolution, in milliseconds
`,
		defaultCategory,
		defaultCount,
		defaultDelay,
		defaultHoldMs,
		defaultTickMs,
	)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
