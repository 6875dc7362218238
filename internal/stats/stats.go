// Package stats renders lifetime statistics and game history reports.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/flipfox/flipfox/internal/model"
)

const sparkChars = " .:-=+*#%@"

const terminalWidthBackup = 80

// Accuracy computes the rounded percentage for a correct/seen pair.
func Accuracy(correct, seen int) int {
	if seen == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(seen) * 100))
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the lifetime totals.
func RenderSummary(w io.Writer, stats model.Statistics) error {
	if stats.TotalGames == 0 {
		_, err := fmt.Fprintln(w, "No games played yet.")
		return err
	}
	lifetime := Accuracy(stats.TotalCorrect, stats.TotalSeen)
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Games: %d\n", stats.TotalGames); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Cards seen: %d\n", stats.TotalSeen); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Correct: %d\n", stats.TotalCorrect); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Lifetime accuracy: %d%%\n", lifetime); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best accuracy: %d%%\n", stats.BestAccuracy); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCategoryTable prints per-category totals sorted by games played.
func RenderCategoryTable(w io.Writer, stats model.Statistics) error {
	if len(stats.Categories) == 0 {
		return nil
	}
	type row struct {
		key    string
		bucket model.CategoryStats
	}
	rows := make([]row, 0, len(stats.Categories))
	for key, bucket := range stats.Categories {
		rows = append(rows, row{key: key, bucket: bucket})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].bucket.Games == rows[j].bucket.Games {
			return rows[i].key < rows[j].key
		}
		return rows[i].bucket.Games > rows[j].bucket.Games
	})

	if _, err := fmt.Fprintln(w, "Per-Category"); err != nil {
		return err
	}
	headers := []string{"Category", "Games", "Seen", "Correct", "Accuracy"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.key,
			fmt.Sprintf("%d", r.bucket.Games),
			fmt.Sprintf("%d", r.bucket.Seen),
			fmt.Sprintf("%d", r.bucket.Correct),
			fmt.Sprintf("%d%%", Accuracy(r.bucket.Correct, r.bucket.Seen)),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderHistory prints the recent game table and an accuracy trend
// sparkline smoothed over the given window.
func RenderHistory(w io.Writer, games []model.GameRecord, window, width int) error {
	if len(games) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Recent Games"); err != nil {
		return err
	}
	headers := []string{"Played", "Category", "Mode", "Cards", "Correct", "Accuracy"}
	tableRows := make([][]string, 0, len(games))
	for _, game := range games {
		tableRows = append(tableRows, []string{
			game.PlayedAt.Format("2006-01-02 15:04"),
			game.Category,
			string(game.Mode),
			fmt.Sprintf("%d", game.Seen),
			fmt.Sprintf("%d", game.Correct),
			fmt.Sprintf("%d%%", game.Accuracy),
		})
	}
	rightAlign := map[int]bool{3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	series := make([]float64, len(games))
	for i, game := range games {
		series[i] = float64(game.Accuracy)
	}
	series = MovingAverage(series, window)
	if width > 0 && len(series) > width {
		series = series[len(series)-width:]
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Accuracy trend: %s\n", Sparkline(series)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// TerminalWidth returns the stdout width, or a backup when stdout is not a
// terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
