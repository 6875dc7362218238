package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/flipfox/flipfox/internal/model"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		correct, seen, want int
	}{
		{0, 0, 0},
		{7, 7, 100},
		{1, 3, 33},
		{2, 3, 67},
		{0, 5, 0},
	}
	for _, tc := range tests {
		if got := Accuracy(tc.correct, tc.seen); got != tc.want {
			t.Fatalf("Accuracy(%d, %d) = %d, want %d", tc.correct, tc.seen, got, tc.want)
		}
	}
}

func TestMovingAverage(t *testing.T) {
	values := []float64{100, 0, 100, 0}
	out := MovingAverage(values, 2)
	want := []float64{100, 50, 50, 50}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("window 2: got %v, want %v", out, want)
		}
	}

	same := MovingAverage(values, 1)
	for i := range values {
		if same[i] != values[i] {
			t.Fatalf("window 1 should copy input, got %v", same)
		}
	}
}

func TestSparklineFlatSeries(t *testing.T) {
	out := Sparkline([]float64{50, 50, 50})
	if len(out) != 3 {
		t.Fatalf("expected 3 chars, got %q", out)
	}
	if out[0] != out[1] || out[1] != out[2] {
		t.Fatalf("flat series should render uniformly: %q", out)
	}
}

func TestSparklineRange(t *testing.T) {
	out := Sparkline([]float64{0, 100})
	if len(out) != 2 {
		t.Fatalf("expected 2 chars, got %q", out)
	}
	if out[0] != sparkChars[0] || out[1] != sparkChars[len(sparkChars)-1] {
		t.Fatalf("expected extremes of the ramp, got %q", out)
	}
}

func TestRenderSummary(t *testing.T) {
	stats := model.Statistics{
		TotalGames:   3,
		TotalCorrect: 15,
		TotalSeen:    20,
		BestAccuracy: 100,
	}
	var buf bytes.Buffer
	if err := RenderSummary(&buf, stats); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Games: 3", "Cards seen: 20", "Lifetime accuracy: 75%", "Best accuracy: 100%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, model.NewStatistics()); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if !strings.Contains(buf.String(), "No games played yet.") {
		t.Fatalf("expected empty-state message, got %q", buf.String())
	}
}

func TestRenderCategoryTable(t *testing.T) {
	stats := model.Statistics{
		Categories: map[string]model.CategoryStats{
			"days":    {Games: 2, Correct: 10, Seen: 14},
			"animals": {Games: 5, Correct: 40, Seen: 50},
		},
	}
	var buf bytes.Buffer
	if err := RenderCategoryTable(&buf, stats); err != nil {
		t.Fatalf("render table: %v", err)
	}
	out := buf.String()
	animalsAt := strings.Index(out, "animals")
	daysAt := strings.Index(out, "days")
	if animalsAt < 0 || daysAt < 0 {
		t.Fatalf("missing categories:\n%s", out)
	}
	if animalsAt > daysAt {
		t.Fatalf("expected animals (more games) before days:\n%s", out)
	}
	if !strings.Contains(out, "80%") {
		t.Fatalf("expected animals accuracy 80%%:\n%s", out)
	}
}

func TestRenderHistory(t *testing.T) {
	games := []model.GameRecord{
		{PlayedAt: time.Unix(0, 0).UTC(), Category: "days", Mode: model.ModeNumToWord, Seen: 7, Correct: 5, Accuracy: 71},
		{PlayedAt: time.Unix(3600, 0).UTC(), Category: "days", Mode: model.ModeNumToWord, Seen: 7, Correct: 7, Accuracy: 100},
	}
	var buf bytes.Buffer
	if err := RenderHistory(&buf, games, 1, 40); err != nil {
		t.Fatalf("render history: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Recent Games", "71%", "100%", "Accuracy trend:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("history missing %q:\n%s", want, out)
		}
	}
}
