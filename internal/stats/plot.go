package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/flipfox/flipfox/internal/model"
)

const (
	defaultPlotHeight = 8
	minPlotWidth      = 10
	axisLabelTop      = "100%"
	axisLabelMid      = "50%"
	axisLabelBottom   = "0%"
	axisSeparator     = " │ "
)

// RenderAccuracyPlot draws per-game accuracy as a braille line chart with a
// fixed 0-100 scale. When window > 1 a moving average is overlaid as a solid
// line and the raw series is dotted. Games must be ordered oldest first.
func RenderAccuracyPlot(w io.Writer, games []model.GameRecord, window, width, height int) error {
	if len(games) < 2 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	width = PlotWidthFor(width)

	raw := make([]float64, len(games))
	for i, g := range games {
		raw[i] = float64(g.Accuracy)
	}

	canvas := newPlotCanvas(width, height)
	if window > 1 {
		canvas.drawSeries(raw, dottedLine)
		canvas.drawSeries(MovingAverage(raw, window), solidLine)
	} else {
		canvas.drawSeries(raw, solidLine)
	}

	if _, err := fmt.Fprintf(w, "Accuracy over %d games:\n", len(games)); err != nil {
		return err
	}
	labels := axisLabels(height)
	for y := 0; y < height; y++ {
		line := fmt.Sprintf("%*s%s%s", utf8.RuneCountInString(axisLabelTop), labels[y], axisSeparator, canvas.row(y))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if window > 1 {
		if _, err := fmt.Fprintf(w, "Dotted: per game, solid: %d-game average.\n", window); err != nil {
			return err
		}
	}
	return nil
}

// PlotWidthFor trims the axis gutter off the total available width.
func PlotWidthFor(totalWidth int) int {
	plotWidth := totalWidth - utf8.RuneCountInString(axisLabelTop) - utf8.RuneCountInString(axisSeparator)
	if plotWidth < minPlotWidth {
		return minPlotWidth
	}
	return plotWidth
}

type dotStyle int

const (
	solidLine dotStyle = iota
	dottedLine
)

// plotCanvas is a braille dot grid: each terminal cell holds 2x4 dots.
type plotCanvas struct {
	cells  [][]uint8
	width  int
	height int
}

func newPlotCanvas(width, height int) *plotCanvas {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return &plotCanvas{cells: cells, width: width, height: height}
}

// drawSeries maps values in [0, 100] onto the dot grid, spreading the points
// across the full width and connecting consecutive points with line segments.
func (c *plotCanvas) drawSeries(values []float64, style dotStyle) {
	if len(values) == 0 {
		return
	}
	dotsX := c.width * 2
	dotsY := c.height * 4
	prevX, prevY := -1, -1
	for i, v := range values {
		x := 0
		if len(values) > 1 {
			x = i * (dotsX - 1) / (len(values) - 1)
		}
		y := valueToDotRow(v, dotsY)
		if prevX >= 0 {
			drawLine(prevX, prevY, x, y, func(dx, dy int) {
				if style == solidLine || dx%4 < 2 {
					c.setDot(dx, dy)
				}
			})
		} else {
			c.setDot(x, y)
		}
		prevX, prevY = x, y
	}
}

func (c *plotCanvas) setDot(x, y int) {
	cellX, cellY := x/2, y/4
	if cellX < 0 || cellX >= c.width || cellY < 0 || cellY >= c.height {
		return
	}
	c.cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

func (c *plotCanvas) row(y int) string {
	var b strings.Builder
	for x := 0; x < c.width; x++ {
		b.WriteRune(rune(0x2800 + int(c.cells[y][x])))
	}
	return b.String()
}

func valueToDotRow(v float64, dotsY int) int {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	row := int(math.Round((1 - v/100) * float64(dotsY-1)))
	if row < 0 {
		return 0
	}
	if row >= dotsY {
		return dotsY - 1
	}
	return row
}

func axisLabels(height int) []string {
	labels := make([]string, height)
	labels[0] = axisLabelTop
	if height > 2 {
		labels[height/2] = axisLabelMid
	}
	if height > 1 {
		labels[height-1] = axisLabelBottom
	}
	return labels
}

// drawLine is Bresenham's algorithm over the dot grid.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				return
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				return
			}
			err += dx
			y0 += sy
		}
	}
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}
