// Package chart draws the per-sender hour and weekday bar charts and lays
// several of them out side by side.
package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	errs "github.com/edgard/chatstats/internal/errors"
	"github.com/edgard/chatstats/internal/stats"
)

// barAlpha is the fill opacity of every bar (50%).
const barAlpha = 128

// axisReserve is the horizontal room kept for the Y axis labels and the
// chart margins when sizing bars.
const axisReserve = 100

// Options controls the look of every chart.
type Options struct {
	Width        int
	Height       int
	BarSpacing   int
	HourColor    string // hex, with or without a leading '#'
	WeekdayColor string
	HourTitle    string // fmt pattern taking the sender name
	WeekdayTitle string
}

// Renderer turns counters into chart images.
type Renderer struct {
	opts         Options
	hourColor    drawing.Color
	weekdayColor drawing.Color
}

// NewRenderer validates opts and returns a Renderer.
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errs.NewValidationError(
			fmt.Sprintf("invalid chart size %dx%d", opts.Width, opts.Height), nil)
	}
	hour, err := parseColor(opts.HourColor)
	if err != nil {
		return nil, err
	}
	weekday, err := parseColor(opts.WeekdayColor)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		opts:         opts,
		hourColor:    hour.WithAlpha(barAlpha),
		weekdayColor: weekday.WithAlpha(barAlpha),
	}, nil
}

// Hours renders the hour-of-day chart of sender. The Y axis runs from 0 to
// yMax, or to the chart's own maximum when yMax is 0.
func (r *Renderer) Hours(sender string, counts stats.HourCounts, yMax int) (image.Image, error) {
	labels := make([]string, stats.HoursPerDay)
	for h := range labels {
		labels[h] = strconv.Itoa(h)
	}
	return r.bars(fmt.Sprintf(r.opts.HourTitle, sender), labels, counts[:], yMax, r.hourColor)
}

// Weekdays renders the day-of-week chart of sender, Monday first.
func (r *Renderer) Weekdays(sender string, counts stats.WeekdayCounts, yMax int) (image.Image, error) {
	return r.bars(fmt.Sprintf(r.opts.WeekdayTitle, sender), stats.WeekdayLabels[:], counts[:], yMax, r.weekdayColor)
}

func (r *Renderer) bars(title string, labels []string, counts []int, yMax int, fill drawing.Color) (image.Image, error) {
	if yMax <= 0 {
		for _, c := range counts {
			yMax = max(yMax, c)
		}
	}
	// go-chart rejects an empty range.
	yMax = max(yMax, 1)

	values := make([]gochart.Value, len(counts))
	for i, c := range counts {
		values[i] = gochart.Value{
			Label: labels[i],
			Value: float64(c),
			Style: gochart.Style{FillColor: fill, StrokeColor: fill, StrokeWidth: 1},
		}
	}

	n := len(counts)
	barWidth := max(1, (r.opts.Width-axisReserve)/n-r.opts.BarSpacing)

	bc := gochart.BarChart{
		Title:      title,
		Width:      r.opts.Width,
		Height:     r.opts.Height,
		BarWidth:   barWidth,
		BarSpacing: r.opts.BarSpacing,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 10, Right: 10, Bottom: 20}},
		YAxis: gochart.YAxis{
			Range:          &gochart.ContinuousRange{Min: 0, Max: float64(yMax)},
			ValueFormatter: gochart.IntValueFormatter,
		},
		Bars: values,
	}

	var buf bytes.Buffer
	if err := bc.Render(gochart.PNG, &buf); err != nil {
		return nil, errs.NewRenderError(fmt.Sprintf("failed to render %q", title), err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, errs.NewRenderError(fmt.Sprintf("failed to decode %q", title), err)
	}
	return img, nil
}

func parseColor(hex string) (drawing.Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 3 && len(h) != 6 {
		return drawing.Color{}, errs.NewValidationError(fmt.Sprintf("invalid color %q", hex), nil)
	}
	if _, err := strconv.ParseUint(h, 16, 32); err != nil {
		return drawing.Color{}, errs.NewValidationError(fmt.Sprintf("invalid color %q", hex), err)
	}
	return drawing.ColorFromHex(h), nil
}
