package chart

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	errs "github.com/edgard/chatstats/internal/errors"
	"github.com/edgard/chatstats/internal/logger"
	"github.com/edgard/chatstats/internal/stats"
)

const (
	hourSuffix    = "-by-hour.png"
	weekdaySuffix = "-by-weekday.png"
	compositeName = "all"
)

// PlotOptions controls where and how a Plotter writes its images.
type PlotOptions struct {
	OutputDir string
	Workers   int
	OneImage  bool // also write the side by side composites
	Padding   int  // composite padding in pixels
}

// Plotter writes the chart files of an aggregate.
type Plotter struct {
	renderer *Renderer
	opts     PlotOptions
	logger   *slog.Logger
}

// NewPlotter returns a Plotter drawing with renderer.
func NewPlotter(renderer *Renderer, opts PlotOptions, log *slog.Logger) *Plotter {
	if log == nil {
		log = logger.Discard()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Plotter{
		renderer: renderer,
		opts:     opts,
		logger:   log.With("component", "plotter"),
	}
}

type senderCharts struct {
	hour    image.Image
	weekday image.Image
}

// Plot renders two charts per sender, writes them to the output directory
// and, in one-image mode, writes the composites too. It returns the written
// paths: per-sender files in sender order, composites last.
func (p *Plotter) Plot(ctx context.Context, agg *stats.Aggregate) ([]string, error) {
	senders := agg.Senders()
	if len(senders) == 0 {
		p.logger.Warn("No records to plot")
		return nil, nil
	}

	if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
		return nil, errs.NewIOError("failed to create output directory", err)
	}

	var hourMax, weekdayMax int
	if p.opts.OneImage {
		hourMax, weekdayMax = agg.MaxHour(), agg.MaxWeekday()
	}

	charts := make([]senderCharts, len(senders))
	paths := make([]string, 2*len(senders))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for i, sender := range senders {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			hour, err := p.renderer.Hours(sender, agg.Hours(sender), hourMax)
			if err != nil {
				return err
			}
			weekday, err := p.renderer.Weekdays(sender, agg.Weekdays(sender), weekdayMax)
			if err != nil {
				return err
			}

			hourPath := filepath.Join(p.opts.OutputDir, FileName(sender, hourSuffix))
			if err := SavePNG(hourPath, hour); err != nil {
				return err
			}
			weekdayPath := filepath.Join(p.opts.OutputDir, FileName(sender, weekdaySuffix))
			if err := SavePNG(weekdayPath, weekday); err != nil {
				return err
			}

			charts[i] = senderCharts{hour: hour, weekday: weekday}
			paths[2*i], paths[2*i+1] = hourPath, weekdayPath
			p.logger.Debug("Charts written", "sender", sender, "hour", hourPath, "weekday", weekdayPath)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.logger.Error("Chart rendering failed", "error", err)
		return nil, err
	}

	if p.opts.OneImage {
		hourPanels := make([]Panel, len(senders))
		weekdayPanels := make([]Panel, len(senders))
		for i, sender := range senders {
			hourPanels[i] = Panel{Caption: sender, Image: charts[i].hour}
			weekdayPanels[i] = Panel{Caption: sender, Image: charts[i].weekday}
		}

		for _, c := range []struct {
			suffix string
			panels []Panel
		}{
			{hourSuffix, hourPanels},
			{weekdaySuffix, weekdayPanels},
		} {
			path := filepath.Join(p.opts.OutputDir, compositeName+c.suffix)
			if err := SavePNG(path, Composite(c.panels, p.opts.Padding)); err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}
	}

	p.logger.Info("Charts rendered", "senders", len(senders), "files", len(paths), "dir", p.opts.OutputDir)
	return paths, nil
}

// SavePNG encodes img as PNG into path, replacing any existing file.
func SavePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errs.NewIOError(fmt.Sprintf("failed to create %s", path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errs.NewIOError(fmt.Sprintf("failed to close %s", path), cerr)
		}
	}()

	if err := png.Encode(f, img); err != nil {
		return errs.NewIOError(fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}

var unsafeName = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_",
	`\`, "_", "|", "_", "?", "_", "*", "_", "\x00", "_",
)

// FileName builds the chart file name of sender, replacing characters that
// are not allowed in file names.
func FileName(sender, suffix string) string {
	name := unsafeName.Replace(strings.TrimSpace(sender))
	if name == "" || name == "." || name == ".." {
		name = "_"
	}
	return name + suffix
}
