// Package app chains parsing, aggregation and rendering into the commands
// exposed by the chatstats binary.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/edgard/chatstats/internal/chart"
	"github.com/edgard/chatstats/internal/chatlog"
	"github.com/edgard/chatstats/internal/config"
	"github.com/edgard/chatstats/internal/database"
	errs "github.com/edgard/chatstats/internal/errors"
	"github.com/edgard/chatstats/internal/logger"
	"github.com/edgard/chatstats/internal/record"
	"github.com/edgard/chatstats/internal/stats"
)

// App holds the configuration and the optional archive shared by every
// command.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	store  database.Store // nil when no archive is configured
}

// New returns an App. store may be nil.
func New(cfg *config.Config, log *slog.Logger, store database.Store) *App {
	if log == nil {
		log = logger.Discard()
	}
	return &App{
		cfg:    cfg,
		logger: log.With("component", "app"),
		store:  store,
	}
}

// Parse filters the chat export read from in and writes the CSV to out.
// When source is not empty and an archive is configured, the records are
// also archived under source.
func (a *App) Parse(ctx context.Context, in io.Reader, out io.Writer, source string) (chatlog.Stats, error) {
	start := time.Now()
	parser := chatlog.NewParser(chatlog.Options{
		Marker:          a.cfg.Parse.Marker,
		CaseInsensitive: a.cfg.Parse.CaseInsensitive,
	}, a.logger)

	archive := a.store != nil && source != ""
	var kept []record.Record

	w := record.NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return chatlog.Stats{}, err
	}
	st, err := parser.Filter(ctx, in, func(r record.Record) error {
		if archive {
			kept = append(kept, r)
		}
		return w.Write(r)
	})
	if err != nil {
		return st, err
	}
	if err := w.Flush(); err != nil {
		return st, err
	}

	if archive {
		imp := &database.Import{
			Source:          source,
			Marker:          a.cfg.Parse.Marker,
			CaseInsensitive: a.cfg.Parse.CaseInsensitive,
			LinesRead:       st.Lines,
		}
		if err := a.store.SaveImport(ctx, imp, kept); err != nil {
			return st, err
		}
		a.logger.Info("Records archived", "source", source, "records", imp.RecordCount)
	}

	a.logger.Debug("Parse finished", "matched", st.Matched, "duration_ms", time.Since(start).Milliseconds())
	return st, nil
}

// Graph aggregates records and writes the charts, returning the written paths.
func (a *App) Graph(ctx context.Context, records []record.Record) ([]string, error) {
	agg := stats.New(a.cfg.Parse.DateLayouts)
	if err := agg.AddAll(records); err != nil {
		return nil, err
	}
	a.logger.Info("Records aggregated", "records", agg.Total(), "senders", len(agg.Senders()))

	renderer, err := chart.NewRenderer(chart.Options{
		Width:        a.cfg.Chart.Width,
		Height:       a.cfg.Chart.Height,
		BarSpacing:   a.cfg.Chart.BarSpacing,
		HourColor:    a.cfg.Chart.HourColor,
		WeekdayColor: a.cfg.Chart.WeekdayColor,
		HourTitle:    a.cfg.Chart.HourTitle,
		WeekdayTitle: a.cfg.Chart.WeekdayTitle,
	})
	if err != nil {
		return nil, err
	}

	plotter := chart.NewPlotter(renderer, chart.PlotOptions{
		OutputDir: a.cfg.Output.Dir,
		Workers:   a.cfg.Render.Workers,
		OneImage:  a.cfg.Composite.OneImage,
		Padding:   a.cfg.Composite.Padding,
	}, a.logger)
	return plotter.Plot(ctx, agg)
}

// GraphCSV reads records from a CSV stream and graphs them.
func (a *App) GraphCSV(ctx context.Context, r io.Reader) ([]string, error) {
	records, err := record.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return a.Graph(ctx, records)
}

// GraphSource graphs the records archived under source.
func (a *App) GraphSource(ctx context.Context, source string) ([]string, error) {
	if a.store == nil {
		return nil, errs.NewValidationError("no archive configured, set --db or database.path", nil)
	}
	imp, err := a.store.GetImport(ctx, source)
	if err != nil {
		return nil, err
	}
	if imp == nil {
		return nil, errs.NewValidationError(fmt.Sprintf("source %q is not archived", source), nil)
	}
	records, err := a.store.GetRecords(ctx, imp.ID)
	if err != nil {
		return nil, err
	}
	return a.Graph(ctx, records)
}

// Run parses the chat export at path into its sibling CSV file, then graphs
// that file. It returns the CSV path and the chart paths.
func (a *App) Run(ctx context.Context, path string) (string, []string, error) {
	csvPath := CSVPath(path)
	if err := a.parseFile(ctx, path, csvPath); err != nil {
		return "", nil, err
	}
	a.logger.Info("CSV written", "path", csvPath)

	f, err := os.Open(csvPath)
	if err != nil {
		return "", nil, errs.NewIOError("failed to reopen csv", err)
	}
	defer f.Close()

	charts, err := a.GraphCSV(ctx, bufio.NewReader(f))
	if err != nil {
		return "", nil, err
	}
	return csvPath, charts, nil
}

func (a *App) parseFile(ctx context.Context, path, csvPath string) (err error) {
	in, err := os.Open(path)
	if err != nil {
		return errs.NewIOError("failed to open chat log", err)
	}
	defer in.Close()

	out, err := os.Create(csvPath)
	if err != nil {
		return errs.NewIOError("failed to create csv", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = errs.NewIOError("failed to close csv", cerr)
		}
	}()

	bw := bufio.NewWriter(out)
	if _, err := a.Parse(ctx, in, bw, SourceName(path)); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return errs.NewIOError("failed to write csv", err)
	}
	return nil
}

// CSVPath returns the CSV path derived from a chat export path: a ".txt"
// extension is replaced, anything else gets ".csv" appended.
func CSVPath(path string) string {
	if ext := filepath.Ext(path); strings.EqualFold(ext, ".txt") {
		return strings.TrimSuffix(path, ext) + ".csv"
	}
	return path + ".csv"
}

// SourceName is the archive key of a chat export: its base name without
// extension.
func SourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
