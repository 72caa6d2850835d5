// Package chatlog parses exported chat logs and filters the messages that
// contain a marker.
//
// Two line shapes are understood:
//
//	01/02/23, 14:05 - Alice: hi 💩
//	[01/02/23, 14:05:33] Alice: hi 💩
//
// plus the bracketed variant with the time first, "[14:05] 01/02/23 - Alice: hi".
// Lines missing one of the delimiters (message continuations, system notices)
// are skipped.
package chatlog

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	errs "github.com/edgard/chatstats/internal/errors"
	"github.com/edgard/chatstats/internal/logger"
	"github.com/edgard/chatstats/internal/record"
)

const (
	dateSep   = ", "
	timeSep   = " - "
	senderSep = ": "

	maxLineSize   = 1 << 20
	ctxCheckEvery = 1024
)

// Message is one structurally valid chat line.
type Message struct {
	Date   string
	Time   string // the raw timestamp field
	Sender string
	Text   string
}

// Options configures a Parser.
type Options struct {
	// Marker is the substring searched in message text. Empty matches everything.
	Marker          string
	CaseInsensitive bool
}

// Stats summarizes one Filter pass.
type Stats struct {
	Lines   int // lines read
	Skipped int // lines without the date, time or sender delimiter
	Matched int // records emitted
}

// Parser splits chat lines and matches them against the marker.
// A Parser is not safe for concurrent use.
type Parser struct {
	marker string
	fold   bool
	caser  cases.Caser
	logger *slog.Logger
}

// NewParser returns a Parser for opts.
func NewParser(opts Options, log *slog.Logger) *Parser {
	if log == nil {
		log = logger.Discard()
	}
	p := &Parser{
		marker: opts.Marker,
		fold:   opts.CaseInsensitive,
		logger: log.With("component", "chatlog"),
	}
	if p.fold {
		p.caser = cases.Fold()
		p.marker = p.caser.String(p.marker)
	}
	return p
}

// Split breaks line into its date, time, sender and text parts.
// ok is false when a delimiter is missing.
func Split(line string) (Message, bool) {
	line = sanitizeLine(line)

	if strings.HasPrefix(line, "[") {
		inner, rest, found := strings.Cut(line[1:], "]")
		switch {
		case !found:
			line = line[1:]
		case strings.Contains(inner, dateSep):
			line = inner + " -" + rest
		default:
			date, tail, found := strings.Cut(strings.TrimSpace(rest), timeSep)
			if !found {
				return Message{}, false
			}
			line = date + dateSep + inner + timeSep + tail
		}
	}

	date, rest, found := strings.Cut(line, dateSep)
	if !found {
		return Message{}, false
	}
	ts, rest, found := strings.Cut(rest, timeSep)
	if !found {
		return Message{}, false
	}
	sender, text, found := strings.Cut(rest, senderSep)
	if !found {
		return Message{}, false
	}

	return Message{Date: date, Time: ts, Sender: sender, Text: text}, true
}

// Match reports whether text contains the marker.
func (p *Parser) Match(text string) bool {
	if p.fold {
		text = p.caser.String(text)
	}
	return strings.Contains(text, p.marker)
}

// ParseLine returns the record for line if it is well formed and its text
// contains the marker.
func (p *Parser) ParseLine(line string) (record.Record, bool) {
	msg, ok := Split(line)
	if !ok || !p.Match(msg.Text) {
		return record.Record{}, false
	}
	return toRecord(msg), true
}

func toRecord(msg Message) record.Record {
	t, ok := extractTime(msg.Time)
	if !ok {
		t = msg.Time
	}
	return record.Record{Date: msg.Date, Time: t, Name: msg.Sender}
}

// Filter reads r line by line and calls emit for every matching message.
// It stops at the first error returned by emit, by the reader, or by ctx.
func (p *Parser) Filter(ctx context.Context, r io.Reader, emit func(record.Record) error) (Stats, error) {
	var stats Stats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		stats.Lines++
		if stats.Lines%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		line := scanner.Text()
		msg, ok := Split(line)
		if !ok {
			stats.Skipped++
			p.logger.Debug("Skipping malformed line", "line", stats.Lines, "preview", logger.Preview(line, 60))
			continue
		}
		if !p.Match(msg.Text) {
			continue
		}

		stats.Matched++
		if err := emit(toRecord(msg)); err != nil {
			return stats, err
		}
	}

	if err := scanner.Err(); err != nil {
		return stats, errs.NewIOError("failed to read chat log",
			&errs.LineError{Line: stats.Lines + 1, Err: err})
	}

	p.logger.Info("Chat log filtered",
		"lines", stats.Lines, "skipped", stats.Skipped, "matched", stats.Matched)
	return stats, nil
}
