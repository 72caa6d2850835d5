package chatlog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	errs "github.com/edgard/chatstats/internal/errors"
	"github.com/edgard/chatstats/internal/record"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		want   Message
		wantOK bool
	}{
		{
			name:   "android export",
			input:  "01/02/23, 14:05 - Alice: hi 💩",
			want:   Message{Date: "01/02/23", Time: "14:05", Sender: "Alice", Text: "hi 💩"},
			wantOK: true,
		},
		{
			name:   "ios export with seconds",
			input:  "[01/02/23, 14:05:33] Alice: hi 💩",
			want:   Message{Date: "01/02/23", Time: "14:05:33", Sender: "Alice", Text: "hi 💩"},
			wantOK: true,
		},
		{
			name:   "bracketed time first",
			input:  "[14:05] 01/02/23 - Alice: hi",
			want:   Message{Date: "01/02/23", Time: "14:05", Sender: "Alice", Text: "hi"},
			wantOK: true,
		},
		{
			name:   "ios export with bidi marks and narrow space",
			input:  "\u200e[1/2/23, 9:05:00\u202fPM] Bob: ok",
			want:   Message{Date: "1/2/23", Time: "9:05:00 PM", Sender: "Bob", Text: "ok"},
			wantOK: true,
		},
		{
			name:   "text keeps later separators",
			input:  "01/02/23, 14:05 - Alice: note: a - b, c",
			want:   Message{Date: "01/02/23", Time: "14:05", Sender: "Alice", Text: "note: a - b, c"},
			wantOK: true,
		},
		{name: "continuation line", input: "and then we left"},
		{name: "system notice without sender", input: "01/02/23, 14:05 - Alice created group \"Trip\""},
		{name: "missing time separator", input: "01/02/23, 14:05 Alice: hi"},
		{name: "unterminated bracket", input: "[01/02/23 14:05 Alice: hi"},
		{name: "bracketed time without date separator", input: "[14:05] 01/02/23 Alice: hi"},
		{name: "empty line", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := Split(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Split(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Split(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestExtractTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{input: "14:05", want: "14:05", wantOK: true},
		{input: "9:05", want: "09:05", wantOK: true},
		{input: "23:59:59", want: "23:59", wantOK: true},
		{input: "00:00", want: "00:00", wantOK: true},
		{input: "9:05 PM", want: "21:05", wantOK: true},
		{input: "12:30 am", want: "00:30", wantOK: true},
		{input: "12:30 p.m.", want: "12:30", wantOK: true},
		{input: "11:15:02 AM", want: "11:15", wantOK: true},
		{input: "at 7:45 today", want: "07:45", wantOK: true},
		{input: "noon"},
		{input: "14h05"},
		{input: "24:30"},
		{input: "25:10"},
		{input: "114:05"},
		{input: "12:345"},
		{input: "9:05PM", want: "21:05", wantOK: true},
		{input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, ok := extractTime(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("extractTime(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   Options
		input  string
		want   record.Record
		wantOK bool
	}{
		{
			name:   "marker present",
			opts:   Options{Marker: "💩"},
			input:  "01/02/23, 14:05 - Alice: hi 💩",
			want:   record.Record{Date: "01/02/23", Time: "14:05", Name: "Alice"},
			wantOK: true,
		},
		{
			name:  "marker absent",
			opts:  Options{Marker: "💩"},
			input: "01/02/23, 14:05 - Alice: hi",
		},
		{
			name:  "marker only in sender name",
			opts:  Options{Marker: "💩"},
			input: "01/02/23, 14:05 - Alice 💩: hi",
		},
		{
			name:  "case sensitive by default",
			opts:  Options{Marker: "LOL"},
			input: "01/02/23, 14:05 - Alice: lol",
		},
		{
			name:   "case insensitive",
			opts:   Options{Marker: "LOL", CaseInsensitive: true},
			input:  "01/02/23, 14:05 - Alice: lol",
			want:   record.Record{Date: "01/02/23", Time: "14:05", Name: "Alice"},
			wantOK: true,
		},
		{
			name:   "case insensitive folds beyond ascii",
			opts:   Options{Marker: "STRASSE", CaseInsensitive: true},
			input:  "01/02/23, 14:05 - Alice: die straße",
			want:   record.Record{Date: "01/02/23", Time: "14:05", Name: "Alice"},
			wantOK: true,
		},
		{
			name:   "ios time normalized",
			opts:   Options{Marker: "💩"},
			input:  "[1/2/23, 9:05:00 PM] Bob: 💩💩",
			want:   record.Record{Date: "1/2/23", Time: "21:05", Name: "Bob"},
			wantOK: true,
		},
		{
			name:   "unrecognized time kept verbatim",
			opts:   Options{Marker: "x"},
			input:  "01/02/23, noon - Alice: x",
			want:   record.Record{Date: "01/02/23", Time: "noon", Name: "Alice"},
			wantOK: true,
		},
		{
			name:   "out of range hour kept verbatim",
			opts:   Options{Marker: "x"},
			input:  "01/02/23, 24:30 - Alice: x",
			want:   record.Record{Date: "01/02/23", Time: "24:30", Name: "Alice"},
			wantOK: true,
		},
		{
			name:   "empty marker matches every message",
			opts:   Options{},
			input:  "01/02/23, 14:05 - Alice: hi",
			want:   record.Record{Date: "01/02/23", Time: "14:05", Name: "Alice"},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewParser(tt.opts, nil)
			got, ok := p.ParseLine(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseLine(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseLine(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

const sampleExport = `01/02/23, 14:05 - Alice: hi 💩
01/02/23, 14:06 - Bob: hello
and a continuation line 💩
01/02/23, 14:07 - Messages and calls are end-to-end encrypted.
[02/02/23, 09:15:10] Bob: 💩 again
03/02/23, 23:59 - Alice: late 💩
`

func TestFilter(t *testing.T) {
	t.Parallel()

	p := NewParser(Options{Marker: "💩"}, nil)

	var got []record.Record
	stats, err := p.Filter(context.Background(), strings.NewReader(sampleExport), func(r record.Record) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}

	want := []record.Record{
		{Date: "01/02/23", Time: "14:05", Name: "Alice"},
		{Date: "02/02/23", Time: "09:15", Name: "Bob"},
		{Date: "03/02/23", Time: "23:59", Name: "Alice"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Filter() records mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Stats{Lines: 6, Skipped: 2, Matched: 3}, stats); diff != "" {
		t.Errorf("Filter() stats mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterEmitError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	p := NewParser(Options{Marker: "💩"}, nil)
	calls := 0
	stats, err := p.Filter(context.Background(), strings.NewReader(sampleExport), func(record.Record) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Filter() error = %v, want %v", err, boom)
	}
	if calls != 1 || stats.Matched != 1 {
		t.Errorf("Filter() should stop at the first emit error, calls=%d matched=%d", calls, stats.Matched)
	}
}

func TestFilterCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := strings.Repeat("01/02/23, 14:05 - Alice: hi\n", ctxCheckEvery*2)
	p := NewParser(Options{Marker: "💩"}, nil)
	_, err := p.Filter(ctx, strings.NewReader(input), func(record.Record) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Filter() error = %v, want context.Canceled", err)
	}
}

func TestFilterLineTooLong(t *testing.T) {
	t.Parallel()

	input := "01/02/23, 14:05 - Alice: " + strings.Repeat("a", maxLineSize+1) + "\n"
	p := NewParser(Options{Marker: "💩"}, nil)
	_, err := p.Filter(context.Background(), strings.NewReader(input), func(record.Record) error { return nil })
	if errs.Code(err) != errs.CodeIO {
		t.Fatalf("Filter() error = %v, want an IO error", err)
	}
}
