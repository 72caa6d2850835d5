package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	errs "github.com/edgard/chatstats/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chatstats.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
parse:
  marker: "❤️"
  case_insensitive: true
  date_layouts: ["1/2/06"]
chart:
  width: 800
  hour_color: "#00ff00"
composite:
  one_image: true
  padding: 20
`)

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	want.Log = LogConfig{Level: "debug", Format: "json"}
	want.Parse = ParseConfig{Marker: "❤️", CaseInsensitive: true, DateLayouts: []string{"1/2/06"}}
	want.Chart.Width = 800
	want.Chart.HourColor = "#00ff00"
	want.Composite = CompositeConfig{OneImage: true, Padding: 20}

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHATSTATS_OUTPUT_DIR", "from-env")
	t.Setenv("CHATSTATS_RENDER_WORKERS", "2")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output-dir", "", "")
	flags.Bool("one-image", false, "")
	flags.Int("workers", 0, "")
	if err := flags.Parse([]string{"--one-image", "--workers=8"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Output.Dir != "from-env" {
		t.Errorf("Output.Dir = %q, want value from environment", cfg.Output.Dir)
	}
	if !cfg.Composite.OneImage {
		t.Error("Composite.OneImage = false, want true from flag")
	}
	if cfg.Render.Workers != 8 {
		t.Errorf("Render.Workers = %d, want 8 (flag beats environment)", cfg.Render.Workers)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown log level", body: "log:\n  level: trace\n"},
		{name: "tiny chart", body: "chart:\n  width: 10\n"},
		{name: "bad color", body: "chart:\n  weekday_color: blue\n"},
		{name: "color with alpha", body: "chart:\n  hour_color: \"#ff000080\"\n"},
		{name: "four digit color", body: "chart:\n  weekday_color: \"#f008\"\n"},
		{name: "title without sender", body: "chart:\n  hour_title: Hours\n"},
		{name: "title with two senders", body: "chart:\n  weekday_title: \"%s and %s\"\n"},
		{name: "title with number verb", body: "chart:\n  hour_title: \"%d by %s\"\n"},
		{name: "title with trailing percent", body: "chart:\n  hour_title: \"%s 100%\"\n"},
		{name: "no date layouts", body: "parse:\n  date_layouts: []\n"},
		{name: "zero workers", body: "render:\n  workers: 0\n"},
		{name: "malformed yaml", body: "log: [unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), nil)
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if code := errs.Code(err); code != errs.CodeConfig {
				t.Errorf("Code() = %q, want %q", code, errs.CodeConfig)
			}
		})
	}
}

func TestLoadShortColors(t *testing.T) {
	cfg, err := Load(writeConfig(t, "chart:\n  hour_color: \"#0f0\"\n  weekday_color: 00f\n"), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Chart.HourColor != "#0f0" || cfg.Chart.WeekdayColor != "00f" {
		t.Errorf("Chart colors = %q, %q", cfg.Chart.HourColor, cfg.Chart.WeekdayColor)
	}
}

func TestValidSenderTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  bool
	}{
		{title: DefaultHourTitle, want: true},
		{title: "%s", want: true},
		{title: "100%% of %s", want: true},
		{title: ""},
		{title: "Hours"},
		{title: "%s vs %s"},
		{title: "%d for %s"},
		{title: "%v"},
		{title: "%s at 100%"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			t.Parallel()
			if got := validSenderTitle(tt.title); got != tt.want {
				t.Errorf("validSenderTitle(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err == nil {
		t.Fatal("Load() with a missing explicit file should fail")
	}
}
