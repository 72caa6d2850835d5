// Package config provides configuration loading, validation, and management
// for chatstats. Values come from defaults, an optional YAML file,
// CHATSTATS_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	errs "github.com/edgard/chatstats/internal/errors"
)

// Config defines the application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Parse     ParseConfig     `mapstructure:"parse"`
	Chart     ChartConfig     `mapstructure:"chart"`
	Composite CompositeConfig `mapstructure:"composite"`
	Output    OutputConfig    `mapstructure:"output"`
	Render    RenderConfig    `mapstructure:"render"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ParseConfig controls how chat lines are filtered. An empty marker matches
// every message.
type ParseConfig struct {
	Marker          string   `mapstructure:"marker"`
	CaseInsensitive bool     `mapstructure:"case_insensitive"`
	DateLayouts     []string `mapstructure:"date_layouts" validate:"min=1,dive,required"`
}

type ChartConfig struct {
	Width        int    `mapstructure:"width"         validate:"min=100,max=8192"`
	Height       int    `mapstructure:"height"        validate:"min=100,max=8192"`
	BarSpacing   int    `mapstructure:"bar_spacing"   validate:"min=0,max=50"`
	HourColor    string `mapstructure:"hour_color"    validate:"required,barcolor"`
	WeekdayColor string `mapstructure:"weekday_color" validate:"required,barcolor"`
	HourTitle    string `mapstructure:"hour_title"    validate:"required,sendertitle"`
	WeekdayTitle string `mapstructure:"weekday_title" validate:"required,sendertitle"`
}

type CompositeConfig struct {
	OneImage bool `mapstructure:"one_image"`
	Padding  int  `mapstructure:"padding" validate:"min=0,max=500"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

type RenderConfig struct {
	Workers int `mapstructure:"workers" validate:"min=1,max=64"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":   "log.level",
	"log-format":  "log.format",
	"ignore-case": "parse.case_insensitive",
	"one-image":   "composite.one_image",
	"output-dir":  "output.dir",
	"workers":     "render.workers",
	"db":          "database.path",
}

// Load builds the configuration. configPath may be empty, in which case
// chatstats.yaml is looked up in the working directory and its absence is
// not an error. Flags present in flags and set by the user override every
// other source.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, errs.NewConfigError("failed to read config file", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errs.NewConfigError(fmt.Sprintf("failed to bind flag %q", name), err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errs.NewConfigError("failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration against its struct tags.
// barColorRegex matches the RGB forms the chart renderer can draw.
var barColorRegex = regexp.MustCompile(`^#?(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// validSenderTitle reports whether title holds exactly one %s and no other
// formatting verb, so it can be filled with a sender name.
func validSenderTitle(title string) bool {
	verbs := 0
	for i := 0; i < len(title); i++ {
		if title[i] != '%' {
			continue
		}
		if i+1 == len(title) {
			return false
		}
		i++
		switch title[i] {
		case '%':
		case 's':
			verbs++
		default:
			return false
		}
	}
	return verbs == 1
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails on an empty tag or a nil func.
	_ = v.RegisterValidation("barcolor", func(fl validator.FieldLevel) bool {
		return barColorRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("sendertitle", func(fl validator.FieldLevel) bool {
		return validSenderTitle(fl.Field().String())
	})
	return v
}

func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return errs.NewConfigError("invalid configuration", err)
	}
	return nil
}

// Default returns the configuration used when no file, environment or flag
// overrides anything.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Parse: ParseConfig{
			Marker:          DefaultMarker,
			CaseInsensitive: DefaultCaseInsensitive,
			DateLayouts:     append([]string(nil), DefaultDateLayouts...),
		},
		Chart: ChartConfig{
			Width:        DefaultChartWidth,
			Height:       DefaultChartHeight,
			BarSpacing:   DefaultBarSpacing,
			HourColor:    DefaultHourColor,
			WeekdayColor: DefaultWeekdayColor,
			HourTitle:    DefaultHourTitle,
			WeekdayTitle: DefaultWeekdayTitle,
		},
		Composite: CompositeConfig{
			OneImage: DefaultOneImage,
			Padding:  DefaultCompositePad,
		},
		Output:   OutputConfig{Dir: DefaultOutputDir},
		Render:   RenderConfig{Workers: DefaultRenderWorkers},
		Database: DatabaseConfig{Path: DefaultDBPath},
	}
}

// setDefaults sets default values for every configuration key
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("parse.marker", DefaultMarker)
	v.SetDefault("parse.case_insensitive", DefaultCaseInsensitive)
	v.SetDefault("parse.date_layouts", DefaultDateLayouts)

	v.SetDefault("chart.width", DefaultChartWidth)
	v.SetDefault("chart.height", DefaultChartHeight)
	v.SetDefault("chart.bar_spacing", DefaultBarSpacing)
	v.SetDefault("chart.hour_color", DefaultHourColor)
	v.SetDefault("chart.weekday_color", DefaultWeekdayColor)
	v.SetDefault("chart.hour_title", DefaultHourTitle)
	v.SetDefault("chart.weekday_title", DefaultWeekdayTitle)

	v.SetDefault("composite.one_image", DefaultOneImage)
	v.SetDefault("composite.padding", DefaultCompositePad)

	v.SetDefault("output.dir", DefaultOutputDir)
	v.SetDefault("render.workers", DefaultRenderWorkers)
	v.SetDefault("database.path", DefaultDBPath)
}
