package config

// Default values for configuration
const (
	// Log defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	// Parse defaults
	DefaultMarker          = "💩"
	DefaultCaseInsensitive = false

	// Chart defaults
	DefaultChartWidth    = 640
	DefaultChartHeight   = 480
	DefaultBarSpacing    = 4
	DefaultHourColor     = "#ff0000"
	DefaultWeekdayColor  = "#0000ff"
	DefaultHourTitle     = "hourly distribution of %s"
	DefaultWeekdayTitle  = "weekly distribution of %s"
	DefaultCompositePad  = 10
	DefaultOneImage      = false
	DefaultOutputDir     = "."
	DefaultRenderWorkers = 4

	// Database defaults; an empty path disables the archive.
	DefaultDBPath = ""

	// Config file lookup
	DefaultConfigName = "chatstats"
	EnvPrefix         = "CHATSTATS"
)

// DefaultDateLayouts are tried in order when deriving a weekday from a
// record's date. Chat exports write day/month/year, with or without leading
// zeros and with two- or four-digit years.
var DefaultDateLayouts = []string{"2/1/06", "2/1/2006"}
