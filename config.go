package pitwall

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/dimchansky/utfbom"
	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"justapengu.in/pitwall/internal/openf1"
	"justapengu.in/pitwall/pkg/timing"
)

type Configuration struct {
	HTTP     HTTPConfig     `json:"http" yaml:"http"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Event    EventConfig    `json:"event" yaml:"event"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`

	Drivers           []DriverConfig `json:"drivers" yaml:"drivers"`
	SectorBands       []SectorBand   `json:"sector_bands" yaml:"sector_bands"`
	QuickLapThreshold float64        `json:"quick_lap_threshold" yaml:"quick_lap_threshold"`
	Insights          InsightsConfig `json:"insights" yaml:"insights"`

	LogLevel  string `json:"log_level" yaml:"log_level"`
	SentryDSN string `json:"sentry_dsn" yaml:"sentry_dsn"`
}

type HTTPConfig struct {
	Hostname    string `json:"hostname" yaml:"hostname"`
	OpenBrowser bool   `json:"open_browser" yaml:"open_browser"`
}

type CacheConfig struct {
	Directory string `json:"directory" yaml:"directory"`
	// MemoTTL is how long a loaded session stays memoized in memory. 0 keeps it forever.
	MemoTTL time.Duration `json:"memo_ttl" yaml:"memo_ttl"`
}

type ProviderConfig struct {
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

type EventConfig struct {
	Year  int    `json:"year" yaml:"year"`
	Name  string `json:"name" yaml:"name"`
	Title string `json:"title" yaml:"title"`
}

type MetricsConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

type DriverConfig struct {
	Code  string `json:"code" yaml:"code"`
	Name  string `json:"name" yaml:"name"`
	Team  string `json:"team" yaml:"team"`
	Color string `json:"color" yaml:"color"`
}

// Label is how the driver is described in chart axes, e.g. "Sainz (Williams)".
func (d DriverConfig) Label() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.Team)
}

// SectorBand is a shaded distance region of the speed trace. Bands are fixed
// by configuration and are not derived from the provider's sector boundaries.
type SectorBand struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Color string  `json:"color" yaml:"color"`
}

type InsightsConfig struct {
	Qualifying string `json:"qualifying" yaml:"qualifying"`
	Race       string `json:"race" yaml:"race"`
}

const defaultQualifyingInsights = `
- **Straight-line speed:** Sainz was faster on long straights (Williams' lower rear wing helped)
- **Corner exits:** Hamilton struggled to accelerate out of slow corners (Ferrari's car slid more)
- **Final gap:** Sainz was 0.078s faster overall - mostly from straight-line advantage
`

const defaultRaceInsights = `
- **Smart pit stop:** Williams called Sainz early (Lap 18) to gain 3 positions
- **Tire troubles:** Hamilton's tires wore out faster (-0.8s/lap after 15 laps)
- **Exciting finish:** Sainz charged hard at the end but just missed passing Hamilton
`

func ConfigDefault() *Configuration {
	return &Configuration{
		HTTP: HTTPConfig{
			Hostname: "0.0.0.0:8772",
		},
		Cache: CacheConfig{
			Directory: "cache",
		},
		Provider: ProviderConfig{
			BaseURL: openf1.DefaultBaseURL,
			Timeout: time.Second * 30,
		},
		Event: EventConfig{
			Year:  2025,
			Name:  "Saudi Arabia",
			Title: "Saudi GP",
		},
		Drivers: []DriverConfig{
			{Code: "SAI", Name: "Sainz", Team: "Williams", Color: "#005AFF"},
			{Code: "HAM", Name: "Hamilton", Team: "Ferrari", Color: "#DC0000"},
		},
		SectorBands: []SectorBand{
			{Start: 0, End: 1000, Color: "#008000"},
			{Start: 1000, End: 2000, Color: "#0000FF"},
			{Start: 2000, End: 3000, Color: "#FF0000"},
		},
		QuickLapThreshold: timing.DefaultQuickLapThreshold,
		Insights: InsightsConfig{
			Qualifying: defaultQualifyingInsights,
			Race:       defaultRaceInsights,
		},
		LogLevel: "info",
	}
}

var (
	ErrInvalidDriverCount = errors.New("pitwall: exactly two drivers must be configured")
	ErrInvalidDriver      = errors.New("pitwall: drivers need a code and a colour")
	ErrInvalidThreshold   = errors.New("pitwall: quick lap threshold must be greater than zero")
	ErrInvalidSectorBand  = errors.New("pitwall: sector band must start before it ends")
	ErrInvalidEvent       = errors.New("pitwall: event needs a year and a name")
	ErrInvalidColor       = errors.New("pitwall: colours must be #RRGGBB hex")
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func (c *Configuration) Validate() error {
	if len(c.Drivers) != 2 {
		return ErrInvalidDriverCount
	}

	for _, driver := range c.Drivers {
		if driver.Code == "" || driver.Color == "" {
			return ErrInvalidDriver
		}

		if !hexColorPattern.MatchString(driver.Color) {
			return pkgerrors.Wrapf(ErrInvalidColor, "driver %s: %q", driver.Code, driver.Color)
		}
	}

	if c.QuickLapThreshold <= 0 {
		return ErrInvalidThreshold
	}

	for _, band := range c.SectorBands {
		if band.Start >= band.End {
			return pkgerrors.Wrapf(ErrInvalidSectorBand, "%.0f-%.0f", band.Start, band.End)
		}

		if !hexColorPattern.MatchString(band.Color) {
			return pkgerrors.Wrapf(ErrInvalidColor, "sector band %.0f-%.0f: %q", band.Start, band.End, band.Color)
		}
	}

	if c.Event.Year <= 0 || strings.TrimSpace(c.Event.Name) == "" {
		return ErrInvalidEvent
	}

	return nil
}

// ReadConfig loads the configuration at path on top of ConfigDefault. A
// missing file is not an error; the defaults are returned.
func ReadConfig(path string) (*Configuration, error) {
	conf := ConfigDefault()

	f, err := os.Open(path)

	if os.IsNotExist(err) {
		return conf, nil
	} else if err != nil {
		return nil, err
	}

	defer f.Close()

	if err := yaml.NewDecoder(utfbom.SkipOnly(f)).Decode(conf); err != nil && err != io.EOF {
		return nil, pkgerrors.Wrapf(err, "pitwall: could not parse config %s", path)
	}

	for i := range conf.Drivers {
		conf.Drivers[i].Code = strings.ToUpper(conf.Drivers[i].Code)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}
