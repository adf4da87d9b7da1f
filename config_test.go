package pitwall

import (
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"
)

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file uses defaults", func(t *testing.T) {
		config, err := ReadConfig(filepath.Join(dir, "missing.yml"))

		if err != nil {
			t.Fatal(err)
		}

		if config.HTTP.Hostname != "0.0.0.0:8772" || config.Event.Year != 2025 || len(config.Drivers) != 2 {
			t.Errorf("unexpected defaults: %+v", config)
		}
	})

	tests := []struct {
		name     string
		contents string
		err      error
		check    func(t *testing.T, config *Configuration)
	}{
		{
			name:     "empty file",
			contents: "",
			check: func(t *testing.T, config *Configuration) {
				if config.QuickLapThreshold != 1.07 {
					t.Errorf("expected default threshold, got %v", config.QuickLapThreshold)
				}
			},
		},
		{
			name: "overrides with byte order mark",
			contents: "\xef\xbb\xbf" + `
http:
  hostname: 127.0.0.1:9000
cache:
  directory: /tmp/f1
  memo_ttl: 10m
drivers:
  - code: nor
    name: Norris
    team: McLaren
    color: "#FF8000"
  - code: pia
    name: Piastri
    team: McLaren
    color: "#FFA040"
`,
			check: func(t *testing.T, config *Configuration) {
				if config.HTTP.Hostname != "127.0.0.1:9000" || config.Cache.Directory != "/tmp/f1" {
					t.Errorf("overrides not applied: %+v", config)
				}

				if config.Cache.MemoTTL != 10*time.Minute {
					t.Errorf("expected memo ttl 10m, got %s", config.Cache.MemoTTL)
				}

				if config.Drivers[0].Code != "NOR" || config.Drivers[1].Label() != "Piastri (McLaren)" {
					t.Errorf("unexpected drivers: %+v", config.Drivers)
				}

				if config.Event.Name != "Saudi Arabia" {
					t.Errorf("expected default event to be kept, got %q", config.Event.Name)
				}
			},
		},
		{
			name: "one driver",
			contents: `
drivers:
  - code: SAI
    color: "#005AFF"
`,
			err: ErrInvalidDriverCount,
		},
		{
			name: "driver without colour",
			contents: `
drivers:
  - code: SAI
  - code: HAM
    color: "#DC0000"
`,
			err: ErrInvalidDriver,
		},
		{
			name:     "negative threshold",
			contents: "quick_lap_threshold: -1\n",
			err:      ErrInvalidThreshold,
		},
		{
			name: "inverted sector band",
			contents: `
sector_bands:
  - start: 2000
    end: 1000
    color: "#FF0000"
`,
			err: ErrInvalidSectorBand,
		},
		{
			name: "driver colour not hex",
			contents: `
drivers:
  - code: SAI
    color: blue
  - code: HAM
    color: "#DC0000"
`,
			err: ErrInvalidColor,
		},
		{
			name: "sector band colour not hex",
			contents: `
sector_bands:
  - start: 0
    end: 1000
    color: "#00800"
`,
			err: ErrInvalidColor,
		},
		{
			name: "event without name",
			contents: `
event:
  name: " "
`,
			err: ErrInvalidEvent,
		},
	}

	for i, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(dir, "config"+string(rune('a'+i))+".yml")

			if err := ioutil.WriteFile(path, []byte(test.contents), 0644); err != nil {
				t.Fatal(err)
			}

			config, err := ReadConfig(path)

			if test.err != nil {
				if !errors.Is(err, test.err) {
					t.Errorf("expected %v, got %v", test.err, err)
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			test.check(t, config)
		})
	}
}
