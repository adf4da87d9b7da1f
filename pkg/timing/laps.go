package timing

import (
	"errors"
	"sort"
	"strings"
	"time"
)

type Compound string

const (
	CompoundSoft         Compound = "SOFT"
	CompoundMedium       Compound = "MEDIUM"
	CompoundHard         Compound = "HARD"
	CompoundIntermediate Compound = "INTERMEDIATE"
	CompoundWet          Compound = "WET"
	CompoundUnknown      Compound = "UNKNOWN"
)

func ParseCompound(s string) Compound {
	switch c := Compound(strings.ToUpper(strings.TrimSpace(s))); c {
	case CompoundSoft, CompoundMedium, CompoundHard, CompoundIntermediate, CompoundWet:
		return c
	default:
		return CompoundUnknown
	}
}

// DefaultQuickLapThreshold is the fraction of the fastest lap time under which a lap counts as "quick".
const DefaultQuickLapThreshold = 1.07

var ErrNoLaps = errors.New("timing: no laps found")

// Lap is a single row of a session lap table.
type Lap struct {
	Driver       string
	DriverNumber int
	Team         string
	LapNumber    int
	// LapTime is zero when the provider has no time for the lap (e.g. the first lap of a race, red flags).
	LapTime   time.Duration
	StartTime time.Time
	Sectors   [3]time.Duration

	// Position is the classified position at the end of the lap, 0 if unknown.
	Position  int
	Compound  Compound
	TyreLife  int
	Stint     int
	PitOutLap bool
	PitInLap  bool
}

func (l Lap) HasTime() bool {
	return l.LapTime > 0
}

func (l Lap) EndTime() time.Time {
	if l.StartTime.IsZero() || !l.HasTime() {
		return time.Time{}
	}

	return l.StartTime.Add(l.LapTime)
}

// Laps is a lap table in provider row order.
type Laps []Lap

func (l Laps) PickDriver(code string) Laps {
	code = strings.ToUpper(code)

	var out Laps

	for _, lap := range l {
		if lap.Driver == code {
			out = append(out, lap)
		}
	}

	return out
}

// PickFastest returns the lap with the lowest lap time. Laps without a time are
// ignored and ties go to the lap which appears first in the table.
func (l Laps) PickFastest() (Lap, error) {
	fastest := -1

	for i, lap := range l {
		if !lap.HasTime() {
			continue
		}

		if fastest < 0 || lap.LapTime < l[fastest].LapTime {
			fastest = i
		}
	}

	if fastest < 0 {
		return Lap{}, ErrNoLaps
	}

	return l[fastest], nil
}

// PickQuickLaps returns all laps with a lap time strictly less than threshold
// multiplied by the fastest lap time of the table. A threshold <= 0 uses
// DefaultQuickLapThreshold.
func (l Laps) PickQuickLaps(threshold float64) Laps {
	if threshold <= 0 {
		threshold = DefaultQuickLapThreshold
	}

	fastest, err := l.PickFastest()

	if err != nil {
		return nil
	}

	limit := time.Duration(float64(fastest.LapTime) * threshold)

	var out Laps

	for _, lap := range l {
		if lap.HasTime() && lap.LapTime < limit {
			out = append(out, lap)
		}
	}

	return out
}

// SortedByLapNumber returns a copy of the table ordered by ascending lap
// number, preserving row order between equal lap numbers.
func (l Laps) SortedByLapNumber() Laps {
	out := make(Laps, len(l))
	copy(out, l)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LapNumber < out[j].LapNumber
	})

	return out
}

// MeanLapTime is the mean of all lap times in the table, ignoring untimed laps.
func (l Laps) MeanLapTime() time.Duration {
	var total time.Duration
	var n int

	for _, lap := range l {
		if lap.HasTime() {
			total += lap.LapTime
			n++
		}
	}

	if n == 0 {
		return 0
	}

	return total / time.Duration(n)
}

// Stint is a run of consecutive laps a driver did on one set of tyres.
type Stint struct {
	Number   int
	Compound Compound
	FirstLap int
	LastLap  int
	// TyreLife is the age of the tyres at the end of the stint, in laps.
	TyreLife int
}

func (s Stint) Laps() int {
	return s.LastLap - s.FirstLap + 1
}

// Stints groups the laps of a single driver by stint number, in lap order.
// Laps without a stint are skipped.
func (l Laps) Stints() []Stint {
	var out []Stint

	for _, lap := range l.SortedByLapNumber() {
		if lap.Stint <= 0 {
			continue
		}

		if n := len(out); n > 0 && out[n-1].Number == lap.Stint {
			out[n-1].LastLap = lap.LapNumber
			out[n-1].TyreLife = lap.TyreLife

			continue
		}

		out = append(out, Stint{
			Number:   lap.Stint,
			Compound: lap.Compound,
			FirstLap: lap.LapNumber,
			LastLap:  lap.LapNumber,
			TyreLife: lap.TyreLife,
		})
	}

	return out
}
