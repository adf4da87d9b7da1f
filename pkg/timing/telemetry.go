package timing

import (
	"sort"
	"time"
)

type TelemetrySample struct {
	Date time.Time
	// SessionTime is the time since the start of the lap the sample belongs to.
	SessionTime time.Duration
	Speed       float64 // km/h
	RPM         int
	Gear        int
	Throttle    int
	Brake       int
	DRS         int
	Distance    float64 // metres from the first sample
}

type Telemetry []TelemetrySample

// Slice returns the samples with from <= Date <= to, ordered by time.
func (t Telemetry) Slice(from, to time.Time) Telemetry {
	var out Telemetry

	for _, sample := range t {
		if sample.Date.Before(from) || sample.Date.After(to) {
			continue
		}

		out = append(out, sample)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	return out
}

// AddDistance fills the Distance and SessionTime of every sample by integrating
// speed over the time between consecutive samples. The first sample is at distance 0.
func (t Telemetry) AddDistance() Telemetry {
	out := make(Telemetry, len(t))
	copy(out, t)

	if len(out) == 0 {
		return out
	}

	start := out[0].Date
	distance := 0.0

	for i := range out {
		if i > 0 {
			dt := out[i].Date.Sub(out[i-1].Date).Seconds()

			if dt > 0 {
				distance += (out[i].Speed / 3.6) * dt
			}
		}

		out[i].Distance = distance
		out[i].SessionTime = out[i].Date.Sub(start)
	}

	return out
}
