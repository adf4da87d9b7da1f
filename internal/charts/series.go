// Package charts turns lap tables and telemetry into the dashboard's comparison
// charts. Builders produce plain per-driver series; renderers draw them as SVG.
package charts

import (
	"fmt"
	"math"

	"justapengu.in/pitwall/pkg/timing"
)

// Driver describes how a driver is presented on a chart.
type Driver struct {
	Code  string
	Name  string
	Team  string
	Color string
}

// Legend is the series name used in chart legends, e.g. "SAI (Williams)".
func (d Driver) Legend() string {
	return fmt.Sprintf("%s (%s)", d.Code, d.Team)
}

// Label is the axis label of the driver, e.g. "Sainz (Williams)".
func (d Driver) Label() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.Team)
}

// DriverSeries is one driver's points. XValues and YValues always have the
// same length. Missing values are NaN.
type DriverSeries struct {
	Driver  Driver
	XValues []float64
	YValues []float64
}

func (s DriverSeries) Len() int {
	return len(s.XValues)
}

// Valid returns the points of the series which have a value.
func (s DriverSeries) Valid() (xs, ys []float64) {
	for i := range s.XValues {
		if math.IsNaN(s.XValues[i]) || math.IsNaN(s.YValues[i]) {
			continue
		}

		xs = append(xs, s.XValues[i])
		ys = append(ys, s.YValues[i])
	}

	return xs, ys
}

// PositionSeries has one point per lap of the driver, in ascending lap order:
// lap number against position. Laps with an unknown position are NaN.
func PositionSeries(laps timing.Laps, driver Driver) DriverSeries {
	return lapSeries(laps, driver, func(lap timing.Lap) float64 {
		if lap.Position <= 0 {
			return math.NaN()
		}

		return float64(lap.Position)
	})
}

// LapTimeSeries has one point per lap of the driver, in ascending lap order:
// lap number against lap time in seconds. Laps without a time are NaN.
func LapTimeSeries(laps timing.Laps, driver Driver) DriverSeries {
	return lapSeries(laps, driver, func(lap timing.Lap) float64 {
		if !lap.HasTime() {
			return math.NaN()
		}

		return lap.LapTime.Seconds()
	})
}

func lapSeries(laps timing.Laps, driver Driver, value func(lap timing.Lap) float64) DriverSeries {
	driverLaps := laps.PickDriver(driver.Code).SortedByLapNumber()

	series := DriverSeries{
		Driver:  driver,
		XValues: make([]float64, 0, len(driverLaps)),
		YValues: make([]float64, 0, len(driverLaps)),
	}

	for _, lap := range driverLaps {
		series.XValues = append(series.XValues, float64(lap.LapNumber))
		series.YValues = append(series.YValues, value(lap))
	}

	return series
}

// SpeedSeries is the speed (km/h) of the telemetry against its distance (m).
func SpeedSeries(telemetry timing.Telemetry, driver Driver) DriverSeries {
	series := DriverSeries{
		Driver:  driver,
		XValues: make([]float64, 0, len(telemetry)),
		YValues: make([]float64, 0, len(telemetry)),
	}

	for _, sample := range telemetry {
		series.XValues = append(series.XValues, sample.Distance)
		series.YValues = append(series.YValues, sample.Speed)
	}

	return series
}

// TyreSeries is the compound a driver used on each lap, in ascending lap order.
type TyreSeries struct {
	Driver    Driver
	Laps      []float64
	Compounds []timing.Compound
}

func NewTyreSeries(laps timing.Laps, driver Driver) TyreSeries {
	driverLaps := laps.PickDriver(driver.Code).SortedByLapNumber()

	series := TyreSeries{
		Driver:    driver,
		Laps:      make([]float64, 0, len(driverLaps)),
		Compounds: make([]timing.Compound, 0, len(driverLaps)),
	}

	for _, lap := range driverLaps {
		series.Laps = append(series.Laps, float64(lap.LapNumber))
		series.Compounds = append(series.Compounds, lap.Compound)
	}

	return series
}

// Band is a shaded distance region of the speed trace.
type Band struct {
	Name  string
	Start float64
	End   float64
	Color string
}
