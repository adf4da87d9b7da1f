package timing

import (
	"fmt"
	"time"
)

// FormatLapTime formats a lap time as m:ss.mmm.
func FormatLapTime(d time.Duration) string {
	if d <= 0 {
		return "-:--.---"
	}

	mins := int(d / time.Minute)
	d -= time.Duration(mins) * time.Minute
	secs := int(d / time.Second)
	d -= time.Duration(secs) * time.Second
	milli := d.Milliseconds()

	return fmt.Sprintf("%d:%02d.%03d", mins, secs, milli)
}

// FormatSectorTime formats a sector time as s.mmm.
func FormatSectorTime(d time.Duration) string {
	if d <= 0 {
		return "-.---"
	}

	ms := d.Milliseconds()

	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}

// FormatDelta formats the gap between two lap times with an explicit sign, e.g. "-0.078s".
func FormatDelta(d time.Duration) string {
	sign := "+"

	if d < 0 {
		sign = "-"
		d = -d
	}

	ms := d.Milliseconds()

	return fmt.Sprintf("%s%d.%03ds", sign, ms/1000, ms%1000)
}
