package timing

import (
	"errors"
	"testing"
	"time"
)

func lapTime(s string) time.Duration {
	d, err := time.ParseDuration(s)

	if err != nil {
		panic(err)
	}

	return d
}

var testLaps = Laps{
	{Driver: "SAI", LapNumber: 1, LapTime: lapTime("1m29.100s")},
	{Driver: "HAM", LapNumber: 1, LapTime: lapTime("1m29.300s")},
	{Driver: "SAI", LapNumber: 2, LapTime: lapTime("1m28.049s")},
	{Driver: "HAM", LapNumber: 2, LapTime: lapTime("1m28.127s")},
	{Driver: "SAI", LapNumber: 3, LapTime: lapTime("1m28.049s"), Compound: CompoundSoft},
	{Driver: "HAM", LapNumber: 3},
	{Driver: "VER", LapNumber: 1, LapTime: lapTime("1m27.294s")},
}

type pickFastestTest struct {
	name          string
	driver        string
	laps          Laps
	expectedLap   int
	expectedTime  time.Duration
	expectedError error
}

func TestPickFastest(t *testing.T) {
	pickFastestTests := []pickFastestTest{
		{
			name:         "Minimum lap time wins, first row on ties",
			driver:       "SAI",
			laps:         testLaps,
			expectedLap:  2,
			expectedTime: lapTime("1m28.049s"),
		},
		{
			name:         "Untimed laps are skipped",
			driver:       "HAM",
			laps:         testLaps,
			expectedLap:  2,
			expectedTime: lapTime("1m28.127s"),
		},
		{
			name:          "No rows for driver",
			driver:        "ALO",
			laps:          testLaps,
			expectedError: ErrNoLaps,
		},
		{
			name:   "Only untimed rows for driver",
			driver: "HAM",
			laps: Laps{
				{Driver: "HAM", LapNumber: 1},
				{Driver: "HAM", LapNumber: 2},
			},
			expectedError: ErrNoLaps,
		},
	}

	for _, test := range pickFastestTests {
		t.Run(test.name, func(t *testing.T) {
			lap, err := test.laps.PickDriver(test.driver).PickFastest()

			if test.expectedError != nil {
				if !errors.Is(err, test.expectedError) {
					t.Errorf("expected error %v, got %v", test.expectedError, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if lap.LapNumber != test.expectedLap {
				t.Errorf("expected lap %d, got %d", test.expectedLap, lap.LapNumber)
			}

			if lap.LapTime != test.expectedTime {
				t.Errorf("expected lap time %s, got %s", test.expectedTime, lap.LapTime)
			}
		})
	}
}

func TestPickDriver(t *testing.T) {
	laps := testLaps.PickDriver("sai")

	if len(laps) != 3 {
		t.Fatalf("expected 3 laps, got %d", len(laps))
	}

	for i, lap := range laps {
		if lap.Driver != "SAI" {
			t.Errorf("lap %d belongs to %s", i, lap.Driver)
		}

		if lap.LapNumber != i+1 {
			t.Errorf("expected provider row order to be kept, got lap %d at index %d", lap.LapNumber, i)
		}
	}
}

func TestPickQuickLaps(t *testing.T) {
	laps := Laps{
		{Driver: "SAI", LapNumber: 1, LapTime: lapTime("1m40s")},
		{Driver: "SAI", LapNumber: 2, LapTime: lapTime("1m32s")},
		{Driver: "SAI", LapNumber: 3, LapTime: lapTime("1m33s")},
		{Driver: "SAI", LapNumber: 4, LapTime: lapTime("1m58s"), PitInLap: true},
		{Driver: "SAI", LapNumber: 5},
		{Driver: "SAI", LapNumber: 6, LapTime: lapTime("1m38.44s")},
		{Driver: "SAI", LapNumber: 7, LapTime: lapTime("1m38.43s")},
	}

	quick := laps.PickQuickLaps(DefaultQuickLapThreshold)

	expected := []int{2, 3, 7}

	if len(quick) != len(expected) {
		t.Fatalf("expected %d quick laps, got %d", len(expected), len(quick))
	}

	for i, lap := range quick {
		if lap.LapNumber != expected[i] {
			t.Errorf("expected lap %d at index %d, got %d", expected[i], i, lap.LapNumber)
		}
	}

	if len(laps.PickQuickLaps(0)) != len(expected) {
		t.Errorf("expected zero threshold to fall back to the default")
	}

	if quick := (Laps{}).PickQuickLaps(1.07); quick != nil {
		t.Errorf("expected no quick laps for an empty table, got %d", len(quick))
	}
}

func TestSortedByLapNumber(t *testing.T) {
	laps := Laps{
		{Driver: "SAI", LapNumber: 3},
		{Driver: "SAI", LapNumber: 1, Position: 5},
		{Driver: "SAI", LapNumber: 2},
		{Driver: "SAI", LapNumber: 1, Position: 6},
	}

	sorted := laps.SortedByLapNumber()

	if sorted[0].Position != 5 || sorted[1].Position != 6 {
		t.Errorf("expected stable order for equal lap numbers")
	}

	for i := 1; i < len(sorted); i++ {
		if sorted[i].LapNumber < sorted[i-1].LapNumber {
			t.Errorf("laps not ascending at index %d", i)
		}
	}

	if laps[0].LapNumber != 3 {
		t.Errorf("original table was modified")
	}
}

func TestMeanLapTime(t *testing.T) {
	laps := Laps{
		{LapTime: lapTime("1m30s")},
		{},
		{LapTime: lapTime("1m32s")},
	}

	if mean := laps.MeanLapTime(); mean != lapTime("1m31s") {
		t.Errorf("expected 1m31s, got %s", mean)
	}

	if mean := (Laps{}).MeanLapTime(); mean != 0 {
		t.Errorf("expected 0, got %s", mean)
	}
}

func TestParseCompound(t *testing.T) {
	for in, expected := range map[string]Compound{
		"SOFT":     CompoundSoft,
		"medium":   CompoundMedium,
		" Hard ":   CompoundHard,
		"WET":      CompoundWet,
		"TEST_UNK": CompoundUnknown,
		"":         CompoundUnknown,
	} {
		if c := ParseCompound(in); c != expected {
			t.Errorf("ParseCompound(%q): expected %s, got %s", in, expected, c)
		}
	}
}

func TestParseSessionKind(t *testing.T) {
	for in, expected := range map[string]SessionKind{
		"Qualifying": SessionKindQualifying,
		"q":          SessionKindQualifying,
		"RACE":       SessionKindRace,
		"R":          SessionKindRace,
	} {
		kind, err := ParseSessionKind(in)

		if err != nil {
			t.Errorf("ParseSessionKind(%q): unexpected error %v", in, err)
			continue
		}

		if kind != expected {
			t.Errorf("ParseSessionKind(%q): expected %s, got %s", in, expected, kind)
		}
	}

	if _, err := ParseSessionKind("Sprint"); !errors.Is(err, ErrUnknownSessionKind) {
		t.Errorf("expected ErrUnknownSessionKind, got %v", err)
	}

	if SessionKindRace.String() != "Race" || SessionKindQualifying.String() != "Qualifying" {
		t.Errorf("unexpected session kind names")
	}
}

func TestStints(t *testing.T) {
	laps := Laps{
		{Driver: "SAI", LapNumber: 3, Stint: 1, Compound: CompoundMedium, TyreLife: 4},
		{Driver: "SAI", LapNumber: 1, Stint: 1, Compound: CompoundMedium, TyreLife: 2},
		{Driver: "SAI", LapNumber: 2, Stint: 1, Compound: CompoundMedium, TyreLife: 3},
		{Driver: "SAI", LapNumber: 4, Stint: 2, Compound: CompoundHard, TyreLife: 1},
		{Driver: "SAI", LapNumber: 5, Stint: 2, Compound: CompoundHard, TyreLife: 2},
		{Driver: "SAI", LapNumber: 6},
	}

	stints := laps.Stints()

	expected := []Stint{
		{Number: 1, Compound: CompoundMedium, FirstLap: 1, LastLap: 3, TyreLife: 4},
		{Number: 2, Compound: CompoundHard, FirstLap: 4, LastLap: 5, TyreLife: 2},
	}

	if len(stints) != len(expected) {
		t.Fatalf("expected %d stints, got %d: %+v", len(expected), len(stints), stints)
	}

	for i := range expected {
		if stints[i] != expected[i] {
			t.Errorf("stint %d: expected %+v, got %+v", i, expected[i], stints[i])
		}
	}

	if stints[0].Laps() != 3 {
		t.Errorf("expected a 3 lap stint, got %d", stints[0].Laps())
	}

	if stints := (Laps{}).Stints(); len(stints) != 0 {
		t.Errorf("expected no stints, got %+v", stints)
	}
}
