package openf1

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"justapengu.in/pitwall/pkg/timing"
)

var (
	ErrNoTelemetry       = errors.New("openf1: no telemetry found for lap")
	ErrNoTelemetryWindow = errors.New("openf1: lap has no start time or lap time to bound its telemetry")
	ErrUnknownDriver     = errors.New("openf1: driver is not part of the session")
)

// FindSession resolves an event name and session kind to a provider session.
// The event is matched case-insensitively against the meeting name, country,
// location and circuit of each meeting of the year; the first match wins.
func (c *Client) FindSession(ctx context.Context, year int, event string, kind timing.SessionKind) (*Meeting, *Session, error) {
	meetings, err := c.Meetings(ctx, year)

	if err != nil {
		return nil, nil, err
	}

	meeting := matchMeeting(meetings, event)

	if meeting == nil {
		return nil, nil, pkgerrors.Wrapf(ErrMeetingNotFound, "%d %s", year, event)
	}

	sessions, err := c.Sessions(ctx, meeting.MeetingKey, kind.String())

	if err != nil {
		return nil, nil, err
	}

	for _, session := range sessions {
		if strings.EqualFold(session.SessionName, kind.String()) {
			session := session

			return meeting, &session, nil
		}
	}

	return nil, nil, pkgerrors.Wrapf(ErrSessionNotFound, "%s %d %s", kind, year, meeting.MeetingName)
}

func matchMeeting(meetings []Meeting, event string) *Meeting {
	event = strings.ToLower(strings.TrimSpace(event))

	if event == "" {
		return nil
	}

	for i, meeting := range meetings {
		for _, name := range []string{meeting.MeetingName, meeting.CountryName, meeting.Location, meeting.CircuitShortName, meeting.MeetingOfficialName} {
			if name != "" && strings.Contains(strings.ToLower(name), event) {
				return &meetings[i]
			}
		}
	}

	return nil
}

// LoadSession fetches a session, its drivers, laps, positions and stints and
// merges them into a single lap table.
func (c *Client) LoadSession(ctx context.Context, year int, event string, kind timing.SessionKind) (*timing.Session, error) {
	meeting, session, err := c.FindSession(ctx, year, event, kind)

	if err != nil {
		return nil, err
	}

	var (
		drivers   []Driver
		laps      []Lap
		positions []Position
		stints    []Stint
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		drivers, err = c.Drivers(gctx, session.SessionKey)
		return err
	})

	g.Go(func() (err error) {
		laps, err = c.Laps(gctx, session.SessionKey)
		return err
	})

	g.Go(func() (err error) {
		positions, err = c.Positions(gctx, session.SessionKey)
		return err
	})

	g.Go(func() (err error) {
		stints, err = c.Stints(gctx, session.SessionKey)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &timing.Session{
		Key:         session.SessionKey,
		Year:        year,
		Event:       event,
		MeetingName: meeting.MeetingName,
		Circuit:     session.CircuitShortName,
		Kind:        kind,
		StartTime:   session.DateStart,
		Drivers:     make(map[string]timing.Driver),
	}

	codes := make(map[int]string)

	for _, driver := range drivers {
		code := strings.ToUpper(driver.NameAcronym)

		if code == "" {
			code = strconv.Itoa(driver.DriverNumber)
		}

		codes[driver.DriverNumber] = code

		out.Drivers[code] = timing.Driver{
			Number:    driver.DriverNumber,
			Code:      code,
			FullName:  driver.FullName,
			TeamName:  driver.TeamName,
			TeamColor: driver.TeamColour,
		}
	}

	out.Laps = buildLapTable(laps, positions, stints, codes, out.Drivers)

	return out, nil
}

func buildLapTable(laps []Lap, positions []Position, stints []Stint, codes map[int]string, drivers map[string]timing.Driver) timing.Laps {
	table := make(timing.Laps, 0, len(laps))

	for _, lap := range laps {
		code, ok := codes[lap.DriverNumber]

		if !ok {
			code = strconv.Itoa(lap.DriverNumber)
		}

		row := timing.Lap{
			Driver:       code,
			DriverNumber: lap.DriverNumber,
			Team:         drivers[code].TeamName,
			LapNumber:    lap.LapNumber,
			LapTime:      seconds(lap.LapDuration),
			PitOutLap:    lap.IsPitOutLap,
			Sectors: [3]time.Duration{
				seconds(lap.DurationSector1),
				seconds(lap.DurationSector2),
				seconds(lap.DurationSector3),
			},
		}

		if lap.DateStart != nil {
			row.StartTime = *lap.DateStart
		}

		if stint := stintForLap(stints, lap.DriverNumber, lap.LapNumber); stint != nil {
			row.Compound = timing.ParseCompound(stint.Compound)
			row.Stint = stint.StintNumber
			row.TyreLife = stint.TyreAgeAtStart + lap.LapNumber - stint.LapStart + 1
		} else {
			row.Compound = timing.CompoundUnknown
		}

		table = append(table, row)
	}

	markPitInLaps(table)
	assignPositions(table, positions)

	return table
}

func seconds(s *float64) time.Duration {
	if s == nil || *s <= 0 {
		return 0
	}

	return time.Duration(math.Round(*s*1000)) * time.Millisecond
}

func stintForLap(stints []Stint, driverNumber, lapNumber int) *Stint {
	for i, stint := range stints {
		if stint.DriverNumber == driverNumber && lapNumber >= stint.LapStart && lapNumber <= stint.LapEnd {
			return &stints[i]
		}
	}

	return nil
}

// markPitInLaps flags the lap before every pit out lap of the same driver.
func markPitInLaps(table timing.Laps) {
	index := make(map[string]map[int]int)

	for i, lap := range table {
		if index[lap.Driver] == nil {
			index[lap.Driver] = make(map[int]int)
		}

		index[lap.Driver][lap.LapNumber] = i
	}

	for _, lap := range table {
		if !lap.PitOutLap || lap.LapNumber <= 1 {
			continue
		}

		if previous, ok := index[lap.Driver][lap.LapNumber-1]; ok {
			table[previous].PitInLap = true
		}
	}
}

// assignPositions sets the position of every lap to the last position sample
// recorded for the driver at or before the end of the lap. Laps without a lap
// time end when the next lap starts; the last of those takes the last sample.
func assignPositions(table timing.Laps, positions []Position) {
	byDriver := make(map[int][]Position)

	for _, position := range positions {
		byDriver[position.DriverNumber] = append(byDriver[position.DriverNumber], position)
	}

	for driver := range byDriver {
		samples := byDriver[driver]

		sort.SliceStable(samples, func(i, j int) bool {
			return samples[i].Date.Before(samples[j].Date)
		})
	}

	nextStart := make(map[int]map[int]time.Time)

	for _, lap := range table {
		if nextStart[lap.DriverNumber] == nil {
			nextStart[lap.DriverNumber] = make(map[int]time.Time)
		}

		if !lap.StartTime.IsZero() {
			nextStart[lap.DriverNumber][lap.LapNumber-1] = lap.StartTime
		}
	}

	for i, lap := range table {
		samples := byDriver[lap.DriverNumber]

		if len(samples) == 0 {
			continue
		}

		end := lap.EndTime()

		if end.IsZero() {
			end = nextStart[lap.DriverNumber][lap.LapNumber]
		}

		if end.IsZero() {
			table[i].Position = samples[len(samples)-1].Position
			continue
		}

		// index of the first sample after the end of the lap
		n := sort.Search(len(samples), func(j int) bool {
			return samples[j].Date.After(end)
		})

		if n > 0 {
			table[i].Position = samples[n-1].Position
		}
	}
}

// LoadTelemetry fetches the car data recorded during a lap and adds the
// distance driven since the start of the lap.
func (c *Client) LoadTelemetry(ctx context.Context, session *timing.Session, lap timing.Lap) (timing.Telemetry, error) {
	if session == nil {
		return nil, ErrSessionNotFound
	}

	driverNumber := lap.DriverNumber

	if driverNumber == 0 {
		driver, ok := session.Driver(lap.Driver)

		if !ok {
			return nil, pkgerrors.Wrap(ErrUnknownDriver, lap.Driver)
		}

		driverNumber = driver.Number
	}

	from, to := lap.StartTime, lap.EndTime()

	if from.IsZero() || to.IsZero() {
		return nil, pkgerrors.Wrapf(ErrNoTelemetryWindow, "%s lap %d", lap.Driver, lap.LapNumber)
	}

	data, err := c.CarData(ctx, session.Key, driverNumber, from, to)

	if err != nil {
		return nil, err
	}

	telemetry := make(timing.Telemetry, 0, len(data))

	for _, sample := range data {
		telemetry = append(telemetry, timing.TelemetrySample{
			Date:     sample.Date,
			Speed:    sample.Speed,
			RPM:      sample.RPM,
			Gear:     sample.Gear,
			Throttle: sample.Throttle,
			Brake:    sample.Brake,
			DRS:      sample.DRS,
		})
	}

	telemetry = telemetry.Slice(from, to)

	if len(telemetry) == 0 {
		return nil, pkgerrors.Wrapf(ErrNoTelemetry, "%s lap %d", lap.Driver, lap.LapNumber)
	}

	return telemetry.AddDistance(), nil
}
