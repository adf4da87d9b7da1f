package timing

import (
	"errors"
	"strings"
	"time"
)

type SessionKind string

const (
	SessionKindQualifying SessionKind = "Q"
	SessionKindRace       SessionKind = "R"
)

var ErrUnknownSessionKind = errors.New("timing: unknown session kind")

// ParseSessionKind accepts either the display name ("Qualifying", "Race") or
// the single letter identifier, case-insensitively.
func ParseSessionKind(s string) (SessionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "q", "qualifying":
		return SessionKindQualifying, nil
	case "r", "race":
		return SessionKindRace, nil
	default:
		return "", ErrUnknownSessionKind
	}
}

// String returns the name of the session as used by data providers and the dashboard.
func (k SessionKind) String() string {
	switch k {
	case SessionKindQualifying:
		return "Qualifying"
	case SessionKindRace:
		return "Race"
	default:
		return string(k)
	}
}

type Driver struct {
	Number    int
	Code      string
	FullName  string
	TeamName  string
	TeamColor string
}

type Session struct {
	Key         int
	Year        int
	Event       string
	MeetingName string
	Circuit     string
	Kind        SessionKind
	StartTime   time.Time

	Drivers map[string]Driver
	Laps    Laps
}

func (s *Session) Driver(code string) (Driver, bool) {
	d, ok := s.Drivers[strings.ToUpper(code)]

	return d, ok
}
