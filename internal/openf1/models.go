package openf1

import "time"

type Meeting struct {
	MeetingKey          int       `json:"meeting_key"`
	MeetingName         string    `json:"meeting_name"`
	MeetingOfficialName string    `json:"meeting_official_name"`
	Location            string    `json:"location"`
	CountryName         string    `json:"country_name"`
	CircuitShortName    string    `json:"circuit_short_name"`
	DateStart           time.Time `json:"date_start"`
	Year                int       `json:"year"`
}

type Session struct {
	SessionKey       int       `json:"session_key"`
	SessionName      string    `json:"session_name"`
	SessionType      string    `json:"session_type"`
	MeetingKey       int       `json:"meeting_key"`
	Location         string    `json:"location"`
	CountryName      string    `json:"country_name"`
	CircuitShortName string    `json:"circuit_short_name"`
	DateStart        time.Time `json:"date_start"`
	DateEnd          time.Time `json:"date_end"`
	Year             int       `json:"year"`
}

type Driver struct {
	SessionKey    int    `json:"session_key"`
	DriverNumber  int    `json:"driver_number"`
	NameAcronym   string `json:"name_acronym"`
	FullName      string `json:"full_name"`
	BroadcastName string `json:"broadcast_name"`
	TeamName      string `json:"team_name"`
	TeamColour    string `json:"team_colour"`
}

// Lap is a row of the /laps endpoint. Durations are in seconds and are null
// when the provider could not time the lap or sector.
type Lap struct {
	SessionKey      int        `json:"session_key"`
	DriverNumber    int        `json:"driver_number"`
	LapNumber       int        `json:"lap_number"`
	DateStart       *time.Time `json:"date_start"`
	LapDuration     *float64   `json:"lap_duration"`
	DurationSector1 *float64   `json:"duration_sector_1"`
	DurationSector2 *float64   `json:"duration_sector_2"`
	DurationSector3 *float64   `json:"duration_sector_3"`
	IsPitOutLap     bool       `json:"is_pit_out_lap"`
	I1Speed         *int       `json:"i1_speed"`
	I2Speed         *int       `json:"i2_speed"`
	STSpeed         *int       `json:"st_speed"`
}

type Position struct {
	Date         time.Time `json:"date"`
	DriverNumber int       `json:"driver_number"`
	Position     int       `json:"position"`
}

type Stint struct {
	DriverNumber   int    `json:"driver_number"`
	StintNumber    int    `json:"stint_number"`
	LapStart       int    `json:"lap_start"`
	LapEnd         int    `json:"lap_end"`
	Compound       string `json:"compound"`
	TyreAgeAtStart int    `json:"tyre_age_at_start"`
}

type CarData struct {
	Date         time.Time `json:"date"`
	DriverNumber int       `json:"driver_number"`
	Speed        float64   `json:"speed"`
	RPM          int       `json:"rpm"`
	Gear         int       `json:"n_gear"`
	Throttle     int       `json:"throttle"`
	Brake        int       `json:"brake"`
	DRS          int       `json:"drs"`
}
