package model

import "time"

// Task is a single weekly recurring mowing slot exactly as the device
// stores it: a start offset in minutes from local midnight, a duration in
// minutes, and one boolean per weekday. start+duration is allowed to run
// past midnight; the device does not treat rollover specially and neither
// do we.
type Task struct {
	Start    int `json:"start" yaml:"start"`
	Duration int `json:"duration" yaml:"duration"`

	Monday    bool `json:"monday" yaml:"monday"`
	Tuesday   bool `json:"tuesday" yaml:"tuesday"`
	Wednesday bool `json:"wednesday" yaml:"wednesday"`
	Thursday  bool `json:"thursday" yaml:"thursday"`
	Friday    bool `json:"friday" yaml:"friday"`
	Saturday  bool `json:"saturday" yaml:"saturday"`
	Sunday    bool `json:"sunday" yaml:"sunday"`
}

// RunsOn reports whether the task is flagged for the given weekday.
func (t Task) RunsOn(d time.Weekday) bool {
	switch d {
	case time.Monday:
		return t.Monday
	case time.Tuesday:
		return t.Tuesday
	case time.Wednesday:
		return t.Wednesday
	case time.Thursday:
		return t.Thursday
	case time.Friday:
		return t.Friday
	case time.Saturday:
		return t.Saturday
	case time.Sunday:
		return t.Sunday
	}
	return false
}

// SetDay sets the flag for the given weekday.
func (t *Task) SetDay(d time.Weekday, on bool) {
	switch d {
	case time.Monday:
		t.Monday = on
	case time.Tuesday:
		t.Tuesday = on
	case time.Wednesday:
		t.Wednesday = on
	case time.Thursday:
		t.Thursday = on
	case time.Friday:
		t.Friday = on
	case time.Saturday:
		t.Saturday = on
	case time.Sunday:
		t.Sunday = on
	}
}

// Position is a reported GPS coordinate of the mower.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Mower is a read-only snapshot of one device as reported by the remote
// state source: identity, last known positions (most recent first), and
// the stored weekly schedule.
type Mower struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`

	Positions []Position `json:"positions"`
	Tasks     []Task     `json:"tasks"`
}

// CalendarEvent is one concrete weekly occurrence derived from a Task.
// Events are recomputed on every query and never persisted or mutated
// after construction.
type CalendarEvent struct {
	UID         string `json:"uid"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`

	// RRule is always FREQ=WEEKLY;BYDAY=<dd> with a single day code;
	// a task flagged for several weekdays yields several events.
	RRule string `json:"rrule"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RFC5545Day returns the two-letter BYDAY code for a weekday.
func RFC5545Day(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "MO"
	case time.Tuesday:
		return "TU"
	case time.Wednesday:
		return "WE"
	case time.Thursday:
		return "TH"
	case time.Friday:
		return "FR"
	case time.Saturday:
		return "SA"
	case time.Sunday:
		return "SU"
	}
	return ""
}

// WeekdayFromRFC5545 maps a BYDAY code back to a weekday.
func WeekdayFromRFC5545(code string) (time.Weekday, bool) {
	switch code {
	case "MO":
		return time.Monday, true
	case "TU":
		return time.Tuesday, true
	case "WE":
		return time.Wednesday, true
	case "TH":
		return time.Thursday, true
	case "FR":
		return time.Friday, true
	case "SA":
		return time.Saturday, true
	case "SU":
		return time.Sunday, true
	}
	return time.Sunday, false
}

// Weekdays lists the seven weekdays in device order (Monday first),
// matching the order of the boolean fields on Task.
var Weekdays = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}
