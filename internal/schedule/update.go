package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"mowercal/internal/model"
)

// ErrValidation tags rejections of an event update that should be
// surfaced to the caller with their human-readable reason. Everything
// else on the update path degrades gracefully.
var ErrValidation = errors.New("invalid event update")

// EventUpdate is a proposed change to one calendar event, as submitted
// by the host platform. RecurrenceID and RecurrenceRange are accepted by
// the contract but not used: the device schedule has no per-instance
// overrides.
type EventUpdate struct {
	UID             string    `json:"uid"`
	RRule           string    `json:"rrule"`
	DTStart         time.Time `json:"dtstart"`
	DTEnd           time.Time `json:"dtend"`
	RecurrenceID    string    `json:"recurrence_id,omitempty"`
	RecurrenceRange string    `json:"recurrence_range,omitempty"`
}

// TasksFromUpdate validates an event update and converts it into the
// task list to submit to the device.
//
// The returned list always holds exactly one task: submitting it
// replaces the entire stored schedule, not just the edited event. That
// is the device command contract, kept deliberately.
func TasksFromUpdate(up EventUpdate) ([]model.Task, error) {
	if up.RRule == "" {
		return nil, fmt.Errorf("%w: only recurring events are allowed", ErrValidation)
	}

	days, err := parseWeeklyByDay(up.RRule)
	if err != nil {
		return nil, err
	}

	start := up.DTStart.Hour()*60 + up.DTStart.Minute()
	end := up.DTEnd.Hour()*60 + up.DTEnd.Minute()

	task := model.Task{
		Start:    start,
		Duration: end - start,
	}
	for _, d := range days {
		task.SetDay(d, true)
	}

	return []model.Task{task}, nil
}

// parseWeeklyByDay extracts the BYDAY weekdays from a recurrence rule.
//
// The rule is parsed structurally as key=value pairs, never by string
// stripping. Only plain FREQ=WEEKLY with BYDAY is accepted; any other
// recurrence parameter (COUNT, UNTIL, INTERVAL>1, BYSETPOS, ...) is
// rejected outright rather than silently ignored, because the device
// schedule cannot represent it.
func parseWeeklyByDay(raw string) ([]time.Weekday, error) {
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: unrecognized recurrence rule: %v", ErrValidation, err)
	}

	if opt.Freq != rrule.WEEKLY {
		return nil, fmt.Errorf("%w: please select weekly", ErrValidation)
	}
	if len(opt.Byweekday) == 0 {
		return nil, fmt.Errorf("%w: please select day(s)", ErrValidation)
	}
	if unsupportedOptions(opt) {
		return nil, fmt.Errorf("%w: only FREQ=WEEKLY with BYDAY is supported", ErrValidation)
	}

	days := make([]time.Weekday, 0, len(opt.Byweekday))
	for _, wd := range opt.Byweekday {
		day, ok := model.WeekdayFromRFC5545(wd.String())
		if !ok {
			return nil, fmt.Errorf("%w: please select day(s)", ErrValidation)
		}
		days = append(days, day)
	}

	return days, nil
}

func unsupportedOptions(opt *rrule.ROption) bool {
	if opt.Count > 0 || !opt.Until.IsZero() || opt.Interval > 1 {
		return true
	}
	if len(opt.Bysetpos) > 0 || len(opt.Bymonth) > 0 || len(opt.Bymonthday) > 0 {
		return true
	}
	if len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 || len(opt.Byeaster) > 0 {
		return true
	}
	if len(opt.Byhour) > 0 || len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 {
		return true
	}
	return false
}
