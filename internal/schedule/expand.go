// Package schedule implements the bidirectional mapping between the
// device-native weekly schedule (per-task start minute, duration and
// weekday flags) and calendar events with RFC5545 weekly recurrence
// rules.
package schedule

import (
	"fmt"
	"time"

	"mowercal/internal/model"
)

// ExpandInput carries everything task expansion depends on. Expansion is
// a pure function of this input; calling it twice with the same input
// yields identical event lists.
type ExpandInput struct {
	// MowerName labels the generated events and their UIDs.
	MowerName string

	// Location is the reverse-geocoded address of the mower, or empty
	// when the lookup failed or was skipped.
	Location string

	// Tasks is the device schedule in stored order.
	Tasks []model.Task

	// Anchor is the current local midnight. All occurrences fall on
	// Anchor plus 0..6 days.
	Anchor time.Time
}

// Expand produces one CalendarEvent per (task, flagged weekday) pair for
// the 7-day window starting at the anchor day.
//
// Events are appended in task order first, then ascending day offset
// 0..6. That ordering is what makes next-event tie-breaking stable.
// A task with no flagged days contributes nothing; a zero-duration task
// contributes zero-length events.
//
// Any requested query range is deliberately not applied here: the
// expansion window is always the 7 days from the anchor, matching the
// device's weekly schedule cycle.
func Expand(in ExpandInput) []model.CalendarEvent {
	events := make([]model.CalendarEvent, 0, len(in.Tasks)*7)

	for i, task := range in.Tasks {
		startMowing := in.Anchor.Add(time.Duration(task.Start) * time.Minute)
		endMowing := in.Anchor.Add(time.Duration(task.Start+task.Duration) * time.Minute)

		for offset := 0; offset < 7; offset++ {
			day := in.Anchor.AddDate(0, 0, offset)
			if !task.RunsOn(day.Weekday()) {
				continue
			}

			events = append(events, model.CalendarEvent{
				UID:         fmt.Sprintf("%s-%d", in.MowerName, i+1),
				Summary:     fmt.Sprintf("%s Mowing schedule %d", in.MowerName, i+1),
				Description: "Nice day to mow",
				Location:    in.Location,
				RRule:       "FREQ=WEEKLY;BYDAY=" + model.RFC5545Day(day.Weekday()),
				Start:       startMowing.AddDate(0, 0, offset),
				End:         endMowing.AddDate(0, 0, offset),
			})
		}
	}

	return events
}

// NextEvent returns the event with the earliest start. Comparison is
// strict, so the first event seen wins ties. When the list is empty (or
// nothing starts before the fallback) a synthetic placeholder anchored 7
// days out is returned, so the result is never empty.
func NextEvent(anchor time.Time, events []model.CalendarEvent) model.CalendarEvent {
	next := model.CalendarEvent{
		Summary:     "",
		Description: "Good time to mow",
		Start:       anchor.AddDate(0, 0, 7),
		End:         anchor.AddDate(0, 0, 7).Add(2 * time.Hour),
	}

	for _, ev := range events {
		if ev.Start.Before(next.Start) {
			next = ev
		}
	}

	return next
}

// StartOfDay truncates t to midnight in its own location. The result is
// the anchor day for expansion.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
