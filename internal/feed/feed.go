// Package feed renders expanded mowing events as an iCalendar feed so
// external calendar applications can subscribe to the schedule.
package feed

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"mowercal/internal/model"
)

const productID = "-//mowercal//calendar feed//EN"

// Calendar builds a VCALENDAR with one VEVENT per expanded event. Each
// VEVENT carries the event's weekly RRULE, so subscribers see the slot
// recur on the right weekday without us expanding further weeks.
func Calendar(events []model.CalendarEvent) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	now := time.Now().UTC()

	for _, ev := range events {
		// Event UIDs repeat per task (one per flagged weekday), but ICS
		// requires per-VEVENT uniqueness, so the day code is appended.
		ve := cal.AddEvent(ev.UID + "-" + dayCode(ev.RRule))
		ve.SetDtStampTime(now)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		ve.SetSummary(ev.Summary)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		ve.AddRrule(ev.RRule)
	}

	return cal
}

// Render serializes the feed to its text/calendar form.
func Render(events []model.CalendarEvent) string {
	return Calendar(events).Serialize()
}

// dayCode pulls the BYDAY value out of a single-day weekly rule.
func dayCode(rr string) string {
	if i := strings.LastIndex(rr, "="); i >= 0 {
		return rr[i+1:]
	}
	return rr
}
