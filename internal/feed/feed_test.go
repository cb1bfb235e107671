package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mowercal/internal/model"
	"mowercal/internal/schedule"
)

func TestRenderCarriesRRules(t *testing.T) {
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	events := schedule.Expand(schedule.ExpandInput{
		MowerName: "Dontpanic",
		Location:  "Slottsskogen 12, Gothenburg",
		Tasks: []model.Task{
			{Start: 480, Duration: 120, Monday: true, Wednesday: true},
		},
		Anchor: monday,
	})
	require.Len(t, events, 2)

	out := Render(events)

	require.Contains(t, out, "BEGIN:VCALENDAR")
	require.Contains(t, out, "END:VCALENDAR")
	require.Contains(t, out, "RRULE:FREQ=WEEKLY;BYDAY=MO")
	require.Contains(t, out, "RRULE:FREQ=WEEKLY;BYDAY=WE")
	require.Contains(t, out, "SUMMARY:Dontpanic Mowing schedule 1")
	require.Contains(t, out, "UID:Dontpanic-1-MO")
	require.Contains(t, out, "UID:Dontpanic-1-WE")

	require.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
}

func TestRenderEmptySchedule(t *testing.T) {
	out := Render(nil)
	require.Contains(t, out, "BEGIN:VCALENDAR")
	require.NotContains(t, out, "BEGIN:VEVENT")
}
