package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mowercal/internal/model"
)

func TestTasksFromUpdateValidation(t *testing.T) {
	tests := []struct {
		name    string
		rrule   string
		wantMsg string
	}{
		{
			name:    "missing rrule",
			rrule:   "",
			wantMsg: "only recurring events are allowed",
		},
		{
			name:    "daily rule",
			rrule:   "FREQ=DAILY",
			wantMsg: "please select weekly",
		},
		{
			name:    "weekly without byday",
			rrule:   "FREQ=WEEKLY",
			wantMsg: "please select day(s)",
		},
		{
			name:    "count not representable",
			rrule:   "FREQ=WEEKLY;BYDAY=MO;COUNT=4",
			wantMsg: "only FREQ=WEEKLY with BYDAY is supported",
		},
		{
			name:    "until not representable",
			rrule:   "FREQ=WEEKLY;BYDAY=MO;UNTIL=20270101T000000Z",
			wantMsg: "only FREQ=WEEKLY with BYDAY is supported",
		},
		{
			name:    "interval not representable",
			rrule:   "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO",
			wantMsg: "only FREQ=WEEKLY with BYDAY is supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TasksFromUpdate(EventUpdate{RRule: tt.rrule})
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrValidation), "expected ErrValidation, got %v", err)
			require.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestTasksFromUpdateRoundTrip(t *testing.T) {
	up := EventUpdate{
		UID:     "Automower-1",
		RRule:   "FREQ=WEEKLY;BYDAY=MO,WE",
		DTStart: time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC),
		DTEnd:   time.Date(2025, 3, 3, 10, 30, 0, 0, time.UTC),
	}

	tasks, err := TasksFromUpdate(up)
	require.NoError(t, err)

	// The result is always a one-task full replacement of the schedule.
	require.Len(t, tasks, 1)

	want := model.Task{
		Start:     480,
		Duration:  150,
		Monday:    true,
		Wednesday: true,
	}
	require.Equal(t, want, tasks[0])
}

func TestTasksFromUpdateSingleDay(t *testing.T) {
	up := EventUpdate{
		RRule:   "FREQ=WEEKLY;BYDAY=SU",
		DTStart: time.Date(2025, 3, 3, 6, 15, 0, 0, time.UTC),
		DTEnd:   time.Date(2025, 3, 3, 7, 0, 0, 0, time.UTC),
	}

	tasks, err := TasksFromUpdate(up)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	task := tasks[0]
	require.Equal(t, 375, task.Start)
	require.Equal(t, 45, task.Duration)
	for _, d := range model.Weekdays {
		require.Equal(t, d == time.Sunday, task.RunsOn(d), "flag for %v", d)
	}
}

func TestTasksFromUpdateIgnoresRecurrenceScoping(t *testing.T) {
	up := EventUpdate{
		RRule:           "FREQ=WEEKLY;BYDAY=FR",
		DTStart:         time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
		DTEnd:           time.Date(2025, 3, 3, 11, 0, 0, 0, time.UTC),
		RecurrenceID:    "Automower-1-20250307",
		RecurrenceRange: "THISANDFUTURE",
	}

	tasks, err := TasksFromUpdate(up)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.True(t, tasks[0].Friday)
}
