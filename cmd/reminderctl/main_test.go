package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bondtrack/golang_services/internal/reminder_service/app"
	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"dispatch", "schedule", "schedule-all", "upcoming", "overdue", "migrate"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config-name"))
}

func TestScheduleCommand_RejectsBadID(t *testing.T) {
	_, err := execute(t, "schedule", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid court date id")
}

func TestScheduleCommand_RequiresOneArg(t *testing.T) {
	_, err := execute(t, "schedule")
	assert.Error(t, err)
}

func TestUpcomingCommand_RejectsWindow(t *testing.T) {
	_, err := execute(t, "upcoming", "--days", "400")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 0 and 365")
	upcomingDays = 30
}

func TestPrintHelpers(t *testing.T) {
	at := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	printUpcoming(&buf, []domain.UpcomingCourtDate{{
		CourtDate:        domain.CourtDate{ID: uuid.New(), ScheduledAt: &at, Location: "Room 4B"},
		ClientName:       "Dana Reyes",
		ClientExternalID: "BB-1042",
		DaysUntil:        8,
	}})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "DAYS UNTIL")
	assert.Contains(t, lines[1], "Dana Reyes")
	assert.Contains(t, lines[1], "2026-03-10T14:00:00Z")

	buf.Reset()
	printOverdue(&buf, []domain.OverdueCourtDate{{ClientName: "Sam Ortiz", DaysOverdue: 3}})
	assert.Contains(t, buf.String(), "Sam Ortiz")
	assert.Contains(t, buf.String(), " -  ")

	buf.Reset()
	printDispatchSummary(&buf, app.DispatchSummary{Due: 4, Sent: 2, Failed: 1, Suppressed: 1})
	assert.Equal(t, "due: 4  sent: 2  failed: 1  suppressed: 1\n", buf.String())

	buf.Reset()
	retired := domain.NewReminder(uuid.New(), uuid.New(), domain.KindInitial, at, at)
	retired.Suppressed = true
	printReminders(&buf, []*domain.Reminder{domain.NewReminder(uuid.New(), uuid.New(), domain.KindFinal, at, at), retired})
	assert.Contains(t, buf.String(), "urgent")
	assert.Contains(t, buf.String(), "STATUS")
	assert.Contains(t, buf.String(), "pending")
	assert.Contains(t, buf.String(), "suppressed")
}
