package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestReminderKind(t *testing.T) {
	tests := []struct {
		kind     ReminderKind
		offset   int
		priority Priority
	}{
		{KindInitial, 7, PriorityMedium},
		{KindFollowup1, 3, PriorityMedium},
		{KindFollowup2, 1, PriorityHigh},
		{KindFinal, 0, PriorityUrgent},
	}
	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			assert.True(t, tc.kind.Valid())
			assert.Equal(t, tc.offset, tc.kind.OffsetDays())
			assert.Equal(t, tc.priority, tc.kind.Priority())
		})
	}
	assert.False(t, ReminderKind("weekly").Valid())
	assert.Len(t, AllKinds, 4)
}

func TestPriority_Rank(t *testing.T) {
	assert.Greater(t, PriorityUrgent.Rank(), PriorityHigh.Rank())
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Zero(t, Priority("low").Rank())
}

func TestNewReminder_StartsUnsent(t *testing.T) {
	at := time.Date(2026, time.March, 31, 9, 0, 0, 0, time.UTC)
	r := NewReminder(uuid.New(), uuid.New(), KindFollowup2, at, at.Add(-time.Hour))
	assert.False(t, r.Sent)
	assert.False(t, r.Confirmed)
	assert.Nil(t, r.SentAt)
	assert.Nil(t, r.NotificationID)
	assert.Equal(t, PriorityHigh, r.Priority())
	assert.Zero(t, r.Attempts)
	assert.True(t, r.Pending())
}

func TestReminder_Pending(t *testing.T) {
	assert.False(t, (&Reminder{Sent: true}).Pending())
	assert.False(t, (&Reminder{Suppressed: true}).Pending())
	assert.True(t, (&Reminder{Attempts: 3}).Pending())
}

func TestReminder_Status(t *testing.T) {
	assert.Equal(t, "pending", (&Reminder{}).Status())
	assert.Equal(t, "retrying", (&Reminder{Attempts: 2}).Status())
	assert.Equal(t, "suppressed", (&Reminder{Suppressed: true, Attempts: 2}).Status())
	assert.Equal(t, "sent", (&Reminder{Sent: true, Attempts: 1}).Status())
}

func TestCourtDate_IsScheduled(t *testing.T) {
	var nilCD *CourtDate
	assert.False(t, nilCD.IsScheduled())
	assert.False(t, (&CourtDate{}).IsScheduled())
	at := time.Now()
	assert.True(t, (&CourtDate{ScheduledAt: &at}).IsScheduled())
}

func TestClient_DisplayName(t *testing.T) {
	assert.Equal(t, "Dana Reyes", (&Client{FirstName: "Dana", LastName: "Reyes"}).DisplayName())
	assert.Equal(t, "Dana", (&Client{FirstName: "Dana"}).DisplayName())
	assert.Equal(t, "Reyes", (&Client{LastName: "Reyes"}).DisplayName())
	assert.Empty(t, (&Client{}).DisplayName())
}
