package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remindersScheduledCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reminder",
			Name:      "reminders_scheduled_total",
			Help:      "Total number of reminders persisted by the scheduler.",
		},
		[]string{"kind"},
	)
	remindersRescheduledCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reminder",
			Name:      "reminders_rescheduled_total",
			Help:      "Total number of unsent reminders moved after their court date changed.",
		},
		[]string{"kind"},
	)
	remindersRetiredCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reminder",
			Name:      "reminders_retired_total",
			Help:      "Total number of unsent reminders suppressed because their new slot had passed.",
		},
		[]string{"kind"},
	)
	scheduleErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reminder",
			Name:      "schedule_errors_total",
			Help:      "Total number of reminder writes rejected by the store.",
		},
	)
	dispatchCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reminder",
			Name:      "dispatch_total",
			Help:      "Total number of due reminders handled by the dispatch pass.",
		},
		[]string{"kind", "status"}, // status: sent, failed, suppressed, error_mark_sent, error_suppress
	)
	dispatchDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reminder",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of a single reminder dispatch.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	dispatchPassDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "reminder",
			Name:      "dispatch_pass_duration_seconds",
			Help:      "Duration of a full dispatch pass.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	courtDateEventsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reminder",
			Name:      "court_date_events_total",
			Help:      "Total number of court date events consumed.",
		},
		[]string{"type", "status"},
	)
)
