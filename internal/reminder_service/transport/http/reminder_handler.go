package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bondtrack/golang_services/internal/reminder_service/app"
	"github.com/bondtrack/golang_services/internal/reminder_service/domain"
	"github.com/bondtrack/golang_services/internal/reminder_service/middleware"
)

// ReminderService is the part of app.Scheduler the handlers call.
type ReminderService interface {
	ScheduleReminders(ctx context.Context, cd *domain.CourtDate) ([]*domain.Reminder, error)
	ListReminders(ctx context.Context, courtDateID uuid.UUID) ([]*domain.Reminder, error)
	ConfirmReminder(ctx context.Context, reminderID uuid.UUID, actor string) (*domain.Reminder, error)
	GetUpcomingCourtDates(ctx context.Context, windowDays int) ([]domain.UpcomingCourtDate, error)
	GetOverdueCourtDates(ctx context.Context) ([]domain.OverdueCourtDate, error)
}

// DispatchRunner runs one dispatch pass on demand.
type DispatchRunner interface {
	ProcessPendingReminders(ctx context.Context) (app.DispatchSummary, error)
}

type ReminderHandler struct {
	service     ReminderService
	courtDates  domain.CourtDateRepository
	dispatch    DispatchRunner
	logger      *slog.Logger
	validate    *validator.Validate
	defaultDays int
}

func NewReminderHandler(
	service ReminderService,
	courtDates domain.CourtDateRepository,
	dispatch DispatchRunner,
	logger *slog.Logger,
	validate *validator.Validate,
	defaultDays int,
) *ReminderHandler {
	if defaultDays < 0 || defaultDays > 365 {
		defaultDays = 30
	}
	return &ReminderHandler{
		service:     service,
		courtDates:  courtDates,
		dispatch:    dispatch,
		logger:      logger.With("component", "reminder_handler"),
		validate:    validate,
		defaultDays: defaultDays,
	}
}

// RegisterRoutes mounts the reminder routes. adminOnly guards manual dispatch.
func (h *ReminderHandler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Get("/court-dates/upcoming", h.GetUpcomingCourtDates)
	r.Get("/court-dates/overdue", h.GetOverdueCourtDates)
	r.Post("/court-dates/{id}/reminders", h.ScheduleReminders)
	r.Get("/court-dates/{id}/reminders", h.ListReminders)
	r.Post("/reminders/{id}/confirm", h.ConfirmReminder)
	r.With(adminOnly).Post("/reminders/dispatch", h.Dispatch)
}

func (h *ReminderHandler) GetUpcomingCourtDates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := UpcomingQueryDTO{Days: h.defaultDays}
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "days must be an integer", http.StatusBadRequest)
			return
		}
		q.Days = days
	}
	if err := h.validate.StructCtx(ctx, q); err != nil {
		h.logger.WarnContext(ctx, "Validation failed for GetUpcomingCourtDates", "error", err)
		http.Error(w, "days must be between 0 and 365", http.StatusBadRequest)
		return
	}

	items, err := h.service.GetUpcomingCourtDates(ctx, q.Days)
	if err != nil {
		h.writeError(w, r, err, "GetUpcomingCourtDates", "")
		return
	}
	writeJSON(w, http.StatusOK, UpcomingCourtDatesResponseDTO{WindowDays: q.Days, CourtDates: items})
}

func (h *ReminderHandler) GetOverdueCourtDates(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.GetOverdueCourtDates(r.Context())
	if err != nil {
		h.writeError(w, r, err, "GetOverdueCourtDates", "")
		return
	}
	writeJSON(w, http.StatusOK, OverdueCourtDatesResponseDTO{CourtDates: items})
}

func (h *ReminderHandler) ScheduleReminders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	cd, err := h.courtDates.GetByID(ctx, id)
	if err != nil {
		h.writeError(w, r, err, "ScheduleReminders", id.String())
		return
	}
	if cd.Completed {
		http.Error(w, "court date is completed", http.StatusConflict)
		return
	}

	created, err := h.service.ScheduleReminders(ctx, cd)
	if err != nil {
		// Partial creation still reports what was stored.
		h.logger.ErrorContext(ctx, "ScheduleReminders reported failures", "court_date_id", id, "created", len(created), "error", err)
		if len(created) == 0 {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, http.StatusCreated, ListRemindersResponseDTO{Reminders: toReminderDTOs(created)})
}

func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	reminders, err := h.service.ListReminders(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "ListReminders", id.String())
		return
	}
	writeJSON(w, http.StatusOK, ListRemindersResponseDTO{Reminders: toReminderDTOs(reminders)})
}

func (h *ReminderHandler) ConfirmReminder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	authUser, ok := middleware.UserFromContext(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "AuthenticatedUser not found in context for ConfirmReminder")
		http.Error(w, "User authentication details not found", http.StatusUnauthorized)
		return
	}

	rem, err := h.service.ConfirmReminder(ctx, id, authUser.ID)
	if err != nil {
		h.writeError(w, r, err, "ConfirmReminder", id.String())
		return
	}
	writeJSON(w, http.StatusOK, toReminderDTO(rem))
}

func (h *ReminderHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dispatch.ProcessPendingReminders(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Dispatch", "")
		return
	}
	writeJSON(w, http.StatusOK, DispatchResponseDTO{DispatchSummary: summary})
}

func (h *ReminderHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps domain errors to HTTP status codes.
func (h *ReminderHandler) writeError(w http.ResponseWriter, r *http.Request, err error, operation, resourceID string) {
	log := h.logger.With("operation", operation, "resource_id", resourceID, "error", err)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.WarnContext(r.Context(), "Resource not found")
		http.Error(w, "Resource not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrReminderNotSent):
		http.Error(w, "Reminder has not been sent yet", http.StatusConflict)
	case errors.Is(err, domain.ErrAlreadyConfirmed):
		http.Error(w, "Reminder already confirmed", http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidWindow):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.WarnContext(r.Context(), "Request cancelled")
		http.Error(w, "Request cancelled", http.StatusServiceUnavailable)
	default:
		log.ErrorContext(r.Context(), "Unhandled error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
