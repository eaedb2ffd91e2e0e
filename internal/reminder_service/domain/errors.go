package domain

import "errors"

var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicateReminder indicates a reminder of the same kind already exists for the court date.
	ErrDuplicateReminder = errors.New("reminder already exists for court date and kind")
	// ErrAlreadySent indicates the reminder was already marked sent.
	ErrAlreadySent = errors.New("reminder already sent")
	// ErrReminderNotSent indicates a confirmation was attempted before the reminder was sent.
	ErrReminderNotSent = errors.New("reminder not sent yet")
	// ErrAlreadyConfirmed indicates the reminder was already confirmed.
	ErrAlreadyConfirmed = errors.New("reminder already confirmed")
	// ErrClientNotFound indicates the court date's client could not be resolved.
	ErrClientNotFound = errors.New("client not found")
	// ErrDispatchFailed indicates no notification channel accepted the reminder.
	ErrDispatchFailed = errors.New("reminder dispatch failed")
	// ErrNoChannel indicates the client has no phone number or email address.
	ErrNoChannel = errors.New("client has no notification channel")
	// ErrInvalidWindow indicates a negative upcoming window.
	ErrInvalidWindow = errors.New("window days must be non-negative")
)
