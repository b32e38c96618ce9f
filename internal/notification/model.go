// Package notification sends guest emails. Sending never fails the caller:
// every attempt is recorded in notification_logs and delivery happens in the
// background.
package notification

import (
	"time"
)

type TemplateType string

const (
	TemplateBookingConfirmation TemplateType = "BOOKING_CONFIRMATION"
	TemplateBookingCancellation TemplateType = "BOOKING_CANCELLATION"
	TemplateCheckInWelcome      TemplateType = "CHECK_IN_WELCOME"
	TemplateCheckOutThanks      TemplateType = "CHECK_OUT_THANKS"
)

type Status string

const (
	StatusQueued  Status = "QUEUED"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED" // no mail transport configured
)

type Recipient struct {
	Name  string
	Email string
}

// Log is one notification_logs row.
type Log struct {
	ID           string
	TemplateType TemplateType
	Recipient    string
	Subject      string
	Body         string
	Status       Status
	Error        string
	CreatedAt    time.Time
	SentAt       *time.Time
}
