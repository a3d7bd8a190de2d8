package models

import (
	"strings"
	"time"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

const (
	AbsenceVacation = "VACATION"
	AbsenceSick     = "SICK"
	AbsenceOther    = "OTHER"
)

type AbsenceRequest struct {
	RequestID       string    `json:"request_id"`
	UserID          string    `json:"user_id"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	Type            string    `json:"type"`
	Reason          string    `json:"reason,omitempty"`
	Status          string    `json:"status"`
	ApproverID      *string   `json:"approver_id,omitempty"`
	RejectionReason *string   `json:"rejection_reason,omitempty"`
	CreatedByID     string    `json:"created_by_id"`
	CreatedAt       time.Time `json:"created_at"`
	CanApprove      bool      `json:"can_approve"`
}

// StatusFromString normalizes a status value, defaulting to PENDING for
// anything unrecognized.
func StatusFromString(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case StatusApproved:
		return StatusApproved
	case StatusRejected:
		return StatusRejected
	default:
		return StatusPending
	}
}

// AbsenceTypeFromString normalizes a request type, defaulting to OTHER.
func AbsenceTypeFromString(requestType string) string {
	switch strings.ToUpper(strings.TrimSpace(requestType)) {
	case AbsenceVacation:
		return AbsenceVacation
	case AbsenceSick:
		return AbsenceSick
	default:
		return AbsenceOther
	}
}
