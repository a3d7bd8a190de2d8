package store

import "errors"

var (
	ErrAccessDenied         = errors.New("access denied")
	ErrUserNotFound         = errors.New("user not found")
	ErrRequestNotFound      = errors.New("absence request not found")
	ErrFeedbackNotFound     = errors.New("feedback not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrAlreadyDecided       = errors.New("record already decided")
	ErrInvalidDates         = errors.New("start date cannot be after end date")
	ErrPastStartDate        = errors.New("cannot request absence for past dates")
	ErrEmptyContent         = errors.New("content cannot be empty")
	ErrHierarchyCycle       = errors.New("assignment would create a circular hierarchy")
	ErrNotAssignableManager = errors.New("user cannot be assigned as manager")
	ErrDuplicateToken       = errors.New("token already registered")
	ErrDuplicateEmail       = errors.New("email already in use")
)
