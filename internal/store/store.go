package store

import (
	"context"
	"time"

	"hrcore/internal/models"
)

// Viewer identifies the caller of a read operation. Every operation
// takes the actor explicitly; there is no ambient identity.
type Viewer struct {
	UserID string
	Role   string
}

type Page struct {
	Limit  int
	Offset int
	Sort   string
	Desc   bool
}

type CreateUserInput struct {
	Email      string
	FirstName  string
	LastName   string
	Phone      string
	Department string
	Role       string
	ManagerID  string
}

type UpdateUserInput struct {
	UserID     string
	FirstName  *string
	LastName   *string
	Phone      *string
	Department *string
	Role       *string
}

type UserFilter struct {
	Search     string
	Department string
	Role       string
	ManagerID  string
}

type SubmitAbsenceInput struct {
	UserID      string
	StartDate   time.Time
	EndDate     time.Time
	Type        string
	Reason      string
	CreatedByID string
}

type AbsenceFilter struct {
	Search             string
	UserID             string
	Status             string
	Type               string
	StartDateFrom      *time.Time
	StartDateTo        *time.Time
	EndDateFrom        *time.Time
	EndDateTo          *time.Time
	ApproverID         string
	CreatedByID        string
	ManagerID          string
	HasRejectionReason *bool
}

type DecideAbsenceInput struct {
	RequestID string
	ActorID   string
	ActorRole string
	Approve   bool
	Reason    string
}

// AmendAbsenceInput is the manager correction path: unlike approve and
// reject it may overwrite a prior decision, and it may attach a comment
// without changing status. Nil or empty fields are left unchanged.
type AmendAbsenceInput struct {
	RequestID string
	ActorID   string
	ActorRole string
	Status    string
	Comment   *string
}

type SubmitFeedbackInput struct {
	FromUserID string
	ToUserID   string
	Content    string
}

type FeedbackFilter struct {
	FromUserID      string
	ToUserID        string
	ManagerID       string
	Status          string
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
	ContentContains string
	HasPolished     *bool
}

type DecideFeedbackInput struct {
	FeedbackID string
	ActorID    string
	ActorRole  string
	Approve    bool
}

type Store interface {
	CreateUser(ctx context.Context, input CreateUserInput) (models.User, error)
	GetUser(ctx context.Context, userID string) (models.User, error)
	SearchUsers(ctx context.Context, viewer Viewer, filter UserFilter, page Page) ([]models.User, error)
	UpdateUser(ctx context.Context, input UpdateUserInput) (models.User, error)
	DeleteUser(ctx context.Context, userID string) error
	AssignManager(ctx context.Context, employeeID, managerID string) (models.User, error)
	DirectReports(ctx context.Context, managerID string) ([]models.User, error)
	IsInHierarchyOf(ctx context.Context, userID, ancestorID string) (bool, error)

	SubmitAbsence(ctx context.Context, input SubmitAbsenceInput) (models.AbsenceRequest, error)
	GetAbsence(ctx context.Context, viewer Viewer, requestID string) (models.AbsenceRequest, error)
	SearchAbsences(ctx context.Context, viewer Viewer, filter AbsenceFilter, page Page) ([]models.AbsenceRequest, error)
	DecideAbsence(ctx context.Context, input DecideAbsenceInput) (models.AbsenceRequest, error)
	AmendAbsence(ctx context.Context, input AmendAbsenceInput) (models.AbsenceRequest, error)

	SubmitFeedback(ctx context.Context, input SubmitFeedbackInput) (models.Feedback, error)
	GetFeedback(ctx context.Context, feedbackID string) (models.Feedback, error)
	SearchFeedback(ctx context.Context, viewer Viewer, filter FeedbackFilter, page Page) ([]models.Feedback, error)
	ReceivedFeedback(ctx context.Context, subjectID string, page Page) ([]models.Feedback, error)
	ProfileFeedback(ctx context.Context, viewer Viewer, subjectID, status string, page Page) ([]models.Feedback, error)
	DecideFeedback(ctx context.Context, input DecideFeedbackInput) (models.Feedback, error)
	SetPolishedContent(ctx context.Context, feedbackID, polished string) (models.Feedback, error)

	RegisterSession(ctx context.Context, session models.Session) error
	GetSession(ctx context.Context, tokenJTI string) (models.Session, error)
	RevokeSession(ctx context.Context, tokenJTI string) error
	RevokeUserSessions(ctx context.Context, userID string) (int64, error)
	ListActiveSessions(ctx context.Context, userID string) ([]models.Session, error)
	SweepExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
