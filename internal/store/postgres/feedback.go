package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"hrcore/internal/authz"
	"hrcore/internal/models"
	"hrcore/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const feedbackColumns = `f.feedback_id, f.from_user_id, f.to_user_id, f.content, f.polished_content, f.status, f.created_at`

var feedbackSortColumns = map[string]string{
	"created_at": "f.created_at",
	"status":     "f.status",
}

func scanFeedback(row pgx.Row) (models.Feedback, error) {
	var feedback models.Feedback
	var polished sql.NullString
	if err := row.Scan(
		&feedback.FeedbackID,
		&feedback.FromUserID,
		&feedback.ToUserID,
		&feedback.Content,
		&polished,
		&feedback.Status,
		&feedback.CreatedAt,
	); err != nil {
		return models.Feedback{}, err
	}
	feedback.PolishedContent = nullStringPtr(polished)
	return feedback, nil
}

func (s *Store) queryFeedback(ctx context.Context, cond authz.Cond, page store.Page) ([]models.Feedback, error) {
	where, args := whereClause(cond, 1)
	page = normalizePage(page)
	query := `SELECT ` + feedbackColumns + ` FROM feedback f JOIN users u ON u.user_id = f.to_user_id` +
		where +
		orderClause(feedbackSortColumns, page, "f.created_at") +
		` LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, page.Limit, page.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feedbacks []models.Feedback
	for rows.Next() {
		feedback, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		feedbacks = append(feedbacks, feedback)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return feedbacks, nil
}

func (s *Store) SubmitFeedback(ctx context.Context, input store.SubmitFeedbackInput) (models.Feedback, error) {
	if strings.TrimSpace(input.Content) == "" {
		return models.Feedback{}, store.ErrEmptyContent
	}

	feedbackID := uuid.NewString()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO feedback (feedback_id, from_user_id, to_user_id, content, status)
		SELECT $1, $2, $3, $4, 'PENDING'
		WHERE EXISTS (SELECT 1 FROM users WHERE user_id = $2)
		  AND EXISTS (SELECT 1 FROM users WHERE user_id = $3)
		RETURNING feedback_id, from_user_id, to_user_id, content, polished_content, status, created_at
	`, feedbackID, input.FromUserID, input.ToUserID, input.Content)

	feedback, err := scanFeedback(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Feedback{}, store.ErrUserNotFound
		}
		return models.Feedback{}, err
	}
	return feedback, nil
}

func (s *Store) GetFeedback(ctx context.Context, feedbackID string) (models.Feedback, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+feedbackColumns+`
		FROM feedback f
		WHERE f.feedback_id = $1
	`, feedbackID)
	feedback, err := scanFeedback(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Feedback{}, store.ErrFeedbackNotFound
		}
		return models.Feedback{}, err
	}
	return feedback, nil
}

func (s *Store) SearchFeedback(ctx context.Context, viewer store.Viewer, filter store.FeedbackFilter, page store.Page) ([]models.Feedback, error) {
	conds := []authz.Cond{authz.FeedbackVisibility(viewer.UserID, viewer.Role)}
	if filter.FromUserID != "" {
		conds = append(conds, authz.Eq("f.from_user_id", filter.FromUserID))
	}
	if filter.ToUserID != "" {
		conds = append(conds, authz.Eq("f.to_user_id", filter.ToUserID))
	}
	if filter.ManagerID != "" {
		conds = append(conds, authz.Eq("u.manager_id", filter.ManagerID))
	}
	if filter.Status != "" {
		conds = append(conds, authz.Eq("f.status", filter.Status))
	}
	if filter.CreatedAfter != nil {
		conds = append(conds, authz.Gte("f.created_at", *filter.CreatedAfter))
	}
	if filter.CreatedBefore != nil {
		conds = append(conds, authz.Lte("f.created_at", *filter.CreatedBefore))
	}
	if filter.ContentContains != "" {
		conds = append(conds, authz.Contains("f.content", filter.ContentContains))
	}
	if filter.HasPolished != nil {
		if *filter.HasPolished {
			conds = append(conds, authz.NotNull("f.polished_content"))
		} else {
			conds = append(conds, authz.IsNull("f.polished_content"))
		}
	}
	return s.queryFeedback(ctx, authz.And(conds...), page)
}

func (s *Store) ReceivedFeedback(ctx context.Context, subjectID string, page store.Page) ([]models.Feedback, error) {
	return s.queryFeedback(ctx, authz.ReceivedFeedbackVisibility(subjectID), page)
}

// ProfileFeedback lists the feedback section of a user's profile. What
// the viewer sees depends on their relationship to the subject, so the
// subject's manager is resolved first.
func (s *Store) ProfileFeedback(ctx context.Context, viewer store.Viewer, subjectID, status string, page store.Page) ([]models.Feedback, error) {
	var managerID sql.NullString
	row := s.pool.QueryRow(ctx, `SELECT manager_id FROM users WHERE user_id = $1`, subjectID)
	if err := row.Scan(&managerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, err
	}

	conds := []authz.Cond{
		authz.ProfileFeedbackVisibility(viewer.UserID, viewer.Role, subjectID, managerID.String),
	}
	if status != "" {
		conds = append(conds, authz.Eq("f.status", status))
	}
	return s.queryFeedback(ctx, authz.And(conds...), page)
}

// DecideFeedback moves pending feedback to APPROVED or REJECTED. Same
// compare-and-set shape as absence decisions: the UPDATE re-checks the
// status so only one of two racing decisions can land.
func (s *Store) DecideFeedback(ctx context.Context, input store.DecideFeedbackInput) (models.Feedback, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Feedback{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var status string
	var managerID sql.NullString
	row := tx.QueryRow(ctx, `
		SELECT f.status, u.manager_id
		FROM feedback f
		JOIN users u ON u.user_id = f.to_user_id
		WHERE f.feedback_id = $1
		FOR UPDATE OF f
	`, input.FeedbackID)
	if err = row.Scan(&status, &managerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrFeedbackNotFound
		}
		return models.Feedback{}, err
	}
	if !authz.CanApproveOrReject(input.ActorID, input.ActorRole, managerID.String) {
		err = store.ErrAccessDenied
		return models.Feedback{}, err
	}
	if status != models.StatusPending {
		err = store.ErrAlreadyDecided
		return models.Feedback{}, err
	}

	newStatus := models.StatusRejected
	if input.Approve {
		newStatus = models.StatusApproved
	}

	row = tx.QueryRow(ctx, `
		UPDATE feedback f
		SET status = $2
		WHERE f.feedback_id = $1 AND f.status = 'PENDING'
		RETURNING `+feedbackColumns+`
	`, input.FeedbackID, newStatus)

	var feedback models.Feedback
	feedback, err = scanFeedback(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrAlreadyDecided
		}
		return models.Feedback{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Feedback{}, err
	}
	return feedback, nil
}

func (s *Store) SetPolishedContent(ctx context.Context, feedbackID, polished string) (models.Feedback, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE feedback f
		SET polished_content = $2
		WHERE f.feedback_id = $1
		RETURNING `+feedbackColumns+`
	`, feedbackID, polished)
	feedback, err := scanFeedback(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Feedback{}, store.ErrFeedbackNotFound
		}
		return models.Feedback{}, err
	}
	return feedback, nil
}
