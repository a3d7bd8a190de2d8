package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hrcore/internal/authz"
	"hrcore/internal/models"
	"hrcore/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const absenceColumns = `r.request_id, r.user_id, r.start_date, r.end_date, r.type, r.reason, r.status, r.approver_id, r.rejection_reason, r.created_by_id, r.created_at, u.manager_id`

var absenceSortColumns = map[string]string{
	"start_date": "r.start_date",
	"end_date":   "r.end_date",
	"created_at": "r.created_at",
	"status":     "r.status",
}

// scanAbsence reads one joined row and stamps CanApprove for the given
// viewer. The join carries the subject's manager_id so the decision
// check never needs a second query.
func scanAbsence(row pgx.Row, viewer store.Viewer) (models.AbsenceRequest, error) {
	var request models.AbsenceRequest
	var approverID, rejectionReason, managerID sql.NullString
	if err := row.Scan(
		&request.RequestID,
		&request.UserID,
		&request.StartDate,
		&request.EndDate,
		&request.Type,
		&request.Reason,
		&request.Status,
		&approverID,
		&rejectionReason,
		&request.CreatedByID,
		&request.CreatedAt,
		&managerID,
	); err != nil {
		return models.AbsenceRequest{}, err
	}
	request.ApproverID = nullStringPtr(approverID)
	request.RejectionReason = nullStringPtr(rejectionReason)
	request.CanApprove = request.Status == models.StatusPending &&
		authz.CanApproveOrReject(viewer.UserID, viewer.Role, managerID.String)
	return request, nil
}

func (s *Store) SubmitAbsence(ctx context.Context, input store.SubmitAbsenceInput) (models.AbsenceRequest, error) {
	if input.EndDate.Before(input.StartDate) {
		return models.AbsenceRequest{}, store.ErrInvalidDates
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if input.StartDate.Before(today) {
		return models.AbsenceRequest{}, store.ErrPastStartDate
	}

	requestID := uuid.NewString()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO absence_requests (request_id, user_id, start_date, end_date, type, reason, status, created_by_id)
		SELECT $1, u.user_id, $3, $4, $5, $6, 'PENDING', $7
		FROM users u
		WHERE u.user_id = $2
		RETURNING request_id, user_id, start_date, end_date, type, reason, status, approver_id, rejection_reason, created_by_id, created_at,
			(SELECT manager_id FROM users WHERE user_id = $2)
	`, requestID, input.UserID, input.StartDate, input.EndDate, input.Type, input.Reason, input.CreatedByID)

	request, err := scanAbsence(row, store.Viewer{})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AbsenceRequest{}, store.ErrUserNotFound
		}
		return models.AbsenceRequest{}, err
	}
	return request, nil
}

func (s *Store) GetAbsence(ctx context.Context, viewer store.Viewer, requestID string) (models.AbsenceRequest, error) {
	cond := authz.And(
		authz.Eq("r.request_id", requestID),
		authz.AbsenceVisibility(viewer.UserID, viewer.Role),
	)
	where, args := whereClause(cond, 1)
	row := s.pool.QueryRow(ctx, `
		SELECT `+absenceColumns+`
		FROM absence_requests r
		JOIN users u ON u.user_id = r.user_id
	`+where, args...)

	request, err := scanAbsence(row, viewer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AbsenceRequest{}, store.ErrRequestNotFound
		}
		return models.AbsenceRequest{}, err
	}
	return request, nil
}

func (s *Store) SearchAbsences(ctx context.Context, viewer store.Viewer, filter store.AbsenceFilter, page store.Page) ([]models.AbsenceRequest, error) {
	conds := []authz.Cond{authz.AbsenceVisibility(viewer.UserID, viewer.Role)}
	if filter.Search != "" {
		conds = append(conds, authz.Contains("r.reason", filter.Search))
	}
	if filter.UserID != "" {
		conds = append(conds, authz.Eq("r.user_id", filter.UserID))
	}
	if filter.Status != "" {
		conds = append(conds, authz.Eq("r.status", filter.Status))
	}
	if filter.Type != "" {
		conds = append(conds, authz.Eq("r.type", filter.Type))
	}
	if filter.StartDateFrom != nil {
		conds = append(conds, authz.Gte("r.start_date", *filter.StartDateFrom))
	}
	if filter.StartDateTo != nil {
		conds = append(conds, authz.Lte("r.start_date", *filter.StartDateTo))
	}
	if filter.EndDateFrom != nil {
		conds = append(conds, authz.Gte("r.end_date", *filter.EndDateFrom))
	}
	if filter.EndDateTo != nil {
		conds = append(conds, authz.Lte("r.end_date", *filter.EndDateTo))
	}
	if filter.ApproverID != "" {
		conds = append(conds, authz.Eq("r.approver_id", filter.ApproverID))
	}
	if filter.CreatedByID != "" {
		conds = append(conds, authz.Eq("r.created_by_id", filter.CreatedByID))
	}
	if filter.ManagerID != "" {
		conds = append(conds, authz.Eq("u.manager_id", filter.ManagerID))
	}
	if filter.HasRejectionReason != nil {
		if *filter.HasRejectionReason {
			conds = append(conds, authz.NotNull("r.rejection_reason"))
		} else {
			conds = append(conds, authz.IsNull("r.rejection_reason"))
		}
	}

	where, args := whereClause(authz.And(conds...), 1)
	page = normalizePage(page)
	query := `SELECT ` + absenceColumns + ` FROM absence_requests r JOIN users u ON u.user_id = r.user_id` +
		where +
		orderClause(absenceSortColumns, page, "r.start_date") +
		` LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, page.Limit, page.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.AbsenceRequest
	for rows.Next() {
		request, err := scanAbsence(rows, viewer)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

// DecideAbsence moves a pending request to APPROVED or REJECTED. The
// status check is repeated in the UPDATE predicate so two concurrent
// decisions cannot both win; the loser observes zero rows.
func (s *Store) DecideAbsence(ctx context.Context, input store.DecideAbsenceInput) (models.AbsenceRequest, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.AbsenceRequest{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var status string
	var managerID sql.NullString
	row := tx.QueryRow(ctx, `
		SELECT r.status, u.manager_id
		FROM absence_requests r
		JOIN users u ON u.user_id = r.user_id
		WHERE r.request_id = $1
		FOR UPDATE OF r
	`, input.RequestID)
	if err = row.Scan(&status, &managerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrRequestNotFound
		}
		return models.AbsenceRequest{}, err
	}
	if !authz.CanApproveOrReject(input.ActorID, input.ActorRole, managerID.String) {
		err = store.ErrAccessDenied
		return models.AbsenceRequest{}, err
	}
	if status != models.StatusPending {
		err = store.ErrAlreadyDecided
		return models.AbsenceRequest{}, err
	}

	newStatus := models.StatusRejected
	var rejectionReason interface{}
	if input.Approve {
		newStatus = models.StatusApproved
	} else {
		rejectionReason = nullIfEmpty(input.Reason)
	}

	row = tx.QueryRow(ctx, `
		UPDATE absence_requests r
		SET status = $2, approver_id = $3, rejection_reason = $4
		FROM users u
		WHERE r.request_id = $1 AND r.status = 'PENDING' AND u.user_id = r.user_id
		RETURNING `+absenceColumns+`
	`, input.RequestID, newStatus, input.ActorID, rejectionReason)

	var request models.AbsenceRequest
	request, err = scanAbsence(row, store.Viewer{UserID: input.ActorID, Role: input.ActorRole})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrAlreadyDecided
		}
		return models.AbsenceRequest{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.AbsenceRequest{}, err
	}
	return request, nil
}

// AmendAbsence is the manager correction path. It may overwrite a prior
// decision and may attach a comment without touching status; empty
// fields leave the stored values alone.
func (s *Store) AmendAbsence(ctx context.Context, input store.AmendAbsenceInput) (models.AbsenceRequest, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.AbsenceRequest{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var managerID sql.NullString
	row := tx.QueryRow(ctx, `
		SELECT u.manager_id
		FROM absence_requests r
		JOIN users u ON u.user_id = r.user_id
		WHERE r.request_id = $1
		FOR UPDATE OF r
	`, input.RequestID)
	if err = row.Scan(&managerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrRequestNotFound
		}
		return models.AbsenceRequest{}, err
	}
	if !authz.CanApproveOrReject(input.ActorID, input.ActorRole, managerID.String) {
		err = store.ErrAccessDenied
		return models.AbsenceRequest{}, err
	}

	row = tx.QueryRow(ctx, `
		UPDATE absence_requests r
		SET status = COALESCE($2, status),
			approver_id = CASE WHEN $2 IS NULL THEN approver_id ELSE $3 END,
			rejection_reason = COALESCE($4, rejection_reason)
		FROM users u
		WHERE r.request_id = $1 AND u.user_id = r.user_id
		RETURNING `+absenceColumns+`
	`, input.RequestID, nullIfEmpty(input.Status), input.ActorID, nullStringValue(input.Comment))

	var request models.AbsenceRequest
	request, err = scanAbsence(row, store.Viewer{UserID: input.ActorID, Role: input.ActorRole})
	if err != nil {
		return models.AbsenceRequest{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.AbsenceRequest{}, err
	}
	return request, nil
}
