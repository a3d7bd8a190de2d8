package postgres

import (
	"context"
	"database/sql"
	"errors"

	"hrcore/internal/authz"
	"hrcore/internal/models"
	"hrcore/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `u.user_id, u.email, u.first_name, u.last_name, u.phone, u.department, u.role, u.manager_id, u.created_at, u.updated_at`

const userColumnsBare = `user_id, email, first_name, last_name, phone, department, role, manager_id, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var phone, department, managerID sql.NullString
	var updatedAt sql.NullTime
	if err := row.Scan(&user.UserID, &user.Email, &user.FirstName, &user.LastName, &phone, &department, &user.Role, &managerID, &user.CreatedAt, &updatedAt); err != nil {
		return models.User{}, err
	}
	if phone.Valid {
		user.Phone = phone.String
	}
	if department.Valid {
		user.Department = department.String
	}
	user.ManagerID = nullStringPtr(managerID)
	user.UpdatedAt = nullTimePtr(updatedAt)
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, input store.CreateUserInput) (models.User, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.User{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if input.ManagerID != "" {
		var managerRole string
		row := tx.QueryRow(ctx, `SELECT role FROM users WHERE user_id = $1`, input.ManagerID)
		if err = row.Scan(&managerRole); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				err = store.ErrUserNotFound
			}
			return models.User{}, err
		}
		if !authz.CanBeAssignedAsManager(managerRole) {
			err = store.ErrNotAssignableManager
			return models.User{}, err
		}
	}

	userID := uuid.NewString()
	row := tx.QueryRow(ctx, `
		INSERT INTO users (user_id, email, first_name, last_name, phone, department, role, manager_id)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8)
		ON CONFLICT (email) DO NOTHING
		RETURNING `+userColumnsBare+`
	`, userID, input.Email, input.FirstName, input.LastName, nullIfEmpty(input.Phone), nullIfEmpty(input.Department), input.Role, nullIfEmpty(input.ManagerID))

	var user models.User
	user, err = scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrDuplicateEmail
		}
		return models.User{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users u
		WHERE u.user_id = $1
	`, userID)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, store.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) SearchUsers(ctx context.Context, viewer store.Viewer, filter store.UserFilter, page store.Page) ([]models.User, error) {
	conds := []authz.Cond{authz.ProfileVisibility(viewer.Role)}
	if filter.Search != "" {
		conds = append(conds, authz.Or(
			authz.Contains("u.first_name", filter.Search),
			authz.Contains("u.last_name", filter.Search),
			authz.Contains("u.email", filter.Search),
		))
	}
	if filter.Department != "" {
		conds = append(conds, authz.Eq("u.department", filter.Department))
	}
	if filter.Role != "" {
		conds = append(conds, authz.Eq("u.role", filter.Role))
	}
	if filter.ManagerID != "" {
		conds = append(conds, authz.Eq("u.manager_id", filter.ManagerID))
	}

	where, args := whereClause(authz.And(conds...), 1)
	page = normalizePage(page)
	query := `SELECT ` + userColumns + ` FROM users u` + where +
		` ORDER BY u.last_name ASC, u.first_name ASC` +
		` LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, page.Limit, page.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, input store.UpdateUserInput) (models.User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users
		SET first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			phone = COALESCE($4, phone),
			department = COALESCE($5, department),
			role = COALESCE($6, role),
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING `+userColumnsBare+`
	`, input.UserID, input.FirstName, input.LastName, input.Phone, input.Department, input.Role)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, store.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// DeleteUser removes the account together with its session registry
// entries. Absence requests and feedback cascade at the schema level;
// direct reports are detached, not deleted.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM valid_tokens WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `UPDATE users SET manager_id = NULL WHERE manager_id = $1`, userID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = store.ErrUserNotFound
		return err
	}
	return tx.Commit(ctx)
}

// AssignManager validates manager eligibility, walks the candidate
// manager's chain to detect cycles and writes the new reference, all in
// one transaction so a concurrent reassignment cannot sneak a cycle in
// between the read and the write.
func (s *Store) AssignManager(ctx context.Context, employeeID, managerID string) (models.User, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.User{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var employeeRole string
	row := tx.QueryRow(ctx, `SELECT role FROM users WHERE user_id = $1 FOR UPDATE`, employeeID)
	if err = row.Scan(&employeeRole); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrUserNotFound
		}
		return models.User{}, err
	}

	var managerRole string
	row = tx.QueryRow(ctx, `SELECT role FROM users WHERE user_id = $1 FOR UPDATE`, managerID)
	if err = row.Scan(&managerRole); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrUserNotFound
		}
		return models.User{}, err
	}
	if !authz.CanBeAssignedAsManager(managerRole) {
		err = store.ErrNotAssignableManager
		return models.User{}, err
	}

	var cycle bool
	cycle, err = wouldCreateCycle(ctx, tx, employeeID, managerID)
	if err != nil {
		return models.User{}, err
	}
	if cycle {
		err = store.ErrHierarchyCycle
		return models.User{}, err
	}

	row = tx.QueryRow(ctx, `
		UPDATE users
		SET manager_id = $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING `+userColumnsBare+`
	`, employeeID, managerID)
	var user models.User
	user, err = scanUser(row)
	if err != nil {
		return models.User{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// wouldCreateCycle walks the candidate manager's own chain looking for
// the employee. The walk is bounded by the total user count so it
// terminates even if the stored chain is already corrupt.
func wouldCreateCycle(ctx context.Context, tx pgx.Tx, employeeID, candidateManagerID string) (bool, error) {
	var bound int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&bound); err != nil {
		return false, err
	}

	current := candidateManagerID
	for i := 0; i < bound; i++ {
		if current == employeeID {
			return true, nil
		}
		var next sql.NullString
		row := tx.QueryRow(ctx, `SELECT manager_id FROM users WHERE user_id = $1`, current)
		if err := row.Scan(&next); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, nil
			}
			return false, err
		}
		if !next.Valid {
			return false, nil
		}
		current = next.String
	}
	return true, nil
}

func (s *Store) DirectReports(ctx context.Context, managerID string) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users u
		WHERE u.manager_id = $1
		ORDER BY u.last_name ASC, u.first_name ASC
	`, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// IsInHierarchyOf walks the user's manager chain and reports whether
// ancestorID appears anywhere in it.
func (s *Store) IsInHierarchyOf(ctx context.Context, userID, ancestorID string) (bool, error) {
	var bound int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&bound); err != nil {
		return false, err
	}

	current := userID
	for i := 0; i < bound; i++ {
		var next sql.NullString
		row := s.pool.QueryRow(ctx, `SELECT manager_id FROM users WHERE user_id = $1`, current)
		if err := row.Scan(&next); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, nil
			}
			return false, err
		}
		if !next.Valid {
			return false, nil
		}
		if next.String == ancestorID {
			return true, nil
		}
		current = next.String
	}
	return false, nil
}
