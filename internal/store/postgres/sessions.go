package postgres

import (
	"context"
	"errors"
	"time"

	"hrcore/internal/models"
	"hrcore/internal/store"

	"github.com/jackc/pgx/v5"
)

const sessionColumns = `token_jti, user_id, role, subject, id_token, issued_at, expires_at, created_at`

func scanSession(row pgx.Row) (models.Session, error) {
	var session models.Session
	if err := row.Scan(
		&session.TokenJTI,
		&session.UserID,
		&session.Role,
		&session.Subject,
		&session.IDToken,
		&session.IssuedAt,
		&session.ExpiresAt,
		&session.CreatedAt,
	); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// RegisterSession records a token under its jti. Registering the same
// jti twice is reported as a conflict rather than silently overwriting
// the original snapshot.
func (s *Store) RegisterSession(ctx context.Context, session models.Session) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO valid_tokens (token_jti, user_id, role, subject, id_token, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (token_jti) DO NOTHING
	`, session.TokenJTI, session.UserID, session.Role, session.Subject, session.IDToken, session.IssuedAt, session.ExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrDuplicateToken
	}
	return nil
}

// GetSession resolves a jti to its registered session. Expired entries
// are treated as absent even before the sweeper removes them.
func (s *Store) GetSession(ctx context.Context, tokenJTI string) (models.Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM valid_tokens
		WHERE token_jti = $1 AND expires_at > NOW()
	`, tokenJTI)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, store.ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return session, nil
}

// RevokeSession deletes the registry entry. Revoking an unknown or
// already revoked jti is not an error.
func (s *Store) RevokeSession(ctx context.Context, tokenJTI string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM valid_tokens WHERE token_jti = $1`, tokenJTI)
	return err
}

func (s *Store) RevokeUserSessions(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM valid_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListActiveSessions returns unexpired registry entries, optionally
// narrowed to one user. An empty userID lists everyone.
func (s *Store) ListActiveSessions(ctx context.Context, userID string) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM valid_tokens WHERE expires_at > NOW()`
	args := []any{}
	if userID != "" {
		query += ` AND user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY issued_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *Store) SweepExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM valid_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
