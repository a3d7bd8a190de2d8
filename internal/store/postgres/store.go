package postgres

import (
	"database/sql"
	"strconv"
	"time"

	"hrcore/internal/authz"
	"hrcore/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ store.Store = (*Store)(nil)

// whereClause renders the combined condition into a WHERE clause with
// placeholders numbered from start. An empty condition yields no clause.
func whereClause(cond authz.Cond, start int) (string, []any) {
	if cond.IsZero() {
		return "", nil
	}
	expr, args := cond.Render(start)
	return " WHERE " + expr, args
}

// orderClause maps the requested sort key through a column whitelist so
// callers can never inject arbitrary SQL through sort parameters.
func orderClause(columns map[string]string, page store.Page, fallback string) string {
	column, ok := columns[page.Sort]
	if !ok {
		column = fallback
	}
	direction := " ASC"
	if page.Desc || page.Sort == "" {
		direction = " DESC"
	}
	return " ORDER BY " + column + direction
}

func normalizePage(page store.Page) store.Page {
	if page.Limit <= 0 {
		page.Limit = defaultPageSize
	}
	if page.Limit > maxPageSize {
		page.Limit = maxPageSize
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	return page
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func nullStringValue(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

func nullStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	result := value.String
	return &result
}

func nullTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	result := value.Time
	return &result
}
