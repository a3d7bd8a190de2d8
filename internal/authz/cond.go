package authz

import (
	"strconv"
	"strings"
)

// Cond is a SQL predicate fragment with ? placeholders. Fragments
// compose with And/Or and are rendered into numbered pgx placeholders
// when the final query is assembled, so each visibility rule stays
// testable without a database.
type Cond struct {
	Expr string
	Args []any
}

func (c Cond) IsZero() bool {
	return c.Expr == ""
}

func Eq(column string, value any) Cond {
	return Cond{Expr: column + " = ?", Args: []any{value}}
}

func Ne(column string, value any) Cond {
	return Cond{Expr: column + " <> ?", Args: []any{value}}
}

func Gte(column string, value any) Cond {
	return Cond{Expr: column + " >= ?", Args: []any{value}}
}

func Lte(column string, value any) Cond {
	return Cond{Expr: column + " <= ?", Args: []any{value}}
}

// Contains matches a case-insensitive substring.
func Contains(column, needle string) Cond {
	return Cond{
		Expr: "lower(" + column + ") LIKE ?",
		Args: []any{"%" + strings.ToLower(needle) + "%"},
	}
}

func NotNull(column string) Cond {
	return Cond{Expr: column + " IS NOT NULL"}
}

func IsNull(column string) Cond {
	return Cond{Expr: column + " IS NULL"}
}

// And joins conditions with AND, skipping empty ones. User-supplied
// filters are only ever ANDed onto a visibility condition, so a filter
// can never widen what a viewer is allowed to see.
func And(conds ...Cond) Cond {
	return join(" AND ", conds)
}

// Or joins conditions with OR, skipping empty ones.
func Or(conds ...Cond) Cond {
	return join(" OR ", conds)
}

func join(sep string, conds []Cond) Cond {
	var exprs []string
	var args []any
	for _, c := range conds {
		if c.IsZero() {
			continue
		}
		exprs = append(exprs, c.Expr)
		args = append(args, c.Args...)
	}
	switch len(exprs) {
	case 0:
		return Cond{}
	case 1:
		return Cond{Expr: exprs[0], Args: args}
	default:
		return Cond{Expr: "(" + strings.Join(exprs, sep) + ")", Args: args}
	}
}

// Render rewrites each ? placeholder into $n, numbering from start, and
// returns the rewritten expression with its arguments.
func (c Cond) Render(start int) (string, []any) {
	if c.IsZero() {
		return "", nil
	}
	var b strings.Builder
	n := start
	for _, r := range c.Expr {
		if r == '?' {
			b.WriteString("$" + strconv.Itoa(n))
			n++
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), c.Args
}
