package usecase

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/user/tenant-guard/internal/domain"
)

// ScopedQuery is an immutable description of a SELECT with mandatory
// equality predicates. Data-access code builds every read through it so
// the "no query may omit a tenant filter" invariant has a single
// textual chokepoint.
type ScopedQuery struct {
	table      string
	columns    []string
	conditions []condition
	orderBy    string
	limit      int
	offset     int
}

type condition struct {
	column string
	op     string
	value  any
}

// NewScopedQuery starts a query against the given table selecting the
// given columns.
func NewScopedQuery(table string, columns ...string) *ScopedQuery {
	return &ScopedQuery{table: table, columns: columns}
}

func (q *ScopedQuery) clone() *ScopedQuery {
	cp := *q
	cp.columns = append([]string(nil), q.columns...)
	cp.conditions = append([]condition(nil), q.conditions...)
	return &cp
}

// Where appends an equality predicate and returns a new query.
func (q *ScopedQuery) Where(column string, value any) *ScopedQuery {
	cp := q.clone()
	cp.conditions = append(cp.conditions, condition{column: column, op: "=", value: value})
	return cp
}

// WhereBetween appends an inclusive range predicate and returns a new
// query.
func (q *ScopedQuery) WhereBetween(column string, lo, hi any) *ScopedQuery {
	cp := q.clone()
	cp.conditions = append(cp.conditions,
		condition{column: column, op: ">=", value: lo},
		condition{column: column, op: "<=", value: hi},
	)
	return cp
}

// OrderBy sets the ORDER BY clause and returns a new query.
func (q *ScopedQuery) OrderBy(clause string) *ScopedQuery {
	cp := q.clone()
	cp.orderBy = clause
	return cp
}

// Paginate sets LIMIT and OFFSET and returns a new query.
func (q *ScopedQuery) Paginate(limit, offset int) *ScopedQuery {
	cp := q.clone()
	cp.limit = limit
	cp.offset = offset
	return cp
}

// SQL renders the query as a positional-parameter statement plus its
// arguments.
func (q *ScopedQuery) SQL() (string, []any) {
	var b strings.Builder
	cols := "*"
	if len(q.columns) > 0 {
		cols = strings.Join(q.columns, ", ")
	}
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, q.table)

	args := make([]any, 0, len(q.conditions))
	for i, c := range q.conditions {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, c.value)
		fmt.Fprintf(&b, "%s %s $%d", c.column, c.op, len(args))
	}
	if q.orderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s", q.orderBy)
	}
	if q.limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.limit)
	}
	if q.offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", q.offset)
	}
	return b.String(), args
}

// ScopeToTenant appends the mandatory tenant predicate from the
// session. Pure: the input query is not modified.
func ScopeToTenant(q *ScopedQuery, session *domain.ValidatedSession) *ScopedQuery {
	return q.Where("tenant_id", session.TenantID)
}

// ScopeToBusiness appends the tenant predicate plus a business
// predicate, defaulting to the session's business when businessID is
// nil. Pure: the input query is not modified.
func ScopeToBusiness(q *ScopedQuery, session *domain.ValidatedSession, businessID *uuid.UUID) *ScopedQuery {
	scoped := ScopeToTenant(q, session)
	id := businessID
	if id == nil {
		id = session.BusinessID
	}
	if id == nil {
		return scoped
	}
	return scoped.Where("business_id", *id)
}
