package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/user/tenant-guard/internal/domain"
)

// identifierPattern limits table and column names to plain lowercase
// SQL identifiers. Identifiers cannot be bound as parameters, so they
// are validated before interpolation.
var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ResourceRepository implements domain.ResourceRepository on
// PostgreSQL.
type ResourceRepository struct {
	db *sql.DB
}

// NewResourceRepository creates a new PostgreSQL resource repository.
func NewResourceRepository(db *sql.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func (r *ResourceRepository) FetchOwnership(ctx context.Context, table string, resourceID uuid.UUID, tenantColumn, businessColumn string) (*domain.ResourceOwnership, error) {
	if !identifierPattern.MatchString(table) || !identifierPattern.MatchString(tenantColumn) {
		return nil, fmt.Errorf("invalid identifier %q.%q", table, tenantColumn)
	}
	if businessColumn != "" && !identifierPattern.MatchString(businessColumn) {
		return nil, fmt.Errorf("invalid identifier %q.%q", table, businessColumn)
	}

	var ownership domain.ResourceOwnership
	var err error
	if businessColumn == "" {
		query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", tenantColumn, table)
		err = r.db.QueryRowContext(ctx, query, resourceID).Scan(&ownership.TenantID)
	} else {
		query := fmt.Sprintf("SELECT %s, %s FROM %s WHERE id = $1", tenantColumn, businessColumn, table)
		var businessID uuid.NullUUID
		err = r.db.QueryRowContext(ctx, query, resourceID).Scan(&ownership.TenantID, &businessID)
		if businessID.Valid {
			ownership.BusinessID = &businessID.UUID
		}
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetch resource ownership: %w", err)
	}

	return &ownership, nil
}
