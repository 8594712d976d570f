package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/user/tenant-guard/internal/domain"
)

// UserRepository implements domain.UserRepository on PostgreSQL.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, email, tenant_id, business_id, is_active, last_seen_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var u domain.User
	var businessID uuid.NullUUID
	var lastSeen sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID,
		&u.Email,
		&u.TenantID,
		&businessID,
		&u.IsActive,
		&lastSeen,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user by ID: %w", err)
	}
	if businessID.Valid {
		u.BusinessID = &businessID.UUID
	}
	if lastSeen.Valid {
		u.LastSeenAt = &lastSeen.Time
	}

	assignments, err := r.roleAssignments(ctx, id)
	if err != nil {
		return nil, err
	}
	u.RoleAssignments = assignments

	return &u, nil
}

func (r *UserRepository) roleAssignments(ctx context.Context, userID uuid.UUID) ([]domain.RoleAssignment, error) {
	query := `
		SELECT role, permissions
		FROM user_role_assignments
		WHERE user_id = $1
		ORDER BY role
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("load role assignments: %w", err)
	}
	defer rows.Close()

	var assignments []domain.RoleAssignment
	for rows.Next() {
		var a domain.RoleAssignment
		if err := rows.Scan(&a.Role, pq.Array(&a.Permissions)); err != nil {
			return nil, fmt.Errorf("scan role assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role assignments: %w", err)
	}

	return assignments, nil
}

func (r *UserRepository) TouchLastSeen(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET last_seen_at = NOW() WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("touch last seen: %w", err)
	}
	return nil
}
