package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/user/tenant-guard/internal/domain"
)

// AuditRepository implements domain.AuditStore on PostgreSQL. Rows are
// append-only; nothing in this layer updates or deletes them.
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new PostgreSQL audit repository.
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, event domain.SecurityEvent) error {
	query := `
		INSERT INTO security_events (event_type, user_id, email, tenant_id, business_id, details, ip_address, user_agent, severity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var details []byte
	if event.Details != nil {
		var err error
		details, err = json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("marshal event details: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx, query,
		event.Type,
		event.UserID,
		nullString(event.Email),
		event.TenantID,
		event.BusinessID,
		details,
		event.IPAddress,
		event.UserAgent,
		event.Severity,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append security event: %w", err)
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
