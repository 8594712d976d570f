package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/user/tenant-guard/internal/domain"
)

type businessCacheEntry struct {
	business  *domain.Business
	expiresAt time.Time
}

// BusinessRepository implements domain.BusinessRepository on PostgreSQL
// with an in-memory, time-based cache. The isolation guard reads the
// business on every request; the cache keeps that off the database.
type BusinessRepository struct {
	db       *sql.DB
	logger   *slog.Logger
	cacheTTL time.Duration
	mu       sync.RWMutex
	byID     map[uuid.UUID]businessCacheEntry
	byTenant map[uuid.UUID]businessCacheEntry
}

// NewBusinessRepository creates a new PostgreSQL business repository.
func NewBusinessRepository(db *sql.DB, logger *slog.Logger, cacheTTL time.Duration) *BusinessRepository {
	return &BusinessRepository{
		db:       db,
		logger:   logger.With("component", "business_repository"),
		cacheTTL: cacheTTL,
		byID:     make(map[uuid.UUID]businessCacheEntry),
		byTenant: make(map[uuid.UUID]businessCacheEntry),
	}
}

func (r *BusinessRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Business, error) {
	if b, ok := r.cached(r.byID, id); ok {
		return b, nil
	}
	b, err := r.fetch(ctx, "id = $1", id)
	if err != nil {
		return nil, err
	}
	r.cache(b)
	return b, nil
}

func (r *BusinessRepository) FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*domain.Business, error) {
	if b, ok := r.cached(r.byTenant, tenantID); ok {
		return b, nil
	}
	b, err := r.fetch(ctx, "tenant_id = $1", tenantID)
	if err != nil {
		return nil, err
	}
	r.cache(b)
	return b, nil
}

func (r *BusinessRepository) cached(m map[uuid.UUID]businessCacheEntry, key uuid.UUID) (*domain.Business, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, found := m[key]
	if !found || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.business, true
}

func (r *BusinessRepository) cache(b *domain.Business) {
	if r.cacheTTL <= 0 {
		return
	}
	entry := businessCacheEntry{business: b, expiresAt: time.Now().Add(r.cacheTTL)}
	r.mu.Lock()
	r.byID[b.ID] = entry
	r.byTenant[b.TenantID] = entry
	r.mu.Unlock()
}

func (r *BusinessRepository) fetch(ctx context.Context, where string, arg any) (*domain.Business, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, name, is_active, subscription_tier, features, owner_id, created_at, updated_at
		FROM businesses
		WHERE %s
	`, where)

	var b domain.Business
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&b.ID,
		&b.TenantID,
		&b.Name,
		&b.IsActive,
		&b.SubscriptionTier,
		pq.Array(&b.Features),
		&b.OwnerID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find business: %w", err)
	}

	members, err := r.members(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.Members = members

	return &b, nil
}

func (r *BusinessRepository) members(ctx context.Context, businessID uuid.UUID) ([]domain.BusinessMember, error) {
	query := `
		SELECT user_id, role, is_active
		FROM business_members
		WHERE business_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("load business members: %w", err)
	}
	defer rows.Close()

	var members []domain.BusinessMember
	for rows.Next() {
		var m domain.BusinessMember
		if err := rows.Scan(&m.UserID, &m.Role, &m.IsActive); err != nil {
			return nil, fmt.Errorf("scan business member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate business members: %w", err)
	}

	return members, nil
}
