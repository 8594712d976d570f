package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/user/tenant-guard/internal/domain"
)

// MockUserRepository is a mock implementation of domain.UserRepository
// for testing.
type MockUserRepository struct {
	mu         sync.Mutex
	Users      map[uuid.UUID]*domain.User
	FindErr    error
	TouchErr   error
	TouchedIDs []uuid.UUID
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (m *MockUserRepository) TouchLastSeen(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TouchErr != nil {
		return m.TouchErr
	}
	m.TouchedIDs = append(m.TouchedIDs, id)
	return nil
}

// MockBusinessRepository is a mock implementation of
// domain.BusinessRepository for testing.
type MockBusinessRepository struct {
	mu         sync.Mutex
	Businesses map[uuid.UUID]*domain.Business
	ByTenant   map[uuid.UUID]*domain.Business
	FindErr    error
}

func (m *MockBusinessRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	b, ok := m.Businesses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (m *MockBusinessRepository) FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*domain.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	b, ok := m.ByTenant[tenantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

// MockResourceRepository is a mock implementation of
// domain.ResourceRepository for testing.
type MockResourceRepository struct {
	mu        sync.Mutex
	Ownership *domain.ResourceOwnership
	FetchErr  error
	Calls     []string
}

func (m *MockResourceRepository) FetchOwnership(ctx context.Context, table string, resourceID uuid.UUID, tenantColumn, businessColumn string) (*domain.ResourceOwnership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, table)
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	if m.Ownership == nil {
		return nil, domain.ErrNotFound
	}
	return m.Ownership, nil
}

// MockAuditSink records security events in memory for assertions.
type MockAuditSink struct {
	mu     sync.Mutex
	Events []domain.SecurityEvent
}

func (m *MockAuditSink) Record(ctx context.Context, event domain.SecurityEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

// EventsOfType returns the recorded events of the given type.
func (m *MockAuditSink) EventsOfType(t domain.SecurityEventType) []domain.SecurityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SecurityEvent
	for _, e := range m.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// MockAuditStore is a mock implementation of domain.AuditStore for
// testing the sink.
type MockAuditStore struct {
	mu        sync.Mutex
	Events    []domain.SecurityEvent
	AppendErr error
}

func (m *MockAuditStore) Append(ctx context.Context, event domain.SecurityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.Events = append(m.Events, event)
	return nil
}

// Len returns the number of stored events.
func (m *MockAuditStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Events)
}

// MockSessionActivityRepository is a mock implementation of
// domain.SessionActivityRepository for testing.
type MockSessionActivityRepository struct {
	mu        sync.Mutex
	Recorded  []domain.SessionActivity
	Recent    []domain.SessionActivity
	Count     int
	RecordErr error
	ReadErr   error
}

func (m *MockSessionActivityRepository) RecordActivity(ctx context.Context, activity domain.SessionActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Recorded = append(m.Recorded, activity)
	return nil
}

func (m *MockSessionActivityRepository) RecentActivity(ctx context.Context, userID uuid.UUID, n int) ([]domain.SessionActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if n > len(m.Recent) {
		n = len(m.Recent)
	}
	return m.Recent[:n], nil
}

func (m *MockSessionActivityRepository) ActiveSessionCount(ctx context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	return m.Count, nil
}

// MockAnalyticsReader is a mock implementation of domain.AnalyticsReader
// for testing handlers.
type MockAnalyticsReader struct {
	mu      sync.Mutex
	Report  *domain.AnalyticsReport
	ReadErr error
	Queries []*domain.AnalyticsQuery
}

func (m *MockAnalyticsReader) Read(ctx context.Context, q *domain.AnalyticsQuery, session *domain.ValidatedSession) (*domain.AnalyticsReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, q)
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return m.Report, nil
}
