package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/tenant-guard/internal/domain"
	"github.com/user/tenant-guard/internal/usecase"
)

// defaultReportWindow is applied when the sanitized query carries no
// explicit date range.
const defaultReportWindow = 30 * 24 * time.Hour

// metricSpec describes how a metric is computed: an aggregate over one
// table, optionally narrowed by an equality condition.
type metricSpec struct {
	table   string
	expr    string
	dateCol string
	eqCol   string
	eqVal   any
}

var metricSpecs = map[string]metricSpec{
	"totalCalls":            {table: "calls", expr: "COUNT(*)", dateCol: "started_at"},
	"answeredCalls":         {table: "calls", expr: "COUNT(*)", dateCol: "started_at", eqCol: "outcome", eqVal: "answered"},
	"missedCalls":           {table: "calls", expr: "COUNT(*)", dateCol: "started_at", eqCol: "outcome", eqVal: "missed"},
	"peakHours":             {table: "calls", expr: "COALESCE(MODE() WITHIN GROUP (ORDER BY EXTRACT(HOUR FROM started_at)), 0)", dateCol: "started_at"},
	"totalAppointments":     {table: "appointments", expr: "COUNT(*)", dateCol: "scheduled_at"},
	"completedAppointments": {table: "appointments", expr: "COUNT(*)", dateCol: "scheduled_at", eqCol: "status", eqVal: "completed"},
	"cancelledAppointments": {table: "appointments", expr: "COUNT(*)", dateCol: "scheduled_at", eqCol: "status", eqVal: "cancelled"},
	"totalRevenue":          {table: "appointments", expr: "COALESCE(SUM(price), 0)", dateCol: "scheduled_at", eqCol: "status", eqVal: "completed"},
	"averageTicket":         {table: "appointments", expr: "COALESCE(AVG(price), 0)", dateCol: "scheduled_at", eqCol: "status", eqVal: "completed"},
	"topServices":           {table: "appointments", expr: "COUNT(DISTINCT service_id)", dateCol: "scheduled_at"},
	"staffUtilization":      {table: "appointments", expr: "COUNT(DISTINCT staff_id)", dateCol: "scheduled_at"},
	"newCustomers":          {table: "customers", expr: "COUNT(*)", dateCol: "created_at", eqCol: "is_returning", eqVal: false},
	"returningCustomers":    {table: "customers", expr: "COUNT(*)", dateCol: "created_at", eqCol: "is_returning", eqVal: true},
}

// AnalyticsRepository implements domain.AnalyticsReader on PostgreSQL.
// Every read goes through the scoped query helpers; there is no path
// here that queries without a tenant predicate.
type AnalyticsRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAnalyticsRepository creates a new PostgreSQL analytics repository.
func NewAnalyticsRepository(db *sql.DB, logger *slog.Logger) *AnalyticsRepository {
	return &AnalyticsRepository{
		db:     db,
		logger: logger.With("component", "analytics_repository"),
	}
}

func (r *AnalyticsRepository) Read(ctx context.Context, q *domain.AnalyticsQuery, session *domain.ValidatedSession) (*domain.AnalyticsReport, error) {
	end := time.Now().UTC()
	if q.EndDate != nil {
		end = *q.EndDate
	}
	start := end.Add(-defaultReportWindow)
	if q.StartDate != nil {
		start = *q.StartDate
	}

	report := &domain.AnalyticsReport{
		BusinessID: q.BusinessID,
		StartDate:  start,
		EndDate:    end,
		Metrics:    make(map[string]float64, len(q.Metrics)),
	}
	if q.Limit != nil {
		report.Limit = *q.Limit
	}
	if q.Offset != nil {
		report.Offset = *q.Offset
	}

	for _, metric := range q.Metrics {
		if metric == "conversionRate" {
			rate, err := r.conversionRate(ctx, q, session, start, end)
			if err != nil {
				return nil, err
			}
			report.Metrics[metric] = rate
			continue
		}

		spec, ok := metricSpecs[metric]
		if !ok {
			// Validation guarantees known metrics; an unknown one here
			// means the caller bypassed the validator.
			return nil, fmt.Errorf("metric %q has no query mapping", metric)
		}
		value, err := r.aggregate(ctx, spec, q, session, start, end)
		if err != nil {
			return nil, err
		}
		report.Metrics[metric] = value
	}

	return report, nil
}

func (r *AnalyticsRepository) aggregate(ctx context.Context, spec metricSpec, q *domain.AnalyticsQuery, session *domain.ValidatedSession, start, end time.Time) (float64, error) {
	sq := usecase.NewScopedQuery(spec.table, spec.expr).
		WhereBetween(spec.dateCol, start, end)
	if spec.eqCol != "" {
		sq = sq.Where(spec.eqCol, spec.eqVal)
	}
	sq = usecase.ScopeToBusiness(sq, session, &q.BusinessID)

	query, args := sq.SQL()
	var value float64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return 0, fmt.Errorf("aggregate %s over %s: %w", spec.expr, spec.table, err)
	}
	return value, nil
}

func (r *AnalyticsRepository) conversionRate(ctx context.Context, q *domain.AnalyticsQuery, session *domain.ValidatedSession, start, end time.Time) (float64, error) {
	calls, err := r.aggregate(ctx, metricSpecs["totalCalls"], q, session, start, end)
	if err != nil {
		return 0, err
	}
	if calls == 0 {
		return 0, nil
	}
	appointments, err := r.aggregate(ctx, metricSpecs["totalAppointments"], q, session, start, end)
	if err != nil {
		return 0, err
	}
	return appointments / calls, nil
}
