package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/user/tenant-guard/internal/domain"
	"github.com/user/tenant-guard/internal/domain/mocks"
)

func newAnalyticsSetup(f *testFixture) (*AnalyticsValidator, *mocks.MockAuditSink) {
	businesses := &mocks.MockBusinessRepository{ByTenant: map[uuid.UUID]*domain.Business{f.tenantID: f.business}}
	sink := &mocks.MockAuditSink{}
	guard := NewTenantGuard(businesses, &mocks.MockResourceRepository{}, sink, discardLogger())
	return NewAnalyticsValidator(guard, sink, discardLogger()), sink
}

func (f *testFixture) query(metrics ...string) *domain.AnalyticsQuery {
	return &domain.AnalyticsQuery{
		BusinessID: f.businessID,
		TenantID:   f.tenantID,
		Metrics:    metrics,
	}
}

func issueCodes(result *domain.AnalyticsValidationResult) []string {
	codes := make([]string, 0, len(result.Errors))
	for _, issue := range result.Errors {
		codes = append(codes, issue.Code)
	}
	return codes
}

func hasIssue(result *domain.AnalyticsValidationResult, code, field string) bool {
	for _, issue := range result.Errors {
		if issue.Code == code && issue.Field == field {
			return true
		}
	}
	return false
}

func daysAgo(n int) *time.Time {
	t := time.Now().UTC().AddDate(0, 0, -n)
	return &t
}

func TestValidateAnalyticsQuery_Identity(t *testing.T) {
	t.Run("Foreign Tenant Raises", func(t *testing.T) {
		f := newFixture(domain.TierPro)
		v, sink := newAnalyticsSetup(f)
		q := f.query("totalAppointments")
		q.TenantID = uuid.New()

		_, err := v.ValidateAnalyticsQuery(context.Background(), q, f.session(f.ownerID, "analytics:read", "appointments:read"))
		var bve *domain.BusinessValidationError
		if !errors.As(err, &bve) {
			t.Fatalf("expected BusinessValidationError, got %T: %v", err, err)
		}
		if bve.Code != domain.CodeBusinessContextMismatch {
			t.Errorf("got code %q, want %q", bve.Code, domain.CodeBusinessContextMismatch)
		}
		if got := sink.EventsOfType(domain.EventCrossTenantAccessAttempt); len(got) != 1 {
			t.Fatalf("expected 1 cross-tenant event, got %d", len(got))
		}
	})

	t.Run("Foreign Business Raises", func(t *testing.T) {
		f := newFixture(domain.TierPro)
		v, _ := newAnalyticsSetup(f)
		q := f.query("totalAppointments")
		q.BusinessID = uuid.New()

		_, err := v.ValidateAnalyticsQuery(context.Background(), q, f.session(f.ownerID, "analytics:read", "appointments:read"))
		var bve *domain.BusinessValidationError
		if !errors.As(err, &bve) || bve.Code != domain.CodeBusinessContextMismatch {
			t.Fatalf("expected BUSINESS_CONTEXT_MISMATCH, got %v", err)
		}
	})

	t.Run("Sessionless Business Raises", func(t *testing.T) {
		f := newFixture(domain.TierPro)
		v, _ := newAnalyticsSetup(f)
		session := f.session(f.ownerID, "analytics:read")
		session.BusinessID = nil

		_, err := v.ValidateAnalyticsQuery(context.Background(), f.query(), session)
		var bve *domain.BusinessValidationError
		if !errors.As(err, &bve) {
			t.Fatalf("expected BusinessValidationError, got %T", err)
		}
	})
}

func TestValidateAnalyticsQuery_Metrics(t *testing.T) {
	t.Run("Permitted Metric Passes", func(t *testing.T) {
		f := newFixture(domain.TierPro)
		v, _ := newAnalyticsSetup(f)

		result, err := v.ValidateAnalyticsQuery(context.Background(), f.query("totalAppointments"), f.session(f.ownerID, "analytics:read", "appointments:read"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.IsValid {
			t.Fatalf("expected valid result, got errors %v", result.Errors)
		}
	})

	t.Run("Denied Metric Names Missing Permission", func(t *testing.T) {
		f := newFixture(domain.TierPro)
		v, _ := newAnalyticsSetup(f)

		result, err := v.ValidateAnalyticsQuery(context.Background(), f.query("totalAppointments", "totalRevenue"), f.session(f.ownerID, "analytics:read", "appointments:read"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.IsValid {
			t.Fatal("expected validation failure")
		}
		if !hasIssue(result, domain.CodeMetricAccessDenied, "totalRevenue") {
			t.Errorf("expected METRIC_ACCESS_DENIED on totalRevenue, got %v", issueCodes(result))
		}
		if hasIssue(result, domain.CodeMetricAccessDenied, "totalAppointments") {
			t.Error("totalAppointments was fully permitted and must not be flagged")
		}
		for _, issue := range result.Errors {
			if issue.Field == "totalRevenue" && !strings.Contains(issue.Message, "revenue:read") {
				t.Errorf("message should name the missing permission: %q", issue.Message)
			}
		}
		if result.Sanitized != nil {
			t.Error("a failed validation must not yield a sanitized query")
		}
	})

	t.Run("Unknown Metric", func(t *testing.T) {
		f := newFixture(domain.TierPro)
		v, _ := newAnalyticsSetup(f)

		result, err := v.ValidateAnalyticsQuery(context.Background(), f.query("totalUnicorns"), f.session(f.ownerID, "analytics:read"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !hasIssue(result, domain.CodeUnknownMetric, "totalUnicorns") {
			t.Errorf("expected UNKNOWN_METRIC, got %v", issueCodes(result))
		}
	})
}

func TestValidateAnalyticsQuery_DateRange(t *testing.T) {
	t.Run("Inside Retention", func(t *testing.T) {
		f := newFixture(domain.TierPro)
		v, _ := newAnalyticsSetup(f)
		q := f.query("totalAppointments")
		q.StartDate = daysAgo(300)
		q.EndDate = daysAgo(1)

		result, err := v.ValidateAnalyticsQuery(context.Background(), q, f.session(f.ownerID, "analytics:read", "appointments:read"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.IsValid {
			t.Fatalf("expected valid result, got errors %v", result.Errors)
		}
	})

	t.Run("Beyond Retention", func(t *testing.T) {
		f := newFixture(domain.TierPro)
		v, _ := newAnalyticsSetup(f)
		q := f.query("totalAppointments")
		q.StartDate = daysAgo(400)
		q.EndDate = daysAgo(1)

		result, err := v.ValidateAnalyticsQuery(context.Background(), q, f.session(f.ownerID, "analytics:read", "appointments:read"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !hasIssue(result, domain.CodeHistoricalLimitExceeded, "start_date") {
			t.Errorf("expected HISTORICAL_LIMIT_EXCEEDED, got %v", issueCodes(result))
		}
	})

	t.Run("Inverted Range", func(t *testing.T) {
		f := newFixture(domain.TierPro)
		v, _ := newAnalyticsSetup(f)
		q := f.query("totalAppointments")
		q.StartDate = daysAgo(1)
		q.EndDate = daysAgo(10)

		result, err := v.ValidateAnalyticsQuery(context.Background(), q, f.session(f.ownerID, "analytics:read", "appointments:read"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !hasIssue(result, domain.CodeInvalidDateRange, "start_date") {
			t.Errorf("expected INVALID_DATE_RANGE, got %v", issueCodes(result))
		}
		if len(result.Errors) != 1 {
			t.Errorf("an inverted range should short-circuit further date checks, got %v", issueCodes(result))
		}
	})

	t.Run("Free Tier Span Cap", func(t *testing.T) {
		f := newFixture(domain.TierFree)
		v, _ := newAnalyticsSetup(f)
		q := f.query("totalAppointments")
		// Both ends are inside the 30-day retention window but the span
		// itself exceeds 30 days.
		q.StartDate = daysAgo(29)
		q.EndDate = daysAgo(-2)

		result, err := v.ValidateAnalyticsQuery(context.Background(), q, f.session(f.ownerID, "analytics:read", "appointments:read"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !hasIssue(result, domain.CodeFreeTierRangeLimit, "end_date") {
			t.Errorf("expected FREE_TIER_RANGE_LIMIT, got %v", issueCodes(result))
		}
		if hasIssue(result, domain.CodeHistoricalLimitExceeded, "start_date") {
			t.Error("the start date is inside retention and must not be flagged")
		}
	})

	t.Run("Pro Tier Has No Span Cap", func(t *testing.T) {
		f := newFixture(domain.TierPro)
		v, _ := newAnalyticsSetup(f)
		q := f.query("totalAppointments")
		q.StartDate = daysAgo(90)
		q.EndDate = daysAgo(1)

		result, err := v.ValidateAnalyticsQuery(context.Background(), q, f.session(f.ownerID, "analytics:read", "appointments:read"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.IsValid {
			t.Fatalf("expected valid result, got errors %v", result.Errors)
		}
	})
}

func TestValidateAnalyticsQuery_Filters(t *testing.T) {
	f := newFixture(domain.TierPro)
	v, _ := newAnalyticsSetup(f)
	q := f.query("totalAppointments")
	q.Filters = map[string]any{
		"status":    "completed",
		"serviceId": "abc",
	}

	result, err := v.ValidateAnalyticsQuery(context.Background(), q, f.session(f.ownerID, "analytics:read", "appointments:read"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !hasIssue(result, domain.CodeFilterNotAllowed, "serviceId") {
		t.Errorf("expected FILTER_NOT_ALLOWED on serviceId, got %v", issueCodes(result))
	}
	if hasIssue(result, domain.CodeFilterNotAllowed, "status") {
		t.Error("status is a base filter and must not be flagged")
	}

	// The same filter passes once the unlocking permission is present.
	result, err = v.ValidateAnalyticsQuery(context.Background(), q, f.session(f.ownerID, "analytics:read", "appointments:read", "services:read"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.IsValid {
		t.Fatalf("expected valid result, got errors %v", result.Errors)
	}
}

func TestValidateAnalyticsQuery_Sanitization(t *testing.T) {
	intp := func(n int) *int { return &n }

	t.Run("Ids Come From The Session", func(t *testing.T) {
		f := newFixture(domain.TierPro)
		v, _ := newAnalyticsSetup(f)

		result, err := v.ValidateAnalyticsQuery(context.Background(), f.query("totalAppointments"), f.session(f.ownerID, "analytics:read", "appointments:read"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Sanitized.TenantID != f.tenantID || result.Sanitized.BusinessID != f.businessID {
			t.Error("sanitized ids must come from the session")
		}
	})

	t.Run("Limit And Offset Clamping", func(t *testing.T) {
		f := newFixture(domain.TierPro)
		v, _ := newAnalyticsSetup(f)
		session := f.session(f.ownerID, "analytics:read", "appointments:read")

		cases := []struct {
			name       string
			limit      *int
			offset     *int
			wantLimit  int
			wantOffset int
		}{
			{"Defaults", nil, nil, 50, 0},
			{"Over Max", intp(9999), intp(99999), 200, 10000},
			{"Under Min", intp(0), intp(-5), 1, 0},
			{"In Range", intp(120), intp(40), 120, 40},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				q := f.query("totalAppointments")
				q.Limit = tc.limit
				q.Offset = tc.offset

				result, err := v.ValidateAnalyticsQuery(context.Background(), q, session)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if *result.Sanitized.Limit != tc.wantLimit {
					t.Errorf("limit: got %d, want %d", *result.Sanitized.Limit, tc.wantLimit)
				}
				if *result.Sanitized.Offset != tc.wantOffset {
					t.Errorf("offset: got %d, want %d", *result.Sanitized.Offset, tc.wantOffset)
				}
			})
		}
	})

	t.Run("Metric Cap Truncates With Warning", func(t *testing.T) {
		f := newFixture(domain.TierFree)
		v, _ := newAnalyticsSetup(f)
		session := f.session(f.ownerID, "analytics:read", "appointments:read", "calls:read")
		q := f.query("totalAppointments", "completedAppointments", "cancelledAppointments", "totalCalls", "answeredCalls", "missedCalls")

		result, err := v.ValidateAnalyticsQuery(context.Background(), q, session)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.IsValid {
			t.Fatalf("expected valid result, got errors %v", result.Errors)
		}
		if len(result.Sanitized.Metrics) != 5 {
			t.Errorf("free tier should truncate to 5 metrics, got %d", len(result.Sanitized.Metrics))
		}
		if len(result.Warnings) != 1 {
			t.Errorf("truncation must warn, got %v", result.Warnings)
		}
	})

	t.Run("Filter Values Are Cleaned", func(t *testing.T) {
		f := newFixture(domain.TierPro)
		v, _ := newAnalyticsSetup(f)
		session := f.session(f.ownerID, "analytics:read", "appointments:read")

		longKey := strings.Repeat("k", 60)
		bigArray := make([]any, 60)
		for i := range bigArray {
			bigArray[i] = "x"
		}
		q := f.query("totalAppointments")
		q.Filters = map[string]any{
			"status": map[string]any{
				longKey: ` <script>"completed"</script> `,
				"in":    bigArray,
			},
		}

		result, err := v.ValidateAnalyticsQuery(context.Background(), q, session)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		nested, ok := result.Sanitized.Filters["status"].(map[string]any)
		if !ok {
			t.Fatalf("expected nested map, got %T", result.Sanitized.Filters["status"])
		}
		cleaned, ok := nested[longKey[:50]].(string)
		if !ok {
			t.Fatal("expected the long key to be truncated to 50 characters")
		}
		if cleaned != "scriptcompleted/script" {
			t.Errorf("unexpected cleaned value: %q", cleaned)
		}
		if arr, ok := nested["in"].([]any); !ok || len(arr) != 50 {
			t.Errorf("expected array truncated to 50 entries, got %v", nested["in"])
		}
		// Input must stay untouched.
		if len(q.Filters["status"].(map[string]any)["in"].([]any)) != 60 {
			t.Error("sanitization must not mutate the input query")
		}
	})
}

func TestValidateAnalyticsQuery_EntitlementPropagates(t *testing.T) {
	f := newFixture(domain.TierPro)
	v, _ := newAnalyticsSetup(f)

	_, err := v.ValidateAnalyticsQuery(context.Background(), f.query("totalAppointments"), f.session(f.inactiveID, "analytics:read", "appointments:read"))
	var unauthorized *domain.UnauthorizedError
	if !errors.As(err, &unauthorized) || unauthorized.Code != domain.CodeBusinessAccessDenied {
		t.Fatalf("expected BUSINESS_ACCESS_DENIED, got %v", err)
	}
}
