package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/tenant-guard/internal/adapter/api/middleware"
	"github.com/user/tenant-guard/internal/adapter/metrics"
	"github.com/user/tenant-guard/internal/domain"
	"github.com/user/tenant-guard/internal/usecase"
)

// AnalyticsHandler serves analytics reads behind the full validation
// pipeline: isolation guard, business-rule validation, scoped read.
type AnalyticsHandler struct {
	guard     *usecase.TenantGuard
	validator *usecase.AnalyticsValidator
	reader    domain.AnalyticsReader
	metrics   *metrics.SecurityMetrics
	logger    *slog.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(guard *usecase.TenantGuard, validator *usecase.AnalyticsValidator, reader domain.AnalyticsReader, m *metrics.SecurityMetrics, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		guard:     guard,
		validator: validator,
		reader:    reader,
		metrics:   m,
		logger:    logger,
	}
}

// Query validates and executes an analytics query. The requested tenant
// id is always the session's own binding, never a client-supplied
// header or parameter; the guard still runs unconditionally.
func (h *AnalyticsHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := middleware.SessionFrom(ctx)
	if session == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required", "code": domain.CodeNoToken})
		return
	}

	tenantCtx, err := h.guard.Authorize(ctx, session, session.TenantID, r.URL.Path)
	if err != nil {
		h.countTenantCheck(err)
		writeError(w, err)
		return
	}
	h.countTenantCheckOK()

	var query domain.AnalyticsQuery
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&query); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	result, err := h.validator.ValidateAnalyticsQuery(ctx, &query, session)
	if err != nil {
		if h.metrics != nil {
			h.metrics.QueryValidationsTotal.WithLabelValues("rejected").Inc()
		}
		var validationErr *domain.BusinessValidationError
		if errors.As(err, &validationErr) && h.metrics != nil {
			h.metrics.CrossTenantAttempts.Inc()
		}
		writeError(w, err)
		return
	}
	if !result.IsValid {
		if h.metrics != nil {
			h.metrics.QueryValidationsTotal.WithLabelValues("invalid").Inc()
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"errors":   result.Errors,
			"warnings": result.Warnings,
		})
		return
	}
	if h.metrics != nil {
		h.metrics.QueryValidationsTotal.WithLabelValues("valid").Inc()
	}

	report, err := h.reader.Read(ctx, result.Sanitized, session)
	if err != nil {
		h.logger.Error("analytics read failed", "error", err, "business_id", result.Sanitized.BusinessID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"business": tenantCtx.BusinessName,
		"tier":     tenantCtx.SubscriptionTier,
		"data":     report,
		"warnings": result.Warnings,
	})
}

func (h *AnalyticsHandler) countTenantCheck(err error) {
	if h.metrics == nil {
		return
	}
	var unauthorized *domain.UnauthorizedError
	var isolation *domain.TenantIsolationError
	switch {
	case errors.As(err, &unauthorized):
		h.metrics.TenantChecksTotal.WithLabelValues(unauthorized.Code).Inc()
		if unauthorized.Code == domain.CodeTenantAccessDenied {
			h.metrics.CrossTenantAttempts.Inc()
		}
	case errors.As(err, &isolation):
		h.metrics.TenantChecksTotal.WithLabelValues(isolation.Code).Inc()
	default:
		h.metrics.TenantChecksTotal.WithLabelValues("error").Inc()
	}
}

func (h *AnalyticsHandler) countTenantCheckOK() {
	if h.metrics != nil {
		h.metrics.TenantChecksTotal.WithLabelValues("ok").Inc()
	}
}
