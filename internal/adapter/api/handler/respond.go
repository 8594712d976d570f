package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/user/tenant-guard/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps typed security errors onto the HTTP contract:
// authentication → 401, authorization (including isolation and
// identity-mismatch failures) → 403, anything else → 500 without
// leaking the cause.
func writeError(w http.ResponseWriter, err error) {
	var authErr *domain.AuthenticationError
	if errors.As(err, &authErr) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required", "code": authErr.Code})
		return
	}

	var unauthorized *domain.UnauthorizedError
	if errors.As(err, &unauthorized) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "access denied", "code": unauthorized.Code})
		return
	}

	var isolation *domain.TenantIsolationError
	if errors.As(err, &isolation) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "access denied", "code": isolation.Code})
		return
	}

	var validation *domain.BusinessValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "access denied", "code": validation.Code})
		return
	}

	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
