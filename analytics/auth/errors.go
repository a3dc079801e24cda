// analytics/auth/errors.go
package auth

import (
	"net/http"
)

// Application error codes surfaced to API consumers. Authentication codes
// are terminal; quota codes are retryable after the stated window.
const (
	CodeNoAPIKey           = "NO_API_KEY"
	CodeInvalidAPIKey      = "INVALID_API_KEY"
	CodePlanNotFound       = "PLAN_NOT_FOUND"
	CodeEndpointNotAllowed = "ENDPOINT_NOT_ALLOWED"
	CodeSportNotAllowed    = "SPORT_NOT_ALLOWED"
	CodeRateLimitMinute    = "RATE_LIMIT_MINUTE"
	CodeQuotaDaily         = "QUOTA_DAILY"
	CodeQuotaMonthly       = "QUOTA_MONTHLY"
)

// AuthError is a typed authentication/authorization failure. Messages never
// echo any part of the presented key.
type AuthError struct {
	Code    string
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func newAuthError(code string, status int, message string) *AuthError {
	return &AuthError{Code: code, Status: status, Message: message}
}

var (
	errNoAPIKey = newAuthError(CodeNoAPIKey, http.StatusUnauthorized, "An API key is required")
	// The same error covers unknown and suspended keys, so a caller can
	// never distinguish the two cases.
	errInvalidAPIKey      = newAuthError(CodeInvalidAPIKey, http.StatusUnauthorized, "Invalid API key")
	errPlanNotFound       = newAuthError(CodePlanNotFound, http.StatusForbidden, "No active plan is associated with this API key")
	errEndpointNotAllowed = newAuthError(CodeEndpointNotAllowed, http.StatusForbidden, "This endpoint is not included in your plan")
	errSportNotAllowed    = newAuthError(CodeSportNotAllowed, http.StatusForbidden, "This sport is not included in your plan")
)
