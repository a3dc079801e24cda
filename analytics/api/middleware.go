// analytics/api/middleware.go
package api

import (
	"context"
	"log"
	"net/http"

	"github.com/bettorstats/analytics-services/analytics/auth"
	sharedapi "github.com/bettorstats/analytics-services/shared/api"
	"github.com/gorilla/mux"
)

type contextKey string

// clientContextKey carries the authenticated client through the request
// context after the gateway and quota checks pass.
const clientContextKey contextKey = "authenticatedClient"

// AuthenticatedClientFrom returns the authenticated client stored on the
// request context, or nil outside the authenticated route tree.
func AuthenticatedClientFrom(ctx context.Context) *auth.AuthenticatedClient {
	client, _ := ctx.Value(clientContextKey).(*auth.AuthenticatedClient)
	return client
}

// AuthMiddleware authenticates the API key, enforces the client's quota,
// and stamps the quota diagnostic headers on every response. Requests
// proceed only when both checks pass.
func (h *AnalyticsAPIHandlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := routeEndpoint(r)
		sport := mux.Vars(r)["sport"]

		authenticated, authErr, err := h.Gateway.Authenticate(r.Context(), auth.ExtractAPIKey(r), endpoint, sport)
		if err != nil {
			log.Printf("Error: Authentication lookup failed for %s: %v", endpoint, err)
			sharedapi.WriteInternalServerError(w, "Authentication unavailable")
			return
		}
		if authErr != nil {
			sharedapi.WriteErrorCode(w, authErr.Status, authErr.Code, authErr.Message)
			return
		}

		decision, err := h.Quota.Enforce(r.Context(), authenticated.Client.ID, authenticated.Plan, endpoint)
		if err != nil {
			log.Printf("Error: Quota evaluation failed for client %s: %v", authenticated.Client.ID, err)
			sharedapi.WriteInternalServerError(w, "Quota evaluation unavailable")
			return
		}
		for name, value := range decision.Headers {
			w.Header().Set(name, value)
		}
		if !decision.Allowed {
			sharedapi.WriteErrorCode(w, decision.Status, decision.Code, "Request limit exceeded")
			return
		}

		ctx := context.WithValue(r.Context(), clientContextKey, authenticated)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminAuthMiddleware guards the admin subrouter with the static admin
// token from configuration.
func (h *AnalyticsAPIHandlers) AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.AdminToken == "" || r.Header.Get("Authorization") != "Bearer "+h.AdminToken {
			sharedapi.WriteUnauthorized(w, "Admin authorization required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// routeEndpoint identifies the endpoint by its route template, so plan
// allow-lists match stable patterns instead of concrete ids.
func routeEndpoint(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if template, err := route.GetPathTemplate(); err == nil {
			return template
		}
	}
	return r.URL.Path
}
