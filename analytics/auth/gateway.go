// analytics/auth/gateway.go
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/bettorstats/analytics-services/analytics/store"
	"github.com/bettorstats/analytics-services/shared/models"
)

// APIKeyHeader is the dedicated key header, preferred over the
// Authorization header and the query parameter fallback.
const (
	APIKeyHeader     = "X-API-Key"
	APIKeyQueryParam = "api_key"
	authSchemePrefix = "ApiKey "
)

// ClientStore is the client lookup surface the gateway needs.
type ClientStore interface {
	GetClientByKeyHash(ctx context.Context, keyHash string) (*models.ApiClient, error)
	StampLastUsed(ctx context.Context, id string) error
}

// PlanStore is the plan lookup surface the gateway needs.
type PlanStore interface {
	GetPlan(ctx context.Context, id string) (*models.ApiPlan, error)
}

// AuthenticatedClient is the result of a successful authentication.
type AuthenticatedClient struct {
	Client *models.ApiClient
	Plan   *models.ApiPlan
}

// AccessGateway resolves opaque API keys to clients and plans and enforces
// the plan's endpoint and sport allow-lists.
type AccessGateway struct {
	clients ClientStore
	plans   PlanStore
}

// NewAccessGateway creates a new AccessGateway instance.
func NewAccessGateway(clients ClientStore, plans PlanStore) *AccessGateway {
	return &AccessGateway{
		clients: clients,
		plans:   plans,
	}
}

// ExtractAPIKey pulls the raw key from the request. Precedence: dedicated
// header, then "Authorization: ApiKey <key>", then the query parameter.
// Returns "" when no source carries a key.
func ExtractAPIKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
		return key
	}
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, authSchemePrefix) {
		if key := strings.TrimSpace(strings.TrimPrefix(authz, authSchemePrefix)); key != "" {
			return key
		}
	}
	return strings.TrimSpace(r.URL.Query().Get(APIKeyQueryParam))
}

// HashKey returns the one-way hash under which a raw key is stored. Raw
// keys never touch the database or the logs.
func HashKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// Authenticate resolves a raw API key to an active client and plan, then
// checks the plan's endpoint and sport allow-lists. A *AuthError describes
// a request the caller must reject; a non-nil error is an internal failure.
func (ag *AccessGateway) Authenticate(ctx context.Context, rawKey, endpoint, sport string) (*AuthenticatedClient, *AuthError, error) {
	if rawKey == "" {
		return nil, errNoAPIKey, nil
	}

	client, err := ag.clients.GetClientByKeyHash(ctx, HashKey(rawKey))
	if err != nil {
		if errors.Is(err, store.ErrClientNotFound) {
			return nil, errInvalidAPIKey, nil
		}
		return nil, nil, err
	}
	if client.Status != models.ClientStatusActive {
		// Suspended keys must be indistinguishable from unknown keys.
		return nil, errInvalidAPIKey, nil
	}

	plan, err := ag.plans.GetPlan(ctx, client.PlanID)
	if err != nil {
		if errors.Is(err, store.ErrPlanNotFound) {
			return nil, errPlanNotFound, nil
		}
		return nil, nil, err
	}
	if plan.Status != models.PlanStatusActive {
		return nil, errPlanNotFound, nil
	}

	if !plan.AllowsEndpoint(endpoint) {
		return nil, errEndpointNotAllowed, nil
	}
	if sport != "" && !plan.AllowsSport(sport) {
		return nil, errSportNotAllowed, nil
	}

	// Best-effort usage stamp. Runs detached from the request so a slow or
	// failed write can never fail the call.
	go ag.stampLastUsed(client.ID)

	return &AuthenticatedClient{Client: client, Plan: plan}, nil, nil
}

func (ag *AccessGateway) stampLastUsed(clientID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := ag.clients.StampLastUsed(ctx, clientID); err != nil {
		log.Printf("Warning: Failed to stamp last used for api client %s: %v", clientID, err)
	}
}
