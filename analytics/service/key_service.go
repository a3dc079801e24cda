// analytics/service/key_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bettorstats/analytics-services/analytics/auth"
	"github.com/bettorstats/analytics-services/shared/models"
	"github.com/google/uuid"
)

// rawKeyPrefix marks keys minted by this service so they are recognizable
// in support tickets without revealing anything.
const rawKeyPrefix = "bs_"

// keyPrefixLen is how much of the raw key is kept as the stored prefix.
const keyPrefixLen = 8

// ClientAdminStore is the client management surface the key service needs.
type ClientAdminStore interface {
	CreateClient(ctx context.Context, client *models.ApiClient) error
	GetClientByID(ctx context.Context, id string) (*models.ApiClient, error)
	UpdateClientStatus(ctx context.Context, id, status string) error
}

// PlanGetter resolves plan ids.
type PlanGetter interface {
	GetPlan(ctx context.Context, id string) (*models.ApiPlan, error)
}

// UsageReader reads current window counts without incrementing them.
type UsageReader interface {
	MinuteCount(ctx context.Context, clientID, window string) (int64, error)
	DailyCount(ctx context.Context, clientID, window string) (int64, error)
	MonthlyCount(ctx context.Context, clientID, window string) (int64, error)
}

// WindowUsage is one tier of a client usage report.
type WindowUsage struct {
	Window string `json:"Window"`
	Limit  int64  `json:"Limit"`
	Used   int64  `json:"Used"`
}

// UsageReport is a client's current usage across all three tiers.
type UsageReport struct {
	ClientID string      `json:"ClientID"`
	Minute   WindowUsage `json:"Minute"`
	Day      WindowUsage `json:"Day"`
	Month    WindowUsage `json:"Month"`
}

// KeyService provisions API clients and their keys. The raw key is
// returned exactly once at creation; only its hash and a short prefix are
// ever stored.
type KeyService struct {
	clients ClientAdminStore
	plans   PlanGetter
	usage   UsageReader
	now     func() time.Time
}

// NewKeyService creates a new KeyService instance.
func NewKeyService(clients ClientAdminStore, plans PlanGetter, usage UsageReader) *KeyService {
	return &KeyService{
		clients: clients,
		plans:   plans,
		usage:   usage,
		now:     time.Now,
	}
}

// CreateClient mints a new API client under an existing plan. Returns the
// raw key (shown once, never stored) alongside the stored client record.
func (ks *KeyService) CreateClient(ctx context.Context, name, planID string) (string, *models.ApiClient, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil, fmt.Errorf("client name is required")
	}
	if _, err := ks.plans.GetPlan(ctx, planID); err != nil {
		return "", nil, fmt.Errorf("cannot create client under plan %s: %w", planID, err)
	}

	rawKey := generateRawKey()
	client := &models.ApiClient{
		ID:        uuid.NewString(),
		Name:      name,
		KeyHash:   auth.HashKey(rawKey),
		KeyPrefix: rawKey[:len(rawKeyPrefix)+keyPrefixLen],
		PlanID:    planID,
		Status:    models.ClientStatusActive,
		CreatedAt: ks.now().UTC(),
	}
	if err := ks.clients.CreateClient(ctx, client); err != nil {
		return "", nil, err
	}
	return rawKey, client, nil
}

// SetClientStatus suspends or reactivates a client.
func (ks *KeyService) SetClientStatus(ctx context.Context, clientID, status string) error {
	if status != models.ClientStatusActive && status != models.ClientStatusSuspended {
		return fmt.Errorf("invalid client status %q", status)
	}
	return ks.clients.UpdateClientStatus(ctx, clientID, status)
}

// GetClient retrieves a client record (hash excluded from its JSON form).
func (ks *KeyService) GetClient(ctx context.Context, clientID string) (*models.ApiClient, error) {
	return ks.clients.GetClientByID(ctx, clientID)
}

// Usage reports a client's current counts for the live minute, day, and
// month windows. Reads only; nothing is incremented.
func (ks *KeyService) Usage(ctx context.Context, clientID string) (*UsageReport, error) {
	client, err := ks.clients.GetClientByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	plan, err := ks.plans.GetPlan(ctx, client.PlanID)
	if err != nil {
		return nil, err
	}

	now := ks.now().UTC()
	report := &UsageReport{ClientID: client.ID}

	report.Minute.Window = auth.MinuteWindowKey(now)
	report.Minute.Limit = plan.RequestsPerMinute
	if report.Minute.Used, err = ks.usage.MinuteCount(ctx, client.ID, report.Minute.Window); err != nil {
		return nil, err
	}

	report.Day.Window = auth.DayWindowKey(now)
	report.Day.Limit = plan.DailyRequestLimit
	if report.Day.Used, err = ks.usage.DailyCount(ctx, client.ID, report.Day.Window); err != nil {
		return nil, err
	}

	report.Month.Window = auth.MonthWindowKey(now)
	report.Month.Limit = plan.MonthlyRequestLimit
	if report.Month.Used, err = ks.usage.MonthlyCount(ctx, client.ID, report.Month.Window); err != nil {
		return nil, err
	}

	return report, nil
}

// generateRawKey builds an opaque, unguessable raw key.
func generateRawKey() string {
	entropy := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	return rawKeyPrefix + entropy
}
