package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bettorstats/analytics-services/analytics/auth"
	"github.com/bettorstats/analytics-services/analytics/store"
	"github.com/bettorstats/analytics-services/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClientAdminStore struct {
	clients map[string]*models.ApiClient
}

func newFakeClientAdminStore() *fakeClientAdminStore {
	return &fakeClientAdminStore{clients: make(map[string]*models.ApiClient)}
}

func (fs *fakeClientAdminStore) CreateClient(_ context.Context, client *models.ApiClient) error {
	if _, ok := fs.clients[client.ID]; ok {
		return store.ErrClientExists
	}
	stored := *client
	fs.clients[client.ID] = &stored
	return nil
}

func (fs *fakeClientAdminStore) GetClientByID(_ context.Context, id string) (*models.ApiClient, error) {
	client, ok := fs.clients[id]
	if !ok {
		return nil, store.ErrClientNotFound
	}
	return client, nil
}

func (fs *fakeClientAdminStore) UpdateClientStatus(_ context.Context, id, status string) error {
	client, ok := fs.clients[id]
	if !ok {
		return store.ErrClientNotFound
	}
	client.Status = status
	return nil
}

type fakePlanGetter struct {
	plans map[string]*models.ApiPlan
}

func (fp *fakePlanGetter) GetPlan(_ context.Context, id string) (*models.ApiPlan, error) {
	plan, ok := fp.plans[id]
	if !ok {
		return nil, store.ErrPlanNotFound
	}
	return plan, nil
}

type fakeUsageReader struct {
	minute, daily, monthly map[string]int64
}

func usageKey(clientID, window string) string { return clientID + ":" + window }

func (fr *fakeUsageReader) MinuteCount(_ context.Context, clientID, window string) (int64, error) {
	return fr.minute[usageKey(clientID, window)], nil
}

func (fr *fakeUsageReader) DailyCount(_ context.Context, clientID, window string) (int64, error) {
	return fr.daily[usageKey(clientID, window)], nil
}

func (fr *fakeUsageReader) MonthlyCount(_ context.Context, clientID, window string) (int64, error) {
	return fr.monthly[usageKey(clientID, window)], nil
}

func testKeyService() (*KeyService, *fakeClientAdminStore, *fakeUsageReader) {
	clients := newFakeClientAdminStore()
	plans := &fakePlanGetter{plans: map[string]*models.ApiPlan{
		"pro": {
			ID:                  "pro",
			Status:              models.PlanStatusActive,
			RequestsPerMinute:   120,
			DailyRequestLimit:   20000,
			MonthlyRequestLimit: 400000,
		},
	}}
	usage := &fakeUsageReader{
		minute:  make(map[string]int64),
		daily:   make(map[string]int64),
		monthly: make(map[string]int64),
	}
	return NewKeyService(clients, plans, usage), clients, usage
}

func TestCreateClient_NeverStoresRawKey(t *testing.T) {
	t.Parallel()

	svc, clients, _ := testKeyService()

	rawKey, client, err := svc.CreateClient(context.Background(), "Acme Sports", "pro")
	require.NoError(t, err)
	require.NotNil(t, client)

	assert.True(t, strings.HasPrefix(rawKey, "bs_"))
	assert.Equal(t, auth.HashKey(rawKey), client.KeyHash)
	assert.Equal(t, rawKey[:len("bs_")+8], client.KeyPrefix)
	assert.Equal(t, models.ClientStatusActive, client.Status)

	stored := clients.clients[client.ID]
	require.NotNil(t, stored)
	assert.NotContains(t, stored.KeyHash, rawKey)
	assert.NotEqual(t, rawKey, stored.KeyHash)
}

func TestCreateClient_KeysAreUnique(t *testing.T) {
	t.Parallel()

	svc, _, _ := testKeyService()
	ctx := context.Background()

	rawA, _, err := svc.CreateClient(ctx, "Client A", "pro")
	require.NoError(t, err)
	rawB, _, err := svc.CreateClient(ctx, "Client B", "pro")
	require.NoError(t, err)
	assert.NotEqual(t, rawA, rawB)
}

func TestCreateClient_RejectsUnknownPlan(t *testing.T) {
	t.Parallel()

	svc, _, _ := testKeyService()
	_, _, err := svc.CreateClient(context.Background(), "Acme Sports", "no-such-plan")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrPlanNotFound)
}

func TestCreateClient_RejectsBlankName(t *testing.T) {
	t.Parallel()

	svc, _, _ := testKeyService()
	_, _, err := svc.CreateClient(context.Background(), "   ", "pro")
	assert.Error(t, err)
}

func TestSetClientStatus(t *testing.T) {
	t.Parallel()

	svc, clients, _ := testKeyService()
	ctx := context.Background()
	_, client, err := svc.CreateClient(ctx, "Acme Sports", "pro")
	require.NoError(t, err)

	require.NoError(t, svc.SetClientStatus(ctx, client.ID, models.ClientStatusSuspended))
	assert.Equal(t, models.ClientStatusSuspended, clients.clients[client.ID].Status)

	require.NoError(t, svc.SetClientStatus(ctx, client.ID, models.ClientStatusActive))
	assert.Equal(t, models.ClientStatusActive, clients.clients[client.ID].Status)

	assert.Error(t, svc.SetClientStatus(ctx, client.ID, "banished"))
}

func TestUsage_ReportsLiveWindowCounts(t *testing.T) {
	t.Parallel()

	svc, _, usage := testKeyService()
	now := time.Date(2025, 11, 30, 18, 42, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	ctx := context.Background()
	_, client, err := svc.CreateClient(ctx, "Acme Sports", "pro")
	require.NoError(t, err)

	usage.minute[usageKey(client.ID, auth.MinuteWindowKey(now))] = 7
	usage.daily[usageKey(client.ID, auth.DayWindowKey(now))] = 480
	usage.monthly[usageKey(client.ID, auth.MonthWindowKey(now))] = 9001

	report, err := svc.Usage(ctx, client.ID)
	require.NoError(t, err)

	assert.Equal(t, client.ID, report.ClientID)
	assert.Equal(t, WindowUsage{Window: "2025-11-30T18:42", Limit: 120, Used: 7}, report.Minute)
	assert.Equal(t, WindowUsage{Window: "2025-11-30", Limit: 20000, Used: 480}, report.Day)
	assert.Equal(t, WindowUsage{Window: "2025-11", Limit: 400000, Used: 9001}, report.Month)
}

func TestUsage_UnknownClient(t *testing.T) {
	t.Parallel()

	svc, _, _ := testKeyService()
	_, err := svc.Usage(context.Background(), "no-such-client")
	assert.ErrorIs(t, err, store.ErrClientNotFound)
}
