package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bettorstats/analytics-services/shared/models"
)

// fakeUsageStore counts in memory with the same increment-then-return
// contract as the Mongo store.
type fakeUsageStore struct {
	mu      sync.Mutex
	minute  map[string]int64
	daily   map[string]int64
	monthly map[string]int64

	endpointCounts map[string]int64
}

func newFakeUsageStore() *fakeUsageStore {
	return &fakeUsageStore{
		minute:         make(map[string]int64),
		daily:          make(map[string]int64),
		monthly:        make(map[string]int64),
		endpointCounts: make(map[string]int64),
	}
}

func (f *fakeUsageStore) IncrementMinute(ctx context.Context, clientID, window string, expiresAt time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minute[clientID+":"+window]++
	return f.minute[clientID+":"+window], nil
}

func (f *fakeUsageStore) IncrementDaily(ctx context.Context, clientID, window, endpoint string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.daily[clientID+":"+window]++
	f.endpointCounts[endpoint]++
	return f.daily[clientID+":"+window], nil
}

func (f *fakeUsageStore) IncrementMonthly(ctx context.Context, clientID, window, endpoint string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monthly[clientID+":"+window]++
	return f.monthly[clientID+":"+window], nil
}

func testPlan() *models.ApiPlan {
	return &models.ApiPlan{
		ID:                  "free",
		Status:              models.PlanStatusActive,
		RequestsPerMinute:   3,
		DailyRequestLimit:   100,
		MonthlyRequestLimit: 1000,
	}
}

func frozenEnforcer(store UsageStore, at time.Time) *QuotaEnforcer {
	qe := NewQuotaEnforcer(store)
	qe.now = func() time.Time { return at }
	return qe
}

// Requests 1..N succeed inside a minute window; request N+1 is rejected
// with RATE_LIMIT_MINUTE and a retry hint.
func TestEnforce_MinuteLimit(t *testing.T) {
	store := newFakeUsageStore()
	at := time.Date(2026, 1, 15, 10, 30, 12, 0, time.UTC)
	qe := frozenEnforcer(store, at)
	plan := testPlan()

	for i := 1; i <= 3; i++ {
		decision, err := qe.Enforce(context.Background(), "c1", plan, "/v1/x")
		if err != nil {
			t.Fatalf("enforce request %d: %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	decision, err := qe.Enforce(context.Background(), "c1", plan, "/v1/x")
	if err != nil {
		t.Fatalf("enforce: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("request 4 should be rejected")
	}
	if decision.Code != CodeRateLimitMinute {
		t.Fatalf("unexpected code: %s", decision.Code)
	}
	if decision.Status != 429 {
		t.Fatalf("unexpected status: %d", decision.Status)
	}
	if decision.Headers[HeaderRetryAfter] != "60" {
		t.Fatalf("minute rejection must carry Retry-After: 60, got %q", decision.Headers[HeaderRetryAfter])
	}
	// The rejected request is itself counted (increment happens before the
	// threshold comparison).
	if decision.Headers[HeaderUsedMinute] != "4" {
		t.Fatalf("unexpected used count: %q", decision.Headers[HeaderUsedMinute])
	}
	// Only the failing tier's headers are present.
	if _, ok := decision.Headers[HeaderLimitDay]; ok {
		t.Fatalf("rejection headers must be scoped to the failing tier")
	}
}

// A new minute window starts fresh regardless of the prior window's count.
func TestEnforce_NextMinuteWindowResets(t *testing.T) {
	store := newFakeUsageStore()
	at := time.Date(2026, 1, 15, 10, 30, 59, 0, time.UTC)
	qe := frozenEnforcer(store, at)
	plan := testPlan()

	for i := 1; i <= 4; i++ {
		qe.Enforce(context.Background(), "c1", plan, "/v1/x")
	}

	qe.now = func() time.Time { return at.Add(time.Minute) }
	decision, err := qe.Enforce(context.Background(), "c1", plan, "/v1/x")
	if err != nil {
		t.Fatalf("enforce: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("first request of the next minute window should be allowed")
	}
}

// A minute rejection must short-circuit: day and month counters are not
// touched.
func TestEnforce_ShortCircuitsOnMinuteRejection(t *testing.T) {
	store := newFakeUsageStore()
	at := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	qe := frozenEnforcer(store, at)
	plan := testPlan()

	for i := 1; i <= 4; i++ {
		qe.Enforce(context.Background(), "c1", plan, "/v1/x")
	}

	dayKey := "c1:" + DayWindowKey(at)
	if store.daily[dayKey] != 3 {
		t.Fatalf("day counter should only count accepted evaluations, got %d", store.daily[dayKey])
	}
}

func TestEnforce_DailyLimit(t *testing.T) {
	store := newFakeUsageStore()
	at := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	qe := frozenEnforcer(store, at)
	plan := testPlan()
	plan.RequestsPerMinute = 0 // unlimited minute tier
	plan.DailyRequestLimit = 2

	qe.Enforce(context.Background(), "c1", plan, "/v1/x")
	qe.Enforce(context.Background(), "c1", plan, "/v1/x")
	decision, err := qe.Enforce(context.Background(), "c1", plan, "/v1/x")
	if err != nil {
		t.Fatalf("enforce: %v", err)
	}
	if decision.Allowed || decision.Code != CodeQuotaDaily {
		t.Fatalf("expected QUOTA_DAILY rejection, got %+v", decision)
	}
	if _, ok := decision.Headers[HeaderRetryAfter]; ok {
		t.Fatalf("daily rejection must not carry a retry hint")
	}
}

func TestEnforce_MonthlyLimit(t *testing.T) {
	store := newFakeUsageStore()
	at := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	qe := frozenEnforcer(store, at)
	plan := testPlan()
	plan.RequestsPerMinute = 0
	plan.DailyRequestLimit = 0
	plan.MonthlyRequestLimit = 1

	qe.Enforce(context.Background(), "c1", plan, "/v1/x")
	decision, err := qe.Enforce(context.Background(), "c1", plan, "/v1/x")
	if err != nil {
		t.Fatalf("enforce: %v", err)
	}
	if decision.Allowed || decision.Code != CodeQuotaMonthly {
		t.Fatalf("expected QUOTA_MONTHLY rejection, got %+v", decision)
	}
}

func TestEnforce_AcceptanceHeadersCoverAllTiers(t *testing.T) {
	store := newFakeUsageStore()
	at := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	qe := frozenEnforcer(store, at)

	decision, err := qe.Enforce(context.Background(), "c1", testPlan(), "/v1/x")
	if err != nil {
		t.Fatalf("enforce: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected acceptance")
	}
	for _, header := range []string{HeaderLimitMinute, HeaderUsedMinute, HeaderLimitDay, HeaderUsedDay, HeaderLimitMonth, HeaderUsedMonth} {
		if decision.Headers[header] == "" {
			t.Fatalf("missing header %s on acceptance", header)
		}
	}
	if decision.Headers[HeaderUsedMinute] != "1" || decision.Headers[HeaderUsedDay] != "1" || decision.Headers[HeaderUsedMonth] != "1" {
		t.Fatalf("unexpected used counts: %+v", decision.Headers)
	}
}

func TestWindowKeys(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 7, 23, 59, 58, 0, time.UTC)
	if got := MinuteWindowKey(at); got != "2026-03-07T23:59" {
		t.Fatalf("minute key: %s", got)
	}
	if got := DayWindowKey(at); got != "2026-03-07" {
		t.Fatalf("day key: %s", got)
	}
	if got := MonthWindowKey(at); got != "2026-03" {
		t.Fatalf("month key: %s", got)
	}

	// Keys are always UTC, regardless of the input zone.
	zone := time.FixedZone("UTC+5", 5*3600)
	if got := DayWindowKey(time.Date(2026, 3, 8, 2, 0, 0, 0, zone)); got != "2026-03-07" {
		t.Fatalf("day key should truncate in UTC: %s", got)
	}
}
