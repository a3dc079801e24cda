// analytics/auth/quota.go
package auth

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bettorstats/analytics-services/shared/models"
)

// Quota response headers. On acceptance all three tiers are reported; on
// rejection only the failing tier's headers are set.
const (
	HeaderLimitMinute = "X-RateLimit-Limit-Minute"
	HeaderUsedMinute  = "X-RateLimit-Used-Minute"
	HeaderLimitDay    = "X-Quota-Limit-Day"
	HeaderUsedDay     = "X-Quota-Used-Day"
	HeaderLimitMonth  = "X-Quota-Limit-Month"
	HeaderUsedMonth   = "X-Quota-Used-Month"
	HeaderRetryAfter  = "Retry-After"
)

// minuteCounterExpiry is how long after their window minute-level counter
// documents stick around before TTL cleanup. Cleanup only; the window
// itself is defined by the counter key.
const minuteCounterExpiry = 2 * time.Hour

// UsageStore is the counter surface the enforcer needs. Every increment is
// atomic at the store level and returns the post-increment count.
type UsageStore interface {
	IncrementMinute(ctx context.Context, clientID, window string, expiresAt time.Time) (int64, error)
	IncrementDaily(ctx context.Context, clientID, window, endpoint string) (int64, error)
	IncrementMonthly(ctx context.Context, clientID, window, endpoint string) (int64, error)
}

// QuotaDecision is the outcome of evaluating a request against all three
// fixed windows.
type QuotaDecision struct {
	Allowed bool
	Code    string // Rejection code (RATE_LIMIT_MINUTE / QUOTA_DAILY / QUOTA_MONTHLY)
	Status  int    // HTTP status for rejections (429)
	Headers map[string]string
}

// QuotaEnforcer maintains three independent fixed-window counters per
// client. The counter is incremented before the threshold comparison, so
// the request that tips a window past its limit is itself counted even
// though it is rejected.
type QuotaEnforcer struct {
	usage UsageStore
	now   func() time.Time
}

// NewQuotaEnforcer creates a new QuotaEnforcer instance.
func NewQuotaEnforcer(usage UsageStore) *QuotaEnforcer {
	return &QuotaEnforcer{
		usage: usage,
		now:   time.Now,
	}
}

// MinuteWindowKey returns the UTC timestamp truncated to the minute.
func MinuteWindowKey(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04")
}

// DayWindowKey returns the UTC calendar date.
func DayWindowKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// MonthWindowKey returns the UTC year-month.
func MonthWindowKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Enforce evaluates the minute, then day, then month window for a client,
// rejecting on the first exceeded tier without evaluating the rest. A
// non-positive limit on a tier means that tier is unlimited (still
// counted, never rejected).
func (qe *QuotaEnforcer) Enforce(ctx context.Context, clientID string, plan *models.ApiPlan, endpoint string) (*QuotaDecision, error) {
	now := qe.now().UTC()

	minuteUsed, err := qe.usage.IncrementMinute(ctx, clientID, MinuteWindowKey(now), now.Add(minuteCounterExpiry))
	if err != nil {
		return nil, err
	}
	if plan.RequestsPerMinute > 0 && minuteUsed > plan.RequestsPerMinute {
		return &QuotaDecision{
			Allowed: false,
			Code:    CodeRateLimitMinute,
			Status:  http.StatusTooManyRequests,
			Headers: map[string]string{
				HeaderLimitMinute: formatCount(plan.RequestsPerMinute),
				HeaderUsedMinute:  formatCount(minuteUsed),
				// The minute window naturally resets within a minute, so a
				// retry hint is meaningful here; daily and monthly
				// rejections carry none.
				HeaderRetryAfter: "60",
			},
		}, nil
	}

	dayUsed, err := qe.usage.IncrementDaily(ctx, clientID, DayWindowKey(now), endpoint)
	if err != nil {
		return nil, err
	}
	if plan.DailyRequestLimit > 0 && dayUsed > plan.DailyRequestLimit {
		return &QuotaDecision{
			Allowed: false,
			Code:    CodeQuotaDaily,
			Status:  http.StatusTooManyRequests,
			Headers: map[string]string{
				HeaderLimitDay: formatCount(plan.DailyRequestLimit),
				HeaderUsedDay:  formatCount(dayUsed),
			},
		}, nil
	}

	monthUsed, err := qe.usage.IncrementMonthly(ctx, clientID, MonthWindowKey(now), endpoint)
	if err != nil {
		return nil, err
	}
	if plan.MonthlyRequestLimit > 0 && monthUsed > plan.MonthlyRequestLimit {
		return &QuotaDecision{
			Allowed: false,
			Code:    CodeQuotaMonthly,
			Status:  http.StatusTooManyRequests,
			Headers: map[string]string{
				HeaderLimitMonth: formatCount(plan.MonthlyRequestLimit),
				HeaderUsedMonth:  formatCount(monthUsed),
			},
		}, nil
	}

	return &QuotaDecision{
		Allowed: true,
		Headers: map[string]string{
			HeaderLimitMinute: formatCount(plan.RequestsPerMinute),
			HeaderUsedMinute:  formatCount(minuteUsed),
			HeaderLimitDay:    formatCount(plan.DailyRequestLimit),
			HeaderUsedDay:     formatCount(dayUsed),
			HeaderLimitMonth:  formatCount(plan.MonthlyRequestLimit),
			HeaderUsedMonth:   formatCount(monthUsed),
		},
	}, nil
}

func formatCount(n int64) string {
	return strconv.FormatInt(n, 10)
}
