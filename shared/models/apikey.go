package models

import (
	"time"
)

// Client status values.
const (
	ClientStatusActive    = "active"
	ClientStatusSuspended = "suspended"
)

// Plan status values.
const (
	PlanStatusActive   = "active"
	PlanStatusInactive = "inactive"
)

// EndpointWildcard in a plan's allowed endpoints permits every endpoint.
const EndpointWildcard = "*"

// ApiPlan defines the limits and allowances attached to a tier of API access.
type ApiPlan struct {
	ID                  string   `bson:"_id" json:"ID"`
	Name                string   `bson:"name" json:"Name"`
	Status              string   `bson:"status" json:"Status"`
	RequestsPerMinute   int64    `bson:"requests_per_minute" json:"RequestsPerMinute"`
	DailyRequestLimit   int64    `bson:"daily_request_limit" json:"DailyRequestLimit"`
	MonthlyRequestLimit int64    `bson:"monthly_request_limit" json:"MonthlyRequestLimit"`
	AllowedEndpoints    []string `bson:"allowed_endpoints" json:"AllowedEndpoints"`
	AllowedSports       []string `bson:"allowed_sports" json:"AllowedSports"`
}

// AllowsEndpoint reports whether the plan permits the given endpoint path.
// A wildcard entry permits everything.
func (p *ApiPlan) AllowsEndpoint(endpoint string) bool {
	for _, allowed := range p.AllowedEndpoints {
		if allowed == EndpointWildcard || allowed == endpoint {
			return true
		}
	}
	return false
}

// AllowsSport reports whether the plan permits the given sport code. An
// empty allow-list means unrestricted.
func (p *ApiPlan) AllowsSport(sport string) bool {
	if len(p.AllowedSports) == 0 {
		return true
	}
	for _, allowed := range p.AllowedSports {
		if allowed == sport {
			return true
		}
	}
	return false
}

// ApiClient is one API consumer. Only the one-way hash of the raw key is
// stored; the prefix exists so support can identify a key without ever
// seeing it.
type ApiClient struct {
	ID         string     `bson:"_id" json:"ID"`
	Name       string     `bson:"name" json:"Name"`
	KeyHash    string     `bson:"key_hash" json:"-"`
	KeyPrefix  string     `bson:"key_prefix" json:"KeyPrefix"`
	PlanID     string     `bson:"plan_id" json:"PlanID"`
	Status     string     `bson:"status" json:"Status"`
	CreatedAt  time.Time  `bson:"created_at" json:"CreatedAt"`
	LastUsedAt *time.Time `bson:"last_used_at,omitempty" json:"LastUsedAt,omitempty"`
}

// UsageCounter is one fixed-window usage document: one per (client, window
// key). Minute-granularity documents carry ExpiresAt so a TTL index can
// clean them up; the window itself is defined by the key, not the expiry.
type UsageCounter struct {
	ID        string           `bson:"_id" json:"ID"`
	ClientID  string           `bson:"client_id" json:"ClientID"`
	Window    string           `bson:"window" json:"Window"`
	Count     int64            `bson:"count" json:"Count"`
	Endpoints map[string]int64 `bson:"endpoints,omitempty" json:"Endpoints,omitempty"`
	ExpiresAt *time.Time       `bson:"expires_at,omitempty" json:"ExpiresAt,omitempty"`
}
