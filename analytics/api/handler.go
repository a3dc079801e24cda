// analytics/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/bettorstats/analytics-services/analytics/auth"
	"github.com/bettorstats/analytics-services/analytics/service"
	"github.com/bettorstats/analytics-services/analytics/store"
	sharedapi "github.com/bettorstats/analytics-services/shared/api"
	"github.com/bettorstats/analytics-services/shared/models"
	"github.com/bettorstats/analytics-services/shared/sports"
	"github.com/gorilla/mux"
)

// AnalyticsAPIHandlers holds references to the services that handle business logic.
type AnalyticsAPIHandlers struct {
	Aggregation *service.AggregationService
	Odds        *service.OddsService
	Keys        *service.KeyService
	Gateway     *auth.AccessGateway
	Quota       *auth.QuotaEnforcer

	RequestTimeout time.Duration
	AdminToken     string
}

// NewAnalyticsAPIHandlers is the constructor for the API handlers.
func NewAnalyticsAPIHandlers(aggregation *service.AggregationService, odds *service.OddsService, keys *service.KeyService, gateway *auth.AccessGateway, quota *auth.QuotaEnforcer, requestTimeout time.Duration, adminToken string) *AnalyticsAPIHandlers {
	return &AnalyticsAPIHandlers{
		Aggregation:    aggregation,
		Odds:           odds,
		Keys:           keys,
		Gateway:        gateway,
		Quota:          quota,
		RequestTimeout: requestTimeout,
		AdminToken:     adminToken,
	}
}

// --- Request/Response DTOs (Data Transfer Objects) ---

type TeamRecordResponse struct {
	TeamID     int                  `json:"teamId"`
	SeasonYear int                  `json:"seasonYear"`
	Record     models.TeamRecordSet `json:"record"`
}

type TeamAtsResponse struct {
	TeamID     int                   `json:"teamId"`
	SeasonYear int                   `json:"seasonYear"`
	Ats        models.TeamAtsSummary `json:"ats"`
}

type EventConsensusResponse struct {
	EventID            string                `json:"eventId"`
	Consensus          *models.ConsensusLine `json:"consensus"`
	HomeWinProbability *float64              `json:"homeWinProbability"`
	AwayWinProbability *float64              `json:"awayWinProbability"`
}

type TeamStatResponse struct {
	TeamID     int               `json:"teamId"`
	SeasonYear int               `json:"seasonYear"`
	Stat       service.NamedStat `json:"stat"`
}

type CreateClientRequest struct {
	Name   string `json:"name"`
	PlanID string `json:"planId"`
}

type CreateClientResponse struct {
	Client *models.ApiClient `json:"client"`
	ApiKey string            `json:"apiKey"` // Returned once; never retrievable again
}

type UpdateClientStatusRequest struct {
	Status string `json:"status"`
}

// --- Handler Methods ---

// GetTeamRecordHandler returns a team's straight season record.
// GET /v1/{sport}/teams/{teamId}/record
func (h *AnalyticsAPIHandlers) GetTeamRecordHandler(w http.ResponseWriter, r *http.Request) {
	sport, teamID, ok := h.sportAndTeam(w, r)
	if !ok {
		return
	}
	season := seasonYear(r)

	ctx, cancel := context.WithTimeout(r.Context(), h.RequestTimeout)
	defer cancel()

	record := h.Aggregation.TeamRecordSet(ctx, sport, teamID, season)
	sharedapi.WriteJSON(w, http.StatusOK, TeamRecordResponse{
		TeamID:     teamID,
		SeasonYear: season,
		Record:     record,
	})
}

// GetTeamAtsHandler returns a team's against-the-spread season summary.
// GET /v1/{sport}/teams/{teamId}/ats
func (h *AnalyticsAPIHandlers) GetTeamAtsHandler(w http.ResponseWriter, r *http.Request) {
	sport, teamID, ok := h.sportAndTeam(w, r)
	if !ok {
		return
	}
	season := seasonYear(r)

	ctx, cancel := context.WithTimeout(r.Context(), h.RequestTimeout)
	defer cancel()

	ats := h.Aggregation.TeamAtsSummary(ctx, sport, teamID, season)
	sharedapi.WriteJSON(w, http.StatusOK, TeamAtsResponse{
		TeamID:     teamID,
		SeasonYear: season,
		Ats:        ats,
	})
}

// GetTeamStatHandler resolves a named season statistic for a team.
// GET /v1/{sport}/teams/{teamId}/stats/{stat}
func (h *AnalyticsAPIHandlers) GetTeamStatHandler(w http.ResponseWriter, r *http.Request) {
	sport, teamID, ok := h.sportAndTeam(w, r)
	if !ok {
		return
	}
	season := seasonYear(r)
	token := mux.Vars(r)["stat"]

	ctx, cancel := context.WithTimeout(r.Context(), h.RequestTimeout)
	defer cancel()

	stats := h.Aggregation.TeamSeasonStats(ctx, sport, teamID, season)
	stat, found := service.FindStat(stats, token)
	if !found {
		sharedapi.WriteNotFound(w, "Unknown statistic")
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, TeamStatResponse{
		TeamID:     teamID,
		SeasonYear: season,
		Stat:       stat,
	})
}

// GetEventConsensusHandler returns the consensus line and implied win
// probabilities for an event.
// GET /v1/{sport}/events/{eventId}/consensus
func (h *AnalyticsAPIHandlers) GetEventConsensusHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]
	if eventID == "" {
		sharedapi.WriteBadRequest(w, "Event id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.RequestTimeout)
	defer cancel()

	consensus, err := h.Odds.ConsensusLine(ctx, eventID)
	if err != nil {
		log.Printf("Error resolving consensus for event %s: %v", eventID, err)
		sharedapi.WriteInternalServerError(w, "Failed to resolve consensus line")
		return
	}

	pHome, pAway := service.ImpliedWinProbability(consensus.MoneylineHome, consensus.MoneylineAway)
	sharedapi.WriteJSON(w, http.StatusOK, EventConsensusResponse{
		EventID:            eventID,
		Consensus:          consensus,
		HomeWinProbability: pHome,
		AwayWinProbability: pAway,
	})
}

// GetMatchupHandler returns the composed head-to-head summary.
// GET /v1/{sport}/matchup/{homeTeamId}/{awayTeamId}
func (h *AnalyticsAPIHandlers) GetMatchupHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sport, err := sports.Parse(vars["sport"])
	if err != nil {
		sharedapi.WriteBadRequest(w, "Unknown sport code")
		return
	}
	homeTeamID, err1 := strconv.Atoi(vars["homeTeamId"])
	awayTeamID, err2 := strconv.Atoi(vars["awayTeamId"])
	if err1 != nil || err2 != nil {
		sharedapi.WriteBadRequest(w, "Team ids must be numeric")
		return
	}
	season := seasonYear(r)

	ctx, cancel := context.WithTimeout(r.Context(), h.RequestTimeout)
	defer cancel()

	summary := h.Aggregation.BuildMatchupSummary(ctx, sport, homeTeamID, awayTeamID, season)
	if summary == nil {
		sharedapi.WriteNotFound(w, "Matchup data unavailable")
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, summary)
}

// CreateClientHandler provisions a new API client and key.
// POST /admin/clients
func (h *AnalyticsAPIHandlers) CreateClientHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sharedapi.WriteBadRequest(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.RequestTimeout)
	defer cancel()

	rawKey, client, err := h.Keys.CreateClient(ctx, req.Name, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrPlanNotFound):
			sharedapi.WriteBadRequest(w, "Unknown plan id")
		case errors.Is(err, store.ErrClientExists):
			sharedapi.WriteError(w, http.StatusConflict, "Client already exists")
		default:
			log.Printf("Error creating api client %q: %v", req.Name, err)
			sharedapi.WriteInternalServerError(w, "Failed to create api client")
		}
		return
	}

	sharedapi.WriteJSON(w, http.StatusCreated, CreateClientResponse{Client: client, ApiKey: rawKey})
	log.Printf("Api client %s created under plan %s.", client.ID, client.PlanID)
}

// UpdateClientStatusHandler suspends or reactivates a client.
// PUT /admin/clients/{clientId}/status
func (h *AnalyticsAPIHandlers) UpdateClientStatusHandler(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["clientId"]

	var req UpdateClientStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sharedapi.WriteBadRequest(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.RequestTimeout)
	defer cancel()

	if err := h.Keys.SetClientStatus(ctx, clientID, req.Status); err != nil {
		switch {
		case errors.Is(err, store.ErrClientNotFound):
			sharedapi.WriteNotFound(w, "Client not found")
		default:
			log.Printf("Error updating status for api client %s: %v", clientID, err)
			sharedapi.WriteInternalServerError(w, "Failed to update client status")
		}
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "Client status updated"})
}

// GetClientUsageHandler reports a client's current window usage.
// GET /admin/clients/{clientId}/usage
func (h *AnalyticsAPIHandlers) GetClientUsageHandler(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["clientId"]

	ctx, cancel := context.WithTimeout(r.Context(), h.RequestTimeout)
	defer cancel()

	report, err := h.Keys.Usage(ctx, clientID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrClientNotFound):
			sharedapi.WriteNotFound(w, "Client not found")
		default:
			log.Printf("Error building usage report for api client %s: %v", clientID, err)
			sharedapi.WriteInternalServerError(w, "Failed to build usage report")
		}
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, report)
}

// HealthHandler reports liveness.
// GET /healthz
func (h *AnalyticsAPIHandlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	sharedapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RegisterRoutes registers all API endpoints for the analytics service.
func (h *AnalyticsAPIHandlers) RegisterRoutes(router *mux.Router) {
	public := router.PathPrefix("/v1").Subrouter()
	public.Use(h.AuthMiddleware)
	public.HandleFunc("/{sport}/teams/{teamId}/record", h.GetTeamRecordHandler).Methods("GET")
	public.HandleFunc("/{sport}/teams/{teamId}/ats", h.GetTeamAtsHandler).Methods("GET")
	public.HandleFunc("/{sport}/teams/{teamId}/stats/{stat}", h.GetTeamStatHandler).Methods("GET")
	public.HandleFunc("/{sport}/events/{eventId}/consensus", h.GetEventConsensusHandler).Methods("GET")
	public.HandleFunc("/{sport}/matchup/{homeTeamId}/{awayTeamId}", h.GetMatchupHandler).Methods("GET")

	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(h.AdminAuthMiddleware)
	admin.HandleFunc("/clients", h.CreateClientHandler).Methods("POST")
	admin.HandleFunc("/clients/{clientId}/status", h.UpdateClientStatusHandler).Methods("PUT")
	admin.HandleFunc("/clients/{clientId}/usage", h.GetClientUsageHandler).Methods("GET")

	router.HandleFunc("/healthz", h.HealthHandler).Methods("GET")
}

// sportAndTeam parses the common sport and team path variables, writing
// the error response itself on failure.
func (h *AnalyticsAPIHandlers) sportAndTeam(w http.ResponseWriter, r *http.Request) (sports.Sport, int, bool) {
	vars := mux.Vars(r)
	sport, err := sports.Parse(vars["sport"])
	if err != nil {
		sharedapi.WriteBadRequest(w, "Unknown sport code")
		return "", 0, false
	}
	teamID, err := strconv.Atoi(vars["teamId"])
	if err != nil {
		sharedapi.WriteBadRequest(w, "Team id must be numeric")
		return "", 0, false
	}
	return sport, teamID, true
}

// seasonYear reads the optional season query parameter, defaulting to the
// current year.
func seasonYear(r *http.Request) int {
	if v := r.URL.Query().Get("season"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			return year
		}
	}
	return time.Now().UTC().Year()
}
