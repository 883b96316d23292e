// Package httpapi is the thin command layer's HTTP transport: GET
// endpoints expose read-only world state to anyone, POST endpoints
// mutate a world and require a bearer admin token, mirroring the
// teacher's GET-public/POST-admin split in its own HTTP surface. This
// package is the "HTTP surface for the ... simulation ... service"
// spec §1 calls an external collaborator — only control.Surface's
// interface is specified; everything here is this project's own
// reasonable transport choice.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/RonniRodriguez/idea-inc/internal/control"
	"github.com/RonniRodriguez/idea-inc/internal/simmanager"
	"github.com/RonniRodriguez/idea-inc/internal/simmodel"
	"github.com/RonniRodriguez/idea-inc/internal/simworld"
)

// Server serves a control.Surface over HTTP.
type Server struct {
	Surface  *control.Surface
	AdminKey string // bearer token required on POST/DELETE. Empty disables mutation entirely.
	Limiter  *RateLimiter

	mux *http.ServeMux
}

// NewServer wires up the routes. limiter may be nil to disable rate
// limiting (e.g. in tests).
func NewServer(surface *control.Surface, adminKey string, limiter *RateLimiter) *Server {
	s := &Server{Surface: surface, AdminKey: adminKey, Limiter: limiter, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /worlds", s.handleListWorlds)
	s.mux.HandleFunc("POST /worlds", s.admin(s.rateLimited(s.handleCreateWorld)))
	s.mux.HandleFunc("GET /worlds/{id}", s.handleGetWorld)
	s.mux.HandleFunc("DELETE /worlds/{id}", s.admin(s.handleDeleteWorld))
	s.mux.HandleFunc("POST /worlds/{id}/start", s.admin(s.handleStartWorld))
	s.mux.HandleFunc("POST /worlds/{id}/stop", s.admin(s.handleStopWorld))
	s.mux.HandleFunc("POST /worlds/{id}/step", s.admin(s.handleStepWorld))
	s.mux.HandleFunc("POST /worlds/{id}/ideas", s.admin(s.rateLimited(s.handleInjectIdea)))
	s.mux.HandleFunc("GET /worlds/{id}/ideas", s.handleListIdeas)
	s.mux.HandleFunc("GET /worlds/{id}/leaderboard", s.handleLeaderboard)
	s.mux.HandleFunc("GET /worlds/{id}/stats", s.handleStats)
	s.mux.HandleFunc("GET /worlds/{id}/snapshot", s.handleSnapshot)
}

// admin gates a handler behind the bearer AdminKey, same shape as the
// teacher's AdminKey-gated POST endpoints. An empty AdminKey disables the
// route entirely rather than leaving it open.
func (s *Server) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			writeErr(w, http.StatusForbidden, errors.New("admin endpoints disabled"))
			return
		}
		got := r.Header.Get("Authorization")
		if got != "Bearer "+s.AdminKey {
			writeErr(w, http.StatusUnauthorized, errors.New("invalid or missing admin token"))
			return
		}
		next(w, r)
	}
}

func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	if s.Limiter == nil {
		return next
	}
	return RateLimitMiddleware(s.Limiter, next)
}

func (s *Server) handleListWorlds(w http.ResponseWriter, r *http.Request) {
	filter := simmanager.WorldFilter{
		CreatorID:  r.URL.Query().Get("creator_id"),
		PublicOnly: r.URL.Query().Get("public_only") == "true",
	}
	writeJSON(w, http.StatusOK, s.Surface.ListWorlds(filter))
}

type createWorldBody struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	CreatorID      string   `json:"creator_id"`
	IsPublic       bool     `json:"is_public"`
	PopulationSize int      `json:"population_size"`
	NetworkType    string   `json:"network_type"`
	NetworkDensity float64  `json:"network_density"`
	MutationRate   float64  `json:"mutation_rate"`
	DecayRate      float64  `json:"decay_rate"`
	TimeStepMs     int      `json:"time_step_ms"`
	MaxSteps       *int     `json:"max_steps,omitempty"`
	Regions        []string `json:"regions,omitempty"`
	RegionWeights  []float64 `json:"region_weights,omitempty"`
	Seed           int64    `json:"seed,omitempty"`
}

func (s *Server) handleCreateWorld(w http.ResponseWriter, r *http.Request) {
	var body createWorldBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	netType, err := simworld.ParseNetworkType(body.NetworkType)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	world, err := s.Surface.CreateWorld(control.CreateWorldRequest{
		Name:        body.Name,
		Description: body.Description,
		CreatorID:   body.CreatorID,
		IsPublic:    body.IsPublic,
		Seed:        body.Seed,
		Config: simworld.Config{
			PopulationSize: body.PopulationSize,
			NetworkType:    netType,
			NetworkDensity: body.NetworkDensity,
			MutationRate:   body.MutationRate,
			DecayRate:      body.DecayRate,
			TimeStepMs:     body.TimeStepMs,
			MaxSteps:       body.MaxSteps,
			Regions:        body.Regions,
			RegionWeights:  body.RegionWeights,
		},
	})
	if err != nil {
		writeControlErr(w, err)
		return
	}
	slog.Info("world created via http", "world_id", world.ID, "population", humanize.Comma(int64(world.PopulationSize())),
		"build_duration", humanize.RelTime(start, time.Now(), "", ""))
	writeJSON(w, http.StatusCreated, worldView(world))
}

func (s *Server) handleGetWorld(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	world, err := s.Surface.GetWorld(id)
	if err != nil {
		writeControlErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, worldView(world))
}

func (s *Server) handleDeleteWorld(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.Surface.DeleteWorld(id); err != nil {
		writeControlErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartWorld(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	world, err := s.Surface.StartWorld(id)
	if err != nil {
		writeControlErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, worldView(world))
}

func (s *Server) handleStopWorld(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	world, err := s.Surface.StopWorld(id)
	if err != nil {
		writeControlErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, worldView(world))
}

func (s *Server) handleStepWorld(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	world, err := s.Surface.StepWorld(id, n)
	if err != nil {
		writeControlErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, worldView(world))
}

type injectIdeaBody struct {
	CreatorID        string   `json:"creator_id"`
	Text             string   `json:"text"`
	Tags             []string `json:"tags"`
	TargetAgeGroups  []string `json:"target_age_groups"`
	TargetInterests  []string `json:"target_interests"`
	TargetRegions    []string `json:"target_regions"`
	ViralityScore    *float64 `json:"virality_score,omitempty"`
	EmotionalValence *float64 `json:"emotional_valence,omitempty"`
	InitialAdopters  int      `json:"initial_adopters"`
}

func (s *Server) handleInjectIdea(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var body injectIdeaBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	idea, err := s.Surface.InjectIdea(control.InjectIdeaRequest{
		WorldID:          id,
		CreatorID:        body.CreatorID,
		Text:             body.Text,
		TagNames:         body.Tags,
		TargetAgeGroups:  body.TargetAgeGroups,
		TargetInterests:  body.TargetInterests,
		TargetRegions:    body.TargetRegions,
		ViralityScore:    body.ViralityScore,
		EmotionalValence: body.EmotionalValence,
		InitialAdopters:  body.InitialAdopters,
	})
	if err != nil {
		writeControlErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idea)
}

func (s *Server) handleListIdeas(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sortBy := control.SortByAdopters
	switch r.URL.Query().Get("sort_by") {
	case "reach":
		sortBy = control.SortByReach
	case "created_at":
		sortBy = control.SortByCreatedAt
	}
	ideas, err := s.Surface.ListIdeas(id, limit, sortBy)
	if err != nil {
		writeControlErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ideas)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	board, err := s.Surface.GetLeaderboard(id, limit)
	if err != nil {
		writeControlErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	stats, err := s.Surface.GetStats(id)
	if err != nil {
		writeControlErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	snap, err := s.Surface.GetSnapshot(id)
	if err != nil {
		writeControlErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// worldView is the JSON-facing projection of a World — it never exposes
// the agent/idea maps wholesale (those go through ListIdeas/GetSnapshot).
type worldViewBody struct {
	ID          simmodel.WorldID `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	CreatorID   string           `json:"creator_id"`
	IsPublic    bool             `json:"is_public"`
	Status      string           `json:"status"`
	CurrentStep uint64           `json:"current_step"`
	Population  int              `json:"population"`
}

func worldView(w *simworld.World) worldViewBody {
	return worldViewBody{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		CreatorID:   w.CreatorID,
		IsPublic:    w.IsPublic,
		Status:      w.Status().String(),
		CurrentStep: w.CurrentStep(),
		Population:  w.PopulationSize(),
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (simmodel.WorldID, bool) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeErr(w, http.StatusBadRequest, errors.New("invalid world id"))
		return simmodel.WorldID{}, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errBody{Kind: http.StatusText(status), Message: err.Error()})
}

// writeControlErr maps a control.Surface error to an HTTP status using
// the closed error-kind catalog from spec §7.
func writeControlErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, simworld.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errBody{Kind: "NotFound", Message: err.Error()})
	case errors.Is(err, simworld.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errBody{Kind: "InvalidInput", Message: err.Error()})
	case errors.Is(err, simworld.ErrInvalidStateTransition):
		writeJSON(w, http.StatusConflict, errBody{Kind: "InvalidStateTransition", Message: err.Error()})
	case errors.Is(err, simworld.ErrCapacityExhausted):
		writeJSON(w, http.StatusServiceUnavailable, errBody{Kind: "CapacityExhausted", Message: err.Error()})
	case errors.Is(err, simmodel.ErrBudgetExhausted):
		writeJSON(w, http.StatusConflict, errBody{Kind: "BudgetExhausted", Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errBody{Kind: "Internal", Message: err.Error()})
	}
}
