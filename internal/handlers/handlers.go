package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/antigravity/fairwaylog/internal/course"
	"github.com/antigravity/fairwaylog/internal/db"
	"github.com/antigravity/fairwaylog/internal/missmap"
	"github.com/antigravity/fairwaylog/internal/models"
	"github.com/antigravity/fairwaylog/internal/stats"
)

// Store is the persistence the handlers need.
type Store interface {
	Ping(ctx context.Context) error
	CreateRound(ctx context.Context, r *models.Round) error
	GetRound(ctx context.Context, id string) (*models.Round, error)
	ListRounds(ctx context.Context) ([]*models.Round, error)
	SaveHole(ctx context.Context, roundID string, player int, thru int, h models.HoleRecord) error
	SetStatus(ctx context.Context, roundID string, status models.RoundStatus) error
	DeleteRound(ctx context.Context, roundID string) error
	SaveCourse(ctx context.Context, name string, pars []int) error
	GetCoursePars(ctx context.Context, name string) ([]int, error)
}

type Server struct {
	store   Store
	logger  *zap.Logger
	version string
	started time.Time
}

func New(store Store, logger *zap.Logger, version string) *Server {
	return &Server{store: store, logger: logger, version: version, started: time.Now()}
}

// Routes registers every API endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.HealthHandler)
	mux.HandleFunc("GET /api/rounds", s.ListRoundsHandler)
	mux.HandleFunc("POST /api/rounds", s.CreateRoundHandler)
	mux.HandleFunc("GET /api/rounds/{id}", s.GetRoundHandler)
	mux.HandleFunc("DELETE /api/rounds/{id}", s.DeleteRoundHandler)
	mux.HandleFunc("POST /api/rounds/{id}/finish", s.FinishRoundHandler)
	mux.HandleFunc("PUT /api/rounds/{id}/players/{player}/holes/{hole}", s.UpdateHoleHandler)
	mux.HandleFunc("GET /api/rounds/{id}/stats", s.StatsHandler)
	mux.HandleFunc("GET /api/trends", s.TrendsHandler)
	mux.HandleFunc("POST /api/course/import", s.ImportCourseHandler)
	mux.HandleFunc("GET /api/course/presets/{total}", s.ParPresetHandler)
	return mux
}

type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Status: status})
}

// fail maps domain errors to a status. Anything unrecognised is logged and
// reported as a bare 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, "round not found")
	case errors.Is(err, models.ErrPlayerNotFound), errors.Is(err, models.ErrHoleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrRoundCompleted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrNoCourse),
		errors.Is(err, models.ErrInvalidHoleCount),
		errors.Is(err, models.ErrNoPlayers),
		errors.Is(err, models.ErrTooManyPlayers),
		errors.Is(err, models.ErrInvalidPar),
		errors.Is(err, models.ErrInvalidHole),
		errors.Is(err, course.ErrNoScorecard),
		errors.Is(err, course.ErrBadPar):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Seconds(),
		"version":   s.version,
	}

	start := time.Now()
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("database ping failed", zap.Error(err))
		health["database"] = map[string]any{"status": "error", "message": "Database unreachable"}
		health["status"] = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}
	health["database"] = map[string]any{"status": "ok", "latency_ms": time.Since(start).Milliseconds()}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) ListRoundsHandler(w http.ResponseWriter, r *http.Request) {
	rounds, err := s.store.ListRounds(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	summaries := make([]stats.RoundSummary, 0, len(rounds))
	for _, rd := range rounds {
		summaries = append(summaries, stats.Summarize(*rd, 0))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) CreateRoundHandler(w http.ResponseWriter, r *http.Request) {
	var p models.NewRoundParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A known course fills in its stored layout.
	if len(p.Pars) == 0 && strings.TrimSpace(p.CourseName) != "" {
		pars, err := s.store.GetCoursePars(r.Context(), strings.TrimSpace(p.CourseName))
		switch {
		case err == nil:
			p.Pars = pars
		case !errors.Is(err, db.ErrNotFound):
			s.fail(w, r, err)
			return
		}
	}
	if len(p.Pars) == 0 {
		p.Pars = course.DefaultPars
	}

	round, err := models.NewRound(p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.CreateRound(r.Context(), round); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("round started", zap.String("round_id", round.ID), zap.String("course", round.CourseName), zap.Int("players", len(round.Players)))
	writeJSON(w, http.StatusCreated, round)
}

func (s *Server) GetRoundHandler(w http.ResponseWriter, r *http.Request) {
	round, err := s.store.GetRound(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

func (s *Server) DeleteRoundHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRound(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) FinishRoundHandler(w http.ResponseWriter, r *http.Request) {
	round, err := s.store.GetRound(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := round.Finish(); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.SetStatus(r.Context(), round.ID, round.Status); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("round finished", zap.String("round_id", round.ID))
	writeJSON(w, http.StatusOK, stats.Summarize(*round, 0))
}

func (s *Server) UpdateHoleHandler(w http.ResponseWriter, r *http.Request) {
	player, err := strconv.Atoi(r.PathValue("player"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "player must be a number")
		return
	}
	hole, err := strconv.Atoi(r.PathValue("hole"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "hole must be a number")
		return
	}

	var u models.HoleUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	round, err := s.store.GetRound(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	h, err := round.UpdateHole(player, hole, u)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.SaveHole(r.Context(), round.ID, player, round.Thru, *h); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

type statsResponse struct {
	Player  string             `json:"player"`
	Stats   stats.RoundStats   `json:"stats"`
	Clubs   []stats.ClubStat   `json:"clubs"`
	MissMap *missmap.Plot      `json:"miss_map"`
	Summary stats.RoundSummary `json:"summary"`
}

func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	round, err := s.store.GetRound(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	player := 0
	if v := r.URL.Query().Get("player"); v != "" {
		if player, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "player must be a number")
			return
		}
	}
	if player < 0 || player >= len(round.Players) {
		writeError(w, http.StatusNotFound, models.ErrPlayerNotFound.Error())
		return
	}

	holes := round.Played(player)
	resp := statsResponse{
		Player:  round.Players[player].Name,
		Stats:   stats.Round(holes),
		Clubs:   stats.Clubs(holes),
		Summary: stats.Summarize(*round, player),
	}
	plot, err := missmap.Project(holes)
	switch {
	case err == nil:
		resp.MissMap = &plot
	case !errors.Is(err, missmap.ErrNoData):
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type trendsResponse struct {
	Points  []stats.TrendPoint `json:"points"`
	Summary stats.TrendSummary `json:"summary"`
}

// TrendsHandler charts completed rounds oldest first. With ?player=Name only
// rounds that player took part in are used; otherwise the first player.
func (s *Server) TrendsHandler(w http.ResponseWriter, r *http.Request) {
	rounds, err := s.store.ListRounds(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	name := r.URL.Query().Get("player")

	points := []stats.TrendPoint{}
	for i := len(rounds) - 1; i >= 0; i-- {
		rd := rounds[i]
		if rd.Status != models.StatusCompleted {
			continue
		}
		player := 0
		if name != "" {
			idx, ok := rd.PlayerIndex(name)
			if !ok {
				continue
			}
			player = idx
		}
		points = append(points, stats.TrendFromRound(*rd, player))
	}
	writeJSON(w, http.StatusOK, trendsResponse{Points: points, Summary: stats.Trends(points)})
}

func (s *Server) ImportCourseHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	card, err := course.ImportScorecard(file)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if name := strings.TrimSpace(r.FormValue("name")); name != "" {
		card.CourseName = name
	}
	if card.CourseName != "" {
		if err := s.store.SaveCourse(r.Context(), card.CourseName, card.Pars); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	s.logger.Info("course imported", zap.String("course", card.CourseName), zap.Int("holes", len(card.Pars)), zap.Int("par", course.Total(card.Pars)))
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) ParPresetHandler(w http.ResponseWriter, r *http.Request) {
	total, err := strconv.Atoi(r.PathValue("total"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "total must be a number")
		return
	}
	pars := course.ParPreset(total)
	writeJSON(w, http.StatusOK, map[string]any{"total": course.Total(pars), "pars": pars})
}
