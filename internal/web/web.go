// Package web exposes the calendar abstraction over HTTP: expanded
// events, the next upcoming event, the ICS feed, and the event update
// endpoint.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"mowercal/internal/config"
	"mowercal/internal/feed"
	appLog "mowercal/internal/log"
	"mowercal/internal/model"
	"mowercal/internal/schedule"
)

// SnapshotStore is the read side of the mower snapshot.
type SnapshotStore interface {
	Mowers() []model.Mower
	Mower(id string) (model.Mower, bool)
	Refresh(ctx context.Context) error
}

// Submitter is the command channel used to replace a mower's schedule.
type Submitter interface {
	SendCalendar(ctx context.Context, mowerID string, tasks []model.Task) error
}

// Locator resolves a coordinate into a display address, best-effort.
type Locator interface {
	Reverse(ctx context.Context, lat, lon float64) string
}

// Server provides the HTTP API for the mower calendar bridge.
type Server struct {
	cfg      *config.Config
	store    SnapshotStore
	commands Submitter
	locator  Locator // nil when geocoding is disabled
	loc      *time.Location
	mux      *http.ServeMux
}

// NewServer constructs a Server. loc is the local calendar zone used to
// anchor event expansion.
func NewServer(cfg *config.Config, store SnapshotStore, commands Submitter, locator Locator, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		cfg:      cfg,
		store:    store,
		commands: commands,
		locator:  locator,
		loc:      loc,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/mowers", s.handleMowers)
	s.mux.HandleFunc("GET /api/mowers/{id}/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/mowers/{id}/events/next", s.handleNextEvent)
	s.mux.HandleFunc("POST /api/mowers/{id}/events", s.handleUpdateEvent)
	s.mux.HandleFunc("GET /api/mowers/{id}/calendar.ics", s.handleICS)
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="mowercal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// mowerDTO is the JSON listing shape for /api/mowers.
type mowerDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Model     string `json:"model"`
	TaskCount int    `json:"task_count"`
}

func (s *Server) handleMowers(w http.ResponseWriter, _ *http.Request) {
	mowers := s.store.Mowers()
	dtos := make([]mowerDTO, 0, len(mowers))
	for _, m := range mowers {
		dtos = append(dtos, mowerDTO{
			ID:        m.ID,
			Name:      m.Name,
			Model:     m.Model,
			TaskCount: len(m.Tasks),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// eventsResponse is the JSON response shape for the events listing.
type eventsResponse struct {
	Events []model.CalendarEvent `json:"events"`

	// RangeStart/RangeEnd echo the requested window. The expansion is
	// always the 7 days from the local anchor day; the range does not
	// filter it. Known limitation, kept on purpose.
	RangeStart string    `json:"range_start,omitempty"`
	RangeEnd   string    `json:"range_end,omitempty"`
	Anchor     time.Time `json:"anchor"`
}

// handleEvents returns the full 7-day-anchored expansion for one mower.
//
// GET /api/mowers/{id}/events?start=...&end=...
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	mower, ok := s.store.Mower(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown mower")
		return
	}

	anchor := schedule.StartOfDay(time.Now().In(s.loc))
	events := s.expand(r.Context(), mower, anchor)

	q := r.URL.Query()
	writeJSON(w, http.StatusOK, eventsResponse{
		Events:     events,
		RangeStart: q.Get("start"),
		RangeEnd:   q.Get("end"),
		Anchor:     anchor,
	})
}

// handleNextEvent returns the single nearest upcoming event. By contract
// this never comes back empty: with no scheduled mowing a placeholder a
// week out is returned.
func (s *Server) handleNextEvent(w http.ResponseWriter, r *http.Request) {
	mower, ok := s.store.Mower(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown mower")
		return
	}

	anchor := schedule.StartOfDay(time.Now().In(s.loc))
	events := s.expand(r.Context(), mower, anchor)
	writeJSON(w, http.StatusOK, schedule.NextEvent(anchor, events))
}

// handleICS serves the expanded schedule as an iCalendar feed.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	mower, ok := s.store.Mower(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown mower")
		return
	}

	anchor := schedule.StartOfDay(time.Now().In(s.loc))
	events := s.expand(r.Context(), mower, anchor)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(feed.Render(events)))
}

// handleUpdateEvent accepts a calendar event edit and submits the
// translated task list as a full schedule replacement.
//
// Validation errors are the only blocking failures. A transport failure
// on submission is logged and swallowed; the forced snapshot refresh
// runs either way, so the caller always ends up seeing the device's
// actual state.
func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	mower, ok := s.store.Mower(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown mower")
		return
	}

	var up schedule.EventUpdate
	if err := json.NewDecoder(r.Body).Decode(&up); err != nil {
		writeError(w, http.StatusBadRequest, "malformed event update")
		return
	}

	tasks, err := schedule.TasksFromUpdate(up)
	if err != nil {
		if errors.Is(err, schedule.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to translate event")
		return
	}

	ctx := r.Context()
	if err := s.commands.SendCalendar(ctx, mower.ID, tasks); err != nil {
		appLog.Warn("calendar command could not be sent", err, "mower_id", mower.ID)
	}

	if err := s.store.Refresh(ctx); err != nil {
		appLog.Warn("post-update snapshot refresh failed", err, "mower_id", mower.ID)
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "submitted"})
}

// expand resolves the mower's display location and runs task expansion
// for the given anchor day.
func (s *Server) expand(ctx context.Context, mower model.Mower, anchor time.Time) []model.CalendarEvent {
	return schedule.Expand(schedule.ExpandInput{
		MowerName: mower.Name,
		Location:  s.resolveLocation(ctx, mower),
		Tasks:     mower.Tasks,
		Anchor:    anchor,
	})
}

// resolveLocation is best-effort: no locator, no position or a failed
// lookup all degrade to an empty location.
func (s *Server) resolveLocation(ctx context.Context, mower model.Mower) string {
	if s.locator == nil || len(mower.Positions) == 0 {
		return ""
	}
	pos := mower.Positions[0]
	return s.locator.Reverse(ctx, pos.Latitude, pos.Longitude)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
