// Package webapp serves the companion word-counter mini-app API.
package webapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"voicefx-bot/internal/textstats"
)

const statsTopWords = 10

// Server is the HTTP server behind the mini-app.
type Server struct {
	addr string
	srv  *http.Server
}

// New creates a server listening on addr.
func New(addr string) *Server {
	s := &Server{addr: addr}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the mini-app routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Post("/api/stats", s.handleStats)
	return r
}

// Start runs the server until Stop is called. It returns on listener
// failure only; a graceful shutdown is not an error.
func (s *Server) Start() error {
	log.Infof("Mini-app API listening on %s", s.addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statsRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var req statsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	respondJSON(w, http.StatusOK, textstats.Count(req.Text, statsTopWords))
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warnf("Failed to encode response: %v", err)
	}
}
