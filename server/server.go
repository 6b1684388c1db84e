// Package server exposes engine sessions to game hosts over HTTP and
// websockets.
//
// Over HTTP a session is named by the game_id carried in every request and
// lives until /end or until it has been idle for the session TTL. A websocket
// connection owns exactly one session for its lifetime: every text frame is
// one round.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/brensch/greedysnek/engine"
	"github.com/brensch/greedysnek/game"
	"github.com/brensch/greedysnek/logging"
	"github.com/brensch/greedysnek/store"
)

const Version = "1.0.0"

// Recorder receives one row per decided round.
type Recorder interface {
	Write(rows ...store.DecisionRow) error
}

type Options struct {
	Engine     engine.Config
	SessionTTL time.Duration
	SweepEvery time.Duration
	Logger     *slog.Logger
	// Recorder is optional.
	Recorder Recorder
	// Now overrides the clock used for idle tracking.
	Now func() time.Time
}

type Server struct {
	engineCfg  engine.Config
	log        *slog.Logger
	sessions   *registry
	recorder   Recorder
	ttl        time.Duration
	sweepEvery time.Duration
	upgrader   websocket.Upgrader
}

func New(opts Options) (*Server, error) {
	if err := opts.Engine.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	s := &Server{
		engineCfg:  opts.Engine,
		log:        log,
		recorder:   opts.Recorder,
		ttl:        opts.SessionTTL,
		sweepEvery: opts.SweepEvery,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.sessions = newRegistry(s.newSession, opts.Now)
	return s, nil
}

func (s *Server) newSession() (*engine.Session, error) {
	return engine.NewSession(s.engineCfg, engine.WithLogger(s.log.WithGroup("engine")))
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/move", s.handleMove)
	mux.HandleFunc("/end", s.handleEnd)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Sessions is the number of live sessions.
func (s *Server) Sessions() int { return s.sessions.len() }

// Run sweeps idle sessions until ctx is done.
func (s *Server) Run(ctx context.Context) {
	if s.ttl <= 0 {
		<-ctx.Done()
		return
	}
	every := s.sweepEvery
	if every <= 0 {
		every = s.ttl / 2
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep drops idle sessions once and returns how many went.
func (s *Server) Sweep() int {
	dropped := s.sessions.sweep(s.ttl)
	for _, id := range dropped {
		s.log.Info("session expired", "game_id", id)
	}
	return len(dropped)
}

// decide runs one round on the named session.
func (s *Server) decide(id string, w game.Wire, explain bool) (MoveResponse, error) {
	if err := w.Validate(); err != nil {
		return MoveResponse{}, err
	}
	e, created, err := s.sessions.getOrCreate(id)
	if err != nil {
		return MoveResponse{}, err
	}
	if created {
		s.log.Info("session created", "game_id", id)
	}
	return s.decideOn(e, w, explain), nil
}

func (s *Server) decideOn(e *entry, w game.Wire, explain bool) MoveResponse {
	snap := w.Parse()

	e.mu.Lock()
	start := time.Now()
	d := e.session.Decide(snap)
	took := time.Since(start)
	e.mu.Unlock()
	s.sessions.touch(e)

	if s.recorder != nil {
		if err := s.recorder.Write(store.NewDecisionRow(e.id, snap, d, took)); err != nil {
			s.log.Warn("record decision", "game_id", e.id, "err", err)
		}
	}

	s.log.Info("move",
		"game_id", e.id,
		"round", snap.Round,
		"move", d.Move.String(),
		"dead", d.Dead,
		"took", took,
	)

	resp := MoveResponse{
		GameID:    e.id,
		Move:      int(d.Move),
		Direction: d.Move.String(),
		Round:     d.Round,
		Dead:      d.Dead,
	}
	if explain {
		resp.Decision = &d
	}
	return resp
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, InfoResponse{
		APIVersion: "1",
		Author:     "greedysnek",
		Version:    Version,
		Sessions:   s.Sessions(),
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
		return
	}
	var req StartRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.GameID == "" {
		req.GameID = uuid.NewString()
	}
	if err := s.sessions.reset(req.GameID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("game started", "game_id", req.GameID)
	writeJSON(w, http.StatusOK, StartResponse{GameID: req.GameID})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
		return
	}
	var req MoveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.GameID == "" {
		writeError(w, http.StatusBadRequest, errors.New("game_id is required"))
		return
	}

	explain := r.URL.Query().Get("explain") != ""
	resp, err := s.decide(req.GameID, req.Wire, explain)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
		return
	}
	var req EndRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	found := s.sessions.drop(req.GameID)
	s.log.Info("game ended", "game_id", req.GameID, "found", found)
	w.WriteHeader(http.StatusOK)
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
