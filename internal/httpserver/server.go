// internal/httpserver/server.go
//
// HTTP server wiring for the Guess the Number backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (session cookie): POST /game/start, POST /game/guess,
//     GET /game/state.
//   - Push endpoint: GET /game/events (websocket, see events.go).
//
// Notes:
//   - Every game route runs with a session; a missing or invalid cookie
//     silently creates a new one (see session.go).
//   - Ignored guesses are not errors: the unchanged snapshot is returned.
//   - CORS is origin-aware and credentials-enabled (so cookies work).

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numberguess/internal/config"
	"github.com/robalobadob/numberguess/internal/daily"
	"github.com/robalobadob/numberguess/internal/session"
	"github.com/robalobadob/numberguess/internal/store"
)

// Server bundles router, session store and configuration.
type Server struct {
	r        *chi.Mux
	sessions store.Store
	cfg      config.Config
	upgrader websocket.Upgrader
	now      func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, cfg config.Config) *Server {
	s := &Server{r: chi.NewRouter(), sessions: st, cfg: cfg, now: time.Now}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(s.cors)          // credentials-friendly CORS

	// Websocket stays outside the handler timeout.
	s.r.With(s.withSession).Get("/game/events", s.handleEvents)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"numberguess-go","endpoints":["/health","POST /game/start","POST /game/guess","GET /game/state","GET /game/events"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		// Game endpoints
		r.With(s.withSession).Post("/game/start", s.handleStart)
		r.With(s.withSession).Post("/game/guess", s.handleGuess)
		r.With(s.withSession).Get("/game/state", s.handleState)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_found", "path": r.URL.Path})
		})
	})

	return s
}

// Run serves HTTP on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ GAME ---------------------------------------

// startReq is the payload for POST /game/start.
type startReq struct {
	Mode string `json:"mode"` // "random" (default) | "daily"
}

// handleStart begins a new game for the caller's session.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	secret, ok := s.secretFor(req.Mode)
	if !ok {
		http.Error(w, `{"error":"bad_mode"}`, http.StatusBadRequest)
		return
	}
	ctrl := sessionFrom(r)
	snap, err := ctrl.Start(r.Context(), secret)
	if err != nil {
		s.sessionError(w, ctrl, err)
		return
	}
	_ = json.NewEncoder(w).Encode(snap)
}

// guessReq is the payload for POST /game/guess.
type guessReq struct {
	Number int `json:"number"`
}

// handleGuess submits a number. Ignored guesses answer 200 with the
// unchanged snapshot.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	ctrl := sessionFrom(r)
	snap, err := ctrl.Guess(r.Context(), req.Number)
	if err != nil {
		s.sessionError(w, ctrl, err)
		return
	}
	_ = json.NewEncoder(w).Encode(snap)
}

// handleState returns the current snapshot (clients poll this while loading
// if they do not use the websocket).
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ctrl := sessionFrom(r)
	snap, err := ctrl.Snapshot(r.Context())
	if err != nil {
		s.sessionError(w, ctrl, err)
		return
	}
	_ = json.NewEncoder(w).Encode(snap)
}

// secretFor maps a start mode to the secret passed to the controller.
// 0 asks the controller for a random number.
func (s *Server) secretFor(mode string) (int, bool) {
	switch mode {
	case "", "random":
		return 0, true
	case "daily":
		return daily.Secret(s.now(), s.cfg.DailySalt), true
	default:
		return 0, false
	}
}

// sessionError reports a controller that could not serve the request
// (evicted mid-request, or the request was cancelled).
func (s *Server) sessionError(w http.ResponseWriter, ctrl *session.Controller, err error) {
	log.Warn().Err(err).Str("session", ctrl.ID()).Msg("session unavailable")
	http.Error(w, `{"error":"session_unavailable"}`, http.StatusServiceUnavailable)
}
