// Package api exposes a session, the outcome sampler and the strategy view over
// HTTP, with a WebSocket stream of replay steps.
package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"draft-strategy-lab/internal/datasource"
	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/observability"
	"draft-strategy-lab/internal/replay"
	"draft-strategy-lab/internal/session"
	"draft-strategy-lab/internal/simulation"
	"draft-strategy-lab/internal/storage"
)

// MaxTrials bounds the trial count a sampler request may ask for.
const MaxTrials = 1_000_000

// Options configures a Server.
type Options struct {
	Session  *session.Session           // required
	Bundle   *datasource.Bundle         // default: datasource.MockBundle()
	Sampler  *simulation.Sampler        // required
	RunStore storage.SimulationRunStore // optional; persists sampler runs
	Logger   *log.Logger                // optional
	Clock    func() time.Time           // default: time.Now
}

// Server routes API requests. Create with New.
type Server struct {
	session  *session.Session
	view     *datasource.StrategyView
	sampler  *simulation.Sampler
	runStore storage.SimulationRunStore
	logger   *log.Logger
	clock    func() time.Time
	started  time.Time

	router   *mux.Router
	upgrader websocket.Upgrader
}

// New builds a server and its routes.
func New(opts Options) (*Server, error) {
	if opts.Session == nil {
		return nil, errors.New("api: session is required")
	}
	if opts.Sampler == nil {
		return nil, errors.New("api: sampler is required")
	}
	bundle := opts.Bundle
	if bundle == nil {
		bundle = datasource.MockBundle()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	s := &Server{
		session:  opts.Session,
		view:     datasource.BuildView(bundle),
		sampler:  opts.Sampler,
		runStore: opts.RunStore,
		logger:   opts.Logger,
		clock:    clock,
		started:  clock(),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
	s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/graph/{mode}", s.handleGraph).Methods(http.MethodGet)
	api.HandleFunc("/replay/{mode}/start", s.handleStart).Methods(http.MethodPost)
	api.HandleFunc("/replay/{mode}/stop", s.handleStop).Methods(http.MethodPost)
	api.HandleFunc("/replay/{mode}/reset", s.handleReset).Methods(http.MethodPost)
	api.HandleFunc("/replay/{mode}/step", s.handleStep).Methods(http.MethodPost)
	api.HandleFunc("/teams", s.handleGetTeams).Methods(http.MethodGet)
	api.HandleFunc("/teams", s.handlePutTeams).Methods(http.MethodPut)
	api.HandleFunc("/toggles", s.handleToggles).Methods(http.MethodGet)
	api.HandleFunc("/sampler", s.handleSampler).Methods(http.MethodPost)
	api.HandleFunc("/strategy-view", s.handleStrategyView).Methods(http.MethodGet)

	r.HandleFunc("/ws/replay/{mode}", s.handleReplayStream).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observability.RecordHTTPRequest("unmatched", "404")
		writeError(w, http.StatusNotFound, "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observability.RecordHTTPRequest("unmatched", "405")
		writeError(w, http.StatusMethodNotAllowed, r.Method+" not allowed")
	})
	s.router = r
}

// statusRecorder captures the response code. It forwards Hijack so WebSocket
// upgrades work behind the middleware.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response does not support hijacking")
	}
	r.code = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		observability.RecordHTTPRequest(route, strconv.Itoa(rec.code))
	})
}

func (s *Server) log(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": msg,
		"status":  code,
	})
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, storage.ErrInvalidInput),
		errors.Is(err, simulation.ErrUnknownToggle),
		errors.Is(err, simulation.ErrInvalidTrials):
		return http.StatusBadRequest
	case errors.Is(err, replay.ErrAlreadyRunning),
		errors.Is(err, replay.ErrFeedExhausted):
		return http.StatusConflict
	case errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		s.log("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeError(w, code, err.Error())
}

func modeVar(r *http.Request) (domain.GraphMode, error) {
	mode, err := domain.ParseGraphMode(mux.Vars(r)["mode"])
	if err != nil {
		return "", fmt.Errorf("path: %w", err)
	}
	return mode, nil
}
