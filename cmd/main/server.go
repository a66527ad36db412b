package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/CTAG07/Murmur/pkg/notestock"
	"github.com/CTAG07/Murmur/pkg/store"
	"github.com/google/uuid"
)

// Server wires the API handlers to one mux.
type Server struct {
	config    *ConfigManager
	db        *sql.DB
	logger    *slog.Logger
	state     *ModelState
	authAPI   *AuthAPI
	markovAPI *MarkovAPI
	storeAPI  *StoreAPI
	serverAPI *ServerAPI
	apiMux    *http.ServeMux
}

// NewServer builds every API and registers its routes.
func NewServer(cm *ConfigManager, logger *slog.Logger, db *sql.DB, s *store.Store, state *ModelState, extractor *notestock.Extractor, actionChan chan string) (*Server, error) {
	config := cm.Get()

	storeAPI, err := NewStoreAPI(s, state, config.Markov.ModelCacheSize, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create store api: %w", err)
	}

	server := &Server{
		config:    cm,
		db:        db,
		logger:    logger,
		state:     state,
		authAPI:   NewAuthAPI(db, logger),
		markovAPI: NewMarkovAPI(state, extractor, &config, logger),
		storeAPI:  storeAPI,
		serverAPI: NewServerAPI(cm, actionChan, state, logger),
		apiMux:    http.NewServeMux(),
	}

	apiMux := http.NewServeMux()
	server.authAPI.RegisterRoutes(apiMux)
	server.markovAPI.RegisterRoutes(apiMux)
	server.storeAPI.RegisterRoutes(apiMux)
	server.serverAPI.RegisterRoutes(apiMux)

	// Every api function must pass through authentication first...
	authedAPI := server.authAPI.Authenticate(apiMux)
	// ... except for the health check, which stays open for container health checks.
	server.apiMux.HandleFunc("/api/health", server.serverAPI.handleHealthCheck)
	server.apiMux.Handle("/api/", authedAPI)

	return server, nil
}

// Handler returns the root handler with request logging applied.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.apiMux)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush lets streaming handlers flush through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// logRequests tags every request with an ID, returned in the X-Request-Id
// header, and logs it once it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Debug("Request handled",
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
