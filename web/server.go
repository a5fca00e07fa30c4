// ABOUTME: Reference REST backend for lead engagement automation
// ABOUTME: Routes the lead, follow-up, reminder, AI and calendar settings contract onto SQLite
package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/harperreed/engage/auth"
	"github.com/harperreed/engage/db"
	"github.com/harperreed/engage/viz"
)

// DefaultAICooldown is how long the assistant waits after an inbound message.
const DefaultAICooldown = 10 * time.Minute

type Server struct {
	db        *sql.DB
	issuer    *auth.Issuer
	cooldown  time.Duration
	now       func() time.Time
	generator *viz.GraphGenerator
	router    *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithIssuer turns on bearer authentication for /api.
func WithIssuer(issuer *auth.Issuer) Option {
	return func(s *Server) { s.issuer = issuer }
}

// WithAICooldown sets how far an inbound message pushes ai_cooldown_until.
func WithAICooldown(d time.Duration) Option {
	return func(s *Server) { s.cooldown = d }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(database *sql.DB, opts ...Option) *Server {
	s := &Server{
		db:        database,
		cooldown:  DefaultAICooldown,
		now:       time.Now,
		generator: viz.NewGraphGenerator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(logRequests)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	if s.issuer != nil {
		api.Use(s.requireToken)
	}

	api.HandleFunc("/leads", s.handleListLeads).Methods(http.MethodGet)
	api.HandleFunc("/leads", s.handleCreateLead).Methods(http.MethodPost)

	lead := api.PathPrefix("/leads/{id}").Subrouter()
	lead.HandleFunc("", s.handleGetLead).Methods(http.MethodGet)
	lead.HandleFunc("/auto-followup", s.handlePutAutoFollowup).Methods(http.MethodPut)
	lead.HandleFunc("/appointment-reminders", s.handlePutReminders).Methods(http.MethodPut)
	lead.HandleFunc("/ai", s.handlePutAI).Methods(http.MethodPut)
	lead.HandleFunc("/ai/resume", s.handleResumeAI).Methods(http.MethodPost)
	lead.HandleFunc("/messages", s.handleListMessages).Methods(http.MethodGet)
	lead.HandleFunc("/messages/sync", s.handleSyncHistory).Methods(http.MethodPost)
	lead.HandleFunc("/messages/inbound", s.handleInbound).Methods(http.MethodPost)
	lead.HandleFunc("/graph", s.handleGraph).Methods(http.MethodGet)

	api.HandleFunc("/auto-followup/defaults", s.handleGetDefaults).Methods(http.MethodGet)
	api.HandleFunc("/auto-followup/defaults", s.handlePutDefaults).Methods(http.MethodPut)
	api.HandleFunc("/settings", s.handleGetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.handlePutSettings).Methods(http.MethodPut)

	return router
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on port until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Starting engage backend at http://localhost%s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}

type operatorKey struct{}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			http.Error(w, "Missing bearer token", http.StatusUnauthorized)
			return
		}
		claims, err := s.issuer.Validate(parts[1])
		if err != nil {
			log.Printf("Rejected token for %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), operatorKey{}, claims.Operator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Operator returns the authenticated operator name, if any.
func Operator(ctx context.Context) string {
	op, _ := ctx.Value(operatorKey{}).(string)
	return op
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func leadID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Lead not found", http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrLeadNotFound) {
		http.Error(w, "Lead not found", http.StatusNotFound)
		return
	}
	log.Printf("Store error: %v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
