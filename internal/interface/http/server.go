// Package http implements the REST API of the Gurukul hub: admissions,
// CTC/CTG presence, the scoring ledger, payments with receipts, quizzes,
// the file archive and the AI chat helper.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fccthegurukul/gurukul-hub/config"
	"github.com/fccthegurukul/gurukul-hub/internal/application/command"
	"github.com/fccthegurukul/gurukul-hub/internal/application/query"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/assistant"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/document"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/leaderboard"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/payment"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/presence"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/quiz"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/student"
	"github.com/fccthegurukul/gurukul-hub/internal/interface/http/handlers"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration

	// MaxBodyBytes caps JSON bodies; uploads use MaxUploadBytes.
	MaxBodyBytes   int64
	MaxUploadBytes int64

	AllowedOrigins []string

	// RateLimitPerMinute - requests per minute per IP (0 = disabled).
	RateLimitPerMinute int

	// AdminAPIKeyHash - bcrypt hash guarding admin writes (empty = open).
	AdminAPIKeyHash string

	// ReceiptDir is served read-only under /receipts/.
	ReceiptDir string

	Version string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               5000,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       30 * time.Second,
		IdleTimeout:        60 * time.Second,
		RequestTimeout:     20 * time.Second,
		MaxBodyBytes:       1 << 20,
		MaxUploadBytes:     10 << 20,
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: 300,
		ReceiptDir:         "receipts",
		Version:            "v1",
	}
}

// ConfigFrom maps the application config onto the server config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Host:               cfg.HTTP.Host,
		Port:               cfg.HTTP.Port,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		RequestTimeout:     cfg.HTTP.RequestTimeout,
		MaxBodyBytes:       cfg.HTTP.MaxBodyBytes,
		MaxUploadBytes:     cfg.Files.MaxUploadBytes,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
		AdminAPIKeyHash:    cfg.Security.AdminAPIKeyHash,
		ReceiptDir:         cfg.Receipt.Dir,
		Version:            cfg.App.Version,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// CommandHandler is the shape shared by every write-side handler.
type CommandHandler[C, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// StudentReader serves admission reads.
type StudentReader interface {
	List(ctx context.Context) ([]student.Listed, error)
	Profile(ctx context.Context, fccID shared.FccID) (*student.Profile, error)
	Skills(ctx context.Context, fccID shared.FccID) ([]student.SkillView, error)
	TuitionFee(ctx context.Context, fccID shared.FccID) (*student.TuitionFee, error)
}

// PresenceReader serves CTC/CTG reads.
type PresenceReader interface {
	History(ctx context.Context, fccID shared.FccID) (*presence.History, error)
	OnCampus(ctx context.Context) ([]presence.CampusEntry, error)
}

// LeaderboardReader serves ranking reads.
type LeaderboardReader interface {
	Board(ctx context.Context, q query.GetBoardQuery) (*leaderboard.Board, error)
	Classes(ctx context.Context) ([]string, error)
	Top(ctx context.Context, class string, limit int) ([]leaderboard.RankedEntry, error)
}

// PaymentReader lists payments.
type PaymentReader interface {
	List(ctx context.Context, f payment.Filter) ([]payment.Payment, error)
}

// FileReader reads the document archive.
type FileReader interface {
	List(ctx context.Context, f document.Filter) ([]document.Meta, error)
	Get(ctx context.Context, id int64) (*document.File, error)
}

// QuizReader lists quiz questions.
type QuizReader interface {
	ByTopic(ctx context.Context, topic string) ([]quiz.Question, error)
}

// Dependencies contains all dependencies required by HTTP handlers.
type Dependencies struct {
	// Write side
	AdmitStudent   CommandHandler[command.AdmitStudentCommand, *student.Admission]
	UpdateStudent  CommandHandler[command.UpdateStudentCommand, *command.UpdateStudentResult]
	SignalPresence CommandHandler[command.SignalPresenceCommand, *command.SignalPresenceResult]
	CompleteTask   CommandHandler[command.CompleteTaskCommand, *command.CompleteTaskResult]
	RecordPayment  CommandHandler[command.RecordPaymentCommand, *command.RecordPaymentResult]
	StartQuiz      CommandHandler[command.StartQuizCommand, *quiz.Session]
	SubmitQuiz     CommandHandler[command.SubmitQuizCommand, *command.SubmitQuizResult]
	UploadFile     CommandHandler[command.UploadFileCommand, *document.Meta]
	AskAssistant   CommandHandler[command.AskAssistantCommand, *assistant.Reply]

	// Read side
	Students    StudentReader
	Presence    PresenceReader
	Leaderboard LeaderboardReader
	Payments    PaymentReader
	Files       FileReader
	Quizzes     QuizReader

	// Feature toggles; nil enables everything.
	Features *config.FeatureFlags

	Logger        *logger.Logger
	HealthChecker handlers.HealthChecker
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     chi.Router
	logger     *logger.Logger

	auth        *handlers.APIKeyAuth
	rateLimiter *handlers.RateLimiter

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(cfg Config, deps Dependencies) *Server {
	def := DefaultConfig()
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.ReceiptDir == "" {
		cfg.ReceiptDir = def.ReceiptDir
	}

	s := &Server{
		config: cfg,
		deps:   deps,
		logger: deps.Logger,
		auth:   handlers.NewAPIKeyAuth("X-API-Key", cfg.AdminAPIKeyHash),
	}
	if s.logger == nil {
		s.logger = logger.Default()
	}
	s.logger = s.logger.With(logger.Component("http"))

	if cfg.RateLimitPerMinute > 0 {
		s.rateLimiter = handlers.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	}

	s.router = s.routes()

	s.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler exposes the routed handler (used by tests).
func (s *Server) Handler() http.Handler {
	return s.router
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.recoveryMiddleware)
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(handlers.CORSMiddleware(s.config.AllowedOrigins))
	r.Use(handlers.SecurityHeadersMiddleware)
	if s.rateLimiter != nil {
		r.Use(s.rateLimiter.Middleware)
	}
	r.Use(handlers.TimeoutMiddleware(s.config.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not_found", "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	// ─────────────────────────────────────────────────────────────────────────
	// Health & static artifacts
	// ─────────────────────────────────────────────────────────────────────────
	r.Get("/health", s.handleHealth)
	r.Get("/healthz", s.handleHealth)
	r.Get("/live", s.handleLive)
	r.Handle("/receipts/*", http.StripPrefix("/receipts/", http.FileServer(http.Dir(s.config.ReceiptDir))))

	// Uploads carry their own size limit.
	r.With(s.auth.Middleware, handlers.RequestSizeLimitMiddleware(s.config.MaxUploadBytes)).
		Post("/upload", s.handleUpload)

	r.Group(func(r chi.Router) {
		r.Use(handlers.RequestSizeLimitMiddleware(s.config.MaxBodyBytes))

		// ─────────────────────────────────────────────────────────────────────
		// Admissions
		// ─────────────────────────────────────────────────────────────────────
		r.With(s.auth.Middleware).Post("/add-student", s.handleAddStudent)
		r.With(s.auth.Middleware).Put("/update-student/{fcc_id}", s.handleUpdateStudent)
		r.Get("/get-students", s.handleGetStudents)
		r.Get("/get-student-profile/{fcc_id}", s.handleGetProfile)
		r.Get("/get-student-skills/{fcc_id}", s.handleGetSkills)
		r.Get("/get-tuition-fee-details/{fcc_id}", s.handleGetTuitionFee)

		// ─────────────────────────────────────────────────────────────────────
		// Presence (CTC/CTG)
		// ─────────────────────────────────────────────────────────────────────
		r.Post("/api/update-student", s.handleSignalPresence)
		r.Get("/get-ctc-ctg/{fcc_id}", s.handleGetPresence)
		r.Get("/api/presence/on-campus", s.handleOnCampus)

		// ─────────────────────────────────────────────────────────────────────
		// Scoring ledger
		// ─────────────────────────────────────────────────────────────────────
		r.Post("/complete-task", s.handleCompleteTask)
		r.Get("/leaderboard/{fccId}", s.handleGetBoard)
		r.Get("/get-classes", s.handleGetClasses)
		r.Get("/api/leaderboard/top", s.handleTop)

		// ─────────────────────────────────────────────────────────────────────
		// Payments
		// ─────────────────────────────────────────────────────────────────────
		r.With(s.auth.Middleware).Post("/api/payments", s.handleRecordPayment)
		r.Get("/api/payments", s.handleListPayments)

		// ─────────────────────────────────────────────────────────────────────
		// Quiz
		// ─────────────────────────────────────────────────────────────────────
		r.Get("/get-quiz-by-topic/{skillTopic}", s.handleQuizByTopic)
		r.Post("/start-quiz-session", s.handleStartQuiz)
		r.Post("/submit-quiz-attempt", s.handleSubmitQuiz)

		// ─────────────────────────────────────────────────────────────────────
		// File archive & chat
		// ─────────────────────────────────────────────────────────────────────
		r.Get("/files", s.handleListFiles)
		r.Get("/files/download/{id}", s.handleDownloadFile)
		r.Post("/api/chat", s.handleChat)
	})

	return r
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// requestIDMiddleware assigns a request ID and a request-scoped logger.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		ctx = logger.WithContext(ctx, s.logger.WithRequestID(requestID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs all HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		logger.FromContext(r.Context()).Info("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rw.statusCode),
			logger.Latency(time.Since(start)),
			logger.String("ip", handlers.ClientIP(r)),
		)
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("panic recovered",
					logger.Any("error", rec),
					logger.String("stack", string(debug.Stack())),
					logger.String("path", r.URL.Path),
					logger.String("request_id", getRequestID(r.Context())),
				)
				writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns the server uptime.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse is the success envelope.
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// writeJSON writes a success envelope.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{Success: true, Data: data})
}

// writeJSONError writes an error envelope.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	handlers.WriteError(w, status, code, message)
}

// writeError maps a domain error onto a status code and envelope. Unknown
// errors are logged with their chain and answered with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	message := shared.PublicMessage(err)

	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Err(err))
		message = "Internal server error"
	} else {
		logger.FromContext(r.Context()).Warn("request rejected",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Err(err))
	}
	writeJSONError(w, status, code, message)
}

// classify returns the HTTP status and error code for err. Timeouts are
// checked before the broader external-service class.
func classify(err error) (int, string) {
	switch {
	case shared.IsValidation(err):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, shared.ErrExpired):
		return http.StatusBadRequest, "stale_signal"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsConflict(err):
		return http.StatusConflict, "conflict"
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, shared.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, shared.ErrExternalService):
		return http.StatusBadGateway, "external_service_error"
	default:
		return http.StatusInternalServerError, "internal_server_error"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER TYPES AND FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getRequestID extracts the request ID from context.
func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// featureEnabled reports whether a toggle is on; nil flags enable everything.
func (s *Server) featureEnabled(name string) bool {
	return s.deps.Features == nil || s.deps.Features.IsEnabled(name)
}
