// Package http exposes the finance state manager as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finhealth/internal/capture"
	"finhealth/internal/log"
	"finhealth/internal/notify"
	"finhealth/internal/services"
)

const (
	defaultMaxUploadBytes = 10 << 20
	mutationsPerMinute    = 60
)

// Deps are the collaborators the API serves.
type Deps struct {
	Manager *services.FinanceManager
	Notices *notify.Center
	Capture *capture.Service
	// Ready reports persistence health for /readyz. Optional.
	Ready          func(ctx context.Context) error
	Logger         *log.Logger
	MaxUploadBytes int64
}

type Server struct {
	http.Server
	manager   *services.FinanceManager
	notices   *notify.Center
	capture   *capture.Service
	ready     func(ctx context.Context) error
	limiter   *rateLimiter
	maxUpload int64

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		manager:   deps.Manager,
		notices:   deps.Notices,
		capture:   deps.Capture,
		ready:     deps.Ready,
		limiter:   newRateLimiter(mutationsPerMinute, time.Minute),
		maxUpload: deps.MaxUploadBytes,
	}
	if s.notices == nil {
		s.notices = notify.NewCenter(notify.DefaultBannerTTL, logger)
	}
	if s.capture == nil {
		s.capture = capture.NewService(capture.Backend{}, 0, logger)
	}
	if s.maxUpload <= 0 {
		s.maxUpload = defaultMaxUploadBytes
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /api/currencies", s.handleCurrencies)
	mux.HandleFunc("GET /api/notifications", s.handleNotifications)
	mux.HandleFunc("DELETE /api/notifications/alert", s.handleDismissAlert)

	mux.HandleFunc("POST /api/expenses", s.handleAddExpense)
	mux.HandleFunc("POST /api/goal/vice", s.handleTriggerVice)
	mux.HandleFunc("PUT /api/goal", s.handleSetGoal)
	mux.HandleFunc("GET /api/impulse", s.handleListImpulses)
	mux.HandleFunc("POST /api/impulse", s.handleFlagImpulse)
	mux.HandleFunc("POST /api/impulse/{id}/resolve", s.handleResolveImpulse)
	mux.HandleFunc("GET /api/rewards", s.handleRewards)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.handleRedeem)

	mux.HandleFunc("POST /api/capture/receipt", s.handleCaptureReceipt)
	mux.HandleFunc("POST /api/capture/voice", s.handleCaptureVoice)
	mux.HandleFunc("POST /api/capture/text", s.handleCaptureText)
	mux.HandleFunc("POST /api/speak", s.handleSpeak)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           log.Middleware(logger)(s.withSecurity(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
