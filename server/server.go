package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/app"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/apperrors"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/fx"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/log"
)

type Server struct {
	cfg     *Config
	rates   fx.RateSource
	limiter *rate.Limiter
	// Calculation is deterministic, so identical request bodies can be
	// answered from a short-lived cache.
	reportCache *cache.Cache
}

func New(cfg *Config, rates fx.RateSource) *Server {
	return &Server{
		cfg:         cfg,
		rates:       rates,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitRPS*3),
		reportCache: cache.New(15*time.Minute, 30*time.Minute),
	}
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			log.L.Warn("Rate limit exceeded",
				"method", r.Method, "path", r.URL.Path, "remoteAddr", r.RemoteAddr)
			respondJSON(w, http.StatusTooManyRequests,
				map[string]string{"error": http.StatusText(http.StatusTooManyRequests)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger tags each request with an id and logs method, path, status
// and duration through the structured logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(wrapped, r)

		log.L.Info("Request handled",
			"requestId", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.Status(),
			"durationMs", time.Since(start).Milliseconds())
	})
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.rateLimitMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/calculate", s.handleCalculate)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		respondErrors(w, http.StatusBadRequest, &apperrors.ErrorList{
			Errors: []apperrors.RowError{apperrors.Parsef(0, "failed to read request body: %v", err)}})
		return
	}

	cacheKey := bodyHash(body)
	if cached, ok := s.reportCache.Get(cacheKey); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	var req app.Request
	if err := json.Unmarshal(body, &req); err != nil {
		respondErrors(w, http.StatusBadRequest, &apperrors.ErrorList{
			Errors: []apperrors.RowError{apperrors.Parsef(0, "invalid JSON request: %v", err)}})
		return
	}

	report, errList := app.Calculate(&req, s.rates)
	if errList != nil && !errList.Empty() {
		status := http.StatusBadRequest
		if errList.HasComputation() {
			status = http.StatusInternalServerError
		}
		respondErrors(w, status, errList)
		return
	}

	s.reportCache.Set(cacheKey, report, cache.DefaultExpiration)
	respondJSON(w, http.StatusOK, report)
}

func bodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.L.Error("Failed to encode response", "error", err)
		}
	}
}

func respondErrors(w http.ResponseWriter, status int, errList *apperrors.ErrorList) {
	respondJSON(w, status, errList)
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, then shuts
// down gracefully.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.L.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.L.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
