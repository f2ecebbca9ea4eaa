// Copyright (c) 2026, the fairshared authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package registrar

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Config holds the registration service settings.
type Config struct {
	// Listen is the host:port the service binds to.
	Listen string

	// UsersFile maps invited ids to full names, one "id name" pair per line.
	UsersFile string

	// ProcessedUsersFile records completed registrations as "id username"
	// pairs, one per line.
	ProcessedUsersFile string

	RateLimit      rate.Limit
	RateLimitBurst int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:             ":8420",
		UsersFile:          "users.txt",
		ProcessedUsersFile: "processed_users.txt",
		RateLimit:          10,
		RateLimitBurst:     20,
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       30 * time.Second,
		IdleTimeout:        120 * time.Second,
		ShutdownTimeout:    30 * time.Second,
	}
}

// Server is the self-service account registration HTTP server.
type Server struct {
	config      *Config
	httpServer  *http.Server
	rateLimiter *rate.Limiter
	store       *Store
	accounts    AccountCreator
	logger      *slog.Logger
}

// NewServer creates a registration server. A nil accounts falls back to
// the real useradd-backed creator.
func NewServer(config *Config, accounts AccountCreator, logger *slog.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if accounts == nil {
		accounts = &ExecAccountCreator{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:      config,
		rateLimiter: rate.NewLimiter(config.RateLimit, config.RateLimitBurst),
		store:       NewStore(config.UsersFile, config.ProcessedUsersFile),
		accounts:    accounts,
		logger:      logger,
	}

	s.httpServer = &http.Server{
		Addr:         config.Listen,
		Handler:      s.setupRoutes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// setupRoutes configures all HTTP routes and middleware.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// system endpoints, no rate limiting
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/", s.withMiddleware(s.handleForm))
	mux.HandleFunc("/register", s.withMiddleware(s.handleRegister))

	return mux
}

// Start runs the server until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("registrar listening",
		slog.String("addr", s.httpServer.Addr),
		slog.String("users_file", s.config.UsersFile))

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("registrar shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
