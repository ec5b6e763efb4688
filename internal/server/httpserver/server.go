// Copyright 2025 Emiliano Spinella (eminwux)
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
//
// SPDX-License-Identifier: Apache-2.0

// Package httpserver exposes the daemon over HTTP: a JSON session API, the
// websocket event stream and Prometheus metrics.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickjquinn/project-warp/internal/eventhub"
	"github.com/patrickjquinn/project-warp/internal/monitoring"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
)

type Config struct {
	AllowOrigins []string
	// CreateRate and CreateBurst limit session creation per client address.
	CreateRate  float64
	CreateBurst int
	// ShutdownTimeout bounds the graceful stop of Serve.
	ShutdownTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		AllowOrigins:    []string{"*"},
		CreateRate:      5,
		CreateBurst:     10,
		ShutdownTimeout: 5 * time.Second,
	}
}

type Server struct {
	cfg     Config
	logger  *slog.Logger
	core    api.WarpController
	hub     *eventhub.Hub
	metrics *monitoring.Metrics
	engine  *gin.Engine
}

// New builds the router. metrics may be nil, which disables /metrics.
func New(
	cfg Config,
	logger *slog.Logger,
	core api.WarpController,
	hub *eventhub.Hub,
	metrics *monitoring.Metrics,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{cfg: cfg, logger: logger, core: core, hub: hub, metrics: metrics}
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if metrics != nil {
		r.Use(monitoring.Middleware(metrics))
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept", "Origin", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.health)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	sessions := r.Group("/sessions")
	sessions.POST("", rateLimit(cfg.CreateRate, cfg.CreateBurst), s.createSession)
	sessions.GET("", s.listSessions)
	sessions.GET("/:id", s.getSession)
	sessions.POST("/:id/input", s.writeSession)
	sessions.POST("/:id/resize", s.resizeSession)
	sessions.DELETE("/:id", s.killSession)

	r.POST("/clipboard/:slot/copy", s.clipboardCopy)
	r.POST("/clipboard/:slot/paste", s.clipboardPaste)
	r.GET("/profiles", s.listProfiles)

	if hub != nil {
		r.GET("/events", s.events)
	}

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.DebugContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Serve runs the HTTP server on ln until ctx is done, then shuts it down
// gracefully. readyCh and doneCh follow the control socket's contract.
func (s *Server) Serve(ctx context.Context, ln net.Listener, readyCh chan<- error, doneCh chan<- error) {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("http shutdown", "error", err)
			_ = srv.Close()
		}
	}()

	readyCh <- nil
	close(readyCh)
	s.logger.InfoContext(ctx, "http server listening", "addr", ln.Addr().String())

	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		err = errdefs.ErrHTTPServerExited
	} else {
		err = fmt.Errorf("%w: %w", errdefs.ErrHTTPServerExited, err)
	}
	select {
	case doneCh <- err:
	default:
	}
	close(doneCh)
}
