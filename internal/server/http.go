package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"argos/internal/config"
)

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// CORSFromConfig allows the configured origins with the methods the API serves.
func CORSFromConfig(cfg config.ServerConfig) CORSConfig {
	return CORSConfig{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         86400,
	}
}

// HTTPServer serves the research API.
type HTTPServer struct {
	api        API
	httpServer *http.Server
	logger     *zap.Logger
	cors       CORSConfig
}

func NewHTTPServer(api API, cfg config.ServerConfig, logger *zap.Logger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &HTTPServer{
		api:    api,
		logger: logger,
		cors:   CORSFromConfig(cfg),
	}
	h.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      h.Handler(),
		ReadTimeout:  cfg.ReadTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
		IdleTimeout:  120 * time.Second,
	}
	return h
}

// Handler returns the routed, CORS-wrapped handler.
func (h *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "online", "service": "Argos API"})
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("GET /assets", h.handleAssets)
	mux.HandleFunc("GET /strategy/{asset}", h.handleGetStrategy)
	mux.HandleFunc("PUT /strategy/{asset}", h.handlePutStrategy)
	mux.HandleFunc("GET /research-domains", h.handleDomains)
	mux.HandleFunc("GET /research-domains/{id}", h.handleDomain)
	mux.HandleFunc("GET /articles", h.handleArticles)
	mux.HandleFunc("GET /articles/{id}", h.handleArticle)
	mux.HandleFunc("GET /insights", h.handleInsights)
	mux.HandleFunc("GET /insights/{id}", h.handleInsight)
	mux.HandleFunc("GET /report/{asset}", h.handleReport)
	mux.HandleFunc("POST /chat", h.handleChat)
	mux.HandleFunc("GET /chat/history", h.handleHistory)
	return h.corsMiddleware(h.logRequests(mux))
}

// Start blocks until the server stops. A clean shutdown returns nil.
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP server", zap.String("addr", h.httpServer.Addr))
	if err := h.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP server")
	return h.httpServer.Shutdown(ctx)
}

// corsMiddleware adds CORS headers to HTTP responses
func (h *HTTPServer) corsMiddleware(next http.Handler) http.Handler {
	methods := strings.Join(h.cors.AllowedMethods, ", ")
	headers := strings.Join(h.cors.AllowedHeaders, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := h.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		if methods != "" {
			w.Header().Set("Access-Control-Allow-Methods", methods)
		}
		if headers != "" {
			w.Header().Set("Access-Control-Allow-Headers", headers)
		}
		if h.cors.MaxAge > 0 {
			w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", h.cors.MaxAge))
		}

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *HTTPServer) allowedOrigin(origin string) string {
	if origin == "" {
		return ""
	}
	for _, allowed := range h.cors.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return origin
		}
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *HTTPServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}
