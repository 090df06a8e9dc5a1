package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/gamesbakery/internal/metrics"
	"github.com/corray333/gamesbakery/internal/otel"
	"github.com/corray333/gamesbakery/internal/transport/http/principal"
	"github.com/corray333/gamesbakery/internal/transport/http/respond"
	"github.com/corray333/gamesbakery/pkg/http/middleware/trace"
	"github.com/corray333/gamesbakery/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

// routes is implemented by every resource handler.
type routes interface {
	Register(r chi.Router)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HTTPTransport struct {
	server   *http.Server
	router   *chi.Mux
	handlers []routes
	pingers  map[string]Pinger
	metrics  http.Handler
}

// NewHTTPTransport builds the router. m may be nil to skip request metrics.
func NewHTTPTransport(m *metrics.ServerMetrics, metricsHandler http.Handler, pingers map[string]Pinger, handlers ...routes) *HTTPTransport {
	router := newRouter(m)
	server := newServer(router)
	return &HTTPTransport{
		server:   server,
		router:   router,
		handlers: handlers,
		pingers:  pingers,
		metrics:  metricsHandler,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for httptest.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Get("/healthz", h.healthz)
	if h.metrics != nil {
		h.router.Handle("/metrics", h.metrics)
	}

	h.router.Route("/api/v2", func(r chi.Router) {
		r.Use(principal.Middleware)
		for _, handler := range h.handlers {
			handler.Register(r)
		}
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *HTTPTransport) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK
	for name, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			slog.Warn("Health check failed", "dependency", name, "error", err)
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable

			continue
		}
		resp.Checks[name] = "ok"
	}

	respond.JSON(w, status, resp)
}

func newRouter(m *metrics.ServerMetrics) *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware(otel.ServiceName))
	if m != nil {
		router.Use(m.Middleware)
	}

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	port := viper.GetString("server.http.port")
	if port == "" {
		port = "8080"
	}

	return &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
