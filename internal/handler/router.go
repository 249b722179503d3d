package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/taskmanager/taskmanager/internal/metrics"
	"github.com/taskmanager/taskmanager/internal/middleware"
	"github.com/taskmanager/taskmanager/internal/service"
)

// RouterConfig collects what NewRouter wires together.
type RouterConfig struct {
	Logger         *slog.Logger
	Tasks          *service.TaskService
	Users          *service.UserService
	Health         *HealthHandler
	Metrics        metrics.Recorder
	MetricsHandler http.Handler // nil leaves /metrics unmounted

	IsDevelopment  bool
	MaxBodySize    int64
	AllowedOrigins []string
	RateLimit      middleware.RateLimitConfig
}

// NewRouter mounts the task routes under /tack, the user routes under /user,
// and the probes at the root.
func NewRouter(cfg RouterConfig) *chi.Mux {
	if cfg.Health == nil {
		cfg.Health = NewHealthHandler()
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 1 << 20
	}
	if cfg.RateLimit.Logger == nil {
		cfg.RateLimit.Logger = cfg.Logger
	}

	h := New()
	tasks := NewTaskHandler(cfg.Tasks, cfg.Logger)
	users := NewUserHandler(cfg.Users, cfg.Logger)
	limit := middleware.RateLimitIP(cfg.RateLimit)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger, cfg.Metrics))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))
	r.Use(middleware.MaxBodySize(cfg.MaxBodySize))

	r.Get("/", h.Welcome)
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/tack", func(r chi.Router) {
		r.Get("/", tasks.List)
		r.Get("/task_id", tasks.Get)
		r.With(limit).Post("/create", tasks.Create)
		r.With(limit).Put("/update", tasks.Update)
		r.With(limit).Delete("/delete", tasks.Delete)
	})

	r.Route("/user", func(r chi.Router) {
		r.Get("/", users.List)
		r.Get("/user_id", users.Get)
		r.Get("/user_id/tasks", users.Tasks)
		r.With(limit).Post("/create", users.Create)
		r.With(limit).Put("/update", users.Update)
		r.With(limit).Delete("/delete", users.Delete)
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
