package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicore/clinic-api/config"
	"github.com/clinicore/clinic-api/internal/handler/account"
	"github.com/clinicore/clinic-api/internal/handler/appointment"
	"github.com/clinicore/clinic-api/internal/handler/auth"
	"github.com/clinicore/clinic-api/internal/handler/budget"
	"github.com/clinicore/clinic-api/internal/handler/client"
	"github.com/clinicore/clinic-api/internal/handler/clinic"
	"github.com/clinicore/clinic-api/internal/handler/expense"
	"github.com/clinicore/clinic-api/internal/handler/finance"
	"github.com/clinicore/clinic-api/internal/handler/health"
	"github.com/clinicore/clinic-api/internal/handler/invitation"
	"github.com/clinicore/clinic-api/internal/handler/membership"
	"github.com/clinicore/clinic-api/internal/handler/payment"
	"github.com/clinicore/clinic-api/internal/handler/transaction"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/repository"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Health      *health.Handler
	Auth        *auth.Handler
	Clinic      *clinic.Handler
	Membership  *membership.Handler
	Invitation  *invitation.Handler
	Expense     *expense.Handler
	Payment     *payment.Handler
	Finance     *finance.Handler
	Account     *account.Handler
	Budget      *budget.Handler
	Client      *client.Handler
	Appointment *appointment.Handler
	Transaction *transaction.Handler
}

type Config struct {
	RateLimit     config.RateLimitConfig
	CORS          middleware.CORSConfig
	Timeout       time.Duration
	MetricsPrefix string
}

type Router struct {
	engine   *gin.Engine
	tokens   middleware.TokenValidator
	users    repository.UserRepository
	az       middleware.Authorizer
	handlers Handlers
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func NewRouter(
	tokens middleware.TokenValidator,
	users repository.UserRepository,
	az middleware.Authorizer,
	handlers Handlers,
	cfg Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MetricsPrefix == "" {
		cfg.MetricsPrefix = "clinic_api"
	}

	r := &Router{
		engine:   engine,
		tokens:   tokens,
		users:    users,
		az:       az,
		handlers: handlers,
		metrics:  initRouterMetrics(cfg.MetricsPrefix),
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(cfg.Timeout),
	)

	engine.Use(middleware.CORS(cfg.CORS))
	engine.Use(middleware.NewRateLimiter(cfg.RateLimit).RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.handlers.Health.RegisterRoutes(r.engine.Group(""))

	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupPublicRoutes(api)

	// Permission listing tolerates anonymous callers and answers them with
	// an empty set instead of a 401.
	optional := api.Group("")
	optional.Use(middleware.AuthenticateOptional(r.tokens, r.users))
	r.handlers.Membership.RegisterPublicRoutes(optional)

	protected := api.Group("")
	protected.Use(middleware.Authenticate(r.tokens, r.users))
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	r.handlers.Auth.RegisterRoutes(rg)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	r.handlers.Auth.RegisterProtectedRoutes(rg)
	r.handlers.Clinic.RegisterRoutes(rg)
	r.handlers.Invitation.RegisterAcceptRoute(rg)

	r.handlers.Membership.RegisterRoutes(rg, r.az)
	r.handlers.Invitation.RegisterRoutes(rg, r.az)
	r.handlers.Expense.RegisterRoutes(rg, r.az)
	r.handlers.Payment.RegisterRoutes(rg, r.az)
	r.handlers.Finance.RegisterRoutes(rg, r.az)
	r.handlers.Account.RegisterRoutes(rg, r.az)
	r.handlers.Budget.RegisterRoutes(rg, r.az)
	r.handlers.Client.RegisterRoutes(rg, r.az)
	r.handlers.Appointment.RegisterRoutes(rg, r.az)
	r.handlers.Transaction.RegisterRoutes(rg, r.az)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
