package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	MONITORING_SVC          = "monitoring_svc"
	SERVICE_NAME            = "starks_motion_api"
	DEFAULT_PROMETHEUS_PORT = 2112
)

// HTTP Metrics
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Upstream and workspace metrics
var (
	geminiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_requests_total",
			Help: "Total upstream Gemini calls by model and HTTP status (0 = transport failure)",
		},
		[]string{"model", "status"},
	)

	rateLimitRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by the fixed-window rate limiter",
		},
		[]string{"endpoint"},
	)

	workspaceMutationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workspace_mutations_total",
			Help: "Workspace store mutations observed via the change broadcast",
		},
	)
)

// RecordGeminiRequest counts one upstream call. Safe to call before the
// monitoring service starts.
func RecordGeminiRequest(model string, status int) {
	geminiRequestsTotal.WithLabelValues(model, strconv.Itoa(status)).Inc()
}

// RecordRateLimitRejection counts one 429 for the endpoint type.
func RecordRateLimitRejection(endpointType string) {
	rateLimitRejectionsTotal.WithLabelValues(endpointType).Inc()
}

type MonitoringService struct {
	appContext.DefaultService

	port     int
	register *prometheus.Registry

	server      *fiber.App
	unsubscribe func()
}

func (svc *MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Start() error {
	portStr := os.Getenv("PROMETHEUS_PORT")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = DEFAULT_PROMETHEUS_PORT
	}
	svc.port = port

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		geminiRequestsTotal,
		rateLimitRejectionsTotal,
		workspaceMutationsTotal,
	)
	svc.register = reg

	// The workspace broadcast is the single change signal; counting it here
	// is the server-side subscriber exercising that contract.
	workspaceSvc := svc.Service(WORKSPACE_SVC).(*WorkspaceService)
	svc.unsubscribe = workspaceSvc.Subscribe(func() {
		workspaceMutationsTotal.Inc()
	})

	svc.server = svc.buildServer()

	go func() {
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Msg("Prometheus metrics server stopped")
		}
	}()

	log.Info().Int("port", svc.port).Msg("Prometheus metrics server started")
	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.unsubscribe != nil {
		svc.unsubscribe()
	}
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// buildServer wires the scrape endpoints. The promhttp handler is built once
// here rather than per request.
func (svc *MonitoringService) buildServer() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	})
	app.Use(recover.New())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(svc.register, promhttp.HandlerOpts{})))
	app.Get("/health", svc.healthHandler)

	return app
}

func (svc *MonitoringService) healthHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"service":   SERVICE_NAME,
		"timestamp": time.Now().Unix(),
	})
}

// RecordRequest records HTTP request metrics.
func (svc *MonitoringService) RecordRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	httpRequestDurationSeconds.WithLabelValues(endpoint, method, status).Observe(duration.Seconds())
}

// MonitoringMiddleware records per-route request metrics.
func MonitoringMiddleware(monitoringSvc *MonitoringService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method := c.Method()

		err := c.Next()

		endpoint := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		monitoringSvc.RecordRequest(method, endpoint, status, time.Since(start))

		return err
	}
}
