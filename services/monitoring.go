package services

import (
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
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
	SERVICE_NAME            = "lms_api"
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

// Learning metrics
var (
	lessonsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lms_lessons_completed_total",
			Help: "Lessons newly marked completed",
		},
	)

	coursesCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lms_courses_completed_total",
			Help: "Courses that transitioned to completed",
		},
	)

	rewardsUnlockedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lms_rewards_unlocked_total",
			Help: "Rewards added to a learner's earned set",
		},
	)

	testSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_test_submissions_total",
			Help: "Evaluated test submissions by verdict",
		},
		[]string{"verdict"},
	)

	attemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_test_attempts_total",
			Help: "Attempt starts by outcome",
		},
		[]string{"outcome"},
	)

	progressRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lms_progress_cas_retries_total",
			Help: "Optimistic progress writes retried after a version conflict",
		},
	)

	lockFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lms_lock_acquire_failures_total",
			Help: "Learner lock acquisitions that timed out",
		},
	)
)

// System Metrics
var (
	heapAllocBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "heap_alloc_bytes",
			Help: "Heap memory allocated in bytes",
		},
	)

	gcTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gc_total",
			Help: "Total number of garbage collections",
		},
	)
)

type MonitoringService struct {
	context.DefaultService

	port     int
	register *prometheus.Registry

	closed      chan struct{}
	server      *fiber.App
	lastGCCount uint32
}

func (svc MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Configure(ctx *context.Context) error {
	svc.port = getEnvInt("PROMETHEUS_PORT", DEFAULT_PROMETHEUS_PORT)
	return svc.DefaultService.Configure(ctx)
}

func (svc *MonitoringService) Start() error {
	svc.closed = make(chan struct{}, 1)

	reg := prometheus.NewRegistry()

	// Register default collectors (includes Go runtime metrics like memory)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	reg.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		lessonsCompletedTotal,
		coursesCompletedTotal,
		rewardsUnlockedTotal,
		testSubmissionsTotal,
		attemptsTotal,
		progressRetriesTotal,
		lockFailuresTotal,
		heapAllocBytes,
		gcTotal,
	)

	svc.register = reg

	go svc.updateMemoryMetrics()

	config := fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	}

	svc.server = fiber.New(config)
	svc.server.Use(recover.New())

	svc.server.Get("/metrics", svc.metricsHandler)
	svc.server.Get("/health", svc.healthHandler)

	go func() {
		log.Info().Int("port", svc.port).Msg("Prometheus metrics server started")
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Msg("Prometheus metrics server stopped")
		}
	}()
	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.closed != nil {
		svc.closed <- struct{}{}
	}
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *MonitoringService) metricsHandler(c *fiber.Ctx) error {
	handler := promhttp.HandlerFor(svc.register, promhttp.HandlerOpts{})
	return adaptor.HTTPHandler(handler)(c)
}

func (svc *MonitoringService) healthHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"service":   SERVICE_NAME,
		"timestamp": time.Now().Unix(),
	})
}

// updateMemoryMetrics updates memory-related metrics every 15 seconds
func (svc *MonitoringService) updateMemoryMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			heapAllocBytes.Set(float64(m.Alloc))
			if m.NumGC > svc.lastGCCount {
				gcTotal.Add(float64(m.NumGC - svc.lastGCCount))
				svc.lastGCCount = m.NumGC
			}

		case <-svc.closed:
			return
		}
	}
}

// The recorders below are nil-safe so services built without the container can skip metrics.

func (svc *MonitoringService) RecordRequest(method, endpoint, status string, duration time.Duration) {
	if svc == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	httpRequestDurationSeconds.WithLabelValues(endpoint, method, status).Observe(duration.Seconds())
}

func (svc *MonitoringService) LessonCompleted() {
	if svc == nil {
		return
	}
	lessonsCompletedTotal.Inc()
}

func (svc *MonitoringService) CourseCompleted() {
	if svc == nil {
		return
	}
	coursesCompletedTotal.Inc()
}

func (svc *MonitoringService) RewardsUnlocked(n int) {
	if svc == nil || n <= 0 {
		return
	}
	rewardsUnlockedTotal.Add(float64(n))
}

func (svc *MonitoringService) TestSubmitted(passed bool) {
	if svc == nil {
		return
	}
	verdict := "failed"
	if passed {
		verdict = "passed"
	}
	testSubmissionsTotal.WithLabelValues(verdict).Inc()
}

func (svc *MonitoringService) AttemptStarted(exhausted bool) {
	if svc == nil {
		return
	}
	outcome := "started"
	if exhausted {
		outcome = "exhausted"
	}
	attemptsTotal.WithLabelValues(outcome).Inc()
}

func (svc *MonitoringService) ProgressRetry() {
	if svc == nil {
		return
	}
	progressRetriesTotal.Inc()
}

func (svc *MonitoringService) LockFailed() {
	if svc == nil {
		return
	}
	lockFailuresTotal.Inc()
}

// MonitoringMiddleware creates a Fiber middleware for monitoring HTTP requests
func MonitoringMiddleware(monitoringSvc *MonitoringService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if monitoringSvc == nil {
			return c.Next()
		}

		start := time.Now()
		method := c.Method()

		err := c.Next()

		endpoint := c.Route().Path // route pattern, not actual path
		monitoringSvc.RecordRequest(method, endpoint, strconv.Itoa(c.Response().StatusCode()), time.Since(start))

		return err
	}
}
