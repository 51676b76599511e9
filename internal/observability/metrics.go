package observability

import (
	"context"
	"database/sql"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
)

// Metrics collects API and lifecycle engine signals and serves them in
// Prometheus text exposition format.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	aggregateOps      *CounterVec
	aggregateLatency  *HistogramVec
	aggregateConflict *CounterVec
	aggregateRetry    *CounterVec

	transitions   *CounterVec
	crystallized  *Counter
	timersStarted *Counter
	timersStopped *Counter

	pgStats *GaugeVec
	redisUp *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = &Metrics{
			apiRequests: NewCounterVec("lf_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
			apiLatency: NewHistogramVec(
				"lf_api_request_duration_seconds",
				"API request latency in seconds by method/route/status.",
				[]string{"method", "route", "status"},
				[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			),
			apiInflight: NewGauge("lf_api_inflight_requests", "In-flight API requests."),
			aggregateOps: NewCounterVec(
				"lf_aggregate_operations_total",
				"Aggregate write operations by operation/status.",
				[]string{"operation", "status"},
			),
			aggregateLatency: NewHistogramVec(
				"lf_aggregate_operation_duration_seconds",
				"Aggregate write latency in seconds by operation/status.",
				[]string{"operation", "status"},
				[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			),
			aggregateConflict: NewCounterVec("lf_aggregate_conflicts_total", "Aggregate writes lost to a concurrent writer.", []string{"operation"}),
			aggregateRetry:    NewCounterVec("lf_aggregate_retries_total", "Aggregate writes that returned a retryable error.", []string{"operation"}),
			transitions:       NewCounterVec("lf_energy_transitions_total", "Energy state transitions by from/to.", []string{"from", "to"}),
			crystallized:      NewCounter("lf_crystallized_total", "Work items crystallized."),
			timersStarted:     NewCounter("lf_timers_started_total", "Time entries opened."),
			timersStopped:     NewCounter("lf_timers_stopped_total", "Time entries closed."),
			pgStats:           NewGaugeVec("lf_pg_pool", "Postgres connection pool stats.", []string{"stat"}),
			redisUp:           NewGauge("lf_redis_up", "Redis reachability (1 up, 0 down)."),
		}
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.aggregateOps.Inc(operation, status)
	m.aggregateLatency.Observe(dur.Seconds(), operation, status)
}

func (m *Metrics) IncAggregateConflict(operation string) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	m.aggregateConflict.Inc(operation)
}

func (m *Metrics) IncAggregateRetry(operation string) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	m.aggregateRetry.Inc(operation)
}

func (m *Metrics) IncTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.Inc(from, to)
	if to == "crystallized" {
		m.crystallized.Inc()
	}
}

func (m *Metrics) IncTimerStarted() {
	if m == nil {
		return
	}
	m.timersStarted.Inc()
}

func (m *Metrics) IncTimerStopped() {
	if m == nil {
		return
	}
	m.timersStopped.Inc()
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflict, m.aggregateRetry,
		m.transitions, m.crystallized, m.timersStarted, m.timersStopped,
		m.pgStats, m.redisUp,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func scrapeInterval() time.Duration {
	v := strings.TrimSpace(os.Getenv("METRICS_SCRAPE_INTERVAL_SECONDS"))
	if v == "" {
		return 10 * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n) * time.Second
}

// StartPGStatsCollector samples the connection pool on the scrape interval.
func (m *Metrics) StartPGStatsCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("metrics: pg stats collector disabled", "error", err)
		}
		return
	}
	go func() {
		ticker := time.NewTicker(scrapeInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.setPoolStats(sqlDB.Stats())
			}
		}
	}()
}

func (m *Metrics) setPoolStats(s sql.DBStats) {
	m.pgStats.Set(float64(s.OpenConnections), "open")
	m.pgStats.Set(float64(s.InUse), "in_use")
	m.pgStats.Set(float64(s.Idle), "idle")
	m.pgStats.Set(float64(s.WaitCount), "wait_count")
}

// StartRedisCollector pings redis on the scrape interval; safe to skip when
// no client is configured.
func (m *Metrics) StartRedisCollector(ctx context.Context, client *redis.Client) {
	if m == nil || client == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(scrapeInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
				if err := client.Ping(pingCtx).Err(); err != nil {
					m.redisUp.Set(0)
				} else {
					m.redisUp.Set(1)
				}
				cancel()
			}
		}
	}()
}
