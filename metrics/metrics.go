// Package metrics exposes the game server's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "textrpg"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route"},
	)

	battlesStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "battle",
			Name:      "started_total",
			Help:      "Battles started, by monster.",
		},
		[]string{"monster"},
	)

	battlesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "battle",
			Name:      "finished_total",
			Help:      "Battles that reached a terminal status.",
		},
		[]string{"status"},
	)

	damageDealt = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "battle",
			Name:      "damage",
			Help:      "Damage per hit, by attacking side.",
			Buckets:   prometheus.LinearBuckets(5, 5, 10),
		},
		[]string{"side"},
	)

	purchases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shop",
			Name:      "purchases_total",
			Help:      "Completed purchases, by item.",
		},
		[]string{"item"},
	)

	goldSpent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shop",
			Name:      "gold_spent_total",
			Help:      "Gold spent in the shop.",
		},
	)

	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "command",
			Name:      "handled_total",
			Help:      "Text commands handled, by command and success.",
		},
		[]string{"command", "success"},
	)

	dailyResets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "daily_resets_total",
			Help:      "Players whose daily battle counter was reset by the scheduler.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		battlesStarted,
		battlesFinished,
		damageDealt,
		purchases,
		goldSpent,
		commands,
		dailyResets,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// HTTPStarted marks a request in flight. Call the returned func when done.
func HTTPStarted() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// RecordHTTPRequest records one finished request. route should be the
// matched route template, not the raw path.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// BattleStarted counts a new battle against monster.
func BattleStarted(monster string) {
	battlesStarted.WithLabelValues(monster).Inc()
}

// BattleFinished counts a battle reaching status.
func BattleFinished(status string) {
	battlesFinished.WithLabelValues(status).Inc()
}

// Damage records one hit. side is "player" or "monster".
func Damage(side string, amount int) {
	damageDealt.WithLabelValues(side).Observe(float64(amount))
}

// Purchase records a completed purchase.
func Purchase(item string, price int64) {
	purchases.WithLabelValues(item).Inc()
	goldSpent.Add(float64(price))
}

// Command records a handled text command.
func Command(name string, success bool) {
	if name == "" {
		name = "unknown"
	}
	commands.WithLabelValues(name, strconv.FormatBool(success)).Inc()
}

// DailyReset records a scheduler reset of n players.
func DailyReset(n int) {
	dailyResets.Add(float64(n))
}
