// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wfunc/dicetown/gameerr"
)

type Metrics struct {
	Actions          *prometheus.CounterVec
	ActionDuration   *prometheus.HistogramVec
	PurchaseConflict prometheus.Counter
	AutomatedTurns   prometheus.Counter
	GamesFinished    prometheus.Counter
	SessionsOnline   prometheus.Gauge
	ActiveRooms      prometheus.Gauge
}

// NewMetrics 创建并注册指标
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Player actions handled, by action and result",
		}, []string{"action", "result"}),
		ActionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Action processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}, []string{"action"}),
		PurchaseConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchase_conflicts_total",
			Help:      "Purchases rejected by the conditional update",
		}),
		AutomatedTurns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "automated_turns_total",
			Help:      "Turns played by the automation driver",
		}),
		GamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games that ended with a winner",
		}),
		SessionsOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_online",
			Help:      "Number of connected sessions",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of rooms with bound sessions or in-flight actions",
		}),
	}

	reg.MustRegister(
		m.Actions,
		m.ActionDuration,
		m.PurchaseConflict,
		m.AutomatedTurns,
		m.GamesFinished,
		m.SessionsOnline,
		m.ActiveRooms,
	)

	return m
}

type Monitor struct {
	metrics      *Metrics
	registry     *prometheus.Registry
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return &Monitor{
		metrics:   NewMetrics(namespace, registry),
		registry:  registry,
		startTime: time.Now(),
	}
}

var publishOnce sync.Once

// Handler 返回 /metrics 与 /debug/vars 路由
func (m *Monitor) Handler() http.Handler {
	// 添加expvar指标
	publishOnce.Do(func() {
		expvar.Publish("uptime", expvar.Func(func() interface{} {
			return time.Since(m.startTime).Seconds()
		}))
		expvar.Publish("requests", expvar.Func(func() interface{} {
			m.mutex.Lock()
			defer m.mutex.Unlock()
			return m.requestCount
		}))
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	return mux
}

func (m *Monitor) StartServer(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: m.Handler()}
	go srv.ListenAndServe()
	return srv
}

// ObserveAction 记录一次动作的结果与耗时
func (m *Monitor) ObserveAction(action string, err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = string(gameerr.KindOf(err))
	}
	m.metrics.Actions.WithLabelValues(action, result).Inc()
	m.metrics.ActionDuration.WithLabelValues(action).Observe(duration.Seconds())

	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}

func (m *Monitor) PurchaseConflict() {
	m.metrics.PurchaseConflict.Inc()
}

func (m *Monitor) AutomatedTurn() {
	m.metrics.AutomatedTurns.Inc()
}

func (m *Monitor) GameFinished() {
	m.metrics.GamesFinished.Inc()
}

func (m *Monitor) IncSessionsOnline() {
	m.metrics.SessionsOnline.Inc()
}

func (m *Monitor) DecSessionsOnline() {
	m.metrics.SessionsOnline.Dec()
}

func (m *Monitor) SetActiveRooms(count int) {
	m.metrics.ActiveRooms.Set(float64(count))
}

func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}
