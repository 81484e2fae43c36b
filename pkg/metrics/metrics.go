package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics exports HTTP request metrics plus domain counters on a side
// listener so the main API port stays clean.
type Metrics struct {
	registry *prometheus.Registry

	reqCnt *prometheus.CounterVec
	reqDur *prometheus.HistogramVec

	// SubscriptionsExpired counts rows flipped to expired by the sweeper.
	SubscriptionsExpired prometheus.Counter
	// MembershipRejections counts joins refused by the member cap.
	MembershipRejections prometheus.Counter

	log *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reqCnt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests processed, partitioned by status code, method and route.",
		}, []string{"code", "method", "route"}),
		reqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "HTTP request latencies in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"code", "method", "route"}),
		SubscriptionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Subscriptions transitioned to expired by the sweeper.",
		}),
		MembershipRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "membership_cap_rejections_total",
			Help: "Group joins rejected because the plan member cap was reached.",
		}),
		log: log,
	}
	m.registry.MustRegister(m.reqCnt, m.reqDur, m.SubscriptionsExpired, m.MembershipRejections)
	return m
}

// HandlerFunc instruments gin requests.
func (m *Metrics) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := strconv.Itoa(c.Writer.Status())
		m.reqCnt.WithLabelValues(code, c.Request.Method, route).Inc()
		m.reqDur.WithLabelValues(code, c.Request.Method, route).Observe(float64(time.Since(start).Milliseconds()))
	}
}

// Serve starts the /metrics listener on addr.
func (m *Metrics) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.log.Errorw("metrics listener stopped", "addr", addr, "err", err)
		}
	}()
}
