// ABOUTME: Prometheus metrics for exchange outcomes, handoffs, and proxied traffic
// ABOUTME: Collector registers against an injected registry for test isolation

package gateway

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector gathers gateway metrics.
type Collector struct {
	exchanges *prometheus.CounterVec
	handoffs  *prometheus.CounterVec
	proxied   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with the
// given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "handoff_exchanges_total",
			Help: "Assertion exchange attempts by result code",
		}, []string{"code"}),
		handoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "handoff_upstream_handoffs_total",
			Help: "Upstream handoff attempts by outcome",
		}, []string{"outcome"}),
		proxied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "handoff_proxied_requests_total",
			Help: "Proxied requests by upstream status class",
		}, []string{"status_class"}),
	}

	reg.MustRegister(c.exchanges, c.handoffs, c.proxied)
	return c
}

// RecordExchange records an exchange attempt. An empty code means success.
func (c *Collector) RecordExchange(code string) {
	if code == "" {
		code = "OK"
	}
	c.exchanges.WithLabelValues(code).Inc()
}

// RecordHandoff records an upstream handoff outcome ("ok" or "failed").
func (c *Collector) RecordHandoff(outcome string) {
	c.handoffs.WithLabelValues(outcome).Inc()
}

// RecordProxied records a proxied response by status class (2xx, 4xx, ...).
func (c *Collector) RecordProxied(statusCode int) {
	class := strconv.Itoa(statusCode/100) + "xx"
	c.proxied.WithLabelValues(class).Inc()
}
