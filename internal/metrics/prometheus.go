package metrics

import (
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	apperrors "github.com/agbru/catlog/internal/errors"
)

const namespace = "catlog"

// Collector records delivery events on a private Prometheus registry. It
// satisfies catlog.Observer.
type Collector struct {
	registry   *prometheus.Registry
	deliveries *prometheus.CounterVec
	failures   *prometheus.CounterVec
	fallbacks  *prometheus.CounterVec
	bytes      *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry, including the Go
// runtime collector.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Lines written, by destination.",
		}, []string{"destination"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Failed writes, by destination and operation.",
		}, []string{"destination", "op"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_fallbacks_total",
			Help:      "Calls naming an unknown category, by requested category.",
		}, []string{"category"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Bytes written, by destination.",
		}, []string{"destination"}),
	}
	c.registry.MustRegister(
		c.deliveries,
		c.failures,
		c.fallbacks,
		c.bytes,
		collectors.NewGoCollector(),
	)
	return c
}

// Delivered counts one successful write of n bytes.
func (c *Collector) Delivered(_, destination string, n int) {
	c.deliveries.WithLabelValues(destination).Inc()
	c.bytes.WithLabelValues(destination).Add(float64(n))
}

// Failed counts one failed write.
func (c *Collector) Failed(_, destination string, err error) {
	op := "unknown"
	var de apperrors.DestinationError
	if errors.As(err, &de) && de.Op != "" {
		op = de.Op
	}
	c.failures.WithLabelValues(destination, op).Inc()
}

// FellBack counts one fallback from category.
func (c *Collector) FellBack(category, _ string) {
	c.fallbacks.WithLabelValues(category).Inc()
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// WriteText writes every metric in the Prometheus text exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return apperrors.WrapError(err, "gather metrics")
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return apperrors.WrapError(err, "encode metric %s", mf.GetName())
		}
	}
	return nil
}

// Handler serves the registry over HTTP.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
