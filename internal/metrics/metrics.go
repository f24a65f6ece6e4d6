package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector exposes writer and source activity as Prometheus metrics. It
// implements ringwriter.Observer and source.Observer.
type Collector struct {
	persists     *prometheus.CounterVec
	bytesWritten prometheus.Counter
	writeOffset  prometheus.Gauge
	ticks        *prometheus.CounterVec
}

// NewCollector creates the collectors and registers them, along with the Go
// runtime and process collectors, on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		persists: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "procstore_persist_total",
			Help: "Count of record persist calls labeled by result.",
		}, []string{"result"}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procstore_bytes_written_total",
			Help: "Bytes written to the backing file.",
		}),
		writeOffset: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "procstore_write_offset_bytes",
			Help: "Position at which the next record will be written.",
		}),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "procstore_source_ticks_total",
			Help: "Count of periodic source firings labeled by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.persists,
		c.bytesWritten,
		c.writeOffset,
		c.ticks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

func (c *Collector) ObservePersist(result string, bytesWritten int, offset int64) {
	c.persists.WithLabelValues(result).Inc()
	if bytesWritten > 0 {
		c.bytesWritten.Add(float64(bytesWritten))
	}
	c.writeOffset.Set(float64(offset))
}

func (c *Collector) ObserveTick(outcome string) {
	c.ticks.WithLabelValues(outcome).Inc()
}
