package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineCollector bundles Prometheus metrics for the data-preparation
// pipeline and provides helpers to wire them into stage runners and an
// optional HTTP /metrics listener.
type PipelineCollector struct {
	gatherer prometheus.Gatherer

	StageRuns     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	BoundaryDownloads *prometheus.CounterVec
	BoundaryCacheHits prometheus.Counter

	NetworkBuses      prometheus.Gauge
	NetworkLines      prometheus.Gauge
	NetworkLinks      prometheus.Gauge
	NetworkGenerators prometheus.Gauge
}

// NewPipelineCollector registers pipeline Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewPipelineCollector(reg prometheus.Registerer) (*PipelineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_stage_runs_total",
		Help: "Total number of executed pipeline stages, labeled by stage and outcome.",
	}, []string{"stage", "status"})
	runs, err := registerCounterVec(reg, runs, "pipeline_stage_runs_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Pipeline stage wall-clock duration in seconds.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300, 1200},
	}, []string{"stage"})
	durations, err = registerHistogramVec(reg, durations, "pipeline_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	downloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "boundary_downloads_total",
		Help: "Total number of boundary-layer downloads, labeled by country code.",
	}, []string{"country"})
	downloads, err = registerCounterVec(reg, downloads, "boundary_downloads_total")
	if err != nil {
		return nil, err
	}

	cacheHits, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "boundary_cache_hits_total",
		Help: "Number of boundary-layer fetches served from the local cache.",
	}), "boundary_cache_hits_total")
	if err != nil {
		return nil, err
	}

	buses, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "network_buses",
		Help: "Current number of buses in the loaded network.",
	}), "network_buses")
	if err != nil {
		return nil, err
	}
	lines, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "network_lines",
		Help: "Current number of transmission lines in the loaded network.",
	}), "network_lines")
	if err != nil {
		return nil, err
	}
	links, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "network_links",
		Help: "Current number of DC links in the loaded network.",
	}), "network_links")
	if err != nil {
		return nil, err
	}
	generators, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "network_generators",
		Help: "Current number of generators in the loaded network.",
	}), "network_generators")
	if err != nil {
		return nil, err
	}

	return &PipelineCollector{
		gatherer:          gatherer,
		StageRuns:         runs,
		StageDuration:     durations,
		BoundaryDownloads: downloads,
		BoundaryCacheHits: cacheHits,
		NetworkBuses:      buses,
		NetworkLines:      lines,
		NetworkLinks:      links,
		NetworkGenerators: generators,
	}, nil
}

// ObserveStage records one stage execution with its outcome and duration.
func (c *PipelineCollector) ObserveStage(stage string, err error, elapsed time.Duration) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	if c.StageRuns != nil {
		c.StageRuns.WithLabelValues(stage, status).Inc()
	}
	if c.StageDuration != nil {
		c.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	}
}

// ObserveDownload records one boundary-layer fetch for a country, either a
// fresh download or a cache hit.
func (c *PipelineCollector) ObserveDownload(country string, fromCache bool) {
	if c == nil {
		return
	}
	if fromCache {
		if c.BoundaryCacheHits != nil {
			c.BoundaryCacheHits.Inc()
		}
		return
	}
	if c.BoundaryDownloads != nil {
		c.BoundaryDownloads.WithLabelValues(country).Inc()
	}
}

// SetNetworkCounts updates the network size gauges after a network load.
func (c *PipelineCollector) SetNetworkCounts(buses, lines, links, generators int) {
	if c == nil {
		return
	}
	if c.NetworkBuses != nil {
		c.NetworkBuses.Set(float64(buses))
	}
	if c.NetworkLines != nil {
		c.NetworkLines.Set(float64(lines))
	}
	if c.NetworkLinks != nil {
		c.NetworkLinks.Set(float64(links))
	}
	if c.NetworkGenerators != nil {
		c.NetworkGenerators.Set(float64(generators))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PipelineCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
