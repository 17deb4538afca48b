// Package metrics instruments the Domino command line tools with Prometheus
// counters and gauges. Grounded on
// core/system_health_logging.go's registry/gauge/counter wiring from the
// teacher repo, narrowed to the write-only counters SPEC_FULL.md's ambient
// stack section calls for: resolve calls, budget refusals, and capsule
// collapses. There is no long-running server here to scrape them from by
// default; Collector.Serve exposes them the same way StartMetricsServer
// does elsewhere in the corpus, for a CLI invocation that opts in with
// --metrics-addr.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns one Prometheus registry and the counters/gauges every
// subsystem command increments.
type Collector struct {
	registry *prometheus.Registry

	ResolveCalls     *prometheus.CounterVec
	BudgetRefusals   *prometheus.CounterVec
	CapsuleCollapses *prometheus.CounterVec
	CapsuleCount     *prometheus.GaugeVec
}

// NewCollector builds and registers every metric. subsystem labels every
// vector so one process can report across energy/heat/fluid/information/
// crafting without the label set growing unbounded (it is bounded by the
// five field subsystems this module implements).
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		ResolveCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "domino_resolve_calls_total",
			Help: "Total number of resolve invocations per subsystem.",
		}, []string{"subsystem"}),
		BudgetRefusals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "domino_budget_refusals_total",
			Help: "Total number of query/resolve calls refused for budget exhaustion.",
		}, []string{"subsystem"}),
		CapsuleCollapses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "domino_capsule_collapses_total",
			Help: "Total number of networks collapsed into macro-capsules.",
		}, []string{"subsystem"}),
		CapsuleCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "domino_capsule_count",
			Help: "Current macro-capsule count observed after the last command.",
		}, []string{"subsystem"}),
	}
	reg.MustRegister(c.ResolveCalls, c.BudgetRefusals, c.CapsuleCollapses, c.CapsuleCount)
	return c
}

// Serve exposes the registry on addr's /metrics endpoint until ctx is
// canceled.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
