package monitor

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/t77yq/sonde/internal/model"
)

// Metrics exposes benchmark progress as prometheus collectors
type Metrics struct {
	Latency     *prometheus.GaugeVec
	Memory      *prometheus.GaugeVec
	LoadAverage *prometheus.GaugeVec
	Converged   *prometheus.GaugeVec
	Samples     *prometheus.CounterVec
	CheckCount  prometheus.Gauge
	Rounds      prometheus.Counter
}

// NewMetrics creates the collectors and registers them on registry
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		Latency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sonde_engine_latency_seconds",
			Help: "Last average active service latency reported by the engine.",
		}, []string{"engine"}),
		Memory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sonde_engine_memory",
			Help: "Last memory figure read from the process listing for the engine.",
		}, []string{"engine"}),
		LoadAverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sonde_load_average",
			Help: "System load average observed at the last sample.",
		}, []string{"window"}),
		Converged: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sonde_engine_converged",
			Help: "1 once the engine latency reached the convergence threshold.",
		}, []string{"engine"}),
		Samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sonde_samples_total",
			Help: "Total number of samples taken.",
		}, []string{"engine"}),
		CheckCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sonde_round_check_count",
			Help: "Number of checks in the current round.",
		}),
		Rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sonde_rounds_total",
			Help: "Total number of escalation rounds started.",
		}),
	}

	registry.MustRegister(
		m.Latency,
		m.Memory,
		m.LoadAverage,
		m.Converged,
		m.Samples,
		m.CheckCount,
		m.Rounds,
	)

	return m
}

func (m *Metrics) RoundStarted(round model.Round) {
	m.CheckCount.Set(float64(round.CheckCount))
	m.Rounds.Inc()
}

// SampleTaken updates gauges for every value the probes found
func (m *Metrics) SampleTaken(engine string, sample model.RoundSample) {
	m.Samples.WithLabelValues(engine).Inc()
	setIfNumber(m.Memory.WithLabelValues(engine), sample.Memory)
	setIfNumber(m.Latency.WithLabelValues(engine), sample.Latency)
	setIfNumber(m.LoadAverage.WithLabelValues("5m"), sample.Load5)
	setIfNumber(m.LoadAverage.WithLabelValues("15m"), sample.Load15)
}

func (m *Metrics) EngineFinished(round model.Round, state model.ConvergenceState) {
	converged := 0.0
	if state.Converged {
		converged = 1
	}
	m.Converged.WithLabelValues(state.Engine).Set(converged)
}

func setIfNumber(g prometheus.Gauge, s string) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		g.Set(v)
	}
}

// ServeMetrics serves registry on addr until ctx is done
func ServeMetrics(ctx context.Context, addr string, registry *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		logger.Info("Metrics server started", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	return server
}
