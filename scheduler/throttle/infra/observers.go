package infra

import (
	"context"
	"log/slog"

	"job-throttle/scheduler/throttle/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// LogObserver escreve uma linha por throttle disparado (nível Debug por padrão).
type LogObserver struct {
	Logger *slog.Logger
	Level  slog.Level
}

func NewLogObserver(logger *slog.Logger) LogObserver {
	return LogObserver{Logger: logger, Level: slog.LevelDebug}
}

func (o LogObserver) ThrottleTriggered(ctx context.Context, ev domain.TriggerEvent) {
	if o.Logger == nil {
		return
	}
	o.Logger.Log(ctx, o.Level, "throttle triggered",
		"class", string(ev.Class),
		"predicate", ev.Predicate,
		"job", ev.JobID,
	)
}

// StatsObserver repassa o evento para um StatsStore. É best-effort:
// erro de gravação vai para OnError (se houver) e nunca sobe.
type StatsObserver struct {
	Store   domain.StatsStore
	OnError func(error)
}

func (o StatsObserver) ThrottleTriggered(ctx context.Context, ev domain.TriggerEvent) {
	if o.Store == nil {
		return
	}
	if err := o.Store.Record(ctx, ev); err != nil && o.OnError != nil {
		o.OnError(err)
	}
}

// MetricsObserver conta disparos por classe e predicado.
type MetricsObserver struct {
	triggered *prometheus.CounterVec
}

func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	triggered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "throttle_triggered_total",
		Help: "Number of job throttles that triggered, by job class and predicate",
	}, []string{"class", "predicate"})

	if reg != nil {
		if err := reg.Register(triggered); err != nil {
			return nil, err
		}
	}
	return &MetricsObserver{triggered: triggered}, nil
}

func (o *MetricsObserver) ThrottleTriggered(_ context.Context, ev domain.TriggerEvent) {
	o.triggered.WithLabelValues(string(ev.Class), ev.Predicate).Inc()
}
