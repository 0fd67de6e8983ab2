// Package telemetry records evaluation flow events as structured logs and Prometheus metrics.
package telemetry

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Tracker implements app.Tracker. A nil *Tracker is a no-op.
type Tracker struct {
	logger       *zap.Logger
	events       *prometheus.CounterVec
	saveDuration *prometheus.HistogramVec
}

// NewTracker registers the evaluation metrics on reg.
func NewTracker(logger *zap.Logger, reg prometheus.Registerer) (*Tracker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		logger: logger,
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "property_evaluation_events_total",
				Help: "Total number of evaluation flow events",
			},
			[]string{"event"},
		),
		saveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "property_evaluation_save_duration_seconds",
				Help:    "Duration of durable evaluation saves",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		if err := reg.Register(t.events); err != nil {
			return nil, err
		}
		if err := reg.Register(t.saveDuration); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Tracker) Track(event string, props map[string]any) {
	if t == nil {
		return
	}
	t.events.WithLabelValues(event).Inc()

	if ms, ok := props["durationMs"].(int64); ok {
		outcome := "success"
		if _, failed := props["error"]; failed {
			outcome = "failure"
		}
		t.saveDuration.WithLabelValues(outcome).Observe((time.Duration(ms) * time.Millisecond).Seconds())
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]zap.Field, 0, len(keys)+1)
	fields = append(fields, zap.String("event", event))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, props[k]))
	}
	t.logger.Info("evaluation event", fields...)
}
