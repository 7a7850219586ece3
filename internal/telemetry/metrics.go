package telemetry

import (
	"errors"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/shaiso/flowedit/internal/domain"
	"github.com/shaiso/flowedit/internal/engine"
)

// Значения label result.
const (
	ResultOK                = "ok"
	ResultMissingSteps      = "missing_steps"
	ResultDuplicateID       = "duplicate_id"
	ResultMissingDependency = "missing_dependency"
	ResultCycle             = "cycle"
	ResultUnknownTool       = "unknown_tool"
	ResultStepNotFound      = "step_not_found"
	ResultUnknownToolCall   = "unknown_tool_call"
	ResultError             = "error"
)

// Metrics — Prometheus метрики движка.
//
// Реализует engine.Observer. Каждый экземпляр владеет собственным
// реестром, поэтому метрики можно создавать в тестах независимо.
type Metrics struct {
	registry *prometheus.Registry

	validations *prometheus.CounterVec
	toolCalls   *prometheus.CounterVec
	batches     *prometheus.CounterVec
	batchSize   prometheus.Histogram
}

// NewMetrics создаёт метрики в новом реестре.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		validations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowedit_validations_total",
			Help: "Workflow validations by result",
		}, []string{"result"}),
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowedit_tool_calls_total",
			Help: "Applied tool calls by kind and result",
		}, []string{"kind", "result"}),
		batches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowedit_batches_total",
			Help: "Tool call batches by result",
		}, []string{"result"}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowedit_batch_tool_calls",
			Help:    "Number of tool calls per batch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 7),
		}),
	}
}

// Registry возвращает реестр метрик.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveValidation учитывает результат engine.Validate.
func (m *Metrics) ObserveValidation(err error) {
	m.validations.WithLabelValues(ResultLabel(err)).Inc()
}

// ToolCallApplied реализует engine.Observer.
func (m *Metrics) ToolCallApplied(kind domain.ToolCallKind, err error) {
	label := string(kind)
	if label == "" {
		label = "unknown"
	}
	m.toolCalls.WithLabelValues(label, ResultLabel(err)).Inc()
}

// BatchFinished реализует engine.Observer.
func (m *Metrics) BatchFinished(calls int, err error) {
	m.batches.WithLabelValues(ResultLabel(err)).Inc()
	m.batchSize.Observe(float64(calls))
}

// WriteText выводит все метрики в текстовом формате Prometheus.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// ResultLabel переводит ошибку движка в значение label result.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, engine.ErrStepNotFound):
		return ResultStepNotFound
	case errors.Is(err, engine.ErrUnknownToolCall):
		return ResultUnknownToolCall
	case errors.Is(err, engine.ErrMissingSteps):
		return ResultMissingSteps
	case errors.Is(err, engine.ErrDuplicateStepID):
		return ResultDuplicateID
	case errors.Is(err, engine.ErrMissingDependency):
		return ResultMissingDependency
	case errors.Is(err, engine.ErrCyclicDependency):
		return ResultCycle
	case errors.Is(err, engine.ErrUnknownTool):
		return ResultUnknownTool
	default:
		return ResultError
	}
}

var _ engine.Observer = (*Metrics)(nil)
