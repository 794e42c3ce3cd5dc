// Package hooks provides production-ready Hook and Logger implementations.
package hooks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Skryldev/image-compressor/core"
)

// ── Logging hook ──────────────────────────────────────────────────────────────

// LoggingHook logs before/after each pipeline step.
type LoggingHook struct {
	logger core.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) BeforeStep(_ context.Context, stepName string, img *core.ImageData) {
	h.logger.Debug("pipeline.step.start",
		"step", stepName,
		"format", img.Format,
		"width", img.Meta.Width,
		"height", img.Meta.Height,
	)
}

func (h *LoggingHook) AfterStep(_ context.Context, stepName string, img *core.ImageData, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("pipeline.step.error",
			"step", stepName,
			"duration_ms", d.Milliseconds(),
			"error", err.Error(),
		)
		return
	}
	out := "nil"
	if img != nil {
		out = fmt.Sprintf("%dx%d %s %dB", img.Meta.Width, img.Meta.Height, img.Format, img.Meta.SizeBytes)
	}
	h.logger.Debug("pipeline.step.done",
		"step", stepName,
		"duration_ms", d.Milliseconds(),
		"output", out,
	)
}

// ── In-memory metrics collector ───────────────────────────────────────────────

// InMemoryMetrics accumulates metrics atomically; safe for concurrent use.
type InMemoryMetrics struct {
	mu sync.RWMutex

	stepDurations map[string]time.Duration // cumulative per step
	stepCalls     map[string]int64         // call count per step
	errors        map[string]int64         // keyed by error category

	bytesIn  int64
	bytesOut int64
	files    int64
}

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		stepDurations: make(map[string]time.Duration),
		stepCalls:     make(map[string]int64),
		errors:        make(map[string]int64),
	}
}

func (m *InMemoryMetrics) RecordProcessingTime(stepName string, d time.Duration) {
	m.mu.Lock()
	m.stepDurations[stepName] += d
	m.stepCalls[stepName]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordThroughput(in, out int64) {
	atomic.AddInt64(&m.bytesIn, in)
	atomic.AddInt64(&m.bytesOut, out)
	atomic.AddInt64(&m.files, 1)
}

func (m *InMemoryMetrics) RecordError(_ string, category string) {
	m.mu.Lock()
	m.errors[category]++
	m.mu.Unlock()
}

// Snapshot returns a copy of current metrics.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		StepDurations: make(map[string]time.Duration, len(m.stepDurations)),
		StepCalls:     make(map[string]int64, len(m.stepCalls)),
		Errors:        make(map[string]int64, len(m.errors)),
		BytesIn:       atomic.LoadInt64(&m.bytesIn),
		BytesOut:      atomic.LoadInt64(&m.bytesOut),
		Files:         atomic.LoadInt64(&m.files),
	}
	for k, v := range m.stepDurations {
		snap.StepDurations[k] = v
	}
	for k, v := range m.stepCalls {
		snap.StepCalls[k] = v
	}
	for k, v := range m.errors {
		snap.Errors[k] = v
	}
	return snap
}

// MetricsSnapshot is an immutable point-in-time copy of metrics.
type MetricsSnapshot struct {
	StepDurations map[string]time.Duration
	StepCalls     map[string]int64
	Errors        map[string]int64
	BytesIn       int64
	BytesOut      int64
	Files         int64
}

// ── Metrics hook ──────────────────────────────────────────────────────────────

// MetricsHook feeds pipeline step timings into a MetricsCollector.
type MetricsHook struct {
	collector core.MetricsCollector
}

// NewMetricsHook creates a MetricsHook.
func NewMetricsHook(c core.MetricsCollector) *MetricsHook { return &MetricsHook{collector: c} }

func (h *MetricsHook) BeforeStep(_ context.Context, _ string, _ *core.ImageData) {}

func (h *MetricsHook) AfterStep(_ context.Context, stepName string, _ *core.ImageData, d time.Duration, _ error) {
	h.collector.RecordProcessingTime(stepName, d)
}
