package services

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

type recordingMetrics struct {
	mu       sync.Mutex
	counters map[string]int
	timings  map[string]int
	gauges   map[string]float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		counters: make(map[string]int),
		timings:  make(map[string]int),
		gauges:   make(map[string]float64),
	}
}

func (m *recordingMetrics) IncrementCounter(name string, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := name
	if status, ok := tags["status"]; ok {
		key += ":" + status
	}
	m.counters[key]++
}

func (m *recordingMetrics) RecordProcessingTime(name string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings[name]++
}

func (m *recordingMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := name
	if outcome, ok := tags["outcome"]; ok {
		key += ":" + outcome
	}
	m.gauges[key] += value
}

func (m *recordingMetrics) counter(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
