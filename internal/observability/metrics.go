package observability

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pln-care/complaint-service/internal/events"
)

// Metrics provides basic in-memory counters: requests and errors by route,
// complaint status transitions by edge.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	transitionCount map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		transitionCount: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordTransition counts one complaint status transition edge.
func (m *Metrics) RecordTransition(oldStatus, newStatus string) {
	if m == nil {
		return
	}
	key := oldStatus + ">" + newStatus
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionCount[key]++
}

// Transitions returns a copy of the transition counters.
func (m *Metrics) Transitions() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.transitionCount))
	for k, v := range m.transitionCount {
		out[k] = v
	}
	return out
}

// RegisterEventMetrics feeds transition counters from status-change events.
func RegisterEventMetrics(dispatcher events.Dispatcher, metrics *Metrics) {
	dispatcher.Subscribe(events.EventComplaintStatusChanged, func(ctx context.Context, event events.Event) error {
		if payload, ok := event.Payload.(events.ComplaintStatusChangedPayload); ok {
			metrics.RecordTransition(string(payload.OldStatus), string(payload.NewStatus))
		}
		return nil
	})
}
