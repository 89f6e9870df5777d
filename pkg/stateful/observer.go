package stateful

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer is notified after every backend operation. Success hooks carry
// the handler latency; OnError fires instead of them on failure.
type Observer interface {
	OnCreate(resource, itemID string, d time.Duration)
	OnRead(resource, itemID string, d time.Duration)
	OnList(resource string, count int, d time.Duration)
	OnFetch(resource string, requested, found int, d time.Duration)
	OnUpdate(resource, itemID string, d time.Duration)
	OnDelete(resource, itemID string, d time.Duration)
	OnError(resource, operation string, err error)
	OnReset(resources []string, d time.Duration)
}

// NoopObserver ignores every hook. Embed it to implement a subset.
type NoopObserver struct{}

func (n *NoopObserver) OnCreate(resource string, itemID string, duration time.Duration)       {}
func (n *NoopObserver) OnRead(resource string, itemID string, duration time.Duration)         {}
func (n *NoopObserver) OnList(resource string, count int, duration time.Duration)             {}
func (n *NoopObserver) OnFetch(resource string, requested, found int, duration time.Duration) {}
func (n *NoopObserver) OnUpdate(resource string, itemID string, duration time.Duration)       {}
func (n *NoopObserver) OnDelete(resource string, itemID string, duration time.Duration)       {}
func (n *NoopObserver) OnError(resource string, operation string, err error)                  {}
func (n *NoopObserver) OnReset(resources []string, duration time.Duration)                    {}

type op int

const (
	opCreate op = iota
	opRead
	opList
	opFetch
	opUpdate
	opDelete
	opError
	opReset
	numOps
)

// MetricsObserver counts operations per kind and sums their latency.
// It is safe for concurrent requests.
type MetricsObserver struct {
	counts  [numOps]atomic.Int64
	latency atomic.Int64
}

// NewMetricsObserver returns a zeroed MetricsObserver.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (m *MetricsObserver) record(o op, d time.Duration) {
	m.counts[o].Add(1)
	m.latency.Add(int64(d))
}

func (m *MetricsObserver) OnCreate(_, _ string, d time.Duration) { m.record(opCreate, d) }
func (m *MetricsObserver) OnRead(_, _ string, d time.Duration)   { m.record(opRead, d) }
func (m *MetricsObserver) OnList(_ string, _ int, d time.Duration) {
	m.record(opList, d)
}
func (m *MetricsObserver) OnFetch(_ string, _, _ int, d time.Duration) {
	m.record(opFetch, d)
}
func (m *MetricsObserver) OnUpdate(_, _ string, d time.Duration) { m.record(opUpdate, d) }
func (m *MetricsObserver) OnDelete(_, _ string, d time.Duration) { m.record(opDelete, d) }
func (m *MetricsObserver) OnError(string, string, error)         { m.counts[opError].Add(1) }
func (m *MetricsObserver) OnReset(_ []string, d time.Duration)   { m.record(opReset, d) }

// Snapshot reads the counters. Counters are read one by one, so a snapshot
// taken under load may mix two moments.
func (m *MetricsObserver) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		CreateCount:  m.counts[opCreate].Load(),
		ReadCount:    m.counts[opRead].Load(),
		ListCount:    m.counts[opList].Load(),
		FetchCount:   m.counts[opFetch].Load(),
		UpdateCount:  m.counts[opUpdate].Load(),
		DeleteCount:  m.counts[opDelete].Load(),
		ErrorCount:   m.counts[opError].Load(),
		ResetCount:   m.counts[opReset].Load(),
		TotalLatency: time.Duration(m.latency.Load()),
	}
}

// MetricsSnapshot is what GET /_state reports under "metrics".
type MetricsSnapshot struct {
	CreateCount  int64         `json:"createCount"`
	ReadCount    int64         `json:"readCount"`
	ListCount    int64         `json:"listCount"`
	FetchCount   int64         `json:"fetchCount"`
	UpdateCount  int64         `json:"updateCount"`
	DeleteCount  int64         `json:"deleteCount"`
	ErrorCount   int64         `json:"errorCount"`
	ResetCount   int64         `json:"resetCount"`
	TotalLatency time.Duration `json:"totalLatencyNs"`
}

// LogObserver writes one debug record per operation and a warning per error.
type LogObserver struct {
	Log *slog.Logger
}

func (o *LogObserver) OnCreate(resource string, itemID string, duration time.Duration) {
	o.Log.Debug("created", "resource", resource, "id", itemID, "duration", duration)
}

func (o *LogObserver) OnRead(resource string, itemID string, duration time.Duration) {
	o.Log.Debug("read", "resource", resource, "id", itemID, "duration", duration)
}

func (o *LogObserver) OnList(resource string, count int, duration time.Duration) {
	o.Log.Debug("listed", "resource", resource, "count", count, "duration", duration)
}

func (o *LogObserver) OnFetch(resource string, requested, found int, duration time.Duration) {
	o.Log.Debug("fetched", "resource", resource, "requested", requested, "found", found, "duration", duration)
}

func (o *LogObserver) OnUpdate(resource string, itemID string, duration time.Duration) {
	o.Log.Debug("updated", "resource", resource, "id", itemID, "duration", duration)
}

func (o *LogObserver) OnDelete(resource string, itemID string, duration time.Duration) {
	o.Log.Debug("deleted", "resource", resource, "id", itemID, "duration", duration)
}

func (o *LogObserver) OnError(resource string, operation string, err error) {
	o.Log.Warn("operation failed", "resource", resource, "operation", operation, "error", err)
}

func (o *LogObserver) OnReset(resources []string, duration time.Duration) {
	o.Log.Info("state reset", "resources", resources, "duration", duration)
}

// Observers fans every hook out to each observer in order.
type Observers []Observer

func (os Observers) OnCreate(resource string, itemID string, duration time.Duration) {
	for _, o := range os {
		o.OnCreate(resource, itemID, duration)
	}
}

func (os Observers) OnRead(resource string, itemID string, duration time.Duration) {
	for _, o := range os {
		o.OnRead(resource, itemID, duration)
	}
}

func (os Observers) OnList(resource string, count int, duration time.Duration) {
	for _, o := range os {
		o.OnList(resource, count, duration)
	}
}

func (os Observers) OnFetch(resource string, requested, found int, duration time.Duration) {
	for _, o := range os {
		o.OnFetch(resource, requested, found, duration)
	}
}

func (os Observers) OnUpdate(resource string, itemID string, duration time.Duration) {
	for _, o := range os {
		o.OnUpdate(resource, itemID, duration)
	}
}

func (os Observers) OnDelete(resource string, itemID string, duration time.Duration) {
	for _, o := range os {
		o.OnDelete(resource, itemID, duration)
	}
}

func (os Observers) OnError(resource string, operation string, err error) {
	for _, o := range os {
		o.OnError(resource, operation, err)
	}
}

func (os Observers) OnReset(resources []string, duration time.Duration) {
	for _, o := range os {
		o.OnReset(resources, duration)
	}
}
