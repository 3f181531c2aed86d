package lookup

import (
	"context"
	"sync"
	"time"
)

// Mock implements Source for testing.
type Mock struct {
	// SnapshotFunc is called when Snapshot is invoked.
	SnapshotFunc func(ctx context.Context, rangeName string) (*Snapshot, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a Snapshot invocation.
type MockCall struct {
	Range string
	Time  time.Time
}

// NewMock returns a mock that always serves snap.
func NewMock(snap *Snapshot) *Mock {
	return &Mock{
		SnapshotFunc: func(ctx context.Context, rangeName string) (*Snapshot, error) {
			return snap, nil
		},
	}
}

// MockWithError returns a mock whose fetch always fails with err.
func MockWithError(err error) *Mock {
	return &Mock{
		SnapshotFunc: func(ctx context.Context, rangeName string) (*Snapshot, error) {
			return nil, err
		},
	}
}

// Snapshot calls SnapshotFunc and records the call.
func (m *Mock) Snapshot(ctx context.Context, rangeName string) (*Snapshot, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Range: rangeName, Time: time.Now()})
	m.mu.Unlock()

	if m.SnapshotFunc != nil {
		return m.SnapshotFunc(ctx, rangeName)
	}
	return &Snapshot{}, nil
}

// Calls returns all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Snapshot calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Verify Mock implements Source at compile time.
var _ Source = (*Mock)(nil)
