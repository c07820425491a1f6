package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu        sync.Mutex
	available bool
	sent      []string
}

func (f *fakeBackend) IsAvailable() bool { return f.available }
func (f *fakeBackend) Send(title, message, sound string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message)
	return nil
}
func (f *fakeBackend) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

func TestThresholdGate(t *testing.T) {
	backend := &fakeBackend{available: true}
	n := New(Config{Enabled: true, ThresholdSeconds: 60, DebounceSeconds: 0.01}, backend, func() bool { return false }, "app")
	clock := time.Now()
	n.now = func() time.Time { return clock }
	n.MarkTurnStart()
	clock = clock.Add(10 * time.Second)
	n.Queue("too soon")
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, backend.snapshot())
}

func TestDebounceKeepsLastMessage(t *testing.T) {
	backend := &fakeBackend{available: true}
	n := New(Config{Enabled: true, ThresholdSeconds: 60, DebounceSeconds: 0.05}, backend, func() bool { return false }, "app")
	clock := time.Now()
	n.now = func() time.Time { return clock }
	n.MarkTurnStart()
	clock = clock.Add(61 * time.Second)
	n.Queue("A")
	n.Queue("B")
	time.Sleep(150 * time.Millisecond)
	sent := backend.snapshot()
	require.Len(t, sent, 1)
	require.Equal(t, "B", sent[0])
}

func TestFlushDeliversImmediately(t *testing.T) {
	backend := &fakeBackend{available: true}
	n := New(Config{Enabled: true, ThresholdSeconds: 60, DebounceSeconds: 5}, backend, func() bool { return false }, "app")
	clock := time.Now()
	n.now = func() time.Time { return clock }
	n.MarkTurnStart()
	clock = clock.Add(61 * time.Second)
	n.Queue("flush me")
	n.Flush()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, []string{"flush me"}, backend.snapshot())
}

func TestForegroundSuppression(t *testing.T) {
	backend := &fakeBackend{available: true}
	n := New(Config{Enabled: true, ThresholdSeconds: 60, DebounceSeconds: 0.01}, backend, func() bool { return true }, "app")
	clock := time.Now()
	n.now = func() time.Time { return clock }
	n.MarkTurnStart()
	clock = clock.Add(61 * time.Second)
	n.Queue("hi")
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, backend.snapshot())
}
