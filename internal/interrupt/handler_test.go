package interrupt_test

// Notes:
// - Dependencies are injected via NewHandlerWithOptions for deterministic behavior.
// - nowFunc is injected to place the second signal inside or outside the window.
// - bytes.Buffer is NOT thread-safe, so a syncBuffer captures stderr.

import (
	"bytes"
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alnah/lingocast/internal/interrupt"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Contains(substr string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Contains(b.buf.Bytes(), []byte(substr))
}

// fakeClock returns successive instants on each call.
type fakeClock struct {
	mu    sync.Mutex
	times []time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.times[0]
	if len(c.times) > 1 {
		c.times = c.times[1:]
	}
	return now
}

func waitDone(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not canceled after first signal")
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestNewHandler(t *testing.T) {
	t.Parallel()

	h, ctx := interrupt.NewHandler(context.Background())
	if h == nil || ctx == nil {
		t.Fatal("NewHandler() returned nil")
	}
	if h.WasInterrupted() {
		t.Error("fresh handler reports interrupted")
	}
	h.Stop()
	waitDone(t, ctx)
}

func TestHandler_FirstInterruptCancels(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 1)
	stderr := &syncBuffer{}
	var exited atomic.Bool
	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:    sigCh,
		ExitFunc: func(int) { exited.Store(true) },
		Stderr:   stderr,
	})
	defer h.Stop()

	sigCh <- os.Interrupt
	waitDone(t, ctx)

	if !h.WasInterrupted() {
		t.Error("WasInterrupted() = false after signal")
	}
	if exited.Load() {
		t.Error("first signal must not exit")
	}
	if !stderr.Contains("cleaning up") {
		t.Error("cancel message not written")
	}
}

func TestHandler_SecondInterrupt(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		second   time.Duration
		wantExit bool
	}{
		{name: "within window exits", second: time.Second, wantExit: true},
		{name: "boundary: exactly at window exits", second: interrupt.Window, wantExit: true},
		{name: "outside window continues", second: interrupt.Window + time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sigCh := make(chan os.Signal, 2)
			stderr := &syncBuffer{}
			exitCode := make(chan int, 1)
			clock := &fakeClock{times: []time.Time{base, base.Add(tt.second)}}
			h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
				SigCh:    sigCh,
				ExitFunc: func(code int) { exitCode <- code },
				NowFunc:  clock.Now,
				Stderr:   stderr,
			})
			defer h.Stop()

			sigCh <- os.Interrupt
			waitDone(t, ctx)
			sigCh <- os.Interrupt

			select {
			case code := <-exitCode:
				if !tt.wantExit {
					t.Fatalf("unexpected exit(%d)", code)
				}
				if code != interrupt.ExitInterrupt {
					t.Errorf("exit code = %d, want %d", code, interrupt.ExitInterrupt)
				}
				if !stderr.Contains("Aborted.") {
					t.Error("abort message not written")
				}
			case <-time.After(200 * time.Millisecond):
				if tt.wantExit {
					t.Fatal("second signal within window did not exit")
				}
			}
		})
	}
}

func TestHandler_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 1)
	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{SigCh: sigCh})

	h.Stop()
	h.Stop()
	waitDone(t, ctx)
	if h.WasInterrupted() {
		t.Error("Stop() must not mark the handler interrupted")
	}
}

func TestHandler_ClosedChannelAndNilChannel(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal)
	close(sigCh)
	h1, _ := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{SigCh: sigCh})
	defer h1.Stop()

	h2, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{})
	defer h2.Stop()

	if h1.WasInterrupted() || h2.WasInterrupted() {
		t.Error("handler interrupted without a signal")
	}
	if ctx.Err() != nil {
		t.Error("context canceled without a signal")
	}
}

func TestHandler_ParentCanceled(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.Background())
	h, ctx := interrupt.NewHandlerWithOptions(parent, interrupt.Options{})
	defer h.Stop()

	cancel()
	waitDone(t, ctx)
	if h.WasInterrupted() {
		t.Error("parent cancellation is not an interrupt")
	}
}
