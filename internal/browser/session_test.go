package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
)

type fakeIdler struct {
	ctx     context.Context
	quiet   time.Duration
	started bool
	waited  bool
}

func (f *fakeIdler) WaitRequestIdle(d time.Duration, _, _ []string, _ []proto.NetworkResourceType) func() {
	f.started = true
	f.quiet = d
	return func() { f.waited = true }
}

func (f *fakeIdler) GetContext() context.Context { return f.ctx }

func TestWaitNetworkIdle(t *testing.T) {
	f := &fakeIdler{ctx: context.Background()}

	if err := waitNetworkIdle(f, networkQuiet); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.started || !f.waited {
		t.Errorf("Expected request idle wait to be started and awaited, got started=%v waited=%v", f.started, f.waited)
	}
	if f.quiet != 500*time.Millisecond {
		t.Errorf("Expected 500ms quiet window, got %s", f.quiet)
	}
}

func TestWaitNetworkIdle_DeadlinePassed(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	f := &fakeIdler{ctx: ctx}
	err := waitNetworkIdle(f, networkQuiet)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if !f.waited {
		t.Error("Expected the wait to run before the deadline was checked")
	}
}
