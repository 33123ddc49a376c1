package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecutor_SubmitAcksBeforeHandling(t *testing.T) {
	release := make(chan struct{})
	var handled int32
	e := NewExecutor(context.Background(), 1, 4, func(ctx context.Context, ack string, item string) {
		<-release
		atomic.AddInt32(&handled, 1)
	}, nil)

	ack, err := e.Submit(context.Background(), "first")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ack == "" {
		t.Fatal("expected an acknowledgement id")
	}
	if atomic.LoadInt32(&handled) != 0 {
		t.Error("handler ran before Submit returned")
	}

	close(release)
	e.Close()
	if atomic.LoadInt32(&handled) != 1 {
		t.Errorf("handled = %d, want 1", handled)
	}
}

func TestExecutor_CloseDrainsQueue(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	e := NewExecutor(context.Background(), 3, 16, func(ctx context.Context, ack string, item int) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		seen[ack] = item
		mu.Unlock()
	}, nil)

	acks := make(map[string]bool)
	for i := 0; i < 10; i++ {
		ack, err := e.Submit(context.Background(), i)
		if err != nil {
			t.Fatalf("Submit(%d): %v", i, err)
		}
		if acks[ack] {
			t.Fatalf("duplicate ack %s", ack)
		}
		acks[ack] = true
	}
	e.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 10 {
		t.Errorf("handled %d items, want 10", len(seen))
	}
	for ack := range acks {
		if _, ok := seen[ack]; !ok {
			t.Errorf("ack %s never handled", ack)
		}
	}
}

func TestExecutor_SubmitAfterClose(t *testing.T) {
	e := NewExecutor(context.Background(), 1, 1, func(ctx context.Context, ack string, item int) {}, nil)
	e.Close()
	if _, err := e.Submit(context.Background(), 1); !errors.Is(err, ErrExecutorClosed) {
		t.Errorf("err = %v, want ErrExecutorClosed", err)
	}
}

func TestExecutor_SubmitRespectsContext(t *testing.T) {
	block := make(chan struct{})
	e := NewExecutor(context.Background(), 1, 1, func(ctx context.Context, ack string, item int) {
		<-block
	}, nil)
	defer func() {
		close(block)
		e.Shutdown()
	}()

	// One item occupies the worker, the next fills the queue.
	_, _ = e.Submit(context.Background(), 1)
	_, _ = e.Submit(context.Background(), 2)
	deadline := time.Now().Add(time.Second)
	for len(e.queue) < cap(e.queue) && time.Now().Before(deadline) {
		_, _ = e.Submit(context.Background(), 3)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := e.Submit(ctx, 4); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}
