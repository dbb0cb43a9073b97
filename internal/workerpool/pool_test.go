package workerpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestBoundedConcurrency(t *testing.T) {
	var inFlight InFlight
	var completed int64

	p := New(3, func(ctx context.Context, item int) {
		exit := inFlight.Enter()
		defer exit()
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&completed, 1)
	})

	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}
	p.Run(context.Background(), items)

	if got := atomic.LoadInt64(&completed); got != 20 {
		t.Fatalf("completed = %d, want 20", got)
	}
	if inFlight.Max() > 3 {
		t.Fatalf("observed max in-flight = %d, want <= 3", inFlight.Max())
	}
}

func TestSequentialWhenConcurrencyOne(t *testing.T) {
	var inFlight InFlight
	p := New(1, func(ctx context.Context, item int) {
		exit := inFlight.Enter()
		defer exit()
		time.Sleep(2 * time.Millisecond)
	})
	p.Run(context.Background(), []int{1, 2, 3, 4, 5})
	if inFlight.Max() != 1 {
		t.Fatalf("max in-flight = %d, want 1 for max_workers=1", inFlight.Max())
	}
}
