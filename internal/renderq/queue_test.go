package renderq

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTasksRunInOrder(t *testing.T) {
	q := New(16)
	var mu sync.Mutex
	var order []int

	for i := 0; i < 10; i++ {
		i := i
		if !q.Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}) {
			t.Fatalf("Submit %d failed", i)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	if len(order) != 10 {
		t.Fatalf("ran %d tasks, want 10", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v", order)
		}
	}
}

func TestDoWaitsForTask(t *testing.T) {
	q := New(4)
	defer q.Shutdown(context.Background())

	ran := false
	if err := q.Do(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !ran {
		t.Fatal("Do returned before the task ran")
	}
}

func TestDoRunsAfterEarlierSubmits(t *testing.T) {
	q := New(4)
	defer q.Shutdown(context.Background())

	var events []string
	var mu sync.Mutex
	record := func(s string) func() {
		return func() { mu.Lock(); events = append(events, s); mu.Unlock() }
	}
	q.Submit(record("teardown"))
	q.Do(context.Background(), record("frame"))

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 || events[0] != "teardown" || events[1] != "frame" {
		t.Fatalf("events = %v", events)
	}
}

func TestSubmitAfterShutdown(t *testing.T) {
	q := New(1)
	q.Shutdown(context.Background())

	if q.Submit(func() {}) {
		t.Fatal("Submit after Shutdown should return false")
	}
	if err := q.Do(context.Background(), func() {}); err != ErrStopped {
		t.Fatalf("Do after Shutdown = %v, want ErrStopped", err)
	}
}

func TestQueueFullRejects(t *testing.T) {
	q := New(1)
	blocker := make(chan struct{})
	started := make(chan struct{})
	q.Submit(func() { close(started); <-blocker })
	<-started

	if !q.Submit(func() {}) {
		t.Fatal("queue should have room for one pending task")
	}
	if q.Submit(func() {}) {
		t.Fatal("Submit should fail when the queue is full")
	}

	close(blocker)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)
}

func TestPanicDoesNotKillRenderThread(t *testing.T) {
	q := New(4)
	defer q.Shutdown(context.Background())

	q.Submit(func() { panic("device exploded") })

	ran := false
	if err := q.Do(context.Background(), func() { ran = true }); err != nil || !ran {
		t.Fatalf("Do after panic: ran=%v err=%v", ran, err)
	}
}
