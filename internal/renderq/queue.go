// Package renderq runs tasks one at a time, in submission order, on a
// single goroutine locked to its OS thread. It is the render timeline all
// device work and sender teardown is sequenced on.
package renderq

import (
	"context"
	"errors"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/breeze-rmm/spout2media/internal/logging"
)

var log = logging.L("renderq")

// ErrStopped is returned by Do once the queue no longer accepts work.
var ErrStopped = errors.New("render queue stopped")

// Task is a unit of render-thread work.
type Task func()

// Queue is a bounded FIFO drained by one locked OS thread.
type Queue struct {
	tasks     chan Task
	wg        sync.WaitGroup
	accepting atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// New starts the render goroutine with room for queueSize pending tasks.
func New(queueSize int) *Queue {
	if queueSize < 1 {
		queueSize = 1
	}
	q := &Queue{
		tasks: make(chan Task, queueSize),
		done:  make(chan struct{}),
	}
	q.accepting.Store(true)
	go q.loop()
	return q
}

// Submit enqueues task without waiting. It returns false when the queue is
// stopped or full; a full queue means the render thread is behind and the
// caller should drop the frame.
func (q *Queue) Submit(task Task) bool {
	if !q.accepting.Load() {
		return false
	}
	q.wg.Add(1)
	select {
	case q.tasks <- task:
		return true
	default:
		q.wg.Done()
		log.Warn("render queue full, task rejected")
		return false
	}
}

// Do runs task on the render thread and waits for it to finish.
func (q *Queue) Do(ctx context.Context, task Task) error {
	if !q.accepting.Load() {
		return ErrStopped
	}
	finished := make(chan struct{})
	q.wg.Add(1)
	select {
	case q.tasks <- func() { defer close(finished); task() }:
	case <-ctx.Done():
		q.wg.Done()
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting tasks and waits for queued ones to run, bounded
// by ctx. The render goroutine exits afterwards.
func (q *Queue) Shutdown(ctx context.Context) {
	q.accepting.Store(false)

	drained := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		log.Warn("render queue drain timed out")
	}
	q.closeOnce.Do(func() { close(q.done) })
}

func (q *Queue) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case task := <-q.tasks:
			q.run(task)
		case <-q.done:
			for {
				select {
				case task := <-q.tasks:
					q.run(task)
				default:
					return
				}
			}
		}
	}
}

// run executes task with panic recovery so one bad frame cannot take the
// render thread down.
func (q *Queue) run(task Task) {
	defer q.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Error("render task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task()
}
