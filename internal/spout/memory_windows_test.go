//go:build windows

package spout

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"testing"
	"time"
)

func TestWinRegionUnlockAfterThreadChurn(t *testing.T) {
	name := fmt.Sprintf("spout2media_test_%d", os.Getpid())
	region, err := NewSystemMapper().Create(name, 64)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer region.Close()
	r := region.(*winRegion)

	// keep the scheduler busy so an unpinned goroutine would migrate
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < runtime.GOMAXPROCS(0)*2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					runtime.Gosched()
				}
			}
		}()
	}
	defer func() {
		close(stop)
		wg.Wait()
	}()

	for i := 0; i < 20; i++ {
		if err := r.Lock(); err != nil {
			t.Fatalf("Lock %d: %v", i, err)
		}
		for j := 0; j < 10; j++ {
			runtime.Gosched()
			time.Sleep(time.Millisecond)
		}
		if err := r.unlock(); err != nil {
			t.Fatalf("unlock %d: %v", i, err)
		}
	}

	// the mutex must be free for another goroutine
	done := make(chan error, 1)
	go func() {
		if err := r.Lock(); err != nil {
			done <- err
			return
		}
		done <- r.unlock()
	}()
	if err := <-done; err != nil {
		t.Fatalf("lock from another goroutine: %v", err)
	}
}
