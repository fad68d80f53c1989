package health

import (
	"sync"
	"testing"
	"time"
)

func TestEmptyMonitorIsHealthy(t *testing.T) {
	m := NewMonitor()
	if got := m.Overall(); got != Healthy {
		t.Fatalf("Overall() = %q, want %q", got, Healthy)
	}
	if len(m.All()) != 0 {
		t.Fatal("All() on empty monitor should be empty")
	}
}

func TestOverallReturnsWorstStatus(t *testing.T) {
	m := NewMonitor()
	m.Update("a", Healthy, "")
	m.Update("b", Degraded, "frames dropped")
	m.Update("c", Healthy, "")

	if got := m.Overall(); got != Degraded {
		t.Fatalf("Overall() = %q, want %q", got, Degraded)
	}

	m.Update("c", Unhealthy, "device lost")
	if got := m.Overall(); got != Unhealthy {
		t.Fatalf("Overall() = %q, want %q", got, Unhealthy)
	}
}

func TestSinceTracksTransitions(t *testing.T) {
	m := NewMonitor()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	m.Update(ComponentDevice, Unhealthy, "lost")
	clock = clock.Add(time.Minute)
	m.Update(ComponentDevice, Unhealthy, "lost again")

	c, _ := m.Get(ComponentDevice)
	if !c.Since.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Since moved without a transition: %v", c.Since)
	}
	if c.Failures != 2 || c.Message != "lost again" {
		t.Fatalf("check = %+v", c)
	}

	clock = clock.Add(time.Minute)
	m.Update(ComponentDevice, Healthy, "")
	c, _ = m.Get(ComponentDevice)
	if !c.Since.Equal(clock) || c.Failures != 0 {
		t.Fatalf("recovery check = %+v", c)
	}
}

func TestAllSortedByName(t *testing.T) {
	m := NewMonitor()
	m.Update(ComponentSender, Healthy, "")
	m.Update(ComponentDevice, Healthy, "")

	all := m.All()
	if len(all) != 2 || all[0].Name != ComponentDevice || all[1].Name != ComponentSender {
		t.Fatalf("All() = %+v", all)
	}
}

func TestGetMissing(t *testing.T) {
	if _, ok := NewMonitor().Get("nope"); ok {
		t.Fatal("Get returned a check that was never recorded")
	}
}

func TestConcurrentUpdates(t *testing.T) {
	m := NewMonitor()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if j%2 == 0 {
					m.Update(ComponentSender, Healthy, "")
				} else {
					m.Update(ComponentSender, Degraded, "dropped")
				}
				m.Overall()
				m.All()
			}
		}(i)
	}
	wg.Wait()
	if _, ok := m.Get(ComponentSender); !ok {
		t.Fatal("component missing after concurrent updates")
	}
}
