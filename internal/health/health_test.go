package health

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestRegistryEmpty(t *testing.T) {
	r := NewRegistry()
	healthy, statuses := r.CheckAll(context.Background())
	if !healthy {
		t.Fatal("empty registry should be healthy")
	}
	if len(statuses) != 0 {
		t.Fatalf("expected 0 statuses, got %d", len(statuses))
	}
}

func TestRegistryAllHealthy(t *testing.T) {
	r := NewRegistry()
	r.Register("ledger", func(_ context.Context) Status {
		return Status{Name: "ledger", Healthy: true}
	})
	r.Register("classifier", func(_ context.Context) Status {
		return Status{Name: "classifier", Healthy: true, Detail: "ok"}
	})

	healthy, statuses := r.CheckAll(context.Background())
	if !healthy {
		t.Fatal("all-healthy registry should report healthy")
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
}

func TestRegistryOneUnhealthy(t *testing.T) {
	r := NewRegistry()
	r.Register("ledger", func(_ context.Context) Status {
		return Status{Name: "ledger", Healthy: true}
	})
	r.Register("classifier", func(_ context.Context) Status {
		return Status{Name: "classifier", Healthy: false, Detail: "connection refused"}
	})

	healthy, statuses := r.CheckAll(context.Background())
	if healthy {
		t.Fatal("registry with unhealthy probe should report unhealthy")
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[1].Detail != "connection refused" {
		t.Fatalf("expected detail 'connection refused', got %q", statuses[1].Detail)
	}
}

func TestPingChecker(t *testing.T) {
	ok := PingChecker("database", func(_ context.Context) error { return nil })
	st := ok(context.Background())
	if !st.Healthy || st.Name != "database" {
		t.Fatalf("healthy ping reported %+v", st)
	}

	down := PingChecker("database", func(_ context.Context) error {
		return errors.New("dial tcp: connection refused")
	})
	st = down(context.Background())
	if st.Healthy {
		t.Fatal("failing ping should report unhealthy")
	}
	if st.Detail != "dial tcp: connection refused" {
		t.Fatalf("expected ping error as detail, got %q", st.Detail)
	}
}

func TestStaticChecker(t *testing.T) {
	st := StaticChecker("classifier", "heuristic")(context.Background())
	if !st.Healthy {
		t.Fatal("static probe should always be healthy")
	}
	if st.Name != "classifier" || st.Detail != "heuristic" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestRegistryConcurrentRegisterAndCheck(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Register("probe", func(_ context.Context) Status {
				return Status{Name: "probe", Healthy: true}
			})
		}()
	}

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.CheckAll(context.Background())
		}()
	}

	wg.Wait()
}
