package guard

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func exerciseGuard(t *testing.T, g Guard, learnerID string) {
	t.Helper()
	ctx := context.Background()

	ok, err := g.TryAdmit(ctx, learnerID)
	if err != nil || !ok {
		t.Fatalf("first admit = %v, %v; want true", ok, err)
	}
	ok, err = g.TryAdmit(ctx, learnerID)
	if err != nil || ok {
		t.Fatalf("second admit while held = %v, %v; want false", ok, err)
	}
	if err := g.Release(ctx, learnerID); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = g.TryAdmit(ctx, learnerID)
	if err != nil || !ok {
		t.Fatalf("admit after release = %v, %v; want true", ok, err)
	}
	_ = g.Release(ctx, learnerID)
}

func TestMemoryGuard_AdmitReleaseCycle(t *testing.T) {
	exerciseGuard(t, NewMemoryGuard(), "X")
}

func TestMemoryGuard_KeysAreIndependent(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()
	if ok, _ := g.TryAdmit(ctx, "A"); !ok {
		t.Fatal("A should be admitted")
	}
	if ok, _ := g.TryAdmit(ctx, "B"); !ok {
		t.Fatal("B should be admitted while A is held")
	}
}

func TestMemoryGuard_ConcurrentAdmitsOnlyOne(t *testing.T) {
	g := NewMemoryGuard()
	var admitted atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if ok, _ := g.TryAdmit(context.Background(), "X"); ok {
				admitted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if n := admitted.Load(); n != 1 {
		t.Fatalf("expected exactly one admission, got %d", n)
	}
	if !g.InFlight("X") {
		t.Fatal("X must be in flight")
	}
}

func TestRedisGuard_AdmitReleaseCycle(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb, err := NewRedisClient(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	g := NewRedisGuard(rdb, time.Minute)
	exerciseGuard(t, g, "test-"+uuid.NewString())

	other := NewRedisGuard(rdb, time.Minute)
	id := "test-" + uuid.NewString()
	if ok, _ := g.TryAdmit(context.Background(), id); !ok {
		t.Fatal("first guard should admit")
	}
	if ok, _ := other.TryAdmit(context.Background(), id); ok {
		t.Fatal("second instance must be rejected while the lease is held")
	}
	_ = g.Release(context.Background(), id)
}
