package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestGuard(t *testing.T) (*RedisGuard, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisGuard(client, time.Minute), s
}

func TestGuardAdmitsFirstCallerOnly(t *testing.T) {
	guard, _ := setupTestGuard(t)
	ctx := context.Background()

	ok, err := guard.Acquire(ctx, "dec_1")
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	ok, err = guard.Acquire(ctx, "dec_1")
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("second acquire must be rejected while the first holds the slot")
	}
}

func TestGuardIsPerDecision(t *testing.T) {
	guard, _ := setupTestGuard(t)
	ctx := context.Background()

	if ok, _ := guard.Acquire(ctx, "dec_1"); !ok {
		t.Fatal("acquire dec_1")
	}
	if ok, _ := guard.Acquire(ctx, "dec_2"); !ok {
		t.Fatal("a different decision must not be blocked")
	}
}

func TestGuardReleaseReopensSlot(t *testing.T) {
	guard, _ := setupTestGuard(t)
	ctx := context.Background()

	if ok, _ := guard.Acquire(ctx, "dec_1"); !ok {
		t.Fatal("acquire")
	}
	if err := guard.Release(ctx, "dec_1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := guard.Acquire(ctx, "dec_1"); !ok {
		t.Fatal("acquire after release must succeed")
	}
}

func TestGuardTTLExpires(t *testing.T) {
	guard, s := setupTestGuard(t)
	ctx := context.Background()

	if ok, _ := guard.Acquire(ctx, "dec_1"); !ok {
		t.Fatal("acquire")
	}
	s.FastForward(2 * time.Minute)
	if ok, _ := guard.Acquire(ctx, "dec_1"); !ok {
		t.Fatal("slot must reopen after the TTL")
	}
}
