package cache

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/Leganyst/scheduling-core/internal/availability"
)

var (
	_ availability.SlotCache = (*MemoryCache)(nil)
	_ availability.SlotCache = (*RedisCache)(nil)
)

func exerciseCache(t *testing.T, c availability.SlotCache) {
	t.Helper()
	ctx := context.Background()
	companyID := uuid.New()

	gen, err := c.Generation(ctx, companyID)
	if err != nil || gen != 0 {
		t.Fatalf("initial generation = %d, %v", gen, err)
	}

	key := "slots:" + companyID.String() + ":0:p:-:2026-03-02"
	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("unexpected hit before Set: ok=%v err=%v", ok, err)
	}

	want := []string{"09:00", "09:30"}
	if err := c.Set(ctx, key, want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok || !reflect.DeepEqual(got, want) {
		t.Fatalf("Get = %v, %v, %v", got, ok, err)
	}

	if err := c.Set(ctx, key+"x", []string{}, time.Minute); err != nil {
		t.Fatalf("Set empty: %v", err)
	}
	if got, ok, _ := c.Get(ctx, key+"x"); !ok || len(got) != 0 {
		t.Fatalf("empty answer must be cached, got %v ok=%v", got, ok)
	}

	if err := c.Invalidate(ctx, companyID); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	gen, _ = c.Generation(ctx, companyID)
	if gen != 1 {
		t.Fatalf("generation after invalidate = %d, want 1", gen)
	}
}

func TestMemoryCache(t *testing.T) {
	exerciseCache(t, NewMemoryCache())
}

func TestMemoryCache_Expires(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(context.Background(), "k", []string{"10:00"}, time.Minute)
	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(context.Background(), "k"); ok {
		t.Fatalf("entry must expire")
	}
}

func TestRedisCache(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exerciseCache(t, NewRedisCache(client))
}

func TestNewRedisClient_PingFails(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	if _, err := NewRedisClient(context.Background(), RedisConfig{Addr: addr}); err == nil {
		t.Fatalf("expected ping error")
	}
}
