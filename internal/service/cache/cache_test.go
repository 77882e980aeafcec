package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

type testEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	port, err := strconv.Atoi(mr.Port())
	if err != nil {
		t.Fatalf("miniredis port: %v", err)
	}
	svc, err := NewCacheService(CacheConfig{Host: mr.Host(), Port: port}, nil)
	if err != nil {
		t.Fatalf("NewCacheService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc, mr
}

func TestSetGetRoundTrip(t *testing.T) {
	svc, _ := newTestCache(t)
	ctx := context.Background()

	in := testEntry{Name: "alpha", Count: 3}
	if err := svc.Set(ctx, "k1", in, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var out testEntry
	if err := svc.Get(ctx, "k1", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}
}

func TestGetMissingLeavesDestUntouched(t *testing.T) {
	svc, _ := newTestCache(t)
	ctx := context.Background()

	out := testEntry{Name: "sentinel"}
	if err := svc.Get(ctx, "absent", &out); err != nil {
		t.Fatalf("Get on missing key should not error: %v", err)
	}
	if out.Name != "sentinel" {
		t.Fatalf("dest was modified on miss: %+v", out)
	}
}

func TestSetHonorsTTL(t *testing.T) {
	svc, mr := newTestCache(t)
	ctx := context.Background()

	if err := svc.Set(ctx, "k1", testEntry{Name: "x"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	var out testEntry
	if err := svc.Get(ctx, "k1", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Name != "" {
		t.Fatalf("expected key to expire, got %+v", out)
	}
}

func TestDel(t *testing.T) {
	svc, _ := newTestCache(t)
	ctx := context.Background()

	if err := svc.Set(ctx, "k1", testEntry{Name: "x"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := svc.Del(ctx, "k1"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	var out testEntry
	if err := svc.Get(ctx, "k1", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Name != "" {
		t.Fatalf("expected deleted key to be gone, got %+v", out)
	}
	if err := svc.Del(ctx, "k1"); err != nil {
		t.Fatalf("Del on missing key should not error: %v", err)
	}
}
