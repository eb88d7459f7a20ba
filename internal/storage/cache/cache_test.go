package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryDeduperRemembersLast(t *testing.T) {
	d := NewMemoryDeduper(time.Hour)
	ctx := context.Background()

	if _, ok, _ := d.Last(ctx, "esignature:1"); ok {
		t.Fatal("empty deduper reported a hash")
	}

	d.Remember(ctx, "esignature:1", "aaa")
	d.Remember(ctx, "esignature:1", "bbb")

	got, ok, err := d.Last(ctx, "esignature:1")
	if err != nil || !ok || got != "bbb" {
		t.Errorf("Last = %q, %v, %v; want bbb", got, ok, err)
	}
	if _, ok, _ := d.Last(ctx, "esignature:2"); ok {
		t.Error("keys are not isolated")
	}
}

func TestMemoryDeduperExpires(t *testing.T) {
	d := NewMemoryDeduper(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	d.nowFn = func() time.Time { return now }
	ctx := context.Background()

	d.Remember(ctx, "k", "h")
	now = now.Add(59 * time.Second)
	if _, ok, _ := d.Last(ctx, "k"); !ok {
		t.Fatal("entry expired early")
	}

	now = now.Add(time.Second)
	if _, ok, _ := d.Last(ctx, "k"); ok {
		t.Error("entry outlived its ttl")
	}
}

func TestConnectRejectsBadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "redis://:badport:x/"); err == nil {
		t.Error("expected a parse error")
	}
}
