package cache

import (
	"context"
	"testing"
	"time"

	"github.com/prebuiltcheck/backend/internal/domain"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	t.Run("store and retrieve float", func(t *testing.T) {
		if err := cache.Set(ctx, "rate:CAD:USD", 0.73, time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		var got float64
		if err := cache.Get(ctx, "rate:CAD:USD", &got); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != 0.73 {
			t.Errorf("Get() = %v, want 0.73", got)
		}
	})

	t.Run("store and retrieve struct", func(t *testing.T) {
		in := domain.Locale{CountryCode: "CA", Currency: "CAD"}
		if err := cache.Set(ctx, "geo:1.2.3.4", in, time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		var out domain.Locale
		if err := cache.Get(ctx, "geo:1.2.3.4", &out); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if out != in {
			t.Errorf("Get() = %+v, want %+v", out, in)
		}
	})

	t.Run("expired entries are cache misses", func(t *testing.T) {
		if err := cache.Set(ctx, "short", "expires-soon", time.Millisecond); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		time.Sleep(10 * time.Millisecond)

		var got string
		if err := cache.Get(ctx, "short", &got); err != domain.ErrCacheMiss {
			t.Errorf("Get() after expiration error = %v, want ErrCacheMiss", err)
		}
	})
}

func TestMemoryCache_GetMissing(t *testing.T) {
	cache := NewMemoryCache()

	var got string
	err := cache.Get(context.Background(), "missing", &got)
	if err != domain.ErrCacheMiss {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_SetUnencodable(t *testing.T) {
	cache := NewMemoryCache()
	if err := cache.Set(context.Background(), "bad", make(chan int), time.Minute); err == nil {
		t.Error("Set() with channel value error = nil, want error")
	}
}
