package imagecache

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

type fakeFetcher struct {
	calls map[string]int
	fail  map[string]bool
}

func (f *fakeFetcher) GetThumbnail(_ context.Context, id string) ([]byte, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[id]++
	if f.fail[id] {
		return nil, errors.New("boom")
	}
	return []byte("img-" + id), nil
}

func TestThumbnailCachesOnMiss(t *testing.T) {
	fetcher := &fakeFetcher{}
	p := NewPrefetcher(New(4), fetcher, slog.Default())

	for i := 0; i < 3; i++ {
		data, err := p.Thumbnail(context.Background(), "a")
		if err != nil {
			t.Fatalf("thumbnail: %v", err)
		}
		if string(data) != "img-a" {
			t.Errorf("data = %q", data)
		}
	}
	if fetcher.calls["a"] != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.calls["a"])
	}
}

func TestWarmSkipsCachedAndFailed(t *testing.T) {
	fetcher := &fakeFetcher{fail: map[string]bool{"bad": true}}
	cache := New(4)
	cache.Put("cached", []byte("x"))
	p := NewPrefetcher(cache, fetcher, slog.Default())

	p.Warm(context.Background(), []string{"cached", "bad", "fresh", ""})

	if fetcher.calls["cached"] != 0 {
		t.Error("cached id must not be refetched")
	}
	if _, ok := cache.Get("fresh"); !ok {
		t.Error("fresh id must be cached")
	}
	if _, ok := cache.Get("bad"); ok {
		t.Error("failed fetch must not be cached")
	}
}
