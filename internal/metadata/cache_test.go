package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingSource struct {
	calls int
	info  VideoInfo
	err   error
}

func (s *countingSource) Lookup(ctx context.Context, videoID string) (VideoInfo, error) {
	s.calls++
	if s.err != nil {
		return VideoInfo{}, s.err
	}
	return s.info, nil
}

func TestCache_ReadThrough(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	src := &countingSource{info: VideoInfo{Title: "cached", ThumbnailURL: "http://img", DurationLabel: "1:23"}}
	c := NewCache(src, rdb, time.Hour)

	ctx := context.Background()

	first, err := c.Lookup(ctx, "vid00000000")
	if err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	if first != src.info {
		t.Errorf("first lookup = %+v; want %+v", first, src.info)
	}
	if src.calls != 1 {
		t.Fatalf("source calls = %d; want 1", src.calls)
	}

	second, err := c.Lookup(ctx, "vid00000000")
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if second != src.info {
		t.Errorf("second lookup = %+v; want %+v", second, src.info)
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d after cached lookup; want 1", src.calls)
	}
}

func TestCache_SourceErrorNotCached(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	src := &countingSource{err: errors.New("upstream down")}
	c := NewCache(src, rdb, time.Hour)

	ctx := context.Background()
	if _, err := c.Lookup(ctx, "vid00000000"); err == nil {
		t.Fatal("expected error from source")
	}
	if mr.Exists("metadata:vid00000000") {
		t.Error("failed lookup must not be cached")
	}

	// A later successful lookup still works.
	src.err = nil
	src.info = VideoInfo{Title: "recovered"}
	info, err := c.Lookup(ctx, "vid00000000")
	if err != nil {
		t.Fatalf("recovered lookup: %v", err)
	}
	if info.Title != "recovered" {
		t.Errorf("Title = %q; want recovered", info.Title)
	}
}

func TestCache_NilRedis(t *testing.T) {
	src := &countingSource{info: VideoInfo{Title: "direct"}}
	c := NewCache(src, nil, time.Hour)

	info, err := c.Lookup(context.Background(), "vid00000000")
	if err != nil {
		t.Fatalf("lookup without redis: %v", err)
	}
	if info.Title != "direct" {
		t.Errorf("Title = %q; want direct", info.Title)
	}
}
