package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"creatorscore/internal/config"
	"creatorscore/internal/model"
)

func openTestStore(t *testing.T, cfg config.CacheConfig) *Store {
	t.Helper()
	if cfg.DBPath == "" {
		cfg.DBPath = t.TempDir() + "/cache.db"
	}
	s, err := Open(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleScore(account string, final float64) model.CompositeScore {
	return model.CompositeScore{
		RunID:        "run-" + account,
		Username:     account,
		FinalScore:   final,
		ItemsScored:  5,
		ItemsTotal:   6,
		CalculatedAt: time.Now().UTC(),
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t, config.CacheConfig{TTLSeconds: 3600, MaxEntries: 10})
	ctx := context.Background()
	want := sampleScore("alice", 123.45)
	if err := s.Put(ctx, "alice", "golang", want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := s.Get(ctx, "alice", "golang")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.FinalScore != want.FinalScore || got.RunID != want.RunID {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestGetMissesByKeyword(t *testing.T) {
	s := openTestStore(t, config.CacheConfig{TTLSeconds: 3600, MaxEntries: 10})
	ctx := context.Background()
	if err := s.Put(ctx, "alice", "golang", sampleScore("alice", 10)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "alice", "cooking"); ok {
		t.Error("different keyword must miss")
	}
	if _, ok, _ := s.Get(ctx, "bob", "golang"); ok {
		t.Error("different account must miss")
	}
}

func TestGetExpiresAfterTTL(t *testing.T) {
	s := openTestStore(t, config.CacheConfig{TTLSeconds: 60, MaxEntries: 10})
	ctx := context.Background()
	if err := s.Put(ctx, "alice", "golang", sampleScore("alice", 10)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, ok, _ := s.Get(ctx, "alice", "golang"); ok {
		t.Error("entry past TTL must miss")
	}
}

func TestPutOverwrites(t *testing.T) {
	s := openTestStore(t, config.CacheConfig{TTLSeconds: 3600, MaxEntries: 10})
	ctx := context.Background()
	if err := s.Put(ctx, "alice", "golang", sampleScore("alice", 10)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "alice", "golang", sampleScore("alice", 99)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err := s.Get(ctx, "alice", "golang")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.FinalScore != 99 {
		t.Errorf("FinalScore = %.1f, want 99", got.FinalScore)
	}
}

func TestPrune(t *testing.T) {
	s := openTestStore(t, config.CacheConfig{TTLSeconds: 3600, MaxEntries: 2})
	ctx := context.Background()
	base := time.Now()
	for i, account := range []string{"a", "b", "c"} {
		tick := base.Add(time.Duration(i) * time.Second)
		s.now = func() time.Time { return tick }
		if err := s.Put(ctx, account, "golang", sampleScore(account, float64(i))); err != nil {
			t.Fatalf("Put %s: %v", account, err)
		}
	}
	s.now = time.Now
	if _, ok, _ := s.Get(ctx, "a", "golang"); ok {
		t.Error("oldest entry should have been pruned")
	}
	for _, account := range []string{"b", "c"} {
		if _, ok, _ := s.Get(ctx, account, "golang"); !ok {
			t.Errorf("entry %s should survive pruning", account)
		}
	}
}

func TestPurge(t *testing.T) {
	s := openTestStore(t, config.CacheConfig{TTLSeconds: 3600, MaxEntries: 10})
	ctx := context.Background()
	s.Put(ctx, "alice", "golang", sampleScore("alice", 10))
	s.Put(ctx, "bob", "golang", sampleScore("bob", 20))
	n, err := s.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n != 2 {
		t.Errorf("purged = %d, want 2", n)
	}
	if _, ok, _ := s.Get(ctx, "alice", "golang"); ok {
		t.Error("cache should be empty after purge")
	}
}

func TestRecordRun(t *testing.T) {
	s := openTestStore(t, config.CacheConfig{TTLSeconds: 3600, MaxEntries: 10})
	ctx := context.Background()
	if err := s.RecordRun(ctx, "alice", "golang", sampleScore("alice", 10)); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	// Same run ID twice violates the primary key.
	if err := s.RecordRun(ctx, "alice", "golang", sampleScore("alice", 10)); err == nil {
		t.Error("duplicate run id should fail")
	}
}
