package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// exerciseKV 对任一实现跑一遍 Get/Set/Remove 的基本契约。
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()
	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("get missing: ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}
	if err := kv.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Fatal("key still present after remove")
	}
	if err := kv.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove twice: %v", err)
	}
}

func TestMemory_KV(t *testing.T) {
	exerciseKV(t, NewMemory())
}

func TestSQLite_KV(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()
	exerciseKV(t, s)
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(context.Background(), "snapshot:x", `{"a":1}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = s.Close()

	s2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	v, ok, err := s2.Get(context.Background(), "snapshot:x")
	if err != nil || !ok || v != `{"a":1}` {
		t.Fatalf("after reopen: v=%q ok=%v err=%v", v, ok, err)
	}
}

func TestSQLite_ResetAndPrune(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "t.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	_ = s.Set(ctx, "old", "1")
	s.now = func() time.Time { return base.Add(48 * time.Hour) }
	_ = s.Set(ctx, "new", "2")

	n, err := s.Prune(ctx, base.Add(24*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("prune: n=%d err=%v", n, err)
	}
	if _, ok, _ := s.Get(ctx, "old"); ok {
		t.Fatal("old entry should be pruned")
	}
	if _, ok, _ := s.Get(ctx, "new"); !ok {
		t.Fatal("new entry should survive")
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "new"); ok {
		t.Fatal("not empty after reset")
	}
}

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()
	kv, err := Open(ctx, Options{Backend: "memory"})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := kv.(*Memory); !ok {
		t.Fatalf("memory backend type = %T", kv)
	}
	if _, err := Open(ctx, Options{Backend: "none"}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("none: err=%v", err)
	}
	if _, err := Open(ctx, Options{Backend: "etcd"}); err == nil {
		t.Fatal("unknown backend should fail")
	}
	kv, err = Open(ctx, Options{Backend: "sqlite", DSN: filepath.Join(t.TempDir(), "o.db")})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	_ = kv.Close()
}

// 需要真实 Redis：设置 BLOG_TEST_REDIS_URL 后运行。
func TestRedis_KV(t *testing.T) {
	url := os.Getenv("BLOG_TEST_REDIS_URL")
	if url == "" {
		t.Skip("BLOG_TEST_REDIS_URL not set")
	}
	r, err := OpenRedis(context.Background(), url, "bloglist-test:")
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	defer r.Close()
	exerciseKV(t, r)
}

func TestOpenRedis_BadURL(t *testing.T) {
	if _, err := OpenRedis(context.Background(), "not a url", ""); err == nil {
		t.Fatal("expected parse error")
	}
}
