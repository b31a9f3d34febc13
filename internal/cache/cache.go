// 包 cache 维护按 URL 索引的集合快照：TTL 内直接复用，过期或缺失时才访问网络。
// 可选的持久化存储让快照跨进程存活；同一 URL 的并发未命中只触发一次抓取。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"go-blog-list/internal/logx"
	"go-blog-list/internal/metrics"
	"go-blog-list/internal/model"
	"go-blog-list/internal/store"
)

//go:generate mockgen -destination=../mocks/mock_fetcher.go -package=mocks go-blog-list/internal/cache Fetcher

// Fetcher 为网络抓取契约，由 fetch.Client 实现。
type Fetcher interface {
	FetchItems(ctx context.Context, url string) ([]model.Item, error)
}

// DefaultTTL 为未配置时的新鲜期。
const DefaultTTL = 5 * time.Minute

// DefaultFetchTimeout 限制一次共享抓取（含全部重试）的总时长。
const DefaultFetchTimeout = 2 * time.Minute

// CacheReadError 表示持久化条目无法解析。
type CacheReadError struct {
	Key string
	Err error
}

func (e *CacheReadError) Error() string {
	return fmt.Sprintf("cache entry %s unreadable: %v", e.Key, e.Err)
}

func (e *CacheReadError) Unwrap() error { return e.Err }

type Options struct {
	TTL          time.Duration
	FetchTimeout time.Duration
	Store        store.KV // 可选
	Now          func() time.Time
}

// Layer 持有每个 URL 至多一个快照。
type Layer struct {
	fetcher Fetcher
	store   store.KV
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	mu    sync.Mutex
	snaps map[string]model.Snapshot
	group singleflight.Group
}

func New(f Fetcher, opts Options) *Layer {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Layer{
		fetcher: f,
		store:   opts.Store,
		ttl:     opts.TTL,
		timeout: opts.FetchTimeout,
		now:     opts.Now,
		snaps:   make(map[string]model.Snapshot),
	}
}

func storeKey(url string) string { return "snapshot:" + url }

// Collection 返回 url 对应的集合：新鲜快照直接返回；否则尝试持久化副本，最后才抓取。
// 抓取失败时旧快照保持原样，错误原样返回。
func (l *Layer) Collection(ctx context.Context, url string) ([]model.Item, error) {
	now := l.now()
	l.mu.Lock()
	snap, ok := l.snaps[url]
	l.mu.Unlock()
	if ok && snap.Fresh(now, l.ttl) {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return snap.Items, nil
	}

	if ps, ok := l.loadPersisted(ctx, url); ok && ps.Fresh(now, l.ttl) {
		l.mu.Lock()
		l.snaps[url] = ps
		l.mu.Unlock()
		metrics.CacheLookups.WithLabelValues("persisted").Inc()
		logx.Debugf("cache: adopted persisted snapshot for %s (%d items)", url, len(ps.Items))
		return ps.Items, nil
	}

	metrics.CacheLookups.WithLabelValues("miss").Inc()
	return l.fetch(ctx, url)
}

// Refresh 无视新鲜度强制重新抓取。
func (l *Layer) Refresh(ctx context.Context, url string) ([]model.Item, error) {
	return l.fetch(ctx, url)
}

// Snapshot 返回当前内存快照（可能已过期）。
func (l *Layer) Snapshot(url string) (model.Snapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.snaps[url]
	return s, ok
}

// Invalidate 丢弃内存与持久化副本。
func (l *Layer) Invalidate(ctx context.Context, url string) error {
	l.mu.Lock()
	delete(l.snaps, url)
	l.mu.Unlock()
	if l.store == nil {
		return nil
	}
	if err := l.store.Remove(ctx, storeKey(url)); err != nil {
		return fmt.Errorf("invalidate %s: %w", url, err)
	}
	return nil
}

// fetch 合并同一 url 的并发抓取。共享抓取不继承任何调用方的取消，
// 每个调用方只在自己的 ctx 结束时提前返回。
func (l *Layer) fetch(ctx context.Context, url string) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := l.group.DoChan(url, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()
		items, err := l.fetcher.FetchItems(fctx, url)
		if err != nil {
			return nil, err
		}
		snap := model.Snapshot{URL: url, Items: items, FetchedAt: l.now()}
		l.mu.Lock()
		l.snaps[url] = snap
		l.mu.Unlock()
		l.persist(fctx, snap)
		return items, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if _, stale := l.Snapshot(url); stale {
				logx.Warnf("cache: refresh of %s failed, keeping stale snapshot: %v", url, res.Err)
			}
			return nil, res.Err
		}
		return res.Val.([]model.Item), nil
	}
}

// loadPersisted 读取持久化快照；损坏条目会被删除并按未命中处理。
func (l *Layer) loadPersisted(ctx context.Context, url string) (model.Snapshot, bool) {
	if l.store == nil {
		return model.Snapshot{}, false
	}
	key := storeKey(url)
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		logx.Warnf("cache: read %s: %v", key, err)
		return model.Snapshot{}, false
	}
	if !ok {
		return model.Snapshot{}, false
	}
	snap, err := decodeSnapshot(key, raw)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("corrupt").Inc()
		logx.Warnf("%v", err)
		if rerr := l.store.Remove(ctx, key); rerr != nil {
			logx.Warnf("cache: remove %s: %v", key, rerr)
		}
		return model.Snapshot{}, false
	}
	return snap, true
}

func decodeSnapshot(key, raw string) (model.Snapshot, error) {
	var snap model.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return snap, &CacheReadError{Key: key, Err: err}
	}
	if snap.FetchedAt.IsZero() || snap.Items == nil {
		return snap, &CacheReadError{Key: key, Err: errors.New("missing fetched_at or items")}
	}
	return snap, nil
}

func (l *Layer) persist(ctx context.Context, snap model.Snapshot) {
	if l.store == nil {
		return
	}
	b, err := json.Marshal(snap)
	if err != nil {
		logx.Warnf("cache: encode snapshot %s: %v", snap.URL, err)
		return
	}
	if err := l.store.Set(ctx, storeKey(snap.URL), string(b)); err != nil {
		logx.Warnf("cache: persist snapshot %s: %v", snap.URL, err)
	}
}
