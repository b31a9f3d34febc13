package cache

import (
	"context"
	"errors"
	"time"

	"go-blog-list/internal/logx"
)

// Warm 立即刷新一次 url，随后每隔 every 刷新，直到 ctx 结束。
// 单次失败只记录日志，旧快照保持可用。
func (l *Layer) Warm(ctx context.Context, url string, every time.Duration) error {
	if every <= 0 {
		return errors.New("warm interval must be > 0")
	}
	lg := logx.From(ctx)
	lg.Info("cache warm start", "url", url, "every", every)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	l.warmOnce(ctx, url)
	for {
		select {
		case <-ctx.Done():
			lg.Info("cache warm stop", "url", url)
			return nil
		case <-ticker.C:
			l.warmOnce(ctx, url)
		}
	}
}

func (l *Layer) warmOnce(ctx context.Context, url string) {
	items, err := l.Refresh(ctx, url)
	if err != nil {
		if ctx.Err() == nil {
			logx.From(ctx).Warn("cache warm failed", "url", url, "err", err)
		}
		return
	}
	logx.From(ctx).Debug("cache warmed", "url", url, "items", len(items))
}
