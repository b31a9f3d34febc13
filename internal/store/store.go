// 包 store 提供快照持久化所用的键值存储：SQLite、Redis 与进程内内存三种实现。
package store

import (
	"context"
	"errors"
	"fmt"
)

//go:generate mockgen -destination=../mocks/mock_kv.go -package=mocks go-blog-list/internal/store KV

// KV 为缓存层依赖的最小键值契约；Get 的第二个返回值表示键是否存在。
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Options 描述如何打开存储。
type Options struct {
	Backend  string // memory|sqlite|redis|none
	DSN      string // sqlite 文件路径
	RedisURL string
	Prefix   string // redis 键前缀
}

// ErrDisabled 表示配置为 none，调用方应以无持久化方式运行。
var ErrDisabled = errors.New("store disabled")

// Open 按 Backend 打开对应实现。
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(opts.DSN)
	case "redis":
		return OpenRedis(ctx, opts.RedisURL, opts.Prefix)
	case "none":
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
