// 包 logx 是对标准库 slog 的薄封装：
// - 支持级别/格式/语言/颜色配置，输出目标可替换（便于测试）
// - 提供 pretty 人读输出（[INFO] 或 [信息] 等标签）
// - 通过 Debugf/Infof/Warnf/Errorf 以及 Into/From（请求级日志器）对外暴露
package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options 为日志初始化参数，零值即 info + pretty + en + auto。
type Options struct {
	Level  string    // debug|info|warn|error|off
	Format string    // pretty|json|text
	Locale string    // en|zh-CN
	Color  string    // auto|always|never
	Output io.Writer // 默认 os.Stdout
}

// Init 按 Options 构造 Handler 并设为 slog 默认日志器，返回该日志器。
func Init(opts Options) *slog.Logger {
	l := slog.New(NewHandler(opts))
	slog.SetDefault(l)
	return l
}

// NewHandler 根据格式返回 slog 内置 Handler 或 PrettyHandler。
func NewHandler(opts Options) slog.Handler {
	w := opts.Output
	if w == nil {
		w = os.Stdout
	}
	lv := ParseLevel(opts.Level)
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv})
	case "text":
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})
	default:
		return NewPrettyHandler(w, lv, opts.Locale, opts.Color)
	}
}

// levelOff 高于任何实际级别，用于静默。
const levelOff = slog.Level(100)

// ParseLevel 将字符串级别解析为 slog.Level，未知值回退到 info。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none", "silent", "off":
		return levelOff
	default:
		return slog.LevelInfo
	}
}

func Debugf(format string, v ...any) { slog.Debug(fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { slog.Info(fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { slog.Warn(fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { slog.Error(fmt.Sprintf(format, v...)) }

type ctxKey struct{}

// Into 将日志器放入 ctx。
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From 取出 ctx 中的日志器，不存在时返回 slog.Default()。
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
