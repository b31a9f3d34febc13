package fetch

import (
	"context"
	"time"
)

// Policy 描述有界重试与指数退避，可复用于任意网络调用。
type Policy struct {
	MaxAttempts int           // 总尝试次数（含首次）
	BaseDelay   time.Duration // 第一次失败后的等待
	Multiplier  float64       // 每次失败后的放大倍数
	MaxDelay    time.Duration // 单次等待上限，0 表示不限
	// Retryable 判定错误是否值得重试；为 nil 时使用包级 Retryable。
	Retryable func(error) bool
}

// DefaultPolicy 为 3 次尝试、500ms 起步翻倍退避。
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Second}
}

// Delay 返回第 attempt 次（从 1 开始）失败后的等待时长。
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 || p.BaseDelay <= 0 {
		return 0
	}
	m := p.Multiplier
	if m < 1 {
		m = 1
	}
	d := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= m
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && time.Duration(d) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Do 执行 op 直到成功、遇到不可重试错误、尝试次数耗尽或 ctx 结束。
// 返回实际尝试次数与最后一次错误；ctx 结束时返回 ctx.Err()。
func (p Policy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = Retryable
	}
	var lastErr error
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return i - 1, err
		}
		lastErr = op(ctx, i)
		if lastErr == nil {
			return i, nil
		}
		if ctx.Err() != nil {
			return i, ctx.Err()
		}
		if !retryable(lastErr) || i == attempts {
			return i, lastErr
		}
		t := time.NewTimer(p.Delay(i))
		select {
		case <-ctx.Done():
			t.Stop()
			return i, ctx.Err()
		case <-t.C:
		}
	}
	return attempts, lastErr
}
