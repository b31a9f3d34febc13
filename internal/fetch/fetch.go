// 包 fetch 封装条目接口的 HTTP 抓取：代理、单次超时、有界重试与指数退避，
// 以及响应体到 model.Item 的解码。缓存由上层 cache 包负责。
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go-blog-list/internal/logx"
	"go-blog-list/internal/metrics"
	"go-blog-list/internal/model"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "go-blog-list/1.0 (+https://github.com/go-blog-list)"
	maxBodyBytes     = 16 << 20
)

// Client 为带重试策略的条目抓取客户端。
type Client struct {
	http      *http.Client
	policy    Policy
	timeout   time.Duration
	userAgent string
	decode    Decoder
}

// Options 为客户端构造参数。
type Options struct {
	ProxyHTTP  string
	ProxyHTTPS string
	Timeout    time.Duration // 单次尝试的超时
	Policy     Policy
	UserAgent  string
	Format     string // json|feed
	Transport  http.RoundTripper
}

// New 创建客户端，支持 http/https 代理；零值字段使用默认值。
func New(opts Options) (*Client, error) {
	decode, err := DecoderFor(opts.Format)
	if err != nil {
		return nil, err
	}
	rt := opts.Transport
	if rt == nil {
		rt = &http.Transport{
			Proxy: func(req *http.Request) (*url.URL, error) {
				if req.URL.Scheme == "https" && opts.ProxyHTTPS != "" {
					return url.Parse(opts.ProxyHTTPS)
				}
				if req.URL.Scheme == "http" && opts.ProxyHTTP != "" {
					return url.Parse(opts.ProxyHTTP)
				}
				return http.ProxyFromEnvironment(req)
			},
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Policy.MaxAttempts <= 0 {
		opts.Policy = DefaultPolicy()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	return &Client{
		http:      &http.Client{Transport: rt},
		policy:    opts.Policy,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		decode:    decode,
	}, nil
}

// FetchItems 抓取并解码条目集合。
// 网络错误与非 2xx 状态按策略重试，耗尽后返回 *FetchError；*FormatError 立即返回。
func (c *Client) FetchItems(ctx context.Context, rawURL string) ([]model.Item, error) {
	var items []model.Item
	attempts, err := c.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		got, err := c.attempt(ctx, rawURL)
		if err != nil {
			logx.Debugf("fetch attempt %d/%d failed: %s err=%v", attempt, c.policy.MaxAttempts, rawURL, err)
			return err
		}
		items = got
		return nil
	})
	if err == nil {
		logx.Debugf("fetched %d items from %s (attempts=%d)", len(items), rawURL, attempts)
		return items, nil
	}
	metrics.FetchFailures.Inc()
	var fe *FormatError
	if errors.As(err, &fe) || (ctx.Err() != nil && errors.Is(err, ctx.Err())) {
		return nil, err
	}
	return nil, &FetchError{URL: rawURL, Attempts: attempts, Err: err}
}

// attempt 执行一次带超时的请求；计时器在任何路径上都会随 cancel 释放。
func (c *Client) attempt(ctx context.Context, rawURL string) ([]model.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		// URL 本身无效，重试没有意义
		return nil, &FormatError{URL: rawURL, Reason: "invalid request", Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, application/feed+json, application/rss+xml, application/atom+xml;q=0.9, */*;q=0.5")
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.FetchAttempts.WithLabelValues("network").Inc()
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		metrics.FetchAttempts.WithLabelValues("status").Inc()
		return nil, &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.FetchAttempts.WithLabelValues("network").Inc()
		return nil, &NetworkError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}
	items, err := c.decode(rawURL, body)
	if err != nil {
		metrics.FetchAttempts.WithLabelValues("format").Inc()
		return nil, err
	}
	metrics.FetchAttempts.WithLabelValues("ok").Inc()
	return items, nil
}
