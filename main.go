// 命令行入口：
// - 加载 .env 与 settings.yaml（环境变量可覆盖）
// - 初始化日志、HTTP 客户端、快照存储与缓存层
// - 默认一次性渲染列表（可导出 JSON）；-serve 启动 HTTP 预览
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"html"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"go-blog-list/internal/cache"
	"go-blog-list/internal/config"
	"go-blog-list/internal/export"
	"go-blog-list/internal/fetch"
	"go-blog-list/internal/logx"
	"go-blog-list/internal/render"
	"go-blog-list/internal/server"
	"go-blog-list/internal/store"
	"go-blog-list/internal/widget"
)

const defaultConfigPath = "settings.yaml"

// sqlite 快照的保留期，超过后启动时清理。
const snapshotRetention = 7 * 24 * time.Hour

func main() {
	os.Exit(run(os.Args[1:]))
}

// run 返回进程退出码；所有 defer 都在退出前执行。
func run(args []string) int {
	fs := flag.NewFlagSet("go-blog-list", flag.ContinueOnError)
	var (
		configPath = fs.String("config", defaultConfigPath, "path to settings.yaml")
		envPath    = fs.String("env", ".env", "path to .env (optional)")
		search     = fs.String("search", "", "search text")
		category   = fs.String("category", "", "category or tag filter")
		sortKey    = fs.String("sort", "none", "sort key: none|date|reading_time|category")
		pages      = fs.Int("pages", 1, "number of pages to show")
		outPath    = fs.String("out", "", "write rendered markup to this file (default stdout)")
		exportPath = fs.String("export", "", "export visible items as json to this path")
		serve      = fs.Bool("serve", false, "start the HTTP preview server")
		resetCache = fs.Bool("reset-cache", false, "drop the cached snapshot before loading")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// 1) .env 仅在存在时加载，已设置的环境变量不会被覆盖
	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load %s: %v", *envPath, err)
	}

	// 2) 加载配置；默认路径的文件不存在时只用默认值与环境变量
	path := *configPath
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Printf("load config: %v", err)
		return 1
	}

	// 3) 日志写 stderr，stdout 留给渲染结果
	logx.Init(logx.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Locale: cfg.LogLocale,
		Color:  cfg.LogColor,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4) HTTP 客户端（代理、超时、重试策略）
	cl, err := fetch.New(fetch.Options{
		ProxyHTTP:  cfg.Proxy.HTTP,
		ProxyHTTPS: cfg.Proxy.HTTPS,
		Timeout:    cfg.Fetch.Timeout,
		UserAgent:  cfg.Fetch.UserAgent,
		Format:     cfg.Source.Format,
		Policy: fetch.Policy{
			MaxAttempts: cfg.Fetch.Attempts,
			BaseDelay:   cfg.Fetch.Backoff,
			Multiplier:  2,
			MaxDelay:    cfg.Fetch.MaxBackoff,
		},
	})
	if err != nil {
		logx.Errorf("http client: %v", err)
		return 1
	}

	if cfg.Source.Discover {
		feedURL, err := cl.DiscoverFeed(ctx, cfg.Source.URL)
		if err != nil {
			logx.Errorf("discover feed: %v", err)
			return 1
		}
		logx.Infof("发现订阅：%s -> %s", cfg.Source.URL, feedURL)
		cfg.Source.URL = feedURL
	}

	// 5) 快照存储：none 时不持久化
	kv, err := store.Open(ctx, store.Options{
		Backend:  cfg.Cache.Backend,
		DSN:      cfg.Cache.DSN,
		RedisURL: cfg.Cache.RedisURL,
		Prefix:   cfg.Cache.Prefix,
	})
	switch {
	case errors.Is(err, store.ErrDisabled):
		kv = nil
	case err != nil:
		logx.Errorf("open store: %v", err)
		return 1
	default:
		defer kv.Close()
	}
	if db, ok := kv.(*store.SQLite); ok {
		if n, err := db.Prune(ctx, time.Now().Add(-snapshotRetention)); err != nil {
			logx.Warnf("清理过期快照失败：%v", err)
		} else if n > 0 {
			logx.Infof("已清理 %d 条过期快照", n)
		}
	}

	layer := cache.New(cl, cache.Options{TTL: cfg.Cache.TTL, Store: kv})
	if *resetCache {
		if err := layer.Invalidate(ctx, cfg.Source.URL); err != nil {
			logx.Warnf("清除快照失败：%v", err)
		} else {
			logx.Infof("已清除快照：%s", cfg.Source.URL)
		}
	}

	if *serve {
		srv := server.New(layer, server.Options{
			Addr:         cfg.Server.Addr,
			URL:          cfg.Source.URL,
			PageSize:     cfg.List.PageSize,
			Excerpt:      cfg.List.Excerpt,
			RefreshEvery: cfg.Server.RefreshEvery,
			RefreshBurst: cfg.Server.RefreshBurst,
			Logger:       logx.From(ctx),
		})
		if cfg.Server.WarmEvery > 0 {
			go func() { _ = layer.Warm(ctx, cfg.Source.URL, cfg.Server.WarmEvery) }()
		}
		if err := srv.Run(ctx); err != nil {
			logx.Errorf("http server: %v", err)
			return 1
		}
		return 0
	}

	// 6) 一次性渲染：按 flags 驱动控制器，结果写入 -out 或 stdout
	view := &outputView{}
	ctrl := widget.New(layer, widget.Container{List: view, Loading: view, Errors: view}, widget.Options{
		URL:      cfg.Source.URL,
		PageSize: cfg.List.PageSize,
		Debounce: cfg.List.Debounce,
		Renderer: render.New(cfg.List.Excerpt),
	})
	defer ctrl.Close()

	logx.Infof("开始加载：%s", cfg.Source.URL)
	initErr := ctrl.Init(ctx)
	if initErr == nil {
		ctrl.SetCategory(*category)
		ctrl.SetSort(*sortKey)
		ctrl.ApplySearch(*search)
		for i := 1; i < *pages && ctrl.HasMore(); i++ {
			ctrl.LoadMore()
		}
		logx.Infof("共 %d 条，显示 %d 条", ctrl.Total(), len(ctrl.Visible()))
	}

	if err := writeOutput(*outPath, view); err != nil {
		logx.Errorf("write output: %v", err)
		return 1
	}
	if initErr != nil {
		return 1
	}

	if *exportPath != "" {
		if err := export.ToJSON(ctx, ctrl.Visible(), ctrl.Query(), ctrl.Stats(), *exportPath); err != nil {
			logx.Errorf("export json: %v", err)
			return 1
		}
		logx.Infof("已导出 %s", *exportPath)
	}
	return 0
}

// outputView 为命令行模式下的容器：收集列表标记与错误文字，加载状态写日志。
type outputView struct {
	html   string
	errMsg string
}

func (v *outputView) SetHTML(markup string) { v.html = markup }
func (v *outputView) ShowError(msg string)  { v.errMsg = msg }
func (v *outputView) Clear()                { v.errMsg = "" }

func (v *outputView) SetLoading(on bool) {
	if on {
		logx.Debugf("加载中…")
	}
}

func writeOutput(path string, v *outputView) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	if v.errMsg != "" {
		_, err := fmt.Fprintf(w, "<div class=\"blog-error\">%s</div>\n", html.EscapeString(v.errMsg))
		return err
	}
	_, err := io.WriteString(w, v.html+"\n")
	return err
}
