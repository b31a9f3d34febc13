// 包 server 提供博客列表的 HTTP 预览：服务端渲染页面、JSON 接口、手动刷新与指标。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"go-blog-list/internal/logx"
	"go-blog-list/internal/model"
	"go-blog-list/internal/query"
	"go-blog-list/internal/render"
	"go-blog-list/internal/widget"
)

// maxPages 限制 pages 参数，避免一次渲染过多条目。
const maxPages = 100

// Collections 为服务端依赖的集合来源，由 *cache.Layer 实现。
type Collections interface {
	Collection(ctx context.Context, url string) ([]model.Item, error)
	Refresh(ctx context.Context, url string) ([]model.Item, error)
}

type Options struct {
	Addr         string
	URL          string
	PageSize     int
	Excerpt      int
	RefreshEvery time.Duration // 两次手动刷新的最小间隔
	RefreshBurst int
	Logger       *slog.Logger
}

type Server struct {
	src      Collections
	opts     Options
	renderer *render.Renderer
	limiter  *rate.Limiter
	router   chi.Router
}

func New(src Collections, opts Options) *Server {
	if opts.RefreshEvery <= 0 {
		opts.RefreshEvery = 10 * time.Second
	}
	if opts.RefreshBurst <= 0 {
		opts.RefreshBurst = 1
	}
	s := &Server{
		src:      src,
		opts:     opts,
		renderer: render.New(opts.Excerpt),
		limiter:  rate.NewLimiter(rate.Every(opts.RefreshEvery), opts.RefreshBurst),
	}

	r := chi.NewRouter()
	r.Use(
		chimw.Recoverer,
		requestID,
		logging(opts.Logger),
	)
	r.Get("/", s.handlePage)
	r.Get("/api/items", s.handleItems)
	r.Post("/api/refresh", s.handleRefresh)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Run 监听 Addr，ctx 取消后优雅关闭（最多等待 5 秒）。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logx.Infof("http: listening on %s", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logx.Infof("http: stopped")
	return nil
}

// capture 为单次请求使用的容器：记录列表标记与错误文字。
type capture struct {
	html   string
	errMsg string
}

func (c *capture) SetHTML(markup string) { c.html = markup }
func (c *capture) ShowError(msg string)  { c.errMsg = msg }
func (c *capture) Clear()                { c.errMsg = "" }

// view 用请求参数驱动一个控制器，返回其最终状态。
func (s *Server) view(r *http.Request) (*widget.Controller, *capture, error) {
	cp := &capture{}
	ctrl := widget.New(s.src, widget.Container{List: cp, Errors: cp}, widget.Options{
		URL:      s.opts.URL,
		PageSize: s.opts.PageSize,
		Renderer: s.renderer,
	})
	defer ctrl.Close()

	q := r.URL.Query()
	pages := parsePages(q.Get("pages"))
	if err := ctrl.Init(r.Context()); err != nil {
		return ctrl, cp, err
	}
	ctrl.SetCategory(q.Get("category"))
	ctrl.SetSort(q.Get("sort"))
	ctrl.ApplySearch(q.Get("search"))
	for i := 1; i < pages && ctrl.HasMore(); i++ {
		ctrl.LoadMore()
	}
	return ctrl, cp, nil
}

func parsePages(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	if n > maxPages {
		return maxPages
	}
	return n
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctrl, cp, err := s.view(r)
	q := ctrl.Query()
	data := pageData{
		Query:      q,
		Categories: categoryOptions(ctrl.Categories(), q.Category),
		Sorts:      sortOptions(q.Sort),
		List:       template.HTML(cp.html),
		Error:      cp.errMsg,
		Total:      ctrl.Total(),
		Shown:      len(ctrl.Visible()),
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	} else if ctrl.HasMore() {
		data.MoreURL = moreURL(q, ctrl.Page().PagesShown)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.Execute(w, data); err != nil {
		logx.From(r.Context()).Error("render page", "err", err)
	}
}

type itemsResponse struct {
	Items      []model.Item `json:"items"`
	Total      int          `json:"total"`
	PagesShown int          `json:"pages_shown"`
	HasMore    bool         `json:"has_more"`
	Query      query.Query  `json:"query"`
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	ctrl, _, err := s.view(r)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{
		Items:      ctrl.Visible(),
		Total:      ctrl.Total(),
		PagesShown: ctrl.Page().PagesShown,
		HasMore:    ctrl.HasMore(),
		Query:      ctrl.Query(),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		w.Header().Set("Retry-After", strconv.Itoa(int(s.opts.RefreshEvery.Seconds()+0.5)))
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "refresh rate limit exceeded"})
		return
	}
	items, err := s.src.Refresh(r.Context(), s.opts.URL)
	if err != nil {
		logx.From(r.Context()).Warn("refresh failed", "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	logx.From(r.Context()).Info("collection refreshed", "items", len(items))
	writeJSON(w, http.StatusOK, map[string]any{"items": len(items), "refreshed_at": time.Now().UTC()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
