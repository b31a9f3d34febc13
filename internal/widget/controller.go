// 包 widget 实现博客列表控制器：加载集合、持有查询三元组与分页状态，
// 并在每次输入事件后重新计算可见子集、渲染到容器。
package widget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-blog-list/internal/logx"
	"go-blog-list/internal/model"
	"go-blog-list/internal/paginate"
	"go-blog-list/internal/query"
	"go-blog-list/internal/render"
)

// DefaultDebounce 为搜索输入的默认防抖间隔。
const DefaultDebounce = 250 * time.Millisecond

// Source 提供完整集合，通常为 *cache.Layer。
type Source interface {
	Collection(ctx context.Context, url string) ([]model.Item, error)
}

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Options struct {
	URL      string
	PageSize int
	Debounce time.Duration
	Renderer *render.Renderer // nil 时使用默认摘要长度
}

// Controller 的所有事件处理在同一把锁下串行执行。
type Controller struct {
	src  Source
	view Container
	url  string

	debounce time.Duration
	renderer *render.Renderer

	mu      sync.Mutex
	state   State
	items   []model.Item
	visible []model.Item
	q       query.Query
	page    paginate.State
	wired   bool
	timer   *time.Timer
	gen     uint64 // 每次搜索输入递增，过期的防抖回调据此丢弃
	lastErr error
}

func New(src Source, view Container, opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Renderer == nil {
		opts.Renderer = render.New(render.DefaultExcerpt)
	}
	return &Controller{
		src:      src,
		view:     view,
		url:      opts.URL,
		debounce: opts.Debounce,
		renderer: opts.Renderer,
		page:     paginate.New(opts.PageSize),
		q:        query.Query{Sort: query.SortNone},
	}
}

// Init 加载集合并完成首次渲染。仅在 idle 或 failed 状态下生效，其余状态直接返回 nil。
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle && c.state != StateFailed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateLoading
	c.setLoading(true)
	c.mu.Unlock()

	items, err := c.src.Collection(ctx, c.url)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLoading(false)
	if err != nil {
		c.state = StateFailed
		c.lastErr = err
		c.items, c.visible = nil, nil
		if c.view.Errors != nil {
			c.view.Errors.ShowError("Error: " + err.Error())
		}
		if c.view.List != nil {
			c.view.List.SetHTML("")
		}
		c.setMoreVisible(false)
		logx.From(ctx).Error("blog list load failed", "url", c.url, "err", err)
		return err
	}

	c.state = StateReady
	c.lastErr = nil
	c.items = items
	if c.view.Errors != nil {
		c.view.Errors.Clear()
	}
	c.wire()
	c.recompute()
	logx.From(ctx).Debug("blog list ready", "url", c.url, "items", len(items))
	return nil
}

// wire 只在首次成功加载后注册一次输入回调。
func (c *Controller) wire() {
	if c.wired {
		return
	}
	c.wired = true
	if c.view.Search != nil {
		c.view.Search.OnChange(c.SearchInput)
	}
	if c.view.Category != nil {
		c.view.Category.OnChange(c.SetCategory)
	}
	if c.view.Sort != nil {
		c.view.Sort.OnChange(c.SetSort)
	}
	if c.view.LoadMore != nil {
		c.view.LoadMore.OnTrigger(c.LoadMore)
	}
}

// SearchInput 防抖后应用搜索词；间隔内的多次输入只有最后一次生效。
func (c *Controller) SearchInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	gen := c.gen
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.gen {
			return
		}
		c.timer = nil
		c.q.Search = text
		c.recompute()
	})
}

// ApplySearch 立即应用搜索词，并取消尚未触发的防抖。
func (c *Controller) ApplySearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelPending()
	c.q.Search = text
	c.recompute()
}

func (c *Controller) SetCategory(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.q.Category = category
	c.recompute()
}

// SetSort 接受任意字符串，未知值按 none 处理。
func (c *Controller) SetSort(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.q.Sort = query.ParseSortKey(key)
	c.recompute()
}

// LoadMore 在还有剩余时多显示一页。
func (c *Controller) LoadMore() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return
	}
	next := paginate.Advance(c.page, len(c.visible))
	if next == c.page {
		return
	}
	c.page = next
	c.render()
}

// Close 停止尚未触发的防抖回调。
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelPending()
}

func (c *Controller) cancelPending() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// recompute 需持锁调用；未就绪时只保留三元组的修改。
func (c *Controller) recompute() {
	if c.state != StateReady {
		return
	}
	c.visible = query.Compute(c.items, c.q)
	c.page = paginate.Reset(c.page)
	c.render()
}

func (c *Controller) render() {
	window := paginate.Materialize(c.visible, c.page)
	if c.view.List != nil {
		if err := c.renderer.Render(c.view.List, window); err != nil {
			logx.Warnf("widget: %v", err)
		}
	}
	c.setMoreVisible(paginate.HasMore(c.page, len(c.visible)))
}

func (c *Controller) setLoading(on bool) {
	if c.view.Loading != nil {
		c.view.Loading.SetLoading(on)
	}
}

func (c *Controller) setMoreVisible(on bool) {
	if v, ok := c.view.LoadMore.(Visibility); ok {
		v.SetVisible(on)
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err 返回最近一次加载失败的错误。
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) Query() query.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q
}

func (c *Controller) Page() paginate.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Visible 返回当前分页窗口内的条目副本。
func (c *Controller) Visible() []model.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := paginate.Materialize(c.visible, c.page)
	out := make([]model.Item, len(w))
	copy(out, w)
	return out
}

// Total 返回过滤后（分页前）的条目数。
func (c *Controller) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.visible)
}

func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return paginate.HasMore(c.page, len(c.visible))
}

// Categories 返回已加载集合中可供选择的分类与标签。
func (c *Controller) Categories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return query.Categories(c.items)
}

// Stats 汇总当前状态，供导出使用。
func (c *Controller) Stats() model.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.Stats{
		Total:      len(c.items),
		Visible:    len(paginate.Materialize(c.visible, c.page)),
		PagesShown: c.page.PagesShown,
		UpdatedAt:  time.Now(),
	}
}
