package widget_test

import (
	"context"
	"strings"
	"sync"

	"go-blog-list/internal/model"
	"go-blog-list/internal/widget"
)

// 以下为测试用的容器能力实现，全部并发安全。

type fakeList struct {
	mu      sync.Mutex
	html    string
	renders int
}

func (l *fakeList) SetHTML(markup string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.html = markup
	l.renders++
}

func (l *fakeList) snapshot() (string, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.html, l.renders
}

func (l *fakeList) articles() int {
	h, _ := l.snapshot()
	return strings.Count(h, `<article class="blog-item"`)
}

type fakeLoading struct {
	mu      sync.Mutex
	history []bool
}

func (f *fakeLoading) SetLoading(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, on)
}

func (f *fakeLoading) get() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.history...)
}

type fakeErrors struct {
	mu      sync.Mutex
	msg     string
	cleared int
}

func (f *fakeErrors) ShowError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msg = msg
}

func (f *fakeErrors) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msg = ""
	f.cleared++
}

type fakeInput struct {
	mu sync.Mutex
	fn func(string)
}

func (f *fakeInput) OnChange(fn func(string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fn = fn
}

// fire 模拟用户输入；未注册回调时什么也不做。
func (f *fakeInput) fire(v string) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}

type fakeTrigger struct {
	mu      sync.Mutex
	fn      func()
	visible bool
}

func (f *fakeTrigger) OnTrigger(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fn = fn
}

func (f *fakeTrigger) SetVisible(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = on
}

func (f *fakeTrigger) click() {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (f *fakeTrigger) isVisible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}

type fakeContainer struct {
	list     *fakeList
	loading  *fakeLoading
	errs     *fakeErrors
	search   *fakeInput
	category *fakeInput
	sort     *fakeInput
	more     *fakeTrigger
}

func newFakeContainer() *fakeContainer {
	return &fakeContainer{
		list:     &fakeList{},
		loading:  &fakeLoading{},
		errs:     &fakeErrors{},
		search:   &fakeInput{},
		category: &fakeInput{},
		sort:     &fakeInput{},
		more:     &fakeTrigger{},
	}
}

func (f *fakeContainer) handle() widget.Container {
	return widget.Container{
		List:     f.list,
		Loading:  f.loading,
		Errors:   f.errs,
		Search:   f.search,
		Category: f.category,
		Sort:     f.sort,
		LoadMore: f.more,
	}
}

// fakeSource 按顺序返回预设结果；gate 非 nil 时阻塞到其被关闭。
type fakeSource struct {
	mu      sync.Mutex
	calls   int
	results []sourceResult
	gate    chan struct{}
	entered chan struct{}
}

type sourceResult struct {
	items []model.Item
	err   error
}

func (s *fakeSource) Collection(ctx context.Context, _ string) ([]model.Item, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	gate, entered := s.gate, s.entered
	s.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	return s.results[i].items, s.results[i].err
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
