// 包 paginate 实现"加载更多"式分页窗口：可见数量为 PageSize*PagesShown。
package paginate

// DefaultPageSize 为未配置时的每页条数。
const DefaultPageSize = 10

type State struct {
	PageSize   int `json:"page_size"`
	PagesShown int `json:"pages_shown"`
}

// New 返回第一页状态；pageSize<=0 时使用默认值。
func New(pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{PageSize: pageSize, PagesShown: 1}
}

func (s State) limit() int { return s.PageSize * s.PagesShown }

// Materialize 返回 items 的前 min(len, PageSize*PagesShown) 条。
func Materialize[T any](items []T, s State) []T {
	n := s.limit()
	if n > len(items) {
		n = len(items)
	}
	if n < 0 {
		n = 0
	}
	return items[:n:n]
}

// HasMore 报告当前窗口之外是否还有条目。
func HasMore(s State, total int) bool { return s.limit() < total }

// Advance 在还有剩余时多显示一页，否则原样返回。零值 State 先按 New 归一化。
func Advance(s State, total int) State {
	if s.PageSize <= 0 || s.PagesShown <= 0 {
		s = New(s.PageSize)
	}
	if HasMore(s, total) {
		s.PagesShown++
	}
	return s
}

// Reset 回到第一页；查询条件变化后必须调用。PageSize<=0 时使用默认值。
func Reset(s State) State { return New(s.PageSize) }
