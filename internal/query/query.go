// 包 query 根据 (搜索词, 分类, 排序键) 从完整集合计算可见子集。
// 所有函数都是纯函数：不修改输入，每次返回新切片。
package query

import (
	"sort"
	"strings"
	"time"

	"go-blog-list/internal/model"
)

type SortKey string

const (
	SortNone        SortKey = "none"
	SortDate        SortKey = "date"
	SortReadingTime SortKey = "reading_time"
	SortCategory    SortKey = "category"
)

// ParseSortKey 将外部输入映射为 SortKey，未知值一律视为 SortNone。
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortDate:
		return SortDate
	case SortReadingTime, "reading-time", "readingtime":
		return SortReadingTime
	case SortCategory:
		return SortCategory
	default:
		return SortNone
	}
}

// Query 为控制器持有的三元组。
type Query struct {
	Search   string  `json:"search"`
	Category string  `json:"category"`
	Sort     SortKey `json:"sort"`
}

// Compute 依次执行分类过滤、搜索过滤与稳定排序。
func Compute(items []model.Item, q Query) []model.Item {
	out := make([]model.Item, 0, len(items))
	cat := strings.ToLower(strings.TrimSpace(q.Category))
	term := strings.ToLower(strings.TrimSpace(q.Search))
	for _, it := range items {
		if cat != "" && !matchCategory(it, cat) {
			continue
		}
		if term != "" && !matchSearch(it, term) {
			continue
		}
		out = append(out, it)
	}
	sortItems(out, ParseSortKey(string(q.Sort)))
	return out
}

// matchCategory：分类或任一标签与 cat 忽略大小写相等。
func matchCategory(it model.Item, cat string) bool {
	if strings.ToLower(it.Category) == cat {
		return true
	}
	for _, tag := range it.Tags {
		if strings.ToLower(tag) == cat {
			return true
		}
	}
	return false
}

func matchSearch(it model.Item, term string) bool {
	return strings.Contains(strings.ToLower(it.Title), term) ||
		strings.Contains(strings.ToLower(it.Content), term) ||
		strings.Contains(strings.ToLower(it.Author), term)
}

func sortItems(items []model.Item, key SortKey) {
	switch key {
	case SortDate:
		// 日期倒序；无法解析的日期视为最早，排在末尾
		type dated struct {
			it model.Item
			t  time.Time
			ok bool
		}
		ds := make([]dated, len(items))
		for i, it := range items {
			t, ok := it.Published()
			ds[i] = dated{it: it, t: t, ok: ok}
		}
		sort.SliceStable(ds, func(i, j int) bool {
			if ds[i].ok != ds[j].ok {
				return ds[i].ok
			}
			return ds[i].ok && ds[i].t.After(ds[j].t)
		})
		for i := range ds {
			items[i] = ds[i].it
		}
	case SortReadingTime:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].ReadingTime.Minutes() < items[j].ReadingTime.Minutes()
		})
	case SortCategory:
		// 分类升序（忽略大小写），空分类排最后
		sort.SliceStable(items, func(i, j int) bool {
			a, b := strings.ToLower(items[i].Category), strings.ToLower(items[j].Category)
			if (a == "") != (b == "") {
				return b == ""
			}
			return a < b
		})
	}
}

// Categories 汇总可供选择的分类与标签：忽略大小写去重，保留首次出现的写法，按字母排序。
func Categories(items []model.Item) []string {
	seen := make(map[string]bool)
	out := []string{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" || seen[k] {
			return
		}
		seen[k] = true
		out = append(out, s)
	}
	for _, it := range items {
		add(it.Category)
		for _, tag := range it.Tags {
			add(tag)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}
