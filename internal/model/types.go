// 包 model 定义博客列表的数据模型（文章条目/阅读时长/快照）。
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Item 为一条博客文章记录，获取后不可变。
type Item struct {
	ID            string      `json:"id,omitempty"`
	Title         string      `json:"title"`
	Author        string      `json:"author"`
	Content       string      `json:"content"`
	PublishedDate string      `json:"published_date"`
	ReadingTime   ReadingTime `json:"reading_time"`
	Category      string      `json:"category,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
	Image         string      `json:"image,omitempty"`
}

// item 为解码用的宽松结构：每个字段先保留原始 JSON，再逐个转换。
type item struct {
	ID            json.RawMessage `json:"id"`
	Title         json.RawMessage `json:"title"`
	Author        json.RawMessage `json:"author"`
	Content       json.RawMessage `json:"content"`
	PublishedDate json.RawMessage `json:"published_date"`
	ReadingTime   json.RawMessage `json:"reading_time"`
	Category      json.RawMessage `json:"category"`
	Tags          json.RawMessage `json:"tags"`
	Image         json.RawMessage `json:"image"`
}

// UnmarshalJSON 只要求记录本身是对象；单个字段缺失、为 null 或类型不符时取零值，
// 不会让整个集合失效。
func (it *Item) UnmarshalJSON(b []byte) error {
	var raw item
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var rt ReadingTime
	if err := rt.UnmarshalJSON(raw.ReadingTime); err != nil {
		rt = ReadingTime{}
	}
	*it = Item{
		ID:            rawID(raw.ID),
		Title:         rawString(raw.Title),
		Author:        rawString(raw.Author),
		Content:       rawString(raw.Content),
		PublishedDate: rawString(raw.PublishedDate),
		ReadingTime:   rt,
		Category:      rawString(raw.Category),
		Tags:          rawStrings(raw.Tags),
		Image:         rawString(raw.Image),
	}
	return nil
}

// Published 解析发布时间；无法解析时 ok=false。
func (it Item) Published() (time.Time, bool) { return ParseDate(it.PublishedDate) }

// rawID 接受字符串或数字，其余类型视为缺失（随后由 AssignIDs 按位置补齐）。
func rawID(b json.RawMessage) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return ""
	}
	switch b[0] {
	case '"':
		return strings.TrimSpace(rawString(b))
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return ""
		}
		return n.String()
	}
	return ""
}

// rawString 仅接受 JSON 字符串，其余情况返回空串。
func rawString(b json.RawMessage) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ""
	}
	return s
}

// rawStrings 接受字符串数组，忽略其中的非字符串元素；不是数组时返回 nil。
func rawStrings(b json.RawMessage) []string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(b, &elems); err != nil {
		return nil
	}
	var out []string
	for _, e := range elems {
		e = bytes.TrimSpace(e)
		if len(e) > 0 && e[0] == '"' {
			out = append(out, rawString(e))
		}
	}
	return out
}

// AssignIDs 为缺少 ID 的条目按位置（从 1 开始）补齐，返回新切片。
func AssignIDs(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		if it.ID == "" {
			it.ID = strconv.Itoa(i + 1)
		}
		out[i] = it
	}
	return out
}

// ReadingTime 保存自由格式的阅读时长：数字（5）或内嵌数字的字符串（"5 min"）。
type ReadingTime struct {
	Value   string
	Numeric bool
}

var firstInt = regexp.MustCompile(`\d+`)

// Minutes 返回值中出现的第一个整数，缺失或无法解析时为 0。
func (r ReadingTime) Minutes() int {
	m := firstInt.FindString(r.Value)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

func (r ReadingTime) IsZero() bool { return r.Value == "" }

func (r ReadingTime) String() string { return r.Value }

func (r *ReadingTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = ReadingTime{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = ReadingTime{Value: strings.TrimSpace(s)}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("reading_time: %w", err)
	}
	*r = ReadingTime{Value: n.String(), Numeric: true}
	return nil
}

func (r ReadingTime) MarshalJSON() ([]byte, error) {
	if r.Value == "" {
		return []byte("null"), nil
	}
	if r.Numeric {
		if _, err := strconv.ParseFloat(r.Value, 64); err == nil {
			return []byte(r.Value), nil
		}
	}
	return json.Marshal(r.Value)
}

// Snapshot 为一次完整抓取的结果及其抓取时间；整体新鲜或整体过期。
type Snapshot struct {
	URL       string    `json:"url"`
	Items     []Item    `json:"items"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Fresh 判断快照在 ttl 内是否仍然新鲜。
func (s Snapshot) Fresh(now time.Time, ttl time.Duration) bool {
	if s.FetchedAt.IsZero() {
		return false
	}
	return now.Sub(s.FetchedAt) < ttl
}

// Stats 为导出时附带的统计信息。
type Stats struct {
	Total      int       `json:"total"`
	Visible    int       `json:"visible"`
	PagesShown int       `json:"pages_shown"`
	UpdatedAt  time.Time `json:"updated_at"`
}
