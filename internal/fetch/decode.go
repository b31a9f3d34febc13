package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"go-blog-list/internal/model"
)

// Decoder 将响应体解码为条目；失败时返回 *FormatError。
type Decoder func(url string, body []byte) ([]model.Item, error)

// DecoderFor 按配置的来源格式选择解码器：json（默认）或 feed。
func DecoderFor(format string) (Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return DecodeJSON, nil
	case "feed", "rss", "atom":
		return DecodeFeed, nil
	default:
		return nil, fmt.Errorf("unsupported source format: %s", format)
	}
}

// DecodeJSON 要求顶层为 JSON 数组，每个元素为条目对象。
func DecodeJSON(url string, body []byte) ([]model.Item, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &FormatError{URL: url, Reason: "response is not an array"}
	}
	var items []model.Item
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, &FormatError{URL: url, Reason: "invalid item records", Err: err}
	}
	if items == nil {
		items = []model.Item{}
	}
	return model.AssignIDs(items), nil
}

// DecodeFeed 用 gofeed 解析 RSS/Atom/JSON Feed 并归一化为条目。
func DecodeFeed(url string, body []byte) ([]model.Item, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &FormatError{URL: url, Reason: "invalid feed", Err: err}
	}
	items := make([]model.Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		items = append(items, feedItem(it))
	}
	return model.AssignIDs(items), nil
}

func feedItem(it *gofeed.Item) model.Item {
	content := it.Content
	if content == "" {
		content = it.Description
	}
	out := model.Item{
		ID:            strings.TrimSpace(it.GUID),
		Title:         strings.TrimSpace(it.Title),
		Author:        feedAuthor(it),
		Content:       content,
		PublishedDate: feedDate(it),
		ReadingTime:   estimateReadingTime(content),
		Tags:          it.Categories,
	}
	if len(it.Categories) > 0 {
		out.Category = it.Categories[0]
	}
	if it.Image != nil {
		out.Image = it.Image.URL
	}
	return out
}

func feedAuthor(it *gofeed.Item) string {
	if it.Author != nil && it.Author.Name != "" {
		return it.Author.Name
	}
	for _, a := range it.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return ""
}

func feedDate(it *gofeed.Item) string {
	switch {
	case it.PublishedParsed != nil:
		return it.PublishedParsed.UTC().Format(time.RFC3339)
	case it.UpdatedParsed != nil:
		return it.UpdatedParsed.UTC().Format(time.RFC3339)
	default:
		return it.Published
	}
}

// estimateReadingTime 按每分钟 200 词估算，内容为空时返回零值。
func estimateReadingTime(content string) model.ReadingTime {
	text := content
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
		text = doc.Text()
	}
	words := len(strings.Fields(text))
	if words == 0 {
		return model.ReadingTime{}
	}
	mins := int(math.Ceil(float64(words) / 200))
	return model.ReadingTime{Value: fmt.Sprintf("%d min", mins)}
}
