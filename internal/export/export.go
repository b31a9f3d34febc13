// 包 export 将当前可见子集连同查询条件与统计写为 JSON 文件。
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go-blog-list/internal/model"
	"go-blog-list/internal/query"
)

// Document 为导出文件的顶层结构。
type Document struct {
	Stats model.Stats  `json:"stats"`
	Query query.Query  `json:"query"`
	Items []model.Item `json:"items"`
}

// ToJSON 写入带缩进的 JSON 文件；items 为 nil 时写出空数组。
func ToJSON(ctx context.Context, items []model.Item, q query.Query, stats model.Stats, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := Write(f, items, q, stats); err != nil {
		return fmt.Errorf("encode json to %s: %w", path, err)
	}
	return nil
}

// Write 将 Document 编码到 w。
func Write(w io.Writer, items []model.Item, q query.Query, stats model.Stats) error {
	if items == nil {
		items = []model.Item{}
	}
	if q.Sort == "" {
		q.Sort = query.SortNone
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Document{Stats: stats, Query: q, Items: items})
}
