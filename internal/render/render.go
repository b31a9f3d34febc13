// 包 render 将可见条目渲染为 HTML 片段并写入容器。
// 所有插值都经过 html/template 的上下文转义，数据中的标记不会被解释。
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"go-blog-list/internal/model"
)

// NoResults 为空列表时的唯一输出。
const NoResults = `<p class="no-results">No blogs found</p>`

// DefaultExcerpt 为摘要默认长度（按字符计）。
const DefaultExcerpt = 160

// Sink 为接收整段标记的容器。
type Sink interface {
	SetHTML(markup string)
}

// Renderer 持有已解析的模板。
type Renderer struct {
	tmpl    *template.Template
	excerpt int
}

// New 创建 Renderer；excerpt<=0 时使用 DefaultExcerpt。
func New(excerpt int) *Renderer {
	if excerpt <= 0 {
		excerpt = DefaultExcerpt
	}
	return &Renderer{
		tmpl:    template.Must(template.New("list").Parse(listTemplate)),
		excerpt: excerpt,
	}
}

var std = New(DefaultExcerpt)

// Render 使用默认 Renderer 渲染并写入 sink。
func Render(sink Sink, items []model.Item) error { return std.Render(sink, items) }

// Render 渲染 items 并整体替换 sink 的内容；模板失败时 sink 不被修改。
func (r *Renderer) Render(sink Sink, items []model.Item) error {
	markup, err := r.Markup(items)
	if err != nil {
		return err
	}
	if sink != nil {
		sink.SetHTML(markup)
	}
	return nil
}

// Markup 返回 items 对应的 HTML 片段。
func (r *Renderer) Markup(items []model.Item) (string, error) {
	if len(items) == 0 {
		return NoResults, nil
	}
	views := make([]itemView, 0, len(items))
	for _, it := range items {
		views = append(views, r.view(it))
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, views); err != nil {
		return "", fmt.Errorf("render items: %w", err)
	}
	return buf.String(), nil
}

type itemView struct {
	ID          string
	Title       string
	Author      string
	Date        string
	Datetime    string
	ReadingTime string
	Excerpt     string
	Tags        []string
	Image       string
}

func (r *Renderer) view(it model.Item) itemView {
	v := itemView{
		ID:          it.ID,
		Title:       it.Title,
		Author:      it.Author,
		Date:        FormatDate(it.PublishedDate),
		ReadingTime: FormatReadingTime(it.ReadingTime),
		Excerpt:     Excerpt(it.Content, r.excerpt),
		Tags:        it.Tags,
	}
	if t, ok := model.ParseDate(it.PublishedDate); ok {
		v.Datetime = t.Format("2006-01-02")
	}
	if ValidImageURL(it.Image) {
		v.Image = strings.TrimSpace(it.Image)
	}
	return v
}

// FormatDate 输出 "Jan 2, 2006"，无法解析时为 "Unknown date"。
func FormatDate(s string) string {
	t, ok := model.ParseDate(s)
	if !ok {
		return "Unknown date"
	}
	return t.Format("Jan 2, 2006")
}

// FormatReadingTime：数值输出 "N min read"，字符串原样（去首尾空白）。
func FormatReadingTime(rt model.ReadingTime) string {
	if rt.IsZero() {
		return ""
	}
	if rt.Numeric {
		return rt.Value + " min read"
	}
	return strings.TrimSpace(rt.Value)
}

// Excerpt 去除 HTML 标签、折叠空白，并截断到 n 个字符（超出时追加 "..."）。
func Excerpt(content string, n int) string {
	text := content
	if strings.ContainsAny(content, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
			doc.Find("script,style").Remove()
			doc.Find(blockTags).AfterHtml(" ")
			text = doc.Text()
		}
	}
	text = strings.Join(strings.Fields(text), " ")
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	rs := []rune(text)
	return strings.TrimRight(string(rs[:n]), " ") + "..."
}

// 这些元素之后补一个空格再取文本。
const blockTags = "br,p,div,li,h1,h2,h3,h4,h5,h6,blockquote,pre,tr,section,article"

// ValidImageURL 仅接受带主机名的 http/https 绝对地址。
func ValidImageURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

const listTemplate = `{{range .}}<article class="blog-item" data-id="{{.ID}}">
  {{- if .Image}}
  <img src="{{.Image}}" alt="{{.Title}}" class="blog-image" loading="lazy" />
  {{- else}}
  <div class="blog-image blog-image-placeholder" aria-hidden="true"></div>
  {{- end}}
  <div class="blog-content">
    <h3 class="blog-title">{{.Title}}</h3>
    <div class="blog-meta">
      <span class="blog-author">{{.Author}}</span>
      <time class="blog-date"{{with .Datetime}} datetime="{{.}}"{{end}}>{{.Date}}</time>
      {{- with .ReadingTime}}
      <span class="blog-reading-time">{{.}}</span>
      {{- end}}
    </div>
    <p class="blog-excerpt">{{.Excerpt}}</p>
    {{- with .Tags}}
    <div class="blog-tags">{{range .}}<span class="tag">{{.}}</span>{{end}}</div>
    {{- end}}
  </div>
</article>
{{end}}`
