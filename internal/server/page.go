package server

import (
	"html/template"
	"net/url"
	"strconv"

	"go-blog-list/internal/query"
)

type sortOption struct {
	Value    string
	Label    string
	Selected bool
}

type categoryOption struct {
	Value    string
	Selected bool
}

type pageData struct {
	Query      query.Query
	Categories []categoryOption
	Sorts      []sortOption
	List       template.HTML // 已由 render 包转义
	Error      string        // 错误区域文字，如 "Error: ..."
	Total      int
	Shown      int
	MoreURL    string
}

func sortOptions(cur query.SortKey) []sortOption {
	opts := []sortOption{
		{Value: string(query.SortNone), Label: "Default"},
		{Value: string(query.SortDate), Label: "Newest"},
		{Value: string(query.SortReadingTime), Label: "Reading time"},
		{Value: string(query.SortCategory), Label: "Category"},
	}
	for i := range opts {
		opts[i].Selected = opts[i].Value == string(cur)
	}
	return opts
}

func categoryOptions(all []string, cur string) []categoryOption {
	out := make([]categoryOption, 0, len(all))
	for _, c := range all {
		out = append(out, categoryOption{Value: c, Selected: c == cur})
	}
	return out
}

// moreURL 生成"加载更多"链接：保留当前条件，pages+1。
func moreURL(q query.Query, pages int) string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Sort != "" && q.Sort != query.SortNone {
		v.Set("sort", string(q.Sort))
	}
	v.Set("pages", strconv.Itoa(pages+1))
	return "/?" + v.Encode()
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Blog</title>
</head>
<body>
<form class="blog-filters" method="get" action="/">
  <input type="search" name="search" value="{{.Query.Search}}" placeholder="Search blogs">
  <select name="category">
    <option value="">All categories</option>
    {{- range .Categories}}
    <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>
    {{- end}}
  </select>
  <select name="sort">
    {{- range .Sorts}}
    <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
    {{- end}}
  </select>
  <button type="submit">Apply</button>
</form>
<div class="blog-error">{{.Error}}</div>
<div class="blog-list">{{.List}}</div>
{{- with .MoreURL}}
<a class="load-more" href="{{.}}">Load more</a>
{{- end}}
<p class="blog-count">{{.Shown}} / {{.Total}}</p>
</body>
</html>
`))
