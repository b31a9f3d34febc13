package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-blog-list/internal/logx"
)

// 站点未声明 <link> 时依次探测的常见订阅路径。
var feedCandidates = []string{"feed", "feed.xml", "index.xml", "atom.xml", "rss.xml", "feed.json"}

// DiscoverFeed 将站点地址解析为订阅地址：
// site 本身是订阅时原样返回；否则先看 HTML 中 rel=alternate 的 <link>，再探测常见路径。
func (c *Client) DiscoverFeed(ctx context.Context, site string) (string, error) {
	body, ct, err := c.get(ctx, site, 2<<20)
	if err != nil {
		return "", fmt.Errorf("GET site %s: %w", site, err)
	}
	if looksLikeFeed(ct, body) {
		return site, nil
	}

	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		var found string
		doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			rel := strings.ToLower(s.AttrOr("rel", ""))
			typ := strings.ToLower(s.AttrOr("type", ""))
			href := s.AttrOr("href", "")
			if href == "" || !strings.Contains(rel, "alternate") {
				return true
			}
			if strings.Contains(typ, "rss") || strings.Contains(typ, "atom") || strings.Contains(typ, "json") {
				found = resolveURL(site, href, false)
				return false
			}
			return true
		})
		if found != "" && c.probe(ctx, found) {
			logx.Debugf("discovered feed from <link>: %s", found)
			return found, nil
		}
	}

	for _, ref := range feedCandidates {
		for _, u := range []string{resolveURL(site, ref, true), resolveURL(site, "/"+ref, false)} {
			if c.probe(ctx, u) {
				logx.Debugf("discovered feed by probing: %s", u)
				return u, nil
			}
		}
	}
	return "", fmt.Errorf("no feed discovered for %s", site)
}

func (c *Client) probe(ctx context.Context, u string) bool {
	body, ct, err := c.get(ctx, u, 4096)
	if err != nil {
		return false
	}
	return looksLikeFeed(ct, body)
}

// get 执行一次不重试的 GET，返回至多 limit 字节的响应体与 Content-Type。
func (c *Client) get(ctx context.Context, rawURL string, limit int64) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", &NetworkError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, "", &NetworkError{URL: rawURL, Err: err}
	}
	return b, strings.ToLower(resp.Header.Get("Content-Type")), nil
}

// looksLikeFeed 依据 Content-Type 与内容开头判断是否为 RSS/Atom/JSON Feed。
func looksLikeFeed(contentType string, body []byte) bool {
	if strings.Contains(contentType, "rss") || strings.Contains(contentType, "atom") {
		return true
	}
	head := body
	if len(head) > 2048 {
		head = head[:2048]
	}
	lb := bytes.ToLower(head)
	if bytes.Contains(lb, []byte("<rss")) || bytes.Contains(lb, []byte("<feed")) || bytes.Contains(lb, []byte("<rdf")) {
		return true
	}
	return bytes.Contains(lb, []byte("jsonfeed.org/version"))
}

// resolveURL 将 ref 解析为绝对地址；asDir 为 true 时把 base 的路径当作目录。
func resolveURL(base, ref string, asDir bool) string {
	u, err := url.Parse(base)
	if err != nil {
		return ref
	}
	if asDir && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
		ref = strings.TrimPrefix(ref, "/")
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return u.ResolveReference(r).String()
}
