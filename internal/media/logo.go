// Package media は企業ロゴの取得とメディアファイルの保存を提供する。
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/security"
)

const userAgent = "Istihdam/1.0 (+logo fetcher)"

// maxPageSize はロゴ探索時に読み込むHTMLの上限。
const maxPageSize = 1024 * 1024

// Image は取得した画像データ。
type Image struct {
	Data      []byte
	MimeType  string
	SourceURL string
}

// LogoFetcherConfig はロゴ取得の設定。
type LogoFetcherConfig struct {
	Timeout time.Duration
	MaxSize int64
}

// LogoFetcher は企業Webサイトからロゴ画像を探して取得する。
type LogoFetcher struct {
	guard  security.URLGuard
	config LogoFetcherConfig
}

// NewLogoFetcher はLogoFetcherを生成する。
// guardがnilの場合はSSRF対策なしのクライアントを使用する（テスト用）。
func NewLogoFetcher(guard security.URLGuard, config LogoFetcherConfig) *LogoFetcher {
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.MaxSize == 0 {
		config.MaxSize = 2 * 1024 * 1024
	}
	return &LogoFetcher{guard: guard, config: config}
}

func (f *LogoFetcher) client() *http.Client {
	if f.guard != nil {
		return f.guard.NewSafeClient(f.config.Timeout)
	}
	return &http.Client{Timeout: f.config.Timeout}
}

// FetchLogo はWebサイトのHTMLからアイコンリンクを探し、画像を取得する。
// 候補がすべて失敗した場合は /favicon.ico を試す。
func (f *LogoFetcher) FetchLogo(ctx context.Context, siteURL string) (*Image, error) {
	if f.guard != nil {
		if err := f.guard.ValidateURL("website", siteURL); err != nil {
			return nil, err
		}
	}

	client := f.client()
	candidates := f.discover(ctx, client, siteURL)
	if fallback := defaultFaviconURL(siteURL); fallback != "" {
		candidates = append(candidates, fallback)
	}

	for _, candidate := range candidates {
		img, err := f.fetchImage(ctx, client, candidate)
		if err != nil {
			slog.Debug("logo candidate rejected",
				slog.String("url", candidate),
				slog.String("error", err.Error()),
			)
			continue
		}
		return img, nil
	}

	return nil, model.NewFetchFailedError("ロゴ画像が見つかりませんでした")
}

// discover はサイトのトップページからアイコン候補を優先順に返す。
// 取得や解析に失敗した場合は空を返す。
func (f *LogoFetcher) discover(ctx context.Context, client *http.Client, siteURL string) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, siteURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html, */*")

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("logo discovery request failed", slog.String("url", siteURL), slog.String("error", err.Error()))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil
	}
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.Contains(mediaType, "html") {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil
	}
	return ParseIconLinks(body, resp.Request.URL.String())
}

func (f *LogoFetcher) fetchImage(ctx context.Context, client *http.Client, imageURL string) (*Image, error) {
	if f.guard != nil {
		if err := f.guard.ValidateURL("logo", imageURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > f.config.MaxSize {
		return nil, fmt.Errorf("image exceeds %d bytes", f.config.MaxSize)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	mimeType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("not an image: %q", mimeType)
	}

	return &Image{Data: body, MimeType: mimeType, SourceURL: imageURL}, nil
}

// iconRank はrel属性の優先度。値が小さいほど優先する。
func iconRank(rel string) int {
	for _, token := range strings.Fields(rel) {
		switch token {
		case "apple-touch-icon", "apple-touch-icon-precomposed":
			return 0
		}
	}
	for _, token := range strings.Fields(rel) {
		if token == "icon" {
			return 1
		}
	}
	return -1
}

// ParseIconLinks はHTMLのhead内の<link rel="icon">類を解析し、
// apple-touch-icon、icon の順に絶対URLを返す。
func ParseIconLinks(htmlBody []byte, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var touch, icons []string
	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return append(touch, icons...)

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			name := string(tn)
			if name == "body" {
				return append(touch, icons...)
			}
			if name != "link" || !hasAttr {
				continue
			}

			var rel, href string
			for {
				key, val, more := tokenizer.TagAttr()
				switch strings.ToLower(string(key)) {
				case "rel":
					rel = strings.ToLower(string(val))
				case "href":
					href = strings.TrimSpace(string(val))
				}
				if !more {
					break
				}
			}
			if href == "" {
				continue
			}

			ref, err := url.Parse(href)
			if err != nil {
				continue
			}
			resolved := base.ResolveReference(ref).String()

			switch iconRank(rel) {
			case 0:
				touch = append(touch, resolved)
			case 1:
				icons = append(icons, resolved)
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "head" {
				return append(touch, icons...)
			}
		}
	}
}

// defaultFaviconURL はサイトURLから /favicon.ico のURLを組み立てる。
func defaultFaviconURL(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Path = "/favicon.ico"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
