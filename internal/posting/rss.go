package posting

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/feeds"

	"github.com/hitoshi/istihdam/internal/model"
)

// DefaultRSSLimit はRSSに含める求人の既定件数。
const DefaultRSSLimit = 50

// BuildRSS は公開中の求人一覧からRSS 2.0文書を生成する。
// 各項目のリンクは {baseURL}/ilanlar/{slug} とし、slugのない求人は一覧ページを指す。
func BuildRSS(baseURL string, postings []*model.Posting) (string, error) {
	base := strings.TrimRight(baseURL, "/")
	feed := &feeds.Feed{
		Title:       "İstihdam Portalı - İş İlanları",
		Link:        &feeds.Link{Href: base + "/ilanlar"},
		Description: "Yayındaki en yeni iş ilanları",
	}

	for _, p := range postings {
		link := base + "/ilanlar"
		if p.Slug != nil {
			link += "/" + *p.Slug
		}
		item := &feeds.Item{
			Id:          p.ExternalID,
			Title:       p.Title,
			Link:        &feeds.Link{Href: link},
			Description: p.Description,
			Created:     p.CreatedAt,
		}
		if p.PublishedAt != nil {
			item.Created = *p.PublishedAt
		}
		if !p.UpdatedAt.IsZero() {
			item.Updated = p.UpdatedAt
		}
		feed.Items = append(feed.Items, item)
	}

	if len(feed.Items) > 0 {
		feed.Created = feed.Items[0].Created
	}

	rss, err := feed.ToRss()
	if err != nil {
		return "", fmt.Errorf("RSSの生成に失敗しました: %w", err)
	}
	return rss, nil
}

// RSS は公開中の最新求人のRSSを返す。
func (s *Service) RSS(ctx context.Context, baseURL string, limit uint64) (string, error) {
	if limit == 0 {
		limit = DefaultRSSLimit
	}
	list, err := s.repo.List(ctx, model.PostingFilter{Status: model.PostingPublished, Limit: limit})
	if err != nil {
		return "", fmt.Errorf("求人一覧の取得に失敗しました: %w", err)
	}
	return BuildRSS(baseURL, list)
}
