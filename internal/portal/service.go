// Package portal は公開トップページの集計と静的ページを提供する。
package portal

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/repository"
)

// DefaultFeaturedLimit はトップページに載せる注目求人の件数。
const DefaultFeaturedLimit = 6

// Home はトップページの集計結果。
type Home struct {
	CompanyCount     int
	CraftsmanCount   int
	PostingCount     int
	FeaturedPostings []*model.Posting
}

// Page は静的な案内ページ。
type Page struct {
	Key   string
	Title string
	Body  string
}

var pages = map[string]Page{
	"about": {
		Key:   "about",
		Title: "Hakkımızda",
		Body:  "İstihdam Portalı; iş arayan vatandaşları, ustaları ve işverenleri tek bir yerde buluşturan yerel istihdam platformudur.",
	},
	"contact": {
		Key:   "contact",
		Title: "İletişim",
		Body:  "Sorularınız için çalışma saatleri içinde belediye istihdam masasına başvurabilirsiniz.",
	},
}

// Service はポータルのサービス層。
type Service struct {
	companyRepo repository.CompanyRepository
	citizenRepo repository.CitizenRepository
	postingRepo repository.PostingRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	companyRepo repository.CompanyRepository,
	citizenRepo repository.CitizenRepository,
	postingRepo repository.PostingRepository,
) *Service {
	return &Service{
		companyRepo: companyRepo,
		citizenRepo: citizenRepo,
		postingRepo: postingRepo,
	}
}

// Home は有効な企業数・職人数・公開中の求人数と最新の注目求人を並行に集計する。
func (s *Service) Home(ctx context.Context, featuredLimit uint64) (*Home, error) {
	if featuredLimit == 0 {
		featuredLimit = DefaultFeaturedLimit
	}
	yes := true
	home := &Home{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.companyRepo.Count(gctx, model.CompanyFilter{ActiveOnly: true})
		if err != nil {
			return fmt.Errorf("企業数の取得に失敗しました: %w", err)
		}
		home.CompanyCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.citizenRepo.Count(gctx, model.CitizenFilter{IsCraftsman: &yes})
		if err != nil {
			return fmt.Errorf("職人数の取得に失敗しました: %w", err)
		}
		home.CraftsmanCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.postingRepo.Count(gctx, model.PostingFilter{Status: model.PostingPublished})
		if err != nil {
			return fmt.Errorf("求人数の取得に失敗しました: %w", err)
		}
		home.PostingCount = n
		return nil
	})
	g.Go(func() error {
		list, err := s.postingRepo.List(gctx, model.PostingFilter{
			Status:   model.PostingPublished,
			Featured: &yes,
			Limit:    featuredLimit,
		})
		if err != nil {
			return fmt.Errorf("注目求人の取得に失敗しました: %w", err)
		}
		home.FeaturedPostings = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if home.FeaturedPostings == nil {
		home.FeaturedPostings = []*model.Posting{}
	}
	return home, nil
}

// Page はキーに対応する静的ページを返す。
func (s *Service) Page(key string) (*Page, error) {
	p, ok := pages[key]
	if !ok {
		return nil, model.NewNotFoundError("ページ", key)
	}
	return &p, nil
}
