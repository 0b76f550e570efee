package portal

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/repository"
)

type stubCompanyRepo struct {
	repository.CompanyRepository
	lastFilter model.CompanyFilter
}

func (s *stubCompanyRepo) Count(_ context.Context, f model.CompanyFilter) (int, error) {
	s.lastFilter = f
	return 12, nil
}

type stubCitizenRepo struct {
	repository.CitizenRepository
	lastFilter model.CitizenFilter
	err        error
}

func (s *stubCitizenRepo) Count(_ context.Context, f model.CitizenFilter) (int, error) {
	s.lastFilter = f
	return 7, s.err
}

type stubPostingRepo struct {
	repository.PostingRepository
	countFilter model.PostingFilter
	listFilter  model.PostingFilter
}

func (s *stubPostingRepo) Count(_ context.Context, f model.PostingFilter) (int, error) {
	s.countFilter = f
	return 30, nil
}

func (s *stubPostingRepo) List(_ context.Context, f model.PostingFilter) ([]*model.Posting, error) {
	s.listFilter = f
	return []*model.Posting{{ID: "ilan-1", Featured: true, Status: model.PostingPublished}}, nil
}

func TestHome_AggregatesCounts(t *testing.T) {
	companies := &stubCompanyRepo{}
	citizens := &stubCitizenRepo{}
	postings := &stubPostingRepo{}
	svc := NewService(companies, citizens, postings)

	home, err := svc.Home(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if home.CompanyCount != 12 || home.CraftsmanCount != 7 || home.PostingCount != 30 {
		t.Errorf("counts = %d/%d/%d", home.CompanyCount, home.CraftsmanCount, home.PostingCount)
	}
	if len(home.FeaturedPostings) != 1 {
		t.Errorf("featured = %d, want 1", len(home.FeaturedPostings))
	}

	if !companies.lastFilter.ActiveOnly {
		t.Error("company count must be restricted to active companies")
	}
	if citizens.lastFilter.IsCraftsman == nil || !*citizens.lastFilter.IsCraftsman {
		t.Error("craftsman count must filter on the craftsman flag")
	}
	if postings.countFilter.Status != model.PostingPublished {
		t.Errorf("posting count status = %q", postings.countFilter.Status)
	}
	if postings.listFilter.Featured == nil || !*postings.listFilter.Featured {
		t.Error("featured list must filter on the featured flag")
	}
	if postings.listFilter.Limit != DefaultFeaturedLimit {
		t.Errorf("featured limit = %d, want %d", postings.listFilter.Limit, DefaultFeaturedLimit)
	}
}

func TestHome_PropagatesError(t *testing.T) {
	citizens := &stubCitizenRepo{err: errors.New("connection refused")}
	svc := NewService(&stubCompanyRepo{}, citizens, &stubPostingRepo{})

	if _, err := svc.Home(context.Background(), 3); err == nil {
		t.Fatal("expected error")
	}
}

func TestPage(t *testing.T) {
	svc := NewService(nil, nil, nil)

	for _, key := range []string{"about", "contact"} {
		p, err := svc.Page(key)
		if err != nil {
			t.Fatalf("Page(%q): %v", key, err)
		}
		if p.Title == "" || p.Body == "" {
			t.Errorf("Page(%q) is empty", key)
		}
	}

	_, err := svc.Page("yok")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}
