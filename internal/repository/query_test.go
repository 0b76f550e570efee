package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/istihdam/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func assertContains(t *testing.T, sql string, fragments ...string) {
	t.Helper()
	for _, f := range fragments {
		if !strings.Contains(sql, f) {
			t.Errorf("SQLに %q が含まれていません:\n%s", f, sql)
		}
	}
}

func TestCitizenListQuery_AllFilters(t *testing.T) {
	from := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(1998, 1, 1, 0, 0, 0, 0, time.UTC)
	f := model.CitizenFilter{
		BirthDateFrom:  &from,
		BirthDateTo:    &to,
		Gender:         model.GenderFemale,
		ProvinceID:     "il-1",
		Degree:         model.DegreeBachelor,
		HasCertificate: boolPtr(true),
		OccupationID:   "occ-1",
		IsCraftsman:    boolPtr(true),
		Query:          "ayşe",
		Limit:          20,
		Offset:         40,
	}

	sql, args, err := citizenListQuery(f).ToSql()
	if err != nil {
		t.Fatalf("ToSql error: %v", err)
	}

	assertContains(t, sql,
		"FROM citizens c",
		"JOIN accounts a ON a.id = c.account_id",
		"LEFT JOIN provinces p",
		"c.birth_date >= $1",
		"c.birth_date <= $2",
		"EXISTS (SELECT 1 FROM educations e",
		"EXISTS (SELECT 1 FROM certificates ce",
		"EXISTS (SELECT 1 FROM craft_specialties cs",
		"ILIKE",
		"ORDER BY c.created_at DESC",
		"LIMIT 20",
		"OFFSET 40",
	)
	if strings.Contains(sql, "NOT EXISTS") {
		t.Error("HasCertificate=trueでNOT EXISTSが生成された")
	}
	// 生年月日2 + 性別 + 県 + 学位 + 職業 + 職人 + 検索3
	if len(args) != 10 {
		t.Errorf("len(args) = %d, want 10: %v", len(args), args)
	}
}

func TestCitizenListQuery_WithoutCertificate(t *testing.T) {
	sql, args, err := citizenListQuery(model.CitizenFilter{HasCertificate: boolPtr(false)}).ToSql()
	if err != nil {
		t.Fatalf("ToSql error: %v", err)
	}
	assertContains(t, sql, "NOT EXISTS (SELECT 1 FROM certificates ce")
	if len(args) != 0 {
		t.Errorf("len(args) = %d, want 0", len(args))
	}
	if strings.Contains(sql, "LIMIT") {
		t.Error("Limit未指定でLIMITが生成された")
	}
}

func TestCitizenCountQuery(t *testing.T) {
	sql, _, err := citizenCountQuery(model.CitizenFilter{IsCraftsman: boolPtr(true)}).ToSql()
	if err != nil {
		t.Fatalf("ToSql error: %v", err)
	}
	assertContains(t, sql, "SELECT COUNT(*)", "c.is_craftsman = $1")
	if strings.Contains(sql, "ORDER BY") {
		t.Error("件数クエリにORDER BYは不要")
	}
}

func TestPostingListQuery_PublishedOrdering(t *testing.T) {
	f := model.PostingFilter{
		Status:    model.PostingPublished,
		SectorID:  "sec-1",
		Workplace: model.WorkplaceRemote,
		Featured:  boolPtr(true),
		Query:     "go",
		Limit:     10,
	}
	sql, args, err := postingListQuery(f).ToSql()
	if err != nil {
		t.Fatalf("ToSql error: %v", err)
	}
	assertContains(t, sql,
		"featured = ",
		"sector_id = ",
		"status = ",
		"workplace = ",
		"title ILIKE",
		"posting_keywords k",
		"ORDER BY featured DESC, published_at DESC NULLS LAST",
		"LIMIT 10",
	)
	// 等価条件4 + 検索3
	if len(args) != 7 {
		t.Errorf("len(args) = %d, want 7: %v", len(args), args)
	}
}

func TestPostingListQuery_DefaultOrdering(t *testing.T) {
	sql, args, err := postingListQuery(model.PostingFilter{}).ToSql()
	if err != nil {
		t.Fatalf("ToSql error: %v", err)
	}
	assertContains(t, sql, "ORDER BY created_at DESC")
	if strings.Contains(sql, "WHERE") {
		t.Error("条件なしでWHEREが生成された")
	}
	if len(args) != 0 {
		t.Errorf("len(args) = %d, want 0", len(args))
	}
}

func TestCompanyListQuery(t *testing.T) {
	sql, args, err := companyListQuery(model.CompanyFilter{
		ActiveOnly: true,
		SectorID:   "sec-1",
		Query:      "acme",
	}).ToSql()
	if err != nil {
		t.Fatalf("ToSql error: %v", err)
	}
	assertContains(t, sql,
		"active = $1",
		"company_sectors cs WHERE cs.company_id = companies.id AND cs.sector_id = $2",
		"name ILIKE $3",
		"ORDER BY created_at DESC",
	)
	if len(args) != 3 {
		t.Errorf("len(args) = %d, want 3", len(args))
	}
}

func TestApplicationListQuery(t *testing.T) {
	sql, args, err := applicationListQuery(model.ApplicationFilter{
		PostingID:  "post-1",
		Status:     model.ApplicationPending,
		IsFavorite: boolPtr(true),
	}).ToSql()
	if err != nil {
		t.Fatalf("ToSql error: %v", err)
	}
	assertContains(t, sql, "is_favorite = ", "posting_id = ", "status = ", "ORDER BY applied_at DESC")
	if len(args) != 3 {
		t.Errorf("len(args) = %d, want 3", len(args))
	}
}
