package model

import "time"

// Company は企業・事業所（Firma）を表す。
// Slugは作成時に所在地と名前から導出される。
type Company struct {
	ID            string
	OwnerID       *string
	Name          string
	Slug          *string
	LogoPath      string
	Description   string
	Email         string
	Phone         string
	Fax           string
	Website       string
	ProvinceID    *string
	DistrictID    *string
	Address       string
	PostalCode    string
	SectorIDs     []string
	FoundedYear   *int
	EmployeeCount *int
	TaxOffice     string
	TaxNumber     string
	LinkedInURL   string
	TwitterURL    string
	InstagramURL  string
	FacebookURL   string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CompanyFilter は企業一覧の絞り込み条件。
type CompanyFilter struct {
	ProvinceID string
	DistrictID string
	SectorID   string
	Query      string
	ActiveOnly bool
	Limit      uint64
	Offset     uint64
}
