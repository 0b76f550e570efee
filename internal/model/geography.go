package model

import "time"

// Province は都道府県に相当するトルコの県（İl）を表す。
// Slugは作成時に名前から導出され、以降は凍結される。
type Province struct {
	ID        string
	Name      string
	Slug      *string
	CreatedAt time.Time
}

// District は県に属する郡（İlçe）を表す。
// Slugは県のslugを接頭辞に持ち、一意性は(ProvinceID, Slug)の組で保証される。
type District struct {
	ID         string
	ProvinceID string
	Name       string
	Slug       *string
	CreatedAt  time.Time
}

// Neighborhood は郡に属する地区（Mahalle）を表す。
// 一意性は(DistrictID, Slug)の組で保証される。
type Neighborhood struct {
	ID         string
	DistrictID string
	Name       string
	Slug       *string
	CreatedAt  time.Time
}

// StringPtr は文字列のポインタを返す。空文字列の場合はnilを返す。
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue はポインタが指す文字列を返す。nilの場合は空文字列を返す。
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
