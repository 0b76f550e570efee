package model

import "time"

// Sector は業種（Sektör）を表す。
type Sector struct {
	ID          string
	Name        string
	Slug        *string
	Description string
	CreatedAt   time.Time
}

// Occupation は職業（Meslek）を表す。
// 職人の専門分野や求人の職種分類に使用される。
type Occupation struct {
	ID          string
	Name        string
	Slug        *string
	Description string
	CreatedAt   time.Time
}
