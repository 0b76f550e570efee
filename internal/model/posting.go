package model

import "time"

// PostingStatus は求人のライフサイクル状態を表す。
type PostingStatus string

const (
	PostingDraft     PostingStatus = "taslak"
	PostingPublished PostingStatus = "yayinda"
	PostingPaused    PostingStatus = "durduruldu"
	PostingClosed    PostingStatus = "sonlandi"
	PostingCancelled PostingStatus = "iptal"
)

// postingTransitions は状態ごとに許可される遷移先を定義する。
// 終端状態（Closed, Cancelled）からの遷移は存在しない。
var postingTransitions = map[PostingStatus][]PostingStatus{
	PostingDraft:     {PostingPublished, PostingCancelled},
	PostingPublished: {PostingPaused, PostingClosed, PostingCancelled},
	PostingPaused:    {PostingPublished, PostingClosed, PostingCancelled},
	PostingClosed:    {},
	PostingCancelled: {},
}

// IsValid は状態が定義済みの値かを判定する。
func (s PostingStatus) IsValid() bool {
	_, ok := postingTransitions[s]
	return ok
}

// IsTerminal は終端状態かを判定する。
func (s PostingStatus) IsTerminal() bool {
	return s == PostingClosed || s == PostingCancelled
}

// CanTransitionTo は現在の状態からtoへの遷移が許可されているかを判定する。
func (s PostingStatus) CanTransitionTo(to PostingStatus) bool {
	for _, allowed := range postingTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// WorkModel は雇用形態を表す。
type WorkModel string

const (
	WorkFullTime   WorkModel = "tam_zamanli"
	WorkPartTime   WorkModel = "yari_zamanli"
	WorkProject    WorkModel = "proje_bazli"
	WorkInternship WorkModel = "stajyer"
	WorkDaily      WorkModel = "gunluk"
	WorkRotational WorkModel = "donusumlu"
)

// IsValid は雇用形態が定義済みの値かを判定する。
func (w WorkModel) IsValid() bool {
	switch w {
	case WorkFullTime, WorkPartTime, WorkProject, WorkInternship, WorkDaily, WorkRotational:
		return true
	}
	return false
}

// Workplace は勤務場所の区分を表す。
type Workplace string

const (
	WorkplaceOffice Workplace = "ofiste"
	WorkplaceRemote Workplace = "uzaktan"
	WorkplaceHybrid Workplace = "hibrit"
)

// IsValid は勤務場所が定義済みの値かを判定する。
func (w Workplace) IsValid() bool {
	return w == WorkplaceOffice || w == WorkplaceRemote || w == WorkplaceHybrid
}

// EducationRequirement は求人が求める最低学歴を表す。
type EducationRequirement string

const (
	EduPrimary    EducationRequirement = "ilkokul"
	EduMiddle     EducationRequirement = "ortaokul"
	EduHighSchool EducationRequirement = "lise"
	EduAssociate  EducationRequirement = "onlisans"
	EduBachelor   EducationRequirement = "lisans"
	EduMaster     EducationRequirement = "yuksek_lisans"
	EduDoctorate  EducationRequirement = "doktora"
	EduAny        EducationRequirement = "farketmez"
)

// IsValid は学歴要件が定義済みの値かを判定する。
func (e EducationRequirement) IsValid() bool {
	switch e {
	case EduPrimary, EduMiddle, EduHighSchool, EduAssociate, EduBachelor, EduMaster, EduDoctorate, EduAny:
		return true
	}
	return false
}

// ExperienceLevel は求人が求める経験レベルを表す。
type ExperienceLevel string

const (
	ExpNone   ExperienceLevel = "deneyimsiz"
	ExpIntern ExperienceLevel = "stajyer"
	ExpJunior ExperienceLevel = "az_tecrubeli"
	ExpMid    ExperienceLevel = "orta_tecrubeli"
	ExpSenior ExperienceLevel = "tecrubeli"
	ExpExpert ExperienceLevel = "uzman"
	ExpAny    ExperienceLevel = "farketmez"
)

// IsValid は経験レベルが定義済みの値かを判定する。
func (e ExperienceLevel) IsValid() bool {
	switch e {
	case ExpNone, ExpIntern, ExpJunior, ExpMid, ExpSenior, ExpExpert, ExpAny:
		return true
	}
	return false
}

// Posting は企業が公開する求人（İş İlanı）を表す。
type Posting struct {
	ID                      string
	ExternalID              string
	Title                   string
	Slug                    *string
	CompanyID               string
	Position                string
	Description             string
	SectorID                *string
	Department              string
	WorkModel               WorkModel
	Workplace               Workplace
	ProvinceID              *string
	DistrictID              *string
	Address                 string
	RequiredQualifications  string
	PreferredQualifications string
	EducationLevel          EducationRequirement
	ExperienceLevel         ExperienceLevel
	SalaryInfo              string
	SalaryHidden            bool
	Benefits                string
	ApplicationStart        *time.Time
	ApplicationEnd          *time.Time
	ExpectedApplications    int
	Headcount               int
	Status                  PostingStatus
	Featured                bool
	ApplicationCount        int
	ViewCount               int
	CreatedAt               time.Time
	UpdatedAt               time.Time
	PublishedAt             *time.Time
}

// SetStatus は状態を書き換え、公開状態に入る場合は公開日時を1度だけ記録する。
// 既に公開日時が設定されている場合は上書きしない。
func (p *Posting) SetStatus(status PostingStatus, now time.Time) {
	p.Status = status
	if status == PostingPublished && p.PublishedAt == nil {
		t := now
		p.PublishedAt = &t
	}
}

// AcceptsApplications は基準日時点で応募を受け付けているかを判定する。
// 受付できない場合はその理由を返す。
func (p *Posting) AcceptsApplications(now time.Time) (bool, string) {
	if p.Status != PostingPublished {
		return false, "求人が公開中ではありません"
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if p.ApplicationStart != nil && today.Before(*p.ApplicationStart) {
		return false, "応募期間が開始していません"
	}
	if p.ApplicationEnd != nil && today.After(*p.ApplicationEnd) {
		return false, "応募期間が終了しています"
	}
	return true, ""
}

// PostingFilter は求人一覧の絞り込み条件。
type PostingFilter struct {
	Status     PostingStatus
	CompanyID  string
	SectorID   string
	ProvinceID string
	DistrictID string
	WorkModel  WorkModel
	Workplace  Workplace
	Featured   *bool
	Query      string
	Limit      uint64
	Offset     uint64
}

// Keyword は求人の検索用キーワードを表す。(PostingID, Keyword)の組で一意。
type Keyword struct {
	ID        string
	PostingID string
	Keyword   string
}

// LanguageLevel は語学要件のレベルを表す。
type LanguageLevel string

const (
	LangBeginner     LanguageLevel = "baslangic"
	LangIntermediate LanguageLevel = "orta"
	LangGood         LanguageLevel = "iyi"
	LangVeryGood     LanguageLevel = "cok_iyi"
	LangAdvanced     LanguageLevel = "ileri"
	LangNative       LanguageLevel = "anadil"
)

// IsValid は語学レベルが定義済みの値かを判定する。
func (l LanguageLevel) IsValid() bool {
	switch l {
	case LangBeginner, LangIntermediate, LangGood, LangVeryGood, LangAdvanced, LangNative:
		return true
	}
	return false
}

// LanguageRequirement は求人の語学要件を表す。(PostingID, Language)の組で一意。
type LanguageRequirement struct {
	ID        string
	PostingID string
	Language  string
	Level     LanguageLevel
	Required  bool
}

// QuestionType はスクリーニング質問の回答形式を表す。
type QuestionType string

const (
	QuestionText           QuestionType = "metin"
	QuestionMultipleChoice QuestionType = "coktan_secmeli"
	QuestionYesNo          QuestionType = "evet_hayir"
)

// IsValid は回答形式が定義済みの値かを判定する。
func (q QuestionType) IsValid() bool {
	return q == QuestionText || q == QuestionMultipleChoice || q == QuestionYesNo
}

// ScreeningQuestion は応募時に回答を求める質問を表す。
// 選択式の場合、Optionsに選択肢を保持する。
type ScreeningQuestion struct {
	ID        string
	PostingID string
	Question  string
	Type      QuestionType
	Options   []string
	Required  bool
	SortOrder int
}
