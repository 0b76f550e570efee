package model

import "time"

// Gender は性別を表す。
type Gender string

const (
	GenderMale   Gender = "E"
	GenderFemale Gender = "K"
)

// IsValid は性別が定義済みの値かを判定する。
func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// Citizen は市民アカウントに紐づくプロフィールを表す。
// 1アカウントにつき1件のみ存在する。
type Citizen struct {
	ID                   string
	ExternalID           string
	AccountID            string
	BirthDate            *time.Time
	Gender               Gender
	PhotoPath            string
	Phone                string
	ProvinceID           *string
	DistrictID           *string
	Address              string
	About                string
	ResumePath           string
	IsCraftsman          bool
	IsJobSeeker          bool
	CraftsmanTitle       string
	CraftsmanDescription string
	LinkedInURL          string
	TwitterURL           string
	InstagramURL         string
	FacebookURL          string
	WebsiteURL           string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CitizenSummary は一覧表示用に姓名と居住地名を結合した市民情報。
type CitizenSummary struct {
	Citizen
	FirstName    string
	LastName     string
	ProvinceName string
	DistrictName string
}

// EducationDegree は学歴の学位区分を表す。
type EducationDegree string

const (
	DegreePrimary    EducationDegree = "ilkokul"
	DegreeMiddle     EducationDegree = "ortaokul"
	DegreeHighSchool EducationDegree = "lise"
	DegreeAssociate  EducationDegree = "onlisans"
	DegreeBachelor   EducationDegree = "lisans"
	DegreeMaster     EducationDegree = "yukseklisans"
	DegreeDoctorate  EducationDegree = "doktora"
)

// IsValid は学位区分が定義済みの値かを判定する。
func (d EducationDegree) IsValid() bool {
	switch d {
	case DegreePrimary, DegreeMiddle, DegreeHighSchool, DegreeAssociate,
		DegreeBachelor, DegreeMaster, DegreeDoctorate:
		return true
	}
	return false
}

// Education は学歴を表す。
type Education struct {
	ID         string
	CitizenID  string
	School     string
	Department string
	Degree     EducationDegree
	StartDate  time.Time
	EndDate    *time.Time
	Ongoing    bool
	CreatedAt  time.Time
}

// WorkExperience は職歴を表す。
type WorkExperience struct {
	ID               string
	CitizenID        string
	Company          string
	Position         string
	Description      string
	StartDate        time.Time
	EndDate          *time.Time
	CurrentlyWorking bool
	ReferenceName    string
	ReferencePhone   string
	CreatedAt        time.Time
}

// SkillLevel はスキルの習熟度を表す。
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "baslangic"
	SkillIntermediate SkillLevel = "orta"
	SkillGood         SkillLevel = "iyi"
	SkillVeryGood     SkillLevel = "cokiyi"
	SkillExpert       SkillLevel = "uzman"
)

// IsValid は習熟度が定義済みの値かを判定する。
func (l SkillLevel) IsValid() bool {
	switch l {
	case SkillBeginner, SkillIntermediate, SkillGood, SkillVeryGood, SkillExpert:
		return true
	}
	return false
}

// Skill はスキルを表す。
type Skill struct {
	ID        string
	CitizenID string
	Name      string
	Level     SkillLevel
	CreatedAt time.Time
}

// Certificate は資格・証明書を表す。
type Certificate struct {
	ID          string
	CitizenID   string
	Name        string
	Issuer      string
	IssuedAt    time.Time
	ExpiresAt   *time.Time
	FilePath    string
	Description string
	CreatedAt   time.Time
}

// CraftSpecialty は職人としての専門職業を表す。
// (CitizenID, OccupationID)の組で一意。
type CraftSpecialty struct {
	ID                string
	CitizenID         string
	OccupationID      string
	YearsOfExperience int
	Description       string
	PriceInfo         string
	CreatedAt         time.Time
}

// Weekday は稼働曜日を表す。
type Weekday string

const (
	Monday    Weekday = "pazartesi"
	Tuesday   Weekday = "sali"
	Wednesday Weekday = "carsamba"
	Thursday  Weekday = "persembe"
	Friday    Weekday = "cuma"
	Saturday  Weekday = "cumartesi"
	Sunday    Weekday = "pazar"
)

// IsValid は曜日が定義済みの値かを判定する。
func (d Weekday) IsValid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// WorkingHours は職人の曜日ごとの稼働時間を表す。
// 時刻は "HH:MM" 形式で保持する。(CitizenID, Day)の組で一意。
type WorkingHours struct {
	ID        string
	CitizenID string
	Day       Weekday
	StartTime string
	EndTime   string
	Active    bool
	CreatedAt time.Time
}

// Age は生年月日から基準日時点の満年齢を算出する。
// 基準日の年に誕生日を迎えていない場合は1を引く。
func Age(birthDate, today time.Time) int {
	age := today.Year() - birthDate.Year()
	if today.Month() < birthDate.Month() ||
		(today.Month() == birthDate.Month() && today.Day() < birthDate.Day()) {
		age--
	}
	return age
}

// AgeBucket は管理画面の年齢層フィルタの区分を表す。
type AgeBucket string

const (
	AgeBucket18to25 AgeBucket = "18-25"
	AgeBucket26to35 AgeBucket = "26-35"
	AgeBucket36to45 AgeBucket = "36-45"
	AgeBucket46to55 AgeBucket = "46-55"
	AgeBucket56Plus AgeBucket = "56+"
)

// BirthDateRange は年齢層を基準日時点の生年月日範囲に変換する。
// 戻り値のfromは含む下限、toは含む上限。上限のない区分ではfromがnilになる。
func (b AgeBucket) BirthDateRange(today time.Time) (from, to *time.Time, ok bool) {
	var minAge, maxAge int
	switch b {
	case AgeBucket18to25:
		minAge, maxAge = 18, 25
	case AgeBucket26to35:
		minAge, maxAge = 26, 35
	case AgeBucket36to45:
		minAge, maxAge = 36, 45
	case AgeBucket46to55:
		minAge, maxAge = 46, 55
	case AgeBucket56Plus:
		minAge, maxAge = 56, -1
	default:
		return nil, nil, false
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	// minAge歳以上: 生年月日がminAge年前の今日以前
	upper := day.AddDate(-minAge, 0, 0)
	to = &upper
	if maxAge >= 0 {
		// maxAge歳以下: 生年月日が(maxAge+1)年前の今日より後
		lower := day.AddDate(-(maxAge + 1), 0, 1)
		from = &lower
	}
	return from, to, true
}

// CitizenFilter は市民一覧の絞り込み条件。
// BirthDateFrom/BirthDateToは年齢層から変換した生年月日の範囲（両端を含む）。
type CitizenFilter struct {
	BirthDateFrom  *time.Time
	BirthDateTo    *time.Time
	Gender         Gender
	ProvinceID     string
	Degree         EducationDegree
	HasCertificate *bool
	OccupationID   string
	IsCraftsman    *bool
	IsJobSeeker    *bool
	Query          string
	Limit          uint64
	Offset         uint64
}
