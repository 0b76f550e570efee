package handler

import (
	"time"

	"github.com/hitoshi/istihdam/internal/citizen"
	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/posting"
)

// --- 地理・分類 ---

type provinceResponse struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Slug *string `json:"slug"`
}

type districtResponse struct {
	ID         string  `json:"id"`
	ProvinceID string  `json:"province_id"`
	Name       string  `json:"name"`
	Slug       *string `json:"slug"`
}

type neighborhoodResponse struct {
	ID         string  `json:"id"`
	DistrictID string  `json:"district_id"`
	Name       string  `json:"name"`
	Slug       *string `json:"slug"`
}

type termResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        *string `json:"slug"`
	Description string  `json:"description"`
}

func toProvinceResponse(p *model.Province) provinceResponse {
	return provinceResponse{ID: p.ID, Name: p.Name, Slug: p.Slug}
}

func toDistrictResponse(d *model.District) districtResponse {
	return districtResponse{ID: d.ID, ProvinceID: d.ProvinceID, Name: d.Name, Slug: d.Slug}
}

func toNeighborhoodResponse(n *model.Neighborhood) neighborhoodResponse {
	return neighborhoodResponse{ID: n.ID, DistrictID: n.DistrictID, Name: n.Name, Slug: n.Slug}
}

func toSectorResponse(s *model.Sector) termResponse {
	return termResponse{ID: s.ID, Name: s.Name, Slug: s.Slug, Description: s.Description}
}

func toOccupationResponse(o *model.Occupation) termResponse {
	return termResponse{ID: o.ID, Name: o.Name, Slug: o.Slug, Description: o.Description}
}

// mapSlice はスライスの各要素をレスポンス型に変換する。nilは空スライスにする。
func mapSlice[S any, T any](in []S, fn func(S) T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

// --- アカウント ---

type accountResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	AccountType string     `json:"account_type"`
	IsStaff     bool       `json:"is_staff"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toAccountResponse(a *model.Account) accountResponse {
	return accountResponse{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		AccountType: string(a.AccountType),
		IsStaff:     a.IsStaff,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
	}
}

// --- 市民 ---

type citizenResponse struct {
	ID                   string    `json:"id"`
	ExternalID           string    `json:"external_id"`
	AccountID            string    `json:"account_id"`
	BirthDate            string    `json:"birth_date,omitempty"`
	Gender               string    `json:"gender,omitempty"`
	PhotoPath            string    `json:"photo_path,omitempty"`
	Phone                string    `json:"phone,omitempty"`
	ProvinceID           *string   `json:"province_id"`
	DistrictID           *string   `json:"district_id"`
	Address              string    `json:"address,omitempty"`
	About                string    `json:"about,omitempty"`
	ResumePath           string    `json:"resume_path,omitempty"`
	IsCraftsman          bool      `json:"is_craftsman"`
	IsJobSeeker          bool      `json:"is_job_seeker"`
	CraftsmanTitle       string    `json:"craftsman_title,omitempty"`
	CraftsmanDescription string    `json:"craftsman_description,omitempty"`
	LinkedInURL          string    `json:"linkedin_url,omitempty"`
	TwitterURL           string    `json:"twitter_url,omitempty"`
	InstagramURL         string    `json:"instagram_url,omitempty"`
	FacebookURL          string    `json:"facebook_url,omitempty"`
	WebsiteURL           string    `json:"website_url,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toCitizenResponse(c *model.Citizen) citizenResponse {
	return citizenResponse{
		ID:                   c.ID,
		ExternalID:           c.ExternalID,
		AccountID:            c.AccountID,
		BirthDate:            formatDate(c.BirthDate),
		Gender:               string(c.Gender),
		PhotoPath:            c.PhotoPath,
		Phone:                c.Phone,
		ProvinceID:           c.ProvinceID,
		DistrictID:           c.DistrictID,
		Address:              c.Address,
		About:                c.About,
		ResumePath:           c.ResumePath,
		IsCraftsman:          c.IsCraftsman,
		IsJobSeeker:          c.IsJobSeeker,
		CraftsmanTitle:       c.CraftsmanTitle,
		CraftsmanDescription: c.CraftsmanDescription,
		LinkedInURL:          c.LinkedInURL,
		TwitterURL:           c.TwitterURL,
		InstagramURL:         c.InstagramURL,
		FacebookURL:          c.FacebookURL,
		WebsiteURL:           c.WebsiteURL,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

type citizenSummaryResponse struct {
	citizenResponse
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ProvinceName string `json:"province_name,omitempty"`
	DistrictName string `json:"district_name,omitempty"`
}

func toCitizenSummaryResponse(s *model.CitizenSummary) citizenSummaryResponse {
	return citizenSummaryResponse{
		citizenResponse: toCitizenResponse(&s.Citizen),
		FirstName:       s.FirstName,
		LastName:        s.LastName,
		ProvinceName:    s.ProvinceName,
		DistrictName:    s.DistrictName,
	}
}

type educationResponse struct {
	ID         string `json:"id"`
	School     string `json:"school"`
	Department string `json:"department,omitempty"`
	Degree     string `json:"degree"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date,omitempty"`
	Ongoing    bool   `json:"ongoing"`
}

type workExperienceResponse struct {
	ID               string `json:"id"`
	Company          string `json:"company"`
	Position         string `json:"position"`
	Description      string `json:"description,omitempty"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date,omitempty"`
	CurrentlyWorking bool   `json:"currently_working"`
	ReferenceName    string `json:"reference_name,omitempty"`
	ReferencePhone   string `json:"reference_phone,omitempty"`
}

type skillResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level string `json:"level"`
}

type certificateResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Issuer      string `json:"issuer,omitempty"`
	IssuedAt    string `json:"issued_at"`
	ExpiresAt   string `json:"expires_at,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
	Description string `json:"description,omitempty"`
}

type craftSpecialtyResponse struct {
	ID                string `json:"id"`
	OccupationID      string `json:"occupation_id"`
	YearsOfExperience int    `json:"years_of_experience"`
	Description       string `json:"description,omitempty"`
	PriceInfo         string `json:"price_info,omitempty"`
}

type workingHoursResponse struct {
	ID        string `json:"id"`
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Active    bool   `json:"active"`
}

func toEducationResponse(e *model.Education) educationResponse {
	return educationResponse{
		ID:         e.ID,
		School:     e.School,
		Department: e.Department,
		Degree:     string(e.Degree),
		StartDate:  formatDate(&e.StartDate),
		EndDate:    formatDate(e.EndDate),
		Ongoing:    e.Ongoing,
	}
}

func toWorkExperienceResponse(x *model.WorkExperience) workExperienceResponse {
	return workExperienceResponse{
		ID:               x.ID,
		Company:          x.Company,
		Position:         x.Position,
		Description:      x.Description,
		StartDate:        formatDate(&x.StartDate),
		EndDate:          formatDate(x.EndDate),
		CurrentlyWorking: x.CurrentlyWorking,
		ReferenceName:    x.ReferenceName,
		ReferencePhone:   x.ReferencePhone,
	}
}

func toSkillResponse(s *model.Skill) skillResponse {
	return skillResponse{ID: s.ID, Name: s.Name, Level: string(s.Level)}
}

func toCertificateResponse(c *model.Certificate) certificateResponse {
	return certificateResponse{
		ID:          c.ID,
		Name:        c.Name,
		Issuer:      c.Issuer,
		IssuedAt:    formatDate(&c.IssuedAt),
		ExpiresAt:   formatDate(c.ExpiresAt),
		FilePath:    c.FilePath,
		Description: c.Description,
	}
}

func toCraftSpecialtyResponse(cs *model.CraftSpecialty) craftSpecialtyResponse {
	return craftSpecialtyResponse{
		ID:                cs.ID,
		OccupationID:      cs.OccupationID,
		YearsOfExperience: cs.YearsOfExperience,
		Description:       cs.Description,
		PriceInfo:         cs.PriceInfo,
	}
}

func toWorkingHoursResponse(h *model.WorkingHours) workingHoursResponse {
	return workingHoursResponse{ID: h.ID, Day: string(h.Day), StartTime: h.StartTime, EndTime: h.EndTime, Active: h.Active}
}

type profileResponse struct {
	citizenResponse
	Age              *int                     `json:"age"`
	Educations       []educationResponse      `json:"educations"`
	WorkExperiences  []workExperienceResponse `json:"work_experiences"`
	Skills           []skillResponse          `json:"skills"`
	Certificates     []certificateResponse    `json:"certificates"`
	CraftSpecialties []craftSpecialtyResponse `json:"craft_specialties"`
	WorkingHours     []workingHoursResponse   `json:"working_hours"`
}

func toProfileResponse(p *citizen.Profile) profileResponse {
	return profileResponse{
		citizenResponse:  toCitizenResponse(p.Citizen),
		Age:              p.Age,
		Educations:       mapSlice(p.Educations, toEducationResponse),
		WorkExperiences:  mapSlice(p.WorkExperiences, toWorkExperienceResponse),
		Skills:           mapSlice(p.Skills, toSkillResponse),
		Certificates:     mapSlice(p.Certificates, toCertificateResponse),
		CraftSpecialties: mapSlice(p.CraftSpecialties, toCraftSpecialtyResponse),
		WorkingHours:     mapSlice(p.WorkingHours, toWorkingHoursResponse),
	}
}

// --- 企業 ---

type companyResponse struct {
	ID            string    `json:"id"`
	OwnerID       *string   `json:"owner_id"`
	Name          string    `json:"name"`
	Slug          *string   `json:"slug"`
	LogoPath      string    `json:"logo_path,omitempty"`
	Description   string    `json:"description,omitempty"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Fax           string    `json:"fax,omitempty"`
	Website       string    `json:"website,omitempty"`
	ProvinceID    *string   `json:"province_id"`
	DistrictID    *string   `json:"district_id"`
	Address       string    `json:"address,omitempty"`
	PostalCode    string    `json:"postal_code,omitempty"`
	SectorIDs     []string  `json:"sector_ids"`
	FoundedYear   *int      `json:"founded_year"`
	EmployeeCount *int      `json:"employee_count"`
	TaxOffice     string    `json:"tax_office,omitempty"`
	TaxNumber     string    `json:"tax_number,omitempty"`
	LinkedInURL   string    `json:"linkedin_url,omitempty"`
	TwitterURL    string    `json:"twitter_url,omitempty"`
	InstagramURL  string    `json:"instagram_url,omitempty"`
	FacebookURL   string    `json:"facebook_url,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toCompanyResponse(c *model.Company) companyResponse {
	sectors := c.SectorIDs
	if sectors == nil {
		sectors = []string{}
	}
	return companyResponse{
		ID:            c.ID,
		OwnerID:       c.OwnerID,
		Name:          c.Name,
		Slug:          c.Slug,
		LogoPath:      c.LogoPath,
		Description:   c.Description,
		Email:         c.Email,
		Phone:         c.Phone,
		Fax:           c.Fax,
		Website:       c.Website,
		ProvinceID:    c.ProvinceID,
		DistrictID:    c.DistrictID,
		Address:       c.Address,
		PostalCode:    c.PostalCode,
		SectorIDs:     sectors,
		FoundedYear:   c.FoundedYear,
		EmployeeCount: c.EmployeeCount,
		TaxOffice:     c.TaxOffice,
		TaxNumber:     c.TaxNumber,
		LinkedInURL:   c.LinkedInURL,
		TwitterURL:    c.TwitterURL,
		InstagramURL:  c.InstagramURL,
		FacebookURL:   c.FacebookURL,
		Active:        c.Active,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// --- 求人 ---

type postingResponse struct {
	ID                      string     `json:"id"`
	ExternalID              string     `json:"external_id"`
	Title                   string     `json:"title"`
	Slug                    *string    `json:"slug"`
	CompanyID               string     `json:"company_id"`
	Position                string     `json:"position"`
	Description             string     `json:"description,omitempty"`
	SectorID                *string    `json:"sector_id"`
	Department              string     `json:"department,omitempty"`
	WorkModel               string     `json:"work_model"`
	Workplace               string     `json:"workplace"`
	ProvinceID              *string    `json:"province_id"`
	DistrictID              *string    `json:"district_id"`
	Address                 string     `json:"address,omitempty"`
	RequiredQualifications  string     `json:"required_qualifications,omitempty"`
	PreferredQualifications string     `json:"preferred_qualifications,omitempty"`
	EducationLevel          string     `json:"education_level"`
	ExperienceLevel         string     `json:"experience_level"`
	SalaryInfo              string     `json:"salary_info,omitempty"`
	SalaryHidden            bool       `json:"salary_hidden"`
	Benefits                string     `json:"benefits,omitempty"`
	ApplicationStart        string     `json:"application_start,omitempty"`
	ApplicationEnd          string     `json:"application_end,omitempty"`
	ExpectedApplications    int        `json:"expected_applications"`
	Headcount               int        `json:"headcount"`
	Status                  string     `json:"status"`
	Featured                bool       `json:"featured"`
	ApplicationCount        int        `json:"application_count"`
	ViewCount               int        `json:"view_count"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
	PublishedAt             *time.Time `json:"published_at"`
}

// toPostingResponse は求人をレスポンス型に変換する。
// 公開向けでは給与非公開の求人の給与情報を出さない。
func toPostingResponse(p *model.Posting, public bool) postingResponse {
	salary := p.SalaryInfo
	if public && p.SalaryHidden {
		salary = ""
	}
	return postingResponse{
		ID:                      p.ID,
		ExternalID:              p.ExternalID,
		Title:                   p.Title,
		Slug:                    p.Slug,
		CompanyID:               p.CompanyID,
		Position:                p.Position,
		Description:             p.Description,
		SectorID:                p.SectorID,
		Department:              p.Department,
		WorkModel:               string(p.WorkModel),
		Workplace:               string(p.Workplace),
		ProvinceID:              p.ProvinceID,
		DistrictID:              p.DistrictID,
		Address:                 p.Address,
		RequiredQualifications:  p.RequiredQualifications,
		PreferredQualifications: p.PreferredQualifications,
		EducationLevel:          string(p.EducationLevel),
		ExperienceLevel:         string(p.ExperienceLevel),
		SalaryInfo:              salary,
		SalaryHidden:            p.SalaryHidden,
		Benefits:                p.Benefits,
		ApplicationStart:        formatDate(p.ApplicationStart),
		ApplicationEnd:          formatDate(p.ApplicationEnd),
		ExpectedApplications:    p.ExpectedApplications,
		Headcount:               p.Headcount,
		Status:                  string(p.Status),
		Featured:                p.Featured,
		ApplicationCount:        p.ApplicationCount,
		ViewCount:               p.ViewCount,
		CreatedAt:               p.CreatedAt,
		UpdatedAt:               p.UpdatedAt,
		PublishedAt:             p.PublishedAt,
	}
}

func toPublicPostingResponse(p *model.Posting) postingResponse { return toPostingResponse(p, true) }

func toAdminPostingResponse(p *model.Posting) postingResponse { return toPostingResponse(p, false) }

type keywordResponse struct {
	ID      string `json:"id"`
	Keyword string `json:"keyword"`
}

type languageResponse struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	Level    string `json:"level"`
	Required bool   `json:"required"`
}

type questionResponse struct {
	ID        string   `json:"id"`
	Question  string   `json:"question"`
	Type      string   `json:"type"`
	Options   []string `json:"options"`
	Required  bool     `json:"required"`
	SortOrder int      `json:"sort_order"`
}

func toKeywordResponse(k *model.Keyword) keywordResponse {
	return keywordResponse{ID: k.ID, Keyword: k.Keyword}
}

func toLanguageResponse(l *model.LanguageRequirement) languageResponse {
	return languageResponse{ID: l.ID, Language: l.Language, Level: string(l.Level), Required: l.Required}
}

func toQuestionResponse(q *model.ScreeningQuestion) questionResponse {
	options := q.Options
	if options == nil {
		options = []string{}
	}
	return questionResponse{ID: q.ID, Question: q.Question, Type: string(q.Type), Options: options, Required: q.Required, SortOrder: q.SortOrder}
}

type postingDetailResponse struct {
	postingResponse
	Keywords  []keywordResponse  `json:"keywords"`
	Languages []languageResponse `json:"languages"`
	Questions []questionResponse `json:"questions"`
}

func toPostingDetailResponse(d *posting.Detail, public bool) postingDetailResponse {
	return postingDetailResponse{
		postingResponse: toPostingResponse(d.Posting, public),
		Keywords:        mapSlice(d.Keywords, toKeywordResponse),
		Languages:       mapSlice(d.Languages, toLanguageResponse),
		Questions:       mapSlice(d.Questions, toQuestionResponse),
	}
}

// --- 応募 ---

type applicationResponse struct {
	ID           string     `json:"id"`
	ExternalID   string     `json:"external_id"`
	PostingID    string     `json:"posting_id"`
	CitizenID    string     `json:"citizen_id"`
	ResumePath   string     `json:"resume_path,omitempty"`
	CoverLetter  string     `json:"cover_letter,omitempty"`
	Status       string     `json:"status"`
	Evaluation   string     `json:"evaluation,omitempty"`
	Score        *int       `json:"score"`
	IsRead       bool       `json:"is_read"`
	IsFavorite   bool       `json:"is_favorite"`
	AppliedAt    time.Time  `json:"applied_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastActionAt *time.Time `json:"last_action_at"`
}

// toApplicationResponse は応募をレスポンス型に変換する。
// 市民本人向けでは企業側の評価・スコア・既読・お気に入りを出さない。
func toApplicationResponse(a *model.Application, reviewer bool) applicationResponse {
	resp := applicationResponse{
		ID:           a.ID,
		ExternalID:   a.ExternalID,
		PostingID:    a.PostingID,
		CitizenID:    a.CitizenID,
		ResumePath:   a.ResumePath,
		CoverLetter:  a.CoverLetter,
		Status:       string(a.Status),
		AppliedAt:    a.AppliedAt,
		UpdatedAt:    a.UpdatedAt,
		LastActionAt: a.LastActionAt,
	}
	if reviewer {
		resp.Evaluation = a.Evaluation
		resp.Score = a.Score
		resp.IsRead = a.IsRead
		resp.IsFavorite = a.IsFavorite
	}
	return resp
}

func toReviewerApplicationResponse(a *model.Application) applicationResponse {
	return toApplicationResponse(a, true)
}

func toOwnApplicationResponse(a *model.Application) applicationResponse {
	return toApplicationResponse(a, false)
}

type answerResponse struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

func toAnswerResponse(a *model.Answer) answerResponse {
	return answerResponse{QuestionID: a.QuestionID, Answer: a.Answer}
}

// --- 採用結果 ---

type outcomeResponse struct {
	ID                  string     `json:"id"`
	PostingID           string     `json:"posting_id"`
	Completed           bool       `json:"completed"`
	CompletedAt         *time.Time `json:"completed_at"`
	TotalApplications   int        `json:"total_applications"`
	InterviewedCount    int        `json:"interviewed_count"`
	HiredCount          int        `json:"hired_count"`
	HiredApplicationIDs []string   `json:"hired_application_ids"`
	Description         string     `json:"description,omitempty"`
	SuccessScore        *int       `json:"success_score"`
	InternalEvaluation  string     `json:"internal_evaluation,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func toOutcomeResponse(o *model.Outcome) outcomeResponse {
	hired := o.HiredApplicationIDs
	if hired == nil {
		hired = []string{}
	}
	return outcomeResponse{
		ID:                  o.ID,
		PostingID:           o.PostingID,
		Completed:           o.Completed,
		CompletedAt:         o.CompletedAt,
		TotalApplications:   o.TotalApplications,
		InterviewedCount:    o.InterviewedCount,
		HiredCount:          o.HiredCount,
		HiredApplicationIDs: hired,
		Description:         o.Description,
		SuccessScore:        o.SuccessScore,
		InternalEvaluation:  o.InternalEvaluation,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

// outcomeSaveResponse は採用結果の保存レスポンス。
// warningsには保存を妨げない注意事項を入れる。
type outcomeSaveResponse struct {
	Outcome  outcomeResponse  `json:"outcome"`
	Warnings []model.Advisory `json:"warnings"`
}
