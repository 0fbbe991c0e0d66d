package inbound

import (
	"net/http"
	"time"
)

type SubmitIdeaResponse struct {
	ID         string  `json:"id"`
	Attachment *string `json:"attachment"`
}

func (SubmitIdeaResponse) Message() string {
	return "Form Submitted Successfully!"
}

func (SubmitIdeaResponse) StatusCode() int {
	return http.StatusCreated
}

type Idea struct {
	ID                    string    `json:"id"`
	EmployeeName          string    `json:"employee_name"`
	EmployeeID            string    `json:"employee_id"`
	EmployeeFunction      string    `json:"employee_function"`
	Location              string    `json:"location"`
	IdeaTheme             string    `json:"idea_theme"`
	Department            string    `json:"department"`
	BenefitsCategory      string    `json:"benefits_category"`
	IdeaDescription       string    `json:"idea_description"`
	ImpactedProcess       string    `json:"impacted_process"`
	ExpectedBenefitsValue string    `json:"expected_benefits_value"`
	Attachment            *string   `json:"attachment"`
	SubmittedAt           time.Time `json:"submitted_at"`
}

type ListIdeasResponse struct {
	Ideas []Idea `json:"ideas"`
	total int64
	size  int32
	page  int32
}

func (ListIdeasResponse) Message() string {
	return "Submissions fetched successfully"
}

func (r ListIdeasResponse) Meta() map[string]any {
	return map[string]any{
		"total": r.total,
		"size":  r.size,
		"page":  r.page,
	}
}
