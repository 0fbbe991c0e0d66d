package entity

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrEmployeeIDRequired = errors.New("idea: employee id is required")
	ErrAttachmentTooLarge = errors.New("idea: attachment too large")
	ErrAttachmentNotFound = errors.New("idea: attachment not found")
)

// Idea is one submitted improvement form.
type Idea struct {
	ID                    string
	EmployeeName          string
	EmployeeID            string
	EmployeeFunction      string
	Location              string
	IdeaTheme             string
	Department            string
	BenefitsCategory      string
	IdeaDescription       string
	ImpactedProcess       string
	ExpectedBenefitsValue string
	Attachment            *string
	SubmittedAt           time.Time
}

type ListFilter struct {
	EmployeeID string
	Offset     int64
	Limit      int64
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	pathSeparator = strings.NewReplacer("/", "_", `\`, "_")
)

// AttachmentKey names a stored attachment "<employeeID>_<filename>" with
// whitespace runs collapsed to "_". Path separators are replaced so the key
// is always a flat object name.
func AttachmentKey(employeeID, filename string) string {
	name := whitespaceRun.ReplaceAllString(filename, "_")
	return pathSeparator.Replace(employeeID) + "_" + pathSeparator.Replace(name)
}
