package entity

// Template names the embedded email body for one notification kind.
type Template string

const (
	TemplateIdeaSubmitted  Template = "idea_submitted.html"
	TemplateLoginSucceeded Template = "login_succeeded.html"
)

func (t Template) String() string {
	return string(t)
}
