package event

import "time"

const IdeaSubmittedDestination string = "idea_submitted"
const IdeaSubmittedConsumerNotification string = "idea_submitted_notification"

type IdeaSubmittedMessage struct {
	IdeaID       string    `json:"idea_id"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	IdeaTheme    string    `json:"idea_theme"`
	Department   string    `json:"department"`
	Attachment   string    `json:"attachment,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
}
