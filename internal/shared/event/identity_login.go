package event

import "time"

const IdentityLoginSucceededDestination string = "identity_login_succeeded"
const IdentityLoginSucceededConsumerNotification string = "identity_login_succeeded_notification"

type IdentityLoginSucceededMessage struct {
	CorporateID string    `json:"corporate_id"`
	Email       string    `json:"email"`
	Role        string    `json:"role,omitempty"`
	Collection  string    `json:"collection"`
	At          time.Time `json:"at"`
}
