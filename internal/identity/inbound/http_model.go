package inbound

type OTPRequest struct {
	CorporateID string `json:"corporateId"`
}

type OTPSentResponse struct{}

func (OTPSentResponse) Message() string {
	return "OTP sent successfully"
}

type VerifyOTPRequest struct {
	CorporateID string `json:"corporateId"`
	OTP         string `json:"otp"`
}

type VerifyOTPResponse struct {
	Role string `json:"role,omitempty"`
}

func (VerifyOTPResponse) Message() string {
	return "Login successful"
}
