package validator

import (
	"errors"
	"strings"
	"testing"
)

type otpPayload struct {
	CorporateID string `validate:"required,max=256"`
	OTP         string `validate:"required,max=16"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	tests := []struct {
		name       string
		in         otpPayload
		wantFields []string
	}{
		{name: "valid", in: otpPayload{CorporateID: "EMP001", OTP: "1234"}},
		{name: "email shaped id", in: otpPayload{CorporateID: "john.doe@corp.example", OTP: "1234"}},
		{name: "id with space and slash", in: otpPayload{CorporateID: "EMP 001/B", OTP: "1234"}},
		{name: "missing both", in: otpPayload{}, wantFields: []string{"corporate_id", "otp"}},
		{name: "id too long", in: otpPayload{CorporateID: strings.Repeat("E", 257), OTP: "1234"}, wantFields: []string{"corporate_id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verr V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected V10ValidationError, got %v", err)
			}
			for _, f := range tt.wantFields {
				if _, ok := verr.Values()[f]; !ok {
					t.Fatalf("missing field %q in %v", f, verr.Values())
				}
			}
		})
	}
}

func TestV10Validator_TranslatedMessage(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	err = v.Validate(otpPayload{OTP: "1"})

	var verr V10ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error")
	}
	if got := verr["corporate_id"]; got != "CorporateID is a required field" {
		t.Fatalf("message = %q", got)
	}
}

type verifyBody struct {
	CorporateID string `json:"corporateId" validate:"required"`
	OTP         string `json:"otp,omitempty" validate:"required"`
	Note        string `json:"-" validate:"required"`
}

func TestV10Validator_KeysFollowJSONNames(t *testing.T) {
	// Arrange
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	// Act
	err = v.Validate(verifyBody{})

	// Assert
	var verr V10ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected V10ValidationError, got %v", err)
	}
	want := map[string]string{
		"corporateId": "corporateId is a required field",
		"otp":         "otp is a required field",
		"note":        "Note is a required field",
	}
	for key, msg := range want {
		if verr[key] != msg {
			t.Fatalf("verr[%q] = %q, want %q (all: %v)", key, verr[key], msg, verr.Values())
		}
	}
}
