package validator

import (
	"errors"
	"testing"
)

type linkInput struct {
	AccountID   uint64 `validate:"required,steamid"`
	PhoneNumber string `validate:"omitempty,e164"`
	Code        string `validate:"required,activation_code"`
	Country     string `validate:"omitempty,alpha2"`
}

func TestV10Validator_CustomRules(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name      string
		in        linkInput
		wantField string
	}{
		{name: "valid", in: linkInput{AccountID: 76561197960287930, PhoneNumber: "+15555550100", Code: "R4T7Y"}},
		{name: "bad account", in: linkInput{AccountID: 12345, Code: "R4T7Y"}, wantField: "account_id"},
		{name: "bad phone", in: linkInput{AccountID: 76561197960287930, PhoneNumber: "555", Code: "R4T7Y"}, wantField: "phone_number"},
		{name: "bad code", in: linkInput{AccountID: 76561197960287930, Code: "!!"}, wantField: "code"},
		{name: "bad country", in: linkInput{AccountID: 76561197960287930, Code: "R4T7Y", Country: "XX"}, wantField: "country"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			err := v.Validate(tt.in)

			// Assert
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verr V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected V10ValidationError, got %v", err)
			}
			if _, ok := verr.Values()[tt.wantField]; !ok {
				t.Fatalf("expected error on %s, got %v", tt.wantField, verr)
			}
		})
	}
}
