package strcase

import "testing"

func TestToLowerSnake(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"AccountID":       "account_id",
		"PhoneNumber":     "phone_number",
		"HTTPServer":      "http_server",
		"IdentitySecret":  "identity_secret",
		"Confirmation2FA": "confirmation2_fa",
		"already_snake":   "already_snake",
	}

	for in, want := range tests {
		if got := ToLowerSnake(in); got != want {
			t.Fatalf("ToLowerSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
