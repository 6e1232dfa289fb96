package usecase

import "github.com/shandysiswandi/steamguard/internal/authenticator/entity"

// Remote status codes of the two-factor service.
const (
	StatusOK                = 1
	StatusNoPhone           = 2
	StatusAlreadyPresent    = 29
	StatusWantMoreCodes     = 88
	StatusBadActivationCode = 89
)

type AddAuthenticatorRequest struct {
	AuthenticatorTime int64
	DeviceID          string
}

// AddAuthenticatorResult carries the issued secrets when Status is StatusOK.
type AddAuthenticatorResult struct {
	Status        int
	Authenticator *entity.Authenticator
}

type FinalizeAuthenticatorRequest struct {
	AuthenticatorCode string
	AuthenticatorTime int64
	ActivationCode    string
}

type FinalizeAuthenticatorResult struct {
	Success    bool
	WantMore   bool
	ServerTime int64
	Status     *int
}

// StatusIs reports whether the optional status equals code.
func (r *FinalizeAuthenticatorResult) StatusIs(code int) bool {
	return r.Status != nil && *r.Status == code
}

type RemoveAuthenticatorRequest struct {
	RevocationCode string
	Scheme         int
}

type RemoveAuthenticatorResult struct {
	Success                     bool
	RevocationAttemptsRemaining *int
}

type SetPhoneNumberResult struct {
	ConfirmationEmailAddress *string
	PhoneNumberFormatted     *string
}

type EmailConfirmationStatus struct {
	AwaitingEmailConfirmation bool
	SecondsToWait             int
}

// ConfirmationQuery is the signed parameter set sent with every confirmation call.
// Signature is already percent-encoded.
type ConfirmationQuery struct {
	DeviceID  string
	AccountID uint64
	Signature string
	Time      int64
	Tag       string
}

type ConfirmationList struct {
	Success       bool
	NeedAuth      bool
	Message       string
	Confirmations []entity.Confirmation
}

type ConfirmationRef struct {
	ID  uint64
	Key uint64
}
