package entity

import (
	"errors"
	"time"
)

var (
	ErrEmptyResponse            = errors.New("authenticator: remote response has no body")
	ErrMissingDeviceID          = errors.New("authenticator: device id is not present")
	ErrSessionExpired           = errors.New("authenticator: session needs authentication")
	ErrConfirmationsUnavailable = errors.New("authenticator: confirmations could not be listed")
)

// Authenticator is the secret material issued for one account by AddAuthenticator.
type Authenticator struct {
	ID             uint64    `json:"id"`
	AccountID      uint64    `json:"account_id"`
	AccountName    string    `json:"account_name"`
	SharedSecret   string    `json:"shared_secret"`
	IdentitySecret string    `json:"identity_secret"`
	Secret1        string    `json:"secret_1"`
	SerialNumber   string    `json:"serial_number"`
	RevocationCode string    `json:"revocation_code"`
	URI            string    `json:"uri"`
	ServerTime     int64     `json:"server_time"`
	TokenGID       string    `json:"token_gid"`
	Status         int       `json:"status"`
	DeviceID       string    `json:"device_id"`
	FullyEnrolled  bool      `json:"fully_enrolled"`
	Session        Session   `json:"session"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CanSignConfirmations reports whether the record carries what a confirmation call needs.
func (a *Authenticator) CanSignConfirmations() error {
	if a.DeviceID == "" {
		return ErrMissingDeviceID
	}

	return nil
}

// AccountSummary is the listing projection of a stored authenticator.
type AccountSummary struct {
	AccountID     uint64
	AccountName   string
	SerialNumber  string
	DeviceID      string
	FullyEnrolled bool
	CreatedAt     time.Time
}
