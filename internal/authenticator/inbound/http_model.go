package inbound

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
)

type StartLinkRequest struct {
	AccountID        entity.FlexUint64 `json:"account_id"`
	AccessToken      string            `json:"access_token"`
	RefreshToken     string            `json:"refresh_token"`
	PhoneNumber      string            `json:"phone_number"`
	PhoneCountryCode string            `json:"phone_country_code"`
}

type AddAuthenticatorRequest struct {
	PhoneNumber      string `json:"phone_number"`
	PhoneCountryCode string `json:"phone_country_code"`
}

type FinalizeRequest struct {
	ActivationCode string `json:"activation_code"`
}

type LinkResponse struct {
	AccountID         uint64 `json:"account_id,string"`
	State             string `json:"state"`
	Result            string `json:"result"`
	DeviceID          string `json:"device_id"`
	ConfirmationEmail string `json:"confirmation_email,omitempty"`
	RevocationCode    string `json:"revocation_code,omitempty"`
}

type StartLinkResponse struct {
	LinkResponse
}

func (StartLinkResponse) StatusCode() int { return http.StatusCreated }

func (StartLinkResponse) Message() string {
	return "Linking started. Continue with the authenticator step."
}

type FinalizeResponse struct {
	AccountID      uint64 `json:"account_id,string"`
	Result         string `json:"result"`
	State          string `json:"state"`
	SerialNumber   string `json:"serial_number,omitempty"`
	RevocationCode string `json:"revocation_code,omitempty"`
}

type AccountResponse struct {
	AccountID     uint64    `json:"account_id,string"`
	AccountName   string    `json:"account_name"`
	SerialNumber  string    `json:"serial_number"`
	DeviceID      string    `json:"device_id"`
	FullyEnrolled bool      `json:"fully_enrolled"`
	CreatedAt     time.Time `json:"created_at"`
}

type ListAccountsResponse []AccountResponse

func (r ListAccountsResponse) Meta() map[string]any {
	return map[string]any{"total": len(r)}
}

type ImportRequest struct {
	MaFile       json.RawMessage   `json:"mafile"`
	AccountID    entity.FlexUint64 `json:"account_id"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
}

type ImportResponse struct {
	AccountID   uint64 `json:"account_id,string"`
	AccountName string `json:"account_name"`
}

func (ImportResponse) StatusCode() int { return http.StatusCreated }

type CodeResponse struct {
	Code            string `json:"code"`
	ServerTime      int64  `json:"server_time"`
	ValidForSeconds int64  `json:"valid_for_seconds"`
}

type RemoveResponse struct{}

func (RemoveResponse) Message() string {
	return "Authenticator removed."
}

type RefreshSessionResponse struct {
	AccountID uint64    `json:"account_id,string"`
	ExpiresAt time.Time `json:"expires_at"`
}

type BackupResponse struct {
	AccountID uint64 `json:"account_id,string"`
	Object    string `json:"object"`
}

type ConfirmationResponse struct {
	ID        uint64    `json:"id,string"`
	CreatorID uint64    `json:"creator_id,string"`
	Type      string    `json:"type"`
	TypeName  string    `json:"type_name"`
	Headline  string    `json:"headline"`
	Summary   []string  `json:"summary"`
	Accept    string    `json:"accept"`
	Cancel    string    `json:"cancel"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ListConfirmationsResponse []ConfirmationResponse

func (r ListConfirmationsResponse) Meta() map[string]any {
	return map[string]any{"total": len(r)}
}

type DecideRequest struct {
	ConfirmationIDs []entity.FlexUint64 `json:"confirmation_ids"`
	Approve         bool                `json:"approve"`
}

type DecideResponse struct {
	Success         bool     `json:"success"`
	ConfirmationIDs []string `json:"confirmation_ids"`
}

type ServerTimeResponse struct {
	ServerTime    time.Time `json:"server_time"`
	LocalTime     time.Time `json:"local_time"`
	OffsetSeconds int64     `json:"offset_seconds"`
	Aligned       bool      `json:"aligned"`
}
