package steamapi

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shandysiswandi/steamguard/internal/authenticator/entity"
)

type timeQueryResponse struct {
	ServerTime entity.FlexInt64 `json:"server_time"`
}

// addAuthenticatorResponse shares the account file layout.
type addAuthenticatorResponse = entity.MaFile

type finalizeResponse struct {
	Success    bool              `json:"success"`
	WantMore   bool              `json:"want_more"`
	ServerTime entity.FlexInt64  `json:"server_time"`
	Status     *entity.FlexInt64 `json:"status"`
}

type removeResponse struct {
	Success                     bool `json:"success"`
	RevocationAttemptsRemaining *int `json:"revocation_attempts_remaining"`
}

type userCountryResponse struct {
	Country string `json:"country"`
}

type setPhoneResponse struct {
	ConfirmationEmailAddress *string `json:"confirmation_email_address"`
	PhoneNumberFormatted     *string `json:"phone_number_formatted"`
}

type emailConfirmationResponse struct {
	AwaitingEmailConfirmation bool `json:"awaiting_email_confirmation"`
	SecondsToWait             int  `json:"seconds_to_wait"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type confirmationsResponse struct {
	Success  bool               `json:"success"`
	Message  string             `json:"message"`
	NeedAuth bool               `json:"needauth"`
	Conf     []confirmationWire `json:"conf"`
}

type confirmationWire struct {
	ID           entity.FlexUint64 `json:"id"`
	Nonce        entity.FlexUint64 `json:"nonce"`
	CreatorID    entity.FlexUint64 `json:"creator_id"`
	Type         json.RawMessage   `json:"type"`
	TypeName     string            `json:"type_name"`
	Headline     string            `json:"headline"`
	Summary      []string          `json:"summary"`
	Accept       string            `json:"accept"`
	Cancel       string            `json:"cancel"`
	Icon         string            `json:"icon"`
	CreationTime entity.FlexInt64  `json:"creation_time"`
}

func (w confirmationWire) toEntity() entity.Confirmation {
	c := entity.Confirmation{
		ID:        uint64(w.ID),
		Key:       uint64(w.Nonce),
		CreatorID: uint64(w.CreatorID),
		Type:      entity.ParseConfirmationType(strings.Trim(string(w.Type), `"`)),
		TypeName:  w.TypeName,
		Headline:  w.Headline,
		Summary:   w.Summary,
		Accept:    w.Accept,
		Cancel:    w.Cancel,
		Icon:      w.Icon,
	}
	if w.CreationTime > 0 {
		c.CreatedAt = time.Unix(int64(w.CreationTime), 0)
	}

	return c
}

type decisionResponse struct {
	Success bool `json:"success"`
}
