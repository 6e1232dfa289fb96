package entity

import (
	"errors"
	"time"
)

// ErrInvalidTransition is returned when an event does not apply to the current state.
var ErrInvalidTransition = errors.New("authenticator: invalid link transition")

// LinkState is the position of a linking attempt.
type LinkState int16

const (
	LinkStateStart LinkState = iota
	LinkStateAwaitingPhoneNumber
	LinkStateAwaitingEmailConfirmation
	LinkStateAwaitingFinalizationCode
	LinkStateFinalized
	LinkStateFailed
)

func (s LinkState) String() string {
	switch s {
	case LinkStateStart:
		return "start"
	case LinkStateAwaitingPhoneNumber:
		return "awaiting_phone_number"
	case LinkStateAwaitingEmailConfirmation:
		return "awaiting_email_confirmation"
	case LinkStateAwaitingFinalizationCode:
		return "awaiting_finalization_code"
	case LinkStateFinalized:
		return "finalized"
	case LinkStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further step applies.
func (s LinkState) Terminal() bool {
	return s == LinkStateFinalized || s == LinkStateFailed
}

// LinkEvent is an outcome observed while adding an authenticator.
type LinkEvent int16

const (
	// LinkEventPhoneRequired: the account has no phone and none was supplied.
	LinkEventPhoneRequired LinkEvent = iota + 1
	// LinkEventPhoneAdded: a phone number was attached, an email was sent.
	LinkEventPhoneAdded
	// LinkEventPhoneRejected: attaching the phone number failed.
	LinkEventPhoneRejected
	// LinkEventEmailPending: the confirmation email was not clicked yet.
	LinkEventEmailPending
	// LinkEventIssued: the remote returned the authenticator secrets.
	LinkEventIssued
	// LinkEventAlreadyPresent: the account already has an authenticator.
	LinkEventAlreadyPresent
	// LinkEventRejected: any other status, or no response.
	LinkEventRejected
	// LinkEventFinalized: the activation code was accepted.
	LinkEventFinalized
)

// LinkResult is what AddAuthenticator reports to the caller.
type LinkResult int16

const (
	LinkResultNone LinkResult = iota
	LinkResultMustProvidePhoneNumber
	// LinkResultMustRemovePhoneNumber is never produced. It keeps the numeric
	// values of the later results stable for stored and emitted attempts.
	LinkResultMustRemovePhoneNumber
	LinkResultMustConfirmEmail
	LinkResultAwaitingFinalization
	LinkResultGeneralFailure
	LinkResultAuthenticatorPresent
	LinkResultFailureAddingPhone
)

func (r LinkResult) String() string {
	switch r {
	case LinkResultMustProvidePhoneNumber:
		return "must_provide_phone_number"
	case LinkResultMustRemovePhoneNumber:
		return "must_remove_phone_number"
	case LinkResultMustConfirmEmail:
		return "must_confirm_email"
	case LinkResultAwaitingFinalization:
		return "awaiting_finalization"
	case LinkResultGeneralFailure:
		return "general_failure"
	case LinkResultAuthenticatorPresent:
		return "authenticator_present"
	case LinkResultFailureAddingPhone:
		return "failure_adding_phone"
	default:
		return "none"
	}
}

// FinalizeResult is what FinalizeAddAuthenticator reports to the caller.
type FinalizeResult int16

const (
	FinalizeResultBadAuthCode FinalizeResult = iota + 1
	FinalizeResultUnableToGenerateCorrectCodes
	FinalizeResultSuccess
	FinalizeResultGeneralFailure
)

func (r FinalizeResult) String() string {
	switch r {
	case FinalizeResultBadAuthCode:
		return "bad_auth_code"
	case FinalizeResultUnableToGenerateCorrectCodes:
		return "unable_to_generate_correct_codes"
	case FinalizeResultSuccess:
		return "success"
	case FinalizeResultGeneralFailure:
		return "general_failure"
	default:
		return "unknown"
	}
}

// Next applies ev to s. It has no side effects.
func (s LinkState) Next(ev LinkEvent) (LinkState, LinkResult, error) {
	if s.Terminal() {
		return s, LinkResultNone, ErrInvalidTransition
	}

	switch ev {
	case LinkEventPhoneRequired:
		if s == LinkStateAwaitingFinalizationCode {
			break
		}
		return LinkStateAwaitingPhoneNumber, LinkResultMustProvidePhoneNumber, nil

	case LinkEventPhoneAdded:
		if s == LinkStateAwaitingFinalizationCode {
			break
		}
		return LinkStateAwaitingEmailConfirmation, LinkResultMustConfirmEmail, nil

	case LinkEventEmailPending:
		if s != LinkStateAwaitingEmailConfirmation {
			break
		}
		return LinkStateAwaitingEmailConfirmation, LinkResultMustConfirmEmail, nil

	case LinkEventPhoneRejected:
		return LinkStateFailed, LinkResultFailureAddingPhone, nil

	case LinkEventIssued:
		if s == LinkStateAwaitingFinalizationCode {
			break
		}
		return LinkStateAwaitingFinalizationCode, LinkResultAwaitingFinalization, nil

	case LinkEventAlreadyPresent:
		return LinkStateFailed, LinkResultAuthenticatorPresent, nil

	case LinkEventRejected:
		return LinkStateFailed, LinkResultGeneralFailure, nil

	case LinkEventFinalized:
		if s != LinkStateAwaitingFinalizationCode {
			break
		}
		return LinkStateFinalized, LinkResultNone, nil
	}

	return s, LinkResultNone, ErrInvalidTransition
}

// LinkAttempt is the in-flight state of linking one account.
type LinkAttempt struct {
	AccountID         uint64         `json:"account_id"`
	State             LinkState      `json:"state"`
	DeviceID          string         `json:"device_id"`
	PhoneNumber       string         `json:"phone_number,omitempty"`
	PhoneCountryCode  string         `json:"phone_country_code,omitempty"`
	ConfirmationEmail string         `json:"confirmation_email,omitempty"`
	Session           Session        `json:"session"`
	Authenticator     *Authenticator `json:"authenticator,omitempty"`
	LastResult        LinkResult     `json:"last_result"`
	StartedAt         time.Time      `json:"started_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Apply moves the attempt with ev and records the result.
func (a *LinkAttempt) Apply(ev LinkEvent, now time.Time) (LinkResult, error) {
	next, res, err := a.State.Next(ev)
	if err != nil {
		return LinkResultNone, err
	}

	a.State = next
	if res != LinkResultNone {
		a.LastResult = res
	}
	a.UpdatedAt = now

	return res, nil
}
