package entity

import (
	"strconv"
	"strings"
	"time"
)

// ConfirmationType classifies a pending confirmation.
type ConfirmationType int16

const (
	ConfirmationTypeUnknown ConfirmationType = iota
	ConfirmationTypeTest
	ConfirmationTypeTrade
	ConfirmationTypeMarketListing
	ConfirmationTypeFeatureOptOut
	ConfirmationTypePhoneNumberChange
	ConfirmationTypeAccountRecovery
)

func (t ConfirmationType) String() string {
	switch t {
	case ConfirmationTypeTest:
		return "test"
	case ConfirmationTypeTrade:
		return "trade"
	case ConfirmationTypeMarketListing:
		return "market_listing"
	case ConfirmationTypeFeatureOptOut:
		return "feature_opt_out"
	case ConfirmationTypePhoneNumberChange:
		return "phone_number_change"
	case ConfirmationTypeAccountRecovery:
		return "account_recovery"
	default:
		return "unknown"
	}
}

// ParseConfirmationType accepts the numeric form ("2") and the name form ("Trade", "market_listing").
// Anything else is ConfirmationTypeUnknown.
func ParseConfirmationType(raw string) ConfirmationType {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		t := ConfirmationType(n)
		if t >= ConfirmationTypeTest && t <= ConfirmationTypeAccountRecovery {
			return t
		}
		return ConfirmationTypeUnknown
	}

	key := strings.ToLower(strings.ReplaceAll(raw, "_", ""))
	for t := ConfirmationTypeTest; t <= ConfirmationTypeAccountRecovery; t++ {
		if strings.ReplaceAll(t.String(), "_", "") == key {
			return t
		}
	}

	return ConfirmationTypeUnknown
}

// Confirmation is one pending action as listed by the remote service.
// Key is single-use.
type Confirmation struct {
	ID        uint64
	Key       uint64
	CreatorID uint64
	Type      ConfirmationType
	TypeName  string
	Headline  string
	Summary   []string
	Accept    string
	Cancel    string
	Icon      string
	CreatedAt time.Time
}

// ConfirmationOp is the operation sent when deciding a confirmation.
type ConfirmationOp string

const (
	ConfirmationOpAllow  ConfirmationOp = "allow"
	ConfirmationOpCancel ConfirmationOp = "cancel"
)

// Confirmation signing tags.
const (
	TagList   = "conf"
	TagAccept = "accept"
	TagReject = "reject"
)

// DecisionOp maps an approve flag to the op and signing tag.
func DecisionOp(approve bool) (ConfirmationOp, string) {
	if approve {
		return ConfirmationOpAllow, TagAccept
	}

	return ConfirmationOpCancel, TagReject
}
