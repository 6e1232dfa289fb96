package event

const ConfirmationDecidedDestination string = "steamguard.confirmation.decided"

// ConfirmationDecidedMessage carries ids only; keys never leave the service.
type ConfirmationDecidedMessage struct {
	AccountID       uint64   `json:"account_id"`
	ConfirmationIDs []uint64 `json:"confirmation_ids"`
	Approved        bool     `json:"approved"`
	Success         bool     `json:"success"`
	DecidedAt       int64    `json:"decided_at"`
}
