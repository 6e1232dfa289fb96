package event

const AuthenticatorRemovedDestination string = "steamguard.authenticator.removed"

type AuthenticatorRemovedMessage struct {
	AccountID uint64 `json:"account_id"`
	Scheme    int    `json:"scheme"`
	RemovedAt int64  `json:"removed_at"`
}
