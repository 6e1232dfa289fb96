package event

const AuthenticatorLinkedDestination string = "steamguard.authenticator.linked"

type AuthenticatorLinkedMessage struct {
	AccountID    uint64 `json:"account_id"`
	AccountName  string `json:"account_name"`
	SerialNumber string `json:"serial_number"`
	DeviceID     string `json:"device_id"`
	LinkedAt     int64  `json:"linked_at"`
}
