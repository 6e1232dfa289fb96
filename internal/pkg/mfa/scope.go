package mfa

// Encryptor seals and opens account secrets at rest.
type Encryptor interface {
	Encrypt(plaintext []byte, scope Scope) ([]byte, error)
	Decrypt(ciphertext []byte, scope Scope) ([]byte, error)
}

// KeyProvider resolves the 32-byte AES key for a scope.
type KeyProvider interface {
	Key(scope Scope) ([]byte, error)
}

// Purpose identifies what a sealed value is used for.
type Purpose string

const (
	PurposeSharedSecret   Purpose = "shared_secret"
	PurposeIdentitySecret Purpose = "identity_secret"
	PurposeRevocationCode Purpose = "revocation_code"
	// PurposeAccountFile covers the remaining account file fields (secret_1, uri).
	PurposeAccountFile Purpose = "account_file"
	PurposeSession     Purpose = "session"
	PurposeLinkAttempt Purpose = "link_attempt"
	// PurposeBackup covers exported account files.
	PurposeBackup Purpose = "backup"
)

// Scope binds a sealed value to one account and one purpose.
type Scope struct {
	AccountID uint64
	Purpose   Purpose
}
