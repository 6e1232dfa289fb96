// Package jwt inspects the access and refresh tokens issued to a mobile
// session. Tokens are issued and signed remotely, so only their registered
// claims are read; signatures are never verified here.
package jwt
