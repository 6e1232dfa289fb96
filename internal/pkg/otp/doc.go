// Package otp generates the five-character time-based codes used by the
// Steam mobile authenticator.
//
// The codes follow RFC 6238 (HMAC-SHA1, 30 second step, dynamic truncation)
// but render the truncated value with a 26-symbol alphabet instead of decimal
// digits. Secrets are handed in base64, the way the remote service issues them.
package otp
