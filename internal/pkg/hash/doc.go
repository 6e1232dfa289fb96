// Package hash computes the HMAC signatures that authenticate confirmation
// requests on behalf of a mobile authenticator.
package hash
