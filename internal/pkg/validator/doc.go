// Package validator provides a small validation abstraction for request and
// domain structs.
//
// Business code should depend on the Validator interface. The go-playground
// v10 implementation registers the account id and activation code rules on
// top of the built-in tags (e164, iso3166_1_alpha2, base64, ...).
package validator
