// Package clock provides the time abstractions used across the service.
//
// Clocker is the plain local clock. Aligner wraps a Clocker with an offset
// against a remote authoritative time source, calibrated once on first use.
// Code that derives anything from the remote service's notion of "now"
// (one-time codes, confirmation signatures) must read time from an Aligner.
package clock
