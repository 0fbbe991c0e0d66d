// Package otp generates short numeric one-time codes.
//
// Codes are drawn from crypto/rand over a fixed range so they never carry a
// leading zero. The package does not store or compare codes; callers own the
// challenge lifecycle.
package otp
