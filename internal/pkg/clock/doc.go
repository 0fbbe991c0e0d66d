// Package clock supplies the time source behind OTP expiry stamps and idea
// submission times. Usecases take a Clocker; tests drive a Manual clock past
// an expiry boundary instead of sleeping.
package clock
