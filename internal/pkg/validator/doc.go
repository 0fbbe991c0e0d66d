// Package validator checks request inputs through struct tags. Failures come
// back as a map keyed by the field's json name, so a 422 response names the
// same keys the client sent (corporateId, otp, note).
package validator
