// Package mail delivers IdeaBox emails. OTP codes, sign-in notices and
// reviewer notices are all built as a Message and sent through Mail; SMTP is
// the only transport.
package mail
