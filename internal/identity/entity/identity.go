package entity

import (
	"errors"
	"time"
)

var (
	ErrIdentityNotFound = errors.New("identity: corporate id not found")
	ErrInvalidCode      = errors.New("identity: invalid otp")
	ErrCodeExpired      = errors.New("identity: otp expired")
	ErrDelivery         = errors.New("identity: otp delivery failed")
	ErrStorage          = errors.New("identity: identity store failure")
)

// Collection names one of the two disjoint identity groups.
type Collection int8

const (
	CollectionUnknown Collection = 0
	CollectionUser    Collection = 1
	CollectionAdmin   Collection = 2
)

// ResolutionOrder is the collection order used by every lookup. User wins when an
// identifier exists in both collections.
var ResolutionOrder = []Collection{CollectionUser, CollectionAdmin}

func (c Collection) String() string {
	switch c {
	case CollectionUser:
		return "user"
	case CollectionAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ChallengeState is derived from the stored otp pair and never persisted.
type ChallengeState int8

const (
	NoChallenge ChallengeState = iota
	ChallengePending
	ChallengeExpired
)

func (s ChallengeState) String() string {
	switch s {
	case ChallengePending:
		return "CHALLENGE_PENDING"
	case ChallengeExpired:
		return "CHALLENGE_EXPIRED"
	default:
		return "NO_CHALLENGE"
	}
}

// Identity is a provisioned credential record from either collection.
type Identity struct {
	CorporateID string
	Email       string
	Role        string
	OTP         *string
	OTPExpiry   *time.Time
	Collection  Collection
}

// State reports the challenge state at now. A code without an expiry counts
// as expired; the expiry instant itself is still pending.
func (i *Identity) State(now time.Time) ChallengeState {
	if i == nil || i.OTP == nil {
		return NoChallenge
	}
	if i.OTPExpiry == nil || i.OTPExpiry.Before(now) {
		return ChallengeExpired
	}
	return ChallengePending
}

// Challenge is the otp pair written on issuance.
type Challenge struct {
	Code      string
	ExpiresAt time.Time
}
