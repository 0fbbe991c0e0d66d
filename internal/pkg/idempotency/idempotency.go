// Package idempotency keeps a retried idea submission from storing a second
// idea. The caller's Idempotency-Key maps to a small state machine in Redis:
// in_progress while the submission runs, then completed or failed until the
// state TTL expires.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
	ErrAlreadyFailed     = errors.New("operation already failed")
	ErrInvalidState      = errors.New("invalid state")
)

type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

func (s State) String() string { return string(s) }

const (
	defaultPrefix       = "idempotency:"
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

// Idempotency runs fn at most once per key within the state TTL.
type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// StateTracker implements Idempotency on Redis. It needs Redis 7 for SET NX GET.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient, prefix string) *StateTracker {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &StateTracker{client: client, prefix: prefix}
}

type Option func(*execOptions)

type execOptions struct {
	lockDuration     time.Duration
	stateTTL         time.Duration
	releaseOnFailure bool
}

// WithReleaseOnFailure forgets the key when fn fails, so a client may retry a
// submission that hit a storage or broker error with the same key.
func WithReleaseOnFailure() Option {
	return func(o *execOptions) { o.releaseOnFailure = true }
}

// WithLockDuration bounds how long an unfinished run blocks the key.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long a completed or failed outcome is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

// redisKey hashes the client supplied key so header length does not reach Redis.
func (s *StateTracker) redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return s.prefix + hex.EncodeToString(sum[:])
}

// Acquire marks key in progress unless a state is already stored, in which
// case that state is returned. StateNone means the caller owns the key.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	prev, err := s.client.SetArgs(ctx, s.redisKey(key), StateInProgress.String(), redis.SetArgs{
		Mode: "NX",
		TTL:  lockDuration,
		Get:  true,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return StateNone, nil
	}
	if err != nil {
		return StateNone, err
	}

	switch State(prev) {
	case StateInProgress, StateCompleted, StateFailed:
		return State(prev), nil
	default:
		return StateNone, ErrInvalidState
	}
}

func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.redisKey(key), StateCompleted.String(), ttl).Err()
}

func (s *StateTracker) MarkFailed(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.redisKey(key), StateFailed.String(), ttl).Err()
}

func (s *StateTracker) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.redisKey(key)).Err()
}

func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}
	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	}

	// The outcome is written even when the request context is gone, or the
	// key would stay in_progress until the lock expires.
	bg := context.WithoutCancel(ctx)

	if err := fn(ctx); err != nil {
		if o.releaseOnFailure {
			return errors.Join(err, s.Release(bg, key))
		}
		return errors.Join(err, s.MarkFailed(bg, key, o.stateTTL))
	}

	return s.MarkCompleted(bg, key, o.stateTTL)
}
