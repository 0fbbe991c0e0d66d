package idempotency

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate redis container: %v", err)
		}
	})

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis connection string: %v", err)
	}
	opts, err := goredis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}

	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStateTracker_Exec(t *testing.T) {
	client := newRedis(t)
	tracker := New(client, "test:")
	ctx := context.Background()

	t.Run("second call with same key is rejected", func(t *testing.T) {
		// Arrange
		calls := 0
		fn := func(context.Context) error { calls++; return nil }

		// Act
		first := tracker.Exec(ctx, "submit-1", fn)
		second := tracker.Exec(ctx, "submit-1", fn)

		// Assert
		if first != nil {
			t.Fatalf("first Exec() error = %v", first)
		}
		if !errors.Is(second, ErrAlreadyCompleted) {
			t.Fatalf("second Exec() error = %v, want ErrAlreadyCompleted", second)
		}
		if calls != 1 {
			t.Fatalf("fn called %d times", calls)
		}
	})

	t.Run("failure is recorded by default", func(t *testing.T) {
		boom := errors.New("boom")

		err := tracker.Exec(ctx, "submit-2", func(context.Context) error { return boom })
		if !errors.Is(err, boom) {
			t.Fatalf("Exec() error = %v", err)
		}

		err = tracker.Exec(ctx, "submit-2", func(context.Context) error { return nil })
		if !errors.Is(err, ErrAlreadyFailed) {
			t.Fatalf("retry error = %v, want ErrAlreadyFailed", err)
		}
	})

	t.Run("failure releases the key when asked", func(t *testing.T) {
		boom := errors.New("boom")

		err := tracker.Exec(ctx, "submit-3", func(context.Context) error { return boom }, WithReleaseOnFailure())
		if !errors.Is(err, boom) {
			t.Fatalf("Exec() error = %v", err)
		}

		err = tracker.Exec(ctx, "submit-3", func(context.Context) error { return nil }, WithReleaseOnFailure())
		if err != nil {
			t.Fatalf("retry error = %v", err)
		}
	})

	t.Run("in progress", func(t *testing.T) {
		state, err := tracker.Acquire(ctx, "submit-4", time.Minute)
		if err != nil || state != StateNone {
			t.Fatalf("Acquire() = %v, %v", state, err)
		}

		err = tracker.Exec(ctx, "submit-4", func(context.Context) error { return nil })
		if !errors.Is(err, ErrAlreadyInProgress) {
			t.Fatalf("Exec() error = %v, want ErrAlreadyInProgress", err)
		}
	})
}

func TestStateTracker_RedisKey(t *testing.T) {
	tracker := New(nil, "")

	tests := []struct {
		name string
		key  string
	}{
		{name: "short key", key: "idea_submit:abc"},
		{name: "header sized key", key: "idea_submit:" + strings.Repeat("k", 8192)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tracker.redisKey(tt.key)

			if !strings.HasPrefix(got, "idempotency:") {
				t.Fatalf("redisKey() = %q, want default prefix", got)
			}
			if len(got) != len("idempotency:")+64 {
				t.Fatalf("len(redisKey()) = %d", len(got))
			}
			if got != tracker.redisKey(tt.key) {
				t.Fatalf("redisKey() is not stable")
			}
		})
	}

	if tracker.redisKey("a") == tracker.redisKey("b") {
		t.Fatalf("distinct keys collide")
	}
}

func TestStateTracker_UnknownStoredState(t *testing.T) {
	client := newRedis(t)
	tracker := New(client, "test:")
	ctx := context.Background()

	if err := client.Set(ctx, tracker.redisKey("submit-5"), "garbage", time.Minute).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := tracker.Acquire(ctx, "submit-5", time.Minute); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Acquire() error = %v, want ErrInvalidState", err)
	}
}
