package uid

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestUUID_Generate(t *testing.T) {
	var gen StringID = NewUUID()

	a := gen.Generate()
	b := gen.Generate()

	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
	parsed, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("uuid.Parse(%q) error = %v", a, err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected v7, got v%d", parsed.Version())
	}
}

func TestUUID_SortsByCreation(t *testing.T) {
	gen := NewUUID()

	prev := gen.Generate()
	for range 100 {
		next := gen.Generate()
		if next <= prev {
			t.Fatalf("ids not increasing: %q then %q", prev, next)
		}
		prev = next
	}
}

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "prefixed", prefix: "mq-", want: "mq-"},
		{name: "empty prefix is passthrough", prefix: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			id := WithPrefix(NewUUID(), tt.prefix).Generate()

			// Assert
			if !strings.HasPrefix(id, tt.want) {
				t.Fatalf("id = %q, want prefix %q", id, tt.want)
			}
			if _, err := uuid.Parse(strings.TrimPrefix(id, tt.prefix)); err != nil {
				t.Fatalf("suffix of %q is not a uuid: %v", id, err)
			}
		})
	}
}
