package clock

import (
	"testing"
	"time"
)

func TestSystem_NowIsUTCMillis(t *testing.T) {
	// Act
	now := NewSystem().Now()

	// Assert
	if now.Location() != time.UTC {
		t.Fatalf("location = %v, want UTC", now.Location())
	}
	if now.Nanosecond()%int(time.Millisecond) != 0 {
		t.Fatalf("now = %v carries sub-millisecond precision", now)
	}
}

func TestManual(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		move func(m *Manual)
		want time.Time
	}{
		{name: "frozen", move: func(*Manual) {}, want: start},
		{name: "advance past a 300s ttl", move: func(m *Manual) { m.Advance(301 * time.Second) }, want: start.Add(301 * time.Second)},
		{name: "set", move: func(m *Manual) { m.Set(start.Add(time.Hour)) }, want: start.Add(time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			m := NewManual(start)

			// Act
			tt.move(m)

			// Assert
			if got := m.Now(); !got.Equal(tt.want) {
				t.Fatalf("Now() = %v, want %v", got, tt.want)
			}
		})
	}
}
