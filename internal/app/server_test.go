package app

import (
	"testing"
	"time"

	"github.com/shandysiswandi/ideabox/internal/pkg/config"
)

func TestShutdownTimeout(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want time.Duration
	}{
		{name: "configured", yaml: "app:\n  server:\n    shutdown_timeout_seconds: 25\n", want: 25 * time.Second},
		{name: "missing falls back", yaml: "app: {}\n", want: defaultShutdownTimeout},
		{name: "negative falls back", yaml: "app:\n  server:\n    shutdown_timeout_seconds: -1\n", want: defaultShutdownTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.NewViperFromBytes("yaml", []byte(tt.yaml))
			if err != nil {
				t.Fatalf("config: %v", err)
			}

			if got := (&App{config: cfg}).ShutdownTimeout(); got != tt.want {
				t.Fatalf("ShutdownTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}
