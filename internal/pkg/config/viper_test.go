package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
app:
  maintenance:
    endpoints: "/a, /b,,"
modules:
  identity:
    otp_ttl_seconds: 300
    verify_return_role: true
  notification:
    idea_reviewers:
      - reviewer@corp.example
      - lead@corp.example
`

func TestViperFromBytes(t *testing.T) {
	// Arrange
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	// Act & Assert
	if got := cfg.GetSecond("modules.identity.otp_ttl_seconds"); got != 5*time.Minute {
		t.Fatalf("GetSecond() = %v", got)
	}
	if !cfg.GetBool("modules.identity.verify_return_role") {
		t.Fatalf("GetBool() = false")
	}

	endpoints := cfg.GetArray("app.maintenance.endpoints")
	if len(endpoints) != 2 || endpoints[0] != "/a" || endpoints[1] != "/b" {
		t.Fatalf("GetArray(csv) = %#v", endpoints)
	}

	reviewers := cfg.GetArray("modules.notification.idea_reviewers")
	if len(reviewers) != 2 || reviewers[1] != "lead@corp.example" {
		t.Fatalf("GetArray(seq) = %#v", reviewers)
	}

	if got := cfg.GetArray("missing.key"); len(got) != 0 {
		t.Fatalf("GetArray(missing) = %#v", got)
	}
}

func TestViperFromBytes_EnvOverride(t *testing.T) {
	t.Setenv("IDEABOX_MODULES_IDENTITY_OTP_TTL_SECONDS", "60")

	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	if got := cfg.GetSecond("modules.identity.otp_ttl_seconds"); got != time.Minute {
		t.Fatalf("GetSecond() = %v, want 1m", got)
	}
}

func TestViperFromBytes_RequiresType(t *testing.T) {
	if _, err := NewViperFromBytes(" ", nil); err == nil {
		t.Fatalf("expected error for empty config type")
	}
}

func TestViper_ReloadsOnWrite(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("app:\n  maintenance:\n    endpoints: \"\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper() error = %v", err)
	}
	t.Cleanup(func() { _ = cfg.Close() })
	if got := cfg.GetArray("app.maintenance.endpoints"); len(got) != 0 {
		t.Fatalf("initial endpoints = %v", got)
	}

	// Act
	if err := os.WriteFile(path, []byte("app:\n  maintenance:\n    endpoints: otp\n"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	// Assert
	deadline := time.Now().Add(5 * time.Second)
	for {
		got := cfg.GetArray("app.maintenance.endpoints")
		if len(got) == 1 && got[0] == "otp" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("endpoints = %v after reload, want [otp]", got)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestViper_BrokenReloadKeepsValues(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("modules:\n  identity:\n    otp_ttl_seconds: 300\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper() error = %v", err)
	}
	t.Cleanup(func() { _ = cfg.Close() })

	// Act
	if err := os.WriteFile(path, []byte("modules: [unclosed\n"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	// Assert
	if got := cfg.GetSecond("modules.identity.otp_ttl_seconds"); got != 5*time.Minute {
		t.Fatalf("GetSecond() = %v, want the pre-reload 5m", got)
	}
}

func TestGetBinary(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte("storage:\n  gcs:\n    credentials_json: eyJ0eXBlIjoic2EifQ==\n    bad: \"%%%\"\n"))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	if got := string(cfg.GetBinary("storage.gcs.credentials_json")); got != `{"type":"sa"}` {
		t.Fatalf("GetBinary() = %q", got)
	}
	if got := cfg.GetBinary("storage.gcs.bad"); got != nil {
		t.Fatalf("GetBinary(invalid) = %q, want nil", got)
	}
}
