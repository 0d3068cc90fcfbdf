package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestGeocoderConfig_DisabledSkipsChecks(t *testing.T) {
	cfg := GeocoderConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled geocoder should pass: %v", err)
	}
}

func TestGeocoderConfig_EnabledNeedsUserAgent(t *testing.T) {
	cfg := GeocoderConfig{Enabled: true, UserAgent: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("enabled geocoder without user_agent should fail")
	}
	if !strings.Contains(err.Error(), "user_agent") {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.UserAgent = "wunjo/1.0 (ops@example.com)"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("enabled geocoder with user_agent should pass: %v", err)
	}
}

func TestTimeoutDefaults(t *testing.T) {
	g := GeocoderConfig{}
	if got := g.Timeout(); got != 10*time.Second {
		t.Errorf("geocoder default timeout = %v", got)
	}
	p := ProbeConfig{TimeoutSeconds: 3}
	if got := p.Timeout(); got != 3*time.Second {
		t.Errorf("probe timeout = %v, want 3s", got)
	}
}

func TestProbeConfig_EmptyPathFails(t *testing.T) {
	cfg := ProbeConfig{FFprobePath: ""}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty ffprobe path should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}
