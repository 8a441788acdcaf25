package server

import (
	"strings"
	"testing"
)

func TestConfigValidator_Required(t *testing.T) {
	t.Setenv("POSTGRES_PASSWORD", "")

	v := NewConfigValidator()
	v.ValidateRequired("POSTGRES_PASSWORD")

	if !v.HasErrors() {
		t.Error("Expected error for unset required variable")
	}
	if !strings.Contains(v.ErrorString(), "POSTGRES_PASSWORD") {
		t.Errorf("Expected field name in report, got %s", v.ErrorString())
	}
}

func TestConfigValidator_ListenAddr(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"0.0.0.0:1001", true},
		{":1001", true},
		{"localhost:8080", true},
		{"", true}, // empty is skipped
		{"no-port", false},
		{"host:notaport", false},
		{"host:70000", false},
		{"host:0", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			v := NewConfigValidator()
			v.ValidateListenAddr("BIND_ADDRESS", tt.value)

			if tt.valid && v.HasErrors() {
				t.Errorf("Expected %q to be valid: %s", tt.value, v.ErrorString())
			}
			if !tt.valid && !v.HasErrors() {
				t.Errorf("Expected %q to be rejected", tt.value)
			}
		})
	}
}

func TestConfigValidator_URL(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"https://hooks.example.com/coverage", true},
		{"http://localhost:9090/hook", true},
		{"ftp://example.com", false},
		{"not a url at all ://", false},
	}

	for _, tt := range tests {
		v := NewConfigValidator()
		v.ValidateURL("CVB_WEBHOOK_URLS", tt.value)

		if tt.valid && v.HasErrors() {
			t.Errorf("Expected %q to be valid: %s", tt.value, v.ErrorString())
		}
		if !tt.valid && !v.HasErrors() {
			t.Errorf("Expected %q to be rejected", tt.value)
		}
	}
}

func TestConfigValidator_PositiveFloat(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"1.0", true},
		{"0.5", true},
		{"0", false},
		{"-2", false},
		{"abc", false},
		{"", true},
	}

	for _, tt := range tests {
		v := NewConfigValidator()
		v.ValidatePositiveFloat("CVB_REGRESSION_THRESHOLD", tt.value)

		if tt.valid && v.HasErrors() {
			t.Errorf("Expected %q to be valid: %s", tt.value, v.ErrorString())
		}
		if !tt.valid && !v.HasErrors() {
			t.Errorf("Expected %q to be rejected", tt.value)
		}
	}
}

func TestConfigValidator_NonNegativeInt(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"0", true}, // zero disables retention, so it must validate
		{"30", true},
		{"-1", false},
		{"abc", false},
		{"", true},
	}

	for _, tt := range tests {
		v := NewConfigValidator()
		v.ValidateNonNegativeInt("CVB_RETENTION_DAYS", tt.value)

		if tt.valid && v.HasErrors() {
			t.Errorf("Expected %q to be valid: %s", tt.value, v.ErrorString())
		}
		if !tt.valid && !v.HasErrors() {
			t.Errorf("Expected %q to be rejected", tt.value)
		}
	}
}

func TestSplitWebhookURLs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"empty", "", 0},
		{"single", "http://a/hook", 1},
		{"two", "http://a/hook,http://b/hook", 2},
		{"whitespace and empties", " http://a/hook , ,http://b/hook,", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urls := SplitWebhookURLs(tt.raw)
			if len(urls) != tt.want {
				t.Errorf("Expected %d URLs, got %d (%v)", tt.want, len(urls), urls)
			}
			for _, u := range urls {
				if strings.TrimSpace(u) != u || u == "" {
					t.Errorf("Expected trimmed non-empty URL, got %q", u)
				}
			}
		})
	}
}

func TestValidateEnvironment_HappyPath(t *testing.T) {
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "coverage")
	t.Setenv("BIND_ADDRESS", "0.0.0.0:1001")
	t.Setenv("CVB_LOG_LEVEL", "info")
	t.Setenv("CVB_LOG_FORMAT", "json")
	t.Setenv("CVB_WEBHOOK_URLS", "https://hooks.example.com/a,https://hooks.example.com/b")
	t.Setenv("CVB_REGRESSION_THRESHOLD", "2.5")
	t.Setenv("CVB_RETENTION_DAYS", "30")
	t.Setenv("CVB_BACKUP_RETENTION_DAYS", "")

	if v := ValidateEnvironment(); v.HasErrors() {
		t.Errorf("Expected valid environment, got: %s", v.ErrorString())
	}
}

func TestValidateEnvironment_BadValues(t *testing.T) {
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "coverage")
	t.Setenv("BIND_ADDRESS", "")
	t.Setenv("CVB_LOG_LEVEL", "verbose")
	t.Setenv("CVB_LOG_FORMAT", "")
	t.Setenv("CVB_WEBHOOK_URLS", "ftp://bad")
	t.Setenv("CVB_REGRESSION_THRESHOLD", "-1")
	t.Setenv("CVB_RETENTION_DAYS", "")
	t.Setenv("CVB_BACKUP_RETENTION_DAYS", "")

	v := ValidateEnvironment()
	if len(v.Errors()) != 3 {
		t.Errorf("Expected 3 errors (log level, webhook URL, threshold), got %d: %s",
			len(v.Errors()), v.ErrorString())
	}
}
