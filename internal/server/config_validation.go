// config_validation.go - Startup validation of environment configuration.
//
// Checks every variable up front so a misconfigured deployment fails with
// one readable report instead of dying mid-request.
package server

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// ConfigValidationError represents a configuration validation error.
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// ConfigValidator validates application configuration.
type ConfigValidator struct {
	errors []ConfigValidationError
}

// NewConfigValidator creates a new configuration validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		errors: make([]ConfigValidationError, 0),
	}
}

// AddError adds a validation error.
func (v *ConfigValidator) AddError(field, message string) {
	v.errors = append(v.errors, ConfigValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *ConfigValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *ConfigValidator) Errors() []ConfigValidationError {
	return v.errors
}

// ErrorString returns a formatted string of all errors.
func (v *ConfigValidator) ErrorString() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n", len(v.errors)))
	for i, err := range v.errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidateRequired validates that a required environment variable is set.
func (v *ConfigValidator) ValidateRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		v.AddError(key, "required environment variable not set")
	}
	return value
}

// ValidateListenAddr validates a host:port listen address.
func (v *ConfigValidator) ValidateListenAddr(key, value string) {
	if value == "" {
		return
	}

	_, portStr, err := net.SplitHostPort(value)
	if err != nil {
		v.AddError(key, fmt.Sprintf("must be host:port: %v", err))
		return
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		v.AddError(key, "port must be a number")
		return
	}
	if port < 1 || port > 65535 {
		v.AddError(key, "port must be between 1 and 65535")
	}
}

// ValidateURL validates that a value is a valid http(s) URL.
func (v *ConfigValidator) ValidateURL(key, value string) {
	if value == "" {
		return
	}

	parsed, err := url.Parse(value)
	if err != nil {
		v.AddError(key, fmt.Sprintf("invalid URL format: %v", err))
		return
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		v.AddError(key, "URL must use http or https scheme")
	}
}

// ValidateEnum validates that a value is one of allowed options.
func (v *ConfigValidator) ValidateEnum(key, value string, allowed []string) {
	if value == "" {
		return
	}

	for _, opt := range allowed {
		if value == opt {
			return
		}
	}

	v.AddError(key, fmt.Sprintf("must be one of: %s (got: %s)", strings.Join(allowed, ", "), value))
}

// ValidatePositiveInt validates that a value is a positive integer.
func (v *ConfigValidator) ValidatePositiveInt(key, value string) {
	if value == "" {
		return
	}

	num, err := strconv.Atoi(value)
	if err != nil {
		v.AddError(key, "must be a valid integer")
		return
	}

	if num <= 0 {
		v.AddError(key, "must be a positive integer")
	}
}

// ValidateNonNegativeInt validates that a value is an integer >= 0.
func (v *ConfigValidator) ValidateNonNegativeInt(key, value string) {
	if value == "" {
		return
	}

	num, err := strconv.Atoi(value)
	if err != nil {
		v.AddError(key, "must be a valid integer")
		return
	}

	if num < 0 {
		v.AddError(key, "must not be negative")
	}
}

// ValidatePositiveFloat validates that a value is a positive decimal number.
func (v *ConfigValidator) ValidatePositiveFloat(key, value string) {
	if value == "" {
		return
	}

	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		v.AddError(key, "must be a valid number")
		return
	}

	if num <= 0 {
		v.AddError(key, "must be a positive number")
	}
}

// ValidateEnvironment checks the full environment surface of the service.
// The two Postgres variables are the only hard requirements.
func ValidateEnvironment() *ConfigValidator {
	v := NewConfigValidator()

	v.ValidateRequired("POSTGRES_PASSWORD")
	v.ValidateRequired("POSTGRES_DB")

	v.ValidateListenAddr("BIND_ADDRESS", os.Getenv("BIND_ADDRESS"))

	v.ValidateEnum("CVB_LOG_LEVEL", os.Getenv("CVB_LOG_LEVEL"),
		[]string{"debug", "info", "warn", "error"})
	v.ValidateEnum("CVB_LOG_FORMAT", os.Getenv("CVB_LOG_FORMAT"),
		[]string{"json", "text"})

	for _, u := range SplitWebhookURLs(os.Getenv("CVB_WEBHOOK_URLS")) {
		v.ValidateURL("CVB_WEBHOOK_URLS", u)
	}

	v.ValidatePositiveFloat("CVB_REGRESSION_THRESHOLD", os.Getenv("CVB_REGRESSION_THRESHOLD"))
	// Zero is a valid retention setting: it means keep everything.
	v.ValidateNonNegativeInt("CVB_RETENTION_DAYS", os.Getenv("CVB_RETENTION_DAYS"))
	v.ValidatePositiveInt("CVB_BACKUP_RETENTION_DAYS", os.Getenv("CVB_BACKUP_RETENTION_DAYS"))

	return v
}

// SplitWebhookURLs parses the comma-separated receiver list.
func SplitWebhookURLs(raw string) []string {
	if raw == "" {
		return nil
	}

	var urls []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			urls = append(urls, part)
		}
	}
	return urls
}
