package inglesh

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ConfigMustString returns the string value for the given key.
// It panics if the key doesn't exist or the value is empty.
//
// Example:
//
//	signingKey := inglesh.ConfigMustString("identity.signingKey", "Set LI__IDENTITY__SIGNING_KEY environment variable")
func ConfigMustString(key, helpMsg string) string {
	if !Config.Exists(key) {
		panic(fmt.Sprintf("required config '%s' not set: %s", key, helpMsg))
	}
	value := Config.String(key)
	if value == "" {
		panic(fmt.Sprintf("required config '%s' is empty: %s", key, helpMsg))
	}
	return value
}

// ConfigMustInt returns the int value for the given key with range validation.
// It panics if the key doesn't exist or the value is outside the given range.
//
// Example:
//
//	port := inglesh.ConfigMustInt("email.smtp.port", 1, 65535)
func ConfigMustInt(key string, minVal, maxVal int) int {
	if !Config.Exists(key) {
		panic(fmt.Sprintf("required config '%s' not set (expected %d-%d)", key, minVal, maxVal))
	}
	value := Config.Int(key)
	if err := ValidateIntRange(value, minVal, maxVal); err != nil {
		panic(fmt.Sprintf("config '%s': %v", key, err))
	}
	return value
}

// ConfigMustDurationRange returns the duration value for the given key with range validation.
// It panics if the key doesn't exist or the value is outside the given range.
//
// Example:
//
//	ttl := inglesh.ConfigMustDurationRange("identity.sessionTtl", time.Minute, 90*24*time.Hour)
func ConfigMustDurationRange(key string, minVal, maxVal time.Duration) time.Duration {
	if !Config.Exists(key) {
		panic(fmt.Sprintf("required config '%s' not set (expected %s-%s)", key, minVal, maxVal))
	}
	value := Config.Duration(key)
	if err := ValidateDurationRange(value, minVal, maxVal); err != nil {
		panic(fmt.Sprintf("config '%s': %v", key, err))
	}
	return value
}

// ValidateIntRange validates that a value is within the given range (inclusive).
func ValidateIntRange(value, minVal, maxVal int) error {
	if value < minVal || value > maxVal {
		return fmt.Errorf("must be between %d and %d, got: %d", minVal, maxVal, value)
	}
	return nil
}

// ValidateDurationRange validates that a duration is within the given range (inclusive).
func ValidateDurationRange(value, minVal, maxVal time.Duration) error {
	if value < minVal || value > maxVal {
		return fmt.Errorf("must be between %s and %s, got: %s", minVal, maxVal, value)
	}
	return nil
}

// ValidatePort validates that a port number is valid (1-65535).
func ValidatePort(port int) error {
	return ValidateIntRange(port, 1, 65535)
}

// ValidatePositiveInt validates that an integer is positive (> 0).
func ValidatePositiveInt(value int) error {
	if value <= 0 {
		return fmt.Errorf("must be positive, got: %d", value)
	}
	return nil
}

// ValidatePositiveDuration validates that a duration is positive (> 0).
func ValidatePositiveDuration(value time.Duration) error {
	if value <= 0 {
		return fmt.Errorf("must be positive, got: %s", value)
	}
	return nil
}

// ValidateNonNegativeDuration validates that a duration is non-negative (>= 0).
func ValidateNonNegativeDuration(value time.Duration) error {
	if value < 0 {
		return fmt.Errorf("must be non-negative, got: %s", value)
	}
	return nil
}

// ValidateNonEmpty validates that a string is not empty.
func ValidateNonEmpty(value string) error {
	if value == "" {
		return errors.New("cannot be empty")
	}
	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Key     string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// ValidateConfig performs comprehensive validation of critical configuration values.
// Returns all validation errors found, or nil if configuration is valid.
//
// This should be called early in app initialization to fail fast on misconfigurations.
func ValidateConfig() []ValidationError {
	var errors []ValidationError

	// Validate dataDir is not empty if set
	if Config.Exists("dataDir") {
		if err := ValidateNonEmpty(Config.String("dataDir")); err != nil {
			errors = append(errors, ValidationError{
				Key:     "dataDir",
				Message: err.Error(),
			})
		}
	}

	// Validate identity.sessionTtl if set
	if Config.Exists("identity.sessionTtl") {
		duration := Config.Duration("identity.sessionTtl")
		if err := ValidatePositiveDuration(duration); err != nil {
			errors = append(errors, ValidationError{
				Key:     "identity.sessionTtl",
				Message: err.Error(),
			})
		}
	}

	// Validate identity.refreshThreshold if set. Zero disables proactive
	// refresh, which is valid.
	if Config.Exists("identity.refreshThreshold") {
		duration := Config.Duration("identity.refreshThreshold")
		if err := ValidateNonNegativeDuration(duration); err != nil {
			errors = append(errors, ValidationError{
				Key:     "identity.refreshThreshold",
				Message: err.Error(),
			})
		}
	}

	// Validate identity.minPasswordLength if set
	if Config.Exists("identity.minPasswordLength") {
		length := Config.Int("identity.minPasswordLength")
		if err := ValidateIntRange(length, 4, 128); err != nil {
			errors = append(errors, ValidationError{
				Key:     "identity.minPasswordLength",
				Message: err.Error(),
			})
		}
	}

	// Validate identity.throttle.attempts if set
	if Config.Exists("identity.throttle.attempts") {
		attempts := Config.Int("identity.throttle.attempts")
		if err := ValidatePositiveInt(attempts); err != nil {
			errors = append(errors, ValidationError{
				Key:     "identity.throttle.attempts",
				Message: err.Error(),
			})
		}
	}

	// Validate email.smtp.port if set
	if Config.Exists("email.smtp.port") {
		port := Config.Int("email.smtp.port")
		if err := ValidatePort(port); err != nil {
			errors = append(errors, ValidationError{
				Key:     "email.smtp.port",
				Message: err.Error(),
			})
		}
	}

	return errors
}

// FormatValidationErrors formats a slice of validation errors into a readable error message.
func FormatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	sb.WriteString("\nFix these errors in inglesh.yaml or environment variables and try again.")
	return sb.String()
}
