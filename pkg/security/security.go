package security

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jdziat/backgrounder/pkg/core"
)

// Security limits and configuration
const (
	// MaxTypeNameLength is the maximum length for registered type names
	MaxTypeNameLength = 255

	// MaxArgsSize is the maximum size in bytes for encoded job arguments (1MB)
	MaxArgsSize = 1 << 20

	// MaxRetries is the hard limit for retry attempts
	MaxRetries = 100

	// MaxConcurrency is the hard limit for worker concurrency
	MaxConcurrency = 1000

	// MaxErrorMessageLength is the maximum length for stored error messages
	MaxErrorMessageLength = 4096

	// MaxQueueNameLength is the maximum length for queue names
	MaxQueueNameLength = 255
)

var (
	ErrInvalidTypeName = errors.New("backgrounder: invalid type name")
	ErrArgsTooLarge    = errors.New("backgrounder: job arguments exceed size limit")
)

// validQueueName matches alphanumeric, hyphens, underscores, and dots
var validQueueName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_\-\.]*$`)

// validTypeName additionally allows "::" namespace separators
var validTypeName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_\.]*(::[a-zA-Z][a-zA-Z0-9_\.]*)*$`)

// ValidateTypeName validates a name passed to the type registry
func ValidateTypeName(name string) error {
	if name == "" || len(name) > MaxTypeNameLength {
		return ErrInvalidTypeName
	}
	if !validTypeName.MatchString(name) {
		return ErrInvalidTypeName
	}
	return nil
}

// ValidateQueueName validates a queue name
func ValidateQueueName(name string) error {
	if name == "" {
		return core.ErrInvalidQueueName
	}
	if len(name) > MaxQueueNameLength {
		return core.ErrQueueNameTooLong
	}
	if !validQueueName.MatchString(name) {
		return core.ErrInvalidQueueName
	}
	return nil
}

// ValidateArgsSize rejects encoded arguments over MaxArgsSize
func ValidateArgsSize(encoded []byte) error {
	if len(encoded) > MaxArgsSize {
		return ErrArgsTooLarge
	}
	return nil
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// ClampRetries ensures retry count is within limits
func ClampRetries(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxRetries {
		return MaxRetries
	}
	return n
}

// ClampConcurrency ensures concurrency is within limits
func ClampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}
