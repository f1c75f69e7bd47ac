// Package validation provides input validation middleware for the Ridgeline API.
package validation

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ridgeline-labs/ridgeline/internal/identity"
)

// MaxCaseIDLength is the maximum length for case identifiers
const MaxCaseIDLength = 128

// MaxSectorLength is the maximum length for sector labels
const MaxSectorLength = 64

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// SanitizeString removes dangerous characters and limits length
func SanitizeString(s string, maxLen int) string {
	// Trim whitespace
	s = strings.TrimSpace(s)

	// Limit length
	if len(s) > maxLen {
		s = s[:maxLen]
	}

	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	return s
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Field + ": " + e[0].Message
}

// Validate validates a request and returns errors
func Validate(validators ...func() *ValidationError) ValidationErrors {
	var errors ValidationErrors
	for _, v := range validators {
		if err := v(); err != nil {
			errors = append(errors, *err)
		}
	}
	return errors
}

// MaxLength checks if a field exceeds max length
func MaxLength(field, value string, max int) func() *ValidationError {
	return func() *ValidationError {
		if len(value) > max {
			return &ValidationError{Field: field, Message: "exceeds maximum length"}
		}
		return nil
	}
}

// KeyParamMiddleware validates the :key URL parameter on routes that use it.
// Apply to route groups that include :key params to reject malformed identity
// keys early.
func KeyParamMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")
		if key != "" && !identity.IsValidKey(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_identity_key",
				"message": "key must be a 32-character lowercase hex identity key",
			})
			return
		}
		c.Next()
	}
}
