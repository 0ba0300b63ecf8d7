package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/guilhermexp/zenith-tasks/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("item_type", validateItemType); err != nil {
		panic(fmt.Sprintf("failed to register item_type validator: %v", err))
	}
}

// validateItemType validates that a string is a valid ItemType enum value
func validateItemType(fl validator.FieldLevel) bool {
	return models.ItemType(fl.Field().String()).Valid()
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateItemType validates an ItemType string value
func ValidateItemType(value string) error {
	if !models.ItemType(value).Valid() {
		return fmt.Errorf("invalid item type: %s (must be 'task', 'idea', 'note', 'reminder', 'financial', or 'meeting')", value)
	}
	return nil
}
