package garden

import "strings"

// Field length limits for garden input.
const (
	maxNameLength        = 40
	maxDescriptionLength = 500
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateGardenName checks the trimmed name: 1-40 characters, ASCII letters,
// digits and spaces only.
func ValidateGardenName(name string) *FieldError {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return &FieldError{Field: "name", Message: "name is required"}
	}
	if len(trimmed) > maxNameLength {
		return &FieldError{Field: "name", Message: "name must be at most 40 characters"}
	}
	for _, r := range trimmed {
		if !isNameRune(r) {
			return &FieldError{Field: "name", Message: "name may only contain letters, digits and spaces"}
		}
	}
	return nil
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
		return true
	}
	return false
}

// ValidateGardenDescription checks the optional description, at most 500
// characters untrimmed.
func ValidateGardenDescription(desc string) *FieldError {
	if len(desc) > maxDescriptionLength {
		return &FieldError{Field: "description", Message: "description must be at most 500 characters"}
	}
	return nil
}

// ValidateGardenData aggregates all field errors so callers can report every
// problem at once rather than stopping at the first.
func ValidateGardenData(name, description string) []FieldError {
	var errs []FieldError
	if fe := ValidateGardenName(name); fe != nil {
		errs = append(errs, *fe)
	}
	if fe := ValidateGardenDescription(description); fe != nil {
		errs = append(errs, *fe)
	}
	return errs
}
