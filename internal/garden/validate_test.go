package garden

import (
	"strings"
	"testing"
)

func TestValidateGardenName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple name", "My Garden", false},
		{"letters digits spaces", "Bed 12 North", false},
		{"single char", "A", false},
		{"max length ok", strings.Repeat("a", 40), false},
		{"trimmed before checking", "  Herb Garden  ", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("a", 41), true},
		{"slash rejected", "My/Garden", true},
		{"punctuation rejected", "Garden!", true},
		{"unicode rejected", "Jardín", true},
		{"hyphen rejected", "north-bed", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := ValidateGardenName(tt.input)
			if tt.wantErr && fe == nil {
				t.Errorf("ValidateGardenName(%q) = nil, want error", tt.input)
			}
			if !tt.wantErr && fe != nil {
				t.Errorf("ValidateGardenName(%q) = %v, want nil", tt.input, fe)
			}
			if fe != nil && fe.Field != "name" {
				t.Errorf("field: got %q, want name", fe.Field)
			}
		})
	}
}

func TestValidateGardenDescription(t *testing.T) {
	if fe := ValidateGardenDescription(strings.Repeat("x", 500)); fe != nil {
		t.Errorf("500 chars should be valid, got %v", fe)
	}
	if fe := ValidateGardenDescription(strings.Repeat("x", 501)); fe == nil {
		t.Error("501 chars should be invalid")
	}
	if fe := ValidateGardenDescription(""); fe != nil {
		t.Errorf("empty description should be valid, got %v", fe)
	}
}

func TestValidateGardenData_AggregatesErrors(t *testing.T) {
	errs := ValidateGardenData("", strings.Repeat("x", 501))
	if len(errs) != 2 {
		t.Fatalf("expected 2 field errors, got %d: %v", len(errs), errs)
	}
	if errs[0].Field != "name" || errs[1].Field != "description" {
		t.Errorf("unexpected fields: %v", errs)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	err := ValidationErrors{
		{Field: "name", Message: "name is required"},
		{Field: "description", Message: "too long"},
	}
	msg := err.Error()
	if !strings.Contains(msg, "name: name is required") {
		t.Errorf("message missing first error: %q", msg)
	}
	if !strings.Contains(msg, "description: too long") {
		t.Errorf("message missing second error: %q", msg)
	}
}
