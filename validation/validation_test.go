package validation

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/skillsenselab/clipwise/errors"
)

func TestValidate_StructTags(t *testing.T) {
	type cfg struct {
		Provider string `json:"provider" validate:"required,oneof=ollama openai"`
		Workers  int    `json:"workers" validate:"min=1,max=8"`
	}

	if err := Validate(cfg{Provider: "ollama", Workers: 3}); err != nil {
		t.Fatalf("valid struct: %v", err)
	}

	err := Validate(cfg{Provider: "gemini", Workers: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("error is %T, want *errors.AppError", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("code = %v", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "provider") || !strings.Contains(appErr.Message, "workers") {
		t.Errorf("message %q missing field names", appErr.Message)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Errorf("details fields = %#v", appErr.Details["fields"])
	}
}

func TestValidator_Builder(t *testing.T) {
	v := New().
		Required("name", "").
		Range("port", 70000, 0, 65535).
		Min("workers", 0, 1).
		Fraction("overlap", 1.5).
		OneOf("provider", "gemini", []string{"ollama", "openai"}).
		Custom(false, "chunk", "must be positive")

	if !v.HasErrors() {
		t.Fatal("expected errors")
	}
	if got := len(v.Errors()); got != 6 {
		t.Fatalf("got %d errors, want 6: %+v", got, v.Errors())
	}
	appErr := v.Validate()
	if appErr == nil || appErr.Code != errors.ErrCodeInvalidInput {
		t.Fatalf("Validate() = %v", appErr)
	}
}

func TestValidator_PassingChecks(t *testing.T) {
	v := New().
		Required("name", "clipwise").
		Range("port", 8080, 0, 65535).
		Fraction("overlap", 0.2).
		OneOf("provider", "", []string{"ollama"})
	if v.HasErrors() {
		t.Fatalf("unexpected errors: %+v", v.Errors())
	}
	if v.Validate() != nil {
		t.Fatal("Validate() should be nil")
	}
}

func TestToSnakeCase(t *testing.T) {
	cases := map[string]string{
		"TokenBudget":  "token_budget",
		"URL":          "u_r_l",
		"workers":      "workers",
		"MaxBodyBytes": "max_body_bytes",
	}
	for in, want := range cases {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
