package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/kbukum/voiceid/errors"
)

func TestValidatorRequired(t *testing.T) {
	if New().Required("name", "alice").HasErrors() {
		t.Error("expected no errors for valid input")
	}
	if !New().Required("name", "").HasErrors() {
		t.Error("expected error for empty required field")
	}
	if !New().Required("name", "   ").HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorNumbers(t *testing.T) {
	tests := []struct {
		name    string
		run     func(v *Validator)
		wantErr bool
	}{
		{"finite ok", func(v *Validator) { v.Finite("start", 1.5) }, false},
		{"nan", func(v *Validator) { v.Finite("start", math.NaN()) }, true},
		{"inf", func(v *Validator) { v.Finite("end", math.Inf(1)) }, true},
		{"non-negative zero", func(v *Validator) { v.NonNegative("start", 0) }, false},
		{"negative", func(v *Validator) { v.NonNegative("start", -0.1) }, true},
		{"before ok", func(v *Validator) { v.Before("start", 1, 2) }, false},
		{"before equal", func(v *Validator) { v.Before("start", 2, 2) }, true},
		{"vector ok", func(v *Validator) { v.FiniteVector("embedding", []float64{1, 0}) }, false},
		{"vector empty", func(v *Validator) { v.FiniteVector("embedding", nil) }, true},
		{"vector nan", func(v *Validator) { v.FiniteVector("embedding", []float64{1, math.NaN()}) }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := New()
			tc.run(v)
			if v.HasErrors() != tc.wantErr {
				t.Errorf("HasErrors = %v, want %v (%v)", v.HasErrors(), tc.wantErr, v.Errors())
			}
		})
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"word-prototype", "segment-nearest"}
	if New().OneOf("strategy", "word-prototype", allowed).HasErrors() {
		t.Error("expected no error for valid value")
	}
	if !New().OneOf("strategy", "random", allowed).HasErrors() {
		t.Error("expected error for invalid value")
	}
	if New().OneOf("strategy", "", allowed).HasErrors() {
		t.Error("expected empty value to be skipped")
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New().Custom(false, "field", "custom error")
	if !v.HasErrors() || v.Errors()[0].Message != "custom error" {
		t.Errorf("unexpected errors %v", v.Errors())
	}
}

func TestValidatorValidate(t *testing.T) {
	if err := New().Required("name", "alice").Validate(); err != nil {
		t.Errorf("expected nil for valid input, got %v", err)
	}

	appErr := New().Required("name", "").NonNegative("start", -1).Validate()
	if appErr == nil {
		t.Fatal("expected error")
	}
	if !appErr.Fatal || appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected fatal INVALID_INPUT, got %+v", appErr)
	}
	if !strings.Contains(appErr.Message, "name") || !strings.Contains(appErr.Message, "start") {
		t.Errorf("expected both fields in message, got %q", appErr.Message)
	}
	if _, ok := appErr.Details["fields"]; !ok {
		t.Error("expected field details")
	}
}

type options struct {
	Strategy  string  `mapstructure:"strategy" validate:"required,oneof=word-prototype segment-nearest"`
	Threshold float64 `mapstructure:"threshold" validate:"gte=0,lte=2"`
	Window    int     `mapstructure:"window" validate:"gte=0"`
	MaxItems  int     `json:"max_items" validate:"gt=0"`
}

func TestStructValidateValid(t *testing.T) {
	err := Validate(options{Strategy: "word-prototype", Threshold: 0.5, Window: 2, MaxItems: 1})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	err := Validate(options{Strategy: "random", Threshold: 3, Window: -1})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, field := range []string{"strategy", "threshold", "window", "max_items"} {
		if !strings.Contains(msg, field) {
			t.Errorf("expected error to mention %q, got %q", field, msg)
		}
	}
	if !errors.IsFatal(err) {
		t.Error("struct validation errors should be fatal")
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("ClusterThreshold"); got != "cluster_threshold" {
		t.Errorf("got %q", got)
	}
}
