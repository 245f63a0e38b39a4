package steps

import (
	"strings"
	"testing"
)

func TestAmountCommaAndDotAgree(t *testing.T) {
	step := NewAmount(100_000)
	for _, dotted := range []string{"0.01", "1", "25.50", "999.9", "100000"} {
		withComma := strings.ReplaceAll(dotted, ".", ",")

		a, errA := step.ValidateText(dotted)
		b, errB := step.ValidateText(withComma)
		if errA != nil || errB != nil {
			t.Fatalf("ValidateText(%q/%q) failed: %v / %v", dotted, withComma, errA, errB)
		}
		if a != b {
			t.Fatalf("separator changed the value: %q vs %q", a, b)
		}
	}
}

func TestAmountCanonicalValue(t *testing.T) {
	step := NewAmount(100_000)
	got, verr := step.ValidateText(" 25,5 ")
	if verr != nil {
		t.Fatalf("validate: %v", verr)
	}
	if got != "25.50" {
		t.Fatalf("value = %q, want 25.50", got)
	}
}

func TestAmountRejections(t *testing.T) {
	step := NewAmount(1000)
	for _, raw := range []string{"0", "-5", "abs", "", "12,34,56", "1001", "nan", "NaN", "inf", "+Inf", "-inf"} {
		value, verr := step.ValidateText(raw)
		if verr == nil {
			t.Fatalf("ValidateText(%q) accepted %q, want failure", raw, value)
		}
		if verr.Msg == "" {
			t.Fatalf("ValidateText(%q): empty error message", raw)
		}
		if value != "" {
			t.Fatalf("ValidateText(%q) returned a value with an error", raw)
		}
	}
}

func TestAmountCeilingBoundary(t *testing.T) {
	step := NewAmount(1000)
	if _, verr := step.ValidateText("1000"); verr != nil {
		t.Fatalf("amount equal to the ceiling must pass: %v", verr)
	}
	if _, verr := step.ValidateText("1000,01"); verr == nil {
		t.Fatal("amount above the ceiling must fail")
	}
}
