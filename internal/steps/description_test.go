package steps

import (
	"strings"
	"testing"
)

func TestDescriptionAcceptsReasonableText(t *testing.T) {
	step := NewDescription(120)
	for _, raw := range []string{
		"Cena sociale di fine anno",
		"Rimborso spese (trasferta Roma)",
		"Quota 2025, 2a rata",
	} {
		got, verr := step.ValidateText(raw)
		if verr != nil {
			t.Fatalf("ValidateText(%q): %v", raw, verr)
		}
		if got != strings.TrimSpace(raw) {
			t.Fatalf("ValidateText(%q) = %q", raw, got)
		}
	}
}

func TestDescriptionRejections(t *testing.T) {
	step := NewDescription(20)
	cases := []string{
		"",
		"   ",
		"123 456",                 // no letter
		"<script>alert(1)</script>", // charset
		"questa descrizione supera il limite",
	}
	for _, raw := range cases {
		if _, verr := step.ValidateText(raw); verr == nil {
			t.Fatalf("ValidateText(%q) accepted, want failure", raw)
		}
	}
}
