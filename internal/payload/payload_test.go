package payload

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := New(KindPeriod, "m", "03", "y", "2025")
	data := Encode(in)

	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Kind != KindPeriod {
		t.Fatalf("kind = %q, want %q", out.Kind, KindPeriod)
	}
	if got := out.Get("m"); got != "03" {
		t.Fatalf("m = %q, want 03", got)
	}
	if got := out.Get("y"); got != "2025" {
		t.Fatalf("y = %q, want 2025", got)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a := Encode(New(KindCategory, "pg", "2", "id", "7"))
	b := Encode(New(KindCategory, "id", "7", "pg", "2"))
	if a != b {
		t.Fatalf("encoding not deterministic: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, Version+"|") {
		t.Fatalf("missing version prefix: %q", a)
	}
}

func TestEncodeEscapesValues(t *testing.T) {
	data := Encode(New(KindContact, "q", "a;b=c|d"))
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := out.Get("q"); got != "a;b=c|d" {
		t.Fatalf("q = %q, want original value back", got)
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	_, err := Decode("9|cat|id=1")
	if !errors.Is(err, ErrVersion) {
		t.Fatalf("err = %v, want ErrVersion", err)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, data := range []string{"", "1", "1|", "1||", "1|cat|id", "garbage"} {
		if _, err := Decode(data); err == nil {
			t.Fatalf("Decode(%q) succeeded, want error", data)
		}
	}
}

func TestIntAccessors(t *testing.T) {
	p := New(KindNav, "pg", "3", "bad", "x")
	if n, ok := p.Int("pg"); !ok || n != 3 {
		t.Fatalf("Int(pg) = %d, %v", n, ok)
	}
	if _, ok := p.Int("bad"); ok {
		t.Fatal("Int(bad) should fail")
	}
	if _, ok := p.Int("absent"); ok {
		t.Fatal("Int(absent) should fail")
	}
	if id, ok := p.With("id", "42").Int64("id"); !ok || id != 42 {
		t.Fatalf("Int64(id) = %d, %v", id, ok)
	}
}

func TestEncodeStaysWithinTelegramLimit(t *testing.T) {
	data := Encode(New(KindPeriod, "m", "12", "y", "2025"))
	if len(data) > MaxLen {
		t.Fatalf("payload %q is %d bytes, over the %d limit", data, len(data), MaxLen)
	}
}
