package uid

import (
	"errors"
	"testing"
)

func TestSentinels(t *testing.T) {
	if !Null.IsNull() {
		t.Error("Null.IsNull() = false")
	}
	if Null.IsValid() {
		t.Error("Null should not be valid")
	}
	if Uninitialized.IsValid() {
		t.Error("Uninitialized should not be valid")
	}
	if !New(0x001B92FFFE000001).IsValid() {
		t.Error("regular ID should be valid")
	}
}

func TestComparableAndHashable(t *testing.T) {
	a := New(42)
	b := New(42)
	if a != b {
		t.Fatal("equal values should compare equal")
	}

	m := map[ID]string{a: "entity"}
	if m[b] != "entity" {
		t.Error("ID should be usable as a map key")
	}
}

func TestString(t *testing.T) {
	got := New(0x001B92FFFE000001).String()
	if got != "0x001B92FFFE000001" {
		t.Errorf("String() = %q", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"0x001B92FFFE000001", 0x001B92FFFE000001},
		{"001b92fffe000001", 0x001B92FFFE000001},
		{"00-1B-92-FF-FE-00-00-01", 0x001B92FFFE000001},
		{"00:1b:92:ff:fe:00:00:01", 0x001B92FFFE000001},
		{"0x1", 1},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.in, err)
			continue
		}
		if got.Value() != tt.want {
			t.Errorf("Parse(%q) = %s, want 0x%016X", tt.in, got, tt.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "0x", "zz", "0x00112233445566778899"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidFormat", in, err)
		}
	}
}

func TestTextMarshaling(t *testing.T) {
	id := New(0xDEADBEEF00000001)
	text, err := id.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}

	var decoded ID
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if decoded != id {
		t.Errorf("got %s, want %s", decoded, id)
	}
}

func TestVendorID(t *testing.T) {
	if got := New(0x001B92FFFE000001).VendorID(); got != 0x001B92 {
		t.Errorf("VendorID() = 0x%06X", got)
	}
}
