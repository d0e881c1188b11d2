package idgen

import "testing"

func TestNameUUID_Deterministic(t *testing.T) {
	a := NameUUIDString([]byte("12345"))
	b := NameUUIDString([]byte("12345"))
	if a != b {
		t.Fatalf("expected deterministic id, got %s and %s", a, b)
	}
}

func TestNameUUID_DifferentInputsDiffer(t *testing.T) {
	a := NameUUIDString([]byte("12345"))
	b := NameUUIDString([]byte("99999"))
	if a == b {
		t.Fatalf("expected different ids for different inputs, got %s for both", a)
	}
}

func TestNameUUID_VersionAndVariant(t *testing.T) {
	u := NameUUID([]byte("patient-1"))
	if v := u.Version(); v != 3 {
		t.Fatalf("expected version 3, got %d", v)
	}
	if variant := u.Variant(); variant.String() != "RFC4122" {
		t.Fatalf("expected RFC4122 variant, got %s", variant)
	}
}

func TestNameUUID_LowerCase(t *testing.T) {
	s := NameUUIDString([]byte("ABCDEF"))
	for _, r := range s {
		if r >= 'A' && r <= 'F' {
			t.Fatalf("expected lower-case uuid, got %s", s)
		}
	}
}

func TestRandom_Unique(t *testing.T) {
	if Random() == Random() {
		t.Fatal("expected random ids to differ")
	}
}
