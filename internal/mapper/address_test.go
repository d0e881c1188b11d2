package mapper

import "testing"

func TestBuildAddresses_ValidPTPostalCode(t *testing.T) {
	field := `Rua A^^Lisboa^^1000-001^PT^C^^110503`
	addrs, warnings := BuildAddresses(field, "PID-11")
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if len(addrs) != 1 {
		t.Fatalf("expected 1 address, got %d", len(addrs))
	}
	a := addrs[0]
	if a.City != "Lisboa" || a.PostalCode != "1000-001" || a.Country != "PT" {
		t.Errorf("unexpected address: %+v", a)
	}
	if a.Type != "postal" {
		t.Errorf("Type = %q, want postal", a.Type)
	}
	if len(a.Extension) != 1 {
		t.Fatalf("expected 1 geo extension, got %d", len(a.Extension))
	}
}

func TestBuildAddresses_InvalidPTPostalCodeDropped(t *testing.T) {
	field := `Rua A^^Lisboa^^BADCODE^PT^C`
	addrs, warnings := BuildAddresses(field, "PID-11")
	if len(addrs) != 0 {
		t.Fatalf("expected address to be dropped, got %+v", addrs)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
}

func TestBuildAddresses_NonPTHyphenatedPostalDropped(t *testing.T) {
	field := `123 Main St^^Springfield^^12345-6789^US^H`
	addrs, _ := BuildAddresses(field, "PID-11")
	if len(addrs) != 0 {
		t.Fatalf("expected hyphenated non-PT postal code dropped, got %+v", addrs)
	}
}

func TestBuildAddresses_OfficeUse(t *testing.T) {
	field := `Rua B^^Porto^^4000-100^PRT^O`
	addrs, _ := BuildAddresses(field, "PID-11")
	if len(addrs) != 1 {
		t.Fatalf("expected 1 address, got %d", len(addrs))
	}
	if addrs[0].Use != "work" || addrs[0].Type != "both" {
		t.Errorf("unexpected use/type: %+v", addrs[0])
	}
	if addrs[0].Country != "PT" {
		t.Errorf("expected PRT normalized to PT, got %q", addrs[0].Country)
	}
}

func TestBuildBirthPlace_ThreeTokensSixCharSecond(t *testing.T) {
	ext := BuildBirthPlace("PT 110503 110503")
	if ext == nil {
		t.Fatal("expected non-nil extension")
	}
	if len(ext.Extension) != 6 {
		t.Fatalf("expected country + county+municipality (2nd token) + county+municipality+parish (3rd token) = 6 sub-extensions, got %d: %+v", len(ext.Extension), ext.Extension)
	}
}

func TestBuildBirthPlace_TwoCharSecondTokenCountyOnly(t *testing.T) {
	ext := BuildBirthPlace("PT 11")
	if ext == nil {
		t.Fatal("expected non-nil extension")
	}
	if len(ext.Extension) != 2 {
		t.Fatalf("expected country+county = 2 sub-extensions, got %d", len(ext.Extension))
	}
}

func TestBuildBirthPlace_Empty(t *testing.T) {
	if ext := BuildBirthPlace(""); ext != nil {
		t.Fatalf("expected nil extension for empty field, got %+v", ext)
	}
}
