package mapper

import (
	"regexp"
	"strings"

	"github.com/route-beacon/mllp-gateway/internal/fhir"
	"github.com/route-beacon/mllp-gateway/internal/hl7"
	"github.com/route-beacon/mllp-gateway/internal/terminology"
)

var ptPostalCode = regexp.MustCompile(`^\d{4}-\d{3}$`)

// BuildAddresses maps every PID-11/NK1-4 XAD repetition to a FHIR Address,
// dropping (with a warning) any whose postal code fails the Portuguese
// format check, per spec.md §4.3.
func BuildAddresses(field string, sourceField string) ([]fhir.Address, []Warning) {
	var out []fhir.Address
	var warnings []Warning

	for _, xad := range hl7.Repetitions(field) {
		if xad == "" {
			continue
		}
		sad1 := hl7.SubComponent(hl7.Component(xad, 1), 1)
		line2 := hl7.Component(xad, 2)
		city := hl7.Component(xad, 3)
		district := hl7.Component(xad, 4)
		postal := hl7.Component(xad, 5)
		country := normalizeCountry(hl7.Component(xad, 6))
		xad7 := hl7.Component(xad, 7)
		xad9 := hl7.Component(xad, 9)

		if country == "PT" {
			if postal != "" && !ptPostalCode.MatchString(postal) {
				warnings = append(warnings, warnf(sourceField, "dropping address with invalid PT postal code %q", postal))
				continue
			}
		} else if strings.Contains(postal, "-") {
			warnings = append(warnings, warnf(sourceField, "dropping non-PT address with hyphenated postal code %q", postal))
			continue
		}

		mapping := terminology.LookupAddressMapping(xad7)

		var line []string
		if combined := strings.TrimSpace(sad1 + " " + line2); combined != "" {
			line = []string{combined}
		}

		addr := fhir.Address{
			Use:        mapping.Use,
			Type:       mapping.Type,
			Line:       line,
			City:       city,
			District:   district,
			PostalCode: postal,
			Country:    country,
		}

		if xad9 != "" {
			addr.Extension = []fhir.Extension{buildAddressGeoExtension(mapping.GeoParent, xad9)}
		}

		out = append(out, addr)
	}

	return out, warnings
}

func buildAddressGeoExtension(geoParent, xad9 string) fhir.Extension {
	county := firstN(xad9, 2)
	municipality := firstN(xad9, 4)
	parish := xad9

	sub := []fhir.Extension{
		fhir.NewSubExtension(terminology.SubExtensionAddressType,
			fhir.NewCodeableConcept(fhir.NewCoding(terminology.INECodeSystem, geoParent, ""))),
	}
	if county != "" {
		sub = append(sub, fhir.NewSubExtension(terminology.SubExtensionCounty,
			fhir.NewCodeableConcept(fhir.NewCoding(terminology.INECodeSystem, county, ""))))
	}
	if municipality != "" {
		sub = append(sub, fhir.NewSubExtension(terminology.SubExtensionMunicipality,
			fhir.NewCodeableConcept(fhir.NewCoding(terminology.INECodeSystem, municipality, ""))))
	}
	if parish != "" {
		sub = append(sub, fhir.NewSubExtension(terminology.SubExtensionParish,
			fhir.NewCodeableConcept(fhir.NewCoding(terminology.INECodeSystem, parish, ""))))
	}

	return fhir.Extension{URL: terminology.ExtensionAddress, Extension: sub}
}

// BuildBirthPlace maps PID-23 (space-separated country/county/municipality
// tokens) to a BIRTH_PLACE extension, per spec.md §4.3.
func BuildBirthPlace(field string) *fhir.Extension {
	tokens := strings.Fields(field)
	if len(tokens) == 0 {
		return nil
	}

	sub := []fhir.Extension{
		fhir.NewSubExtension(terminology.SubExtensionCountry,
			fhir.NewCodeableConcept(fhir.NewCoding(terminology.INECodeSystem, tokens[0], ""))),
	}

	if len(tokens) >= 2 {
		sub = append(sub, birthPlaceDecomposition(tokens[1], false)...)
	}
	if len(tokens) >= 3 {
		sub = append(sub, birthPlaceDecomposition(tokens[2], true)...)
	}

	ext := fhir.Extension{URL: terminology.ExtensionBirthPlace, Extension: sub}
	return &ext
}

func birthPlaceDecomposition(token string, allowParish bool) []fhir.Extension {
	var out []fhir.Extension
	switch len(token) {
	case 6:
		out = append(out, fhir.NewSubExtension(terminology.SubExtensionCounty,
			fhir.NewCodeableConcept(fhir.NewCoding(terminology.INECodeSystem, firstN(token, 2), ""))))
		out = append(out, fhir.NewSubExtension(terminology.SubExtensionMunicipality,
			fhir.NewCodeableConcept(fhir.NewCoding(terminology.INECodeSystem, firstN(token, 4), ""))))
		if allowParish {
			out = append(out, fhir.NewSubExtension(terminology.SubExtensionParish,
				fhir.NewCodeableConcept(fhir.NewCoding(terminology.INECodeSystem, token, ""))))
		}
	case 4:
		out = append(out, fhir.NewSubExtension(terminology.SubExtensionCounty,
			fhir.NewCodeableConcept(fhir.NewCoding(terminology.INECodeSystem, firstN(token, 2), ""))))
		out = append(out, fhir.NewSubExtension(terminology.SubExtensionMunicipality,
			fhir.NewCodeableConcept(fhir.NewCoding(terminology.INECodeSystem, token, ""))))
	case 2:
		out = append(out, fhir.NewSubExtension(terminology.SubExtensionCounty,
			fhir.NewCodeableConcept(fhir.NewCoding(terminology.INECodeSystem, token, ""))))
	}
	return out
}

func normalizeCountry(c string) string {
	if c == "PRT" {
		return "PT"
	}
	return c
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
