package mapper

import (
	"strings"

	"github.com/route-beacon/mllp-gateway/internal/fhir"
	"github.com/route-beacon/mllp-gateway/internal/hl7"
	"github.com/route-beacon/mllp-gateway/internal/idgen"
	"github.com/route-beacon/mllp-gateway/internal/terminology"
)

// BuildPractitioners maps every FHCP ROL segment's ROL-4 XCNs into
// Practitioner resources, per spec.md §4.4. The id matches the reference
// minted by BuildPatient's general-practitioner lookup.
func BuildPractitioners(msg *hl7.Message) ([]*fhir.Practitioner, []Warning) {
	var out []*fhir.Practitioner
	var warnings []Warning

	for _, rol := range msg.AllSegments("ROL") {
		if hl7.Component(rol.Field(3), 1) != "FHCP" {
			continue
		}

		for _, xcn := range hl7.Repetitions(rol.Field(4)) {
			if xcn == "" {
				continue
			}
			pr, w := buildPractitioner(xcn)
			warnings = append(warnings, w...)
			out = append(out, pr)
		}
	}

	return out, warnings
}

func buildPractitioner(xcn string) (*fhir.Practitioner, []Warning) {
	var warnings []Warning

	idNumber := hl7.Component(xcn, 1)
	family := hl7.SubComponent(hl7.Component(xcn, 2), 1)
	given := hl7.Component(xcn, 3)
	middle := hl7.Component(xcn, 4)

	var id string
	if idNumber != "" {
		id = strings.ToLower(idgen.NameUUIDString([]byte(idNumber)))
	} else if family != "" || given != "" {
		id = strings.ToLower(idgen.NameUUIDString([]byte(family + given)))
	} else {
		id = strings.ToLower(idgen.Random())
	}

	var givenNames []string
	if given != "" {
		givenNames = append(givenNames, given)
	}
	if middle != "" {
		givenNames = append(givenNames, strings.Fields(middle)...)
	}

	pr := &fhir.Practitioner{
		ResourceType: "Practitioner",
		ID:           id,
		Name:         []fhir.HumanName{fhir.NewHumanName(family, givenNames, "usual")},
	}

	if idNumber != "" {
		namespace := hl7.SubComponent(hl7.Component(xcn, 9), 1)
		system := namespace
		if namespace == "N.Mecanográfico" {
			system = terminology.AuthorityRHV
		}

		typeCode := hl7.Component(xcn, 13)
		var typ *fhir.CodeableConcept
		if fhirCode, ok := terminology.PractitionerIdentifierType(typeCode, namespace); ok {
			typ = fhir.NewCodeableConcept(fhir.NewCoding("", fhirCode, ""))
		} else if typeCode != "" {
			warnings = append(warnings, warnf("ROL-4.XCN-13", "unrecognized practitioner identifier type %q/%q", typeCode, namespace))
		}

		pr.Identifier = append(pr.Identifier, fhir.NewIdentifier(idNumber, system, typ))
	}

	return pr, warnings
}
