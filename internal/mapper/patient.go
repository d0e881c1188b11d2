package mapper

import (
	"strings"

	"github.com/route-beacon/mllp-gateway/internal/fhir"
	"github.com/route-beacon/mllp-gateway/internal/hl7"
	"github.com/route-beacon/mllp-gateway/internal/idgen"
	"github.com/route-beacon/mllp-gateway/internal/terminology"
)

// BuildPatient maps PID/EVN (plus OBX notes and NK1 contacts) into a FHIR
// Patient, per spec.md §4.3. managingOrgCode is the deploying facility's
// code, from the healthcare_organization configuration section. The
// second return value carries the stub Organization resources referenced
// from ROL-10 organization units, which the bundle assembler must also
// include as entries.
func BuildPatient(msg *hl7.Message, managingOrgCode string) (*fhir.Patient, []fhir.Organization, []Warning) {
	var warnings []Warning

	pid := msg.Segment("PID")
	if pid == nil {
		return nil, nil, []Warning{warnf("PID", "message has no PID segment")}
	}
	evn := msg.Segment("EVN")

	p := &fhir.Patient{ResourceType: "Patient"}

	id, identifiers, idWarnings := buildPatientIdentity(pid)
	p.ID = id
	p.Identifier = identifiers
	warnings = append(warnings, idWarnings...)

	if evn != nil {
		if ts := evn.Field(2); ts != "" {
			if iso, err := ParseHL7Timestamp(ts); err == nil {
				p.Meta = &fhir.Meta{LastUpdated: iso}
			} else {
				warnings = append(warnings, warnf("EVN-2", "%v", err))
			}
		}
		if code := evn.Field(1); code == "A40" || code == "A45" {
			if p.Meta == nil {
				p.Meta = &fhir.Meta{}
			}
			p.Meta.Security = []fhir.Coding{
				fhir.NewCoding(terminology.ConfidentialityPlaceholderSystem, terminology.ConfidentialityPlaceholderCode, ""),
			}
		}
	}

	for _, xpn := range hl7.Repetitions(pid.Field(5)) {
		if xpn == "" {
			continue
		}
		family := hl7.SubComponent(hl7.Component(xpn, 1), 1)
		given := hl7.Component(xpn, 2)
		var allGiven []string
		if given != "" {
			allGiven = append(allGiven, given)
		}
		if further := hl7.Component(xpn, 3); further != "" {
			allGiven = append(allGiven, strings.Fields(further)...)
		}
		use := ""
		if hl7.Component(xpn, 7) == "L" {
			use = "official"
		}
		p.Name = append(p.Name, fhir.NewHumanName(family, allGiven, use))
	}

	if bd := pid.Field(7); bd != "" {
		ts1 := hl7.Component(bd, 1)
		if ts1 == "" {
			ts1 = bd
		}
		if iso, err := ParseHL7Date(ts1); err == nil {
			p.BirthDate = iso
		} else {
			warnings = append(warnings, warnf("PID-7", "%v", err))
		}
	}

	if sex := pid.Field(8); sex != "" {
		gender, ok := terminology.Gender[sex]
		if !ok {
			// Fatal per spec.md §7: unknown gender is not locally
			// recoverable, the message is rejected. The caller already has
			// its ACK; it only loses the Bundle.
			return nil, nil, append(warnings, warnf("PID-8", "unrecognized administrative sex %q", sex))
		}
		p.Gender = gender
	}

	addrs, addrWarnings := BuildAddresses(pid.Field(11), "PID-11")
	p.Address = addrs
	warnings = append(warnings, addrWarnings...)

	if bp := BuildBirthPlace(pid.Field(23)); bp != nil {
		p.Extension = append(p.Extension, *bp)
	}

	for _, ce := range hl7.Repetitions(pid.Field(26)) {
		if ce == "" {
			continue
		}
		code := hl7.Component(ce, 1)
		display := hl7.Component(ce, 2)
		p.Extension = append(p.Extension, fhir.NewExtension(terminology.ExtensionNationality,
			fhir.NewCodeableConcept(fhir.NewCoding(terminology.INECodeSystem, code, display))))
	}

	if deathDate := pid.Field(29); deathDate != "" {
		if iso, err := ParseHL7Timestamp(deathDate); err == nil {
			p.DeceasedDateTime = iso
		} else if iso, err := ParseHL7Date(deathDate); err == nil {
			p.DeceasedDateTime = iso
		} else {
			warnings = append(warnings, warnf("PID-29", "%v", err))
		}
	} else if ind := pid.Field(30); ind == "Y" || ind == "N" {
		dead := ind == "Y"
		p.DeceasedBoolean = &dead
	}

	p.Telecom = append(BuildTelecoms(pid.Field(13)), BuildTelecoms(pid.Field(14))...)
	RankFirst(p.Telecom)

	if ms := hl7.Component(pid.Field(16), 1); ms != "" {
		if mapping, ok := terminology.MaritalStatus[ms]; ok {
			p.MaritalStatus = fhir.NewCodeableConcept(fhir.NewCoding(terminology.MaritalStatusSystem, mapping.Code, mapping.Display))
		} else {
			warnings = append(warnings, warnf("PID-16", "unrecognized marital status code %q", ms))
		}
	}

	gpRefs, roleOrgs, rolWarnings := buildGeneralPractitioner(msg)
	p.GeneralPractitioner = gpRefs
	warnings = append(warnings, rolWarnings...)

	if managingOrgCode != "" {
		ref := fhir.NewReference("Organization", idgen.NameUUIDString([]byte(managingOrgCode)))
		p.ManagingOrganization = &ref
	}

	for _, obx := range msg.AllSegments("OBX") {
		value := hl7.Component(obx.Field(5), 1)
		if value == "" {
			continue
		}
		note := fhir.NewAnnotation(value, obx.Field(14))
		p.Extension = append(p.Extension, fhir.Extension{
			URL:         terminology.ExtensionPatientNotes,
			ValueString: note.Text,
		})
	}

	patientHasRankedTelecom := false
	for _, t := range p.Telecom {
		if t.Rank != 0 {
			patientHasRankedTelecom = true
			break
		}
	}
	contacts, nk1Warnings := buildContacts(msg, patientHasRankedTelecom)
	p.Contact = contacts
	warnings = append(warnings, nk1Warnings...)

	return p, roleOrgs, warnings
}

// buildPatientIdentity selects the SONHO-namespace PID-3 identifier for
// Patient.id (hashed) and builds the full Identifier list, including the
// PID-18 account-number identifier.
func buildPatientIdentity(pid *hl7.Segment) (string, []fhir.Identifier, []Warning) {
	var warnings []Warning
	var identifiers []fhir.Identifier
	var id string

	for _, cx := range hl7.Repetitions(pid.Field(3)) {
		if cx == "" {
			continue
		}
		value := hl7.Component(cx, 1)
		namespace := hl7.SubComponent(hl7.Component(cx, 4), 1)
		typeCode := hl7.Component(cx, 5)

		var typ *fhir.CodeableConcept
		if typeCode != "" {
			if fhirCode, ok := terminology.LookupIdentifierType(typeCode); ok {
				typ = fhir.NewCodeableConcept(fhir.NewCoding("", fhirCode, ""))
			} else {
				warnings = append(warnings, warnf("PID-3", "unrecognized identifier type %q", typeCode))
			}
		}
		identifiers = append(identifiers, fhir.NewIdentifier(value, namespace, typ))

		if namespace == terminology.AuthoritySONHO && id == "" {
			id = strings.ToLower(idgen.NameUUIDString([]byte(value)))
		}
	}

	if id == "" {
		id = strings.ToLower(idgen.Random())
		warnings = append(warnings, warnf("PID-3", "no SONHO-namespace identifier found, minted random id"))
	}

	if acct := pid.Field(18); acct != "" {
		value := hl7.Component(acct, 1)
		identifiers = append(identifiers, fhir.NewIdentifier(value, "", fhir.NewCodeableConcept(fhir.NewCoding("", "MR", ""))))
	}

	return id, identifiers, warnings
}

// buildGeneralPractitioner scans every ROL segment for ROL-3.identifier ==
// "FHCP" and builds the Practitioner reference plus any stub Organization
// resources described in spec.md §4.3.
func buildGeneralPractitioner(msg *hl7.Message) ([]fhir.Reference, []fhir.Organization, []Warning) {
	var practitioners []fhir.Reference
	var orgs []fhir.Organization
	var warnings []Warning

	for _, rol := range msg.AllSegments("ROL") {
		if hl7.Component(rol.Field(3), 1) != "FHCP" {
			continue
		}

		practitionerID, ok := practitionerIDFromROL(rol)
		if !ok {
			warnings = append(warnings, warnf("ROL-4", "could not derive a practitioner id, minting random"))
			practitionerID = strings.ToLower(idgen.Random())
		}
		practitioners = append(practitioners, fhir.NewReference("Practitioner", practitionerID))

		if orgUnit := hl7.Component(rol.Field(10), 1); orgUnit != "" {
			orgs = append(orgs, fhir.Organization{
				ResourceType: "Organization",
				ID:           idgen.NameUUIDString([]byte(orgUnit)),
				Active:       true,
				Identifier:   []fhir.Identifier{fhir.NewIdentifier(orgUnit, terminology.AuthoritySONHO, nil)},
			})
		}
	}

	return practitioners, orgs, warnings
}

func practitionerIDFromROL(rol *hl7.Segment) (string, bool) {
	for _, xcn := range hl7.Repetitions(rol.Field(4)) {
		if xcn == "" {
			continue
		}
		if idNumber := hl7.Component(xcn, 1); idNumber != "" {
			return strings.ToLower(idgen.NameUUIDString([]byte(idNumber))), true
		}
		family := hl7.SubComponent(hl7.Component(xcn, 2), 1)
		given := hl7.Component(xcn, 3)
		if family != "" || given != "" {
			return strings.ToLower(idgen.NameUUIDString([]byte(family + given))), true
		}
	}
	return "", false
}

// buildContacts maps every NK1 segment to a Patient.contact entry.
// patientHasRankedTelecom mirrors spec.md §4.3's "if no rank is set on
// patient telecom, rank the first NK1 telecom with a value as 1".
func buildContacts(msg *hl7.Message, patientHasRankedTelecom bool) ([]fhir.ContactComponent, []Warning) {
	var contacts []fhir.ContactComponent
	var warnings []Warning
	rankedFirst := patientHasRankedTelecom

	for _, nk1 := range msg.AllSegments("NK1") {
		code := hl7.Component(nk1.Field(3), 1)
		coding, ok := terminology.LookupNK1Relationship(code)
		if !ok {
			warnings = append(warnings, warnf("NK1-3", "unrecognized relationship code %q", code))
		}

		contact := fhir.ContactComponent{
			Relationship: []fhir.CodeableConcept{*fhir.NewCodeableConcept(fhir.NewCoding(coding.System, coding.Code, ""))},
		}

		if name := nk1.Field(2); name != "" {
			family := hl7.SubComponent(hl7.Component(name, 1), 1)
			given := hl7.Component(name, 2)
			var givenList []string
			if given != "" {
				givenList = []string{given}
			}
			hn := fhir.NewHumanName(family, givenList, "")
			contact.Name = &hn
		}

		telecoms := BuildTelecoms(nk1.Field(5))
		if !rankedFirst {
			for i := range telecoms {
				if telecoms[i].Value != "" {
					telecoms[i].Rank = 1
					rankedFirst = true
					break
				}
			}
		}
		contact.Telecom = telecoms

		addrs, addrWarnings := BuildAddresses(nk1.Field(4), "NK1-4")
		warnings = append(warnings, addrWarnings...)
		if len(addrs) > 0 {
			contact.Address = &addrs[0]
		}

		contacts = append(contacts, contact)
	}

	return contacts, warnings
}
