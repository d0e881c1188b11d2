// Package bundle assembles the FHIR R5 transaction Bundle from the
// resources the mapper package produces, per spec.md §4.5.
package bundle

import (
	"fmt"
	"strings"
	"time"

	"github.com/route-beacon/mllp-gateway/internal/fhir"
)

// Resources holds every resource the patient-new operation may contribute
// to one transaction Bundle.
type Resources struct {
	Patient              *fhir.Patient
	ManagingOrganization *fhir.Organization
	Practitioners        []*fhir.Practitioner
	Organizations        []*fhir.Organization // ROL-10 units + IN1 payers
	Coverages            []*fhir.Coverage
}

// bundleClock lets tests freeze the Bundle timestamp.
var bundleClock = time.Now

// Assemble builds a transaction Bundle with id = msh10 (lower-cased) and
// one entry per resource, each carrying the conditional-create request
// described in spec.md §4.5. The REDESIGN FLAG #1 fix is applied here:
// request.url is always the resource's own type. Coverage's
// If-None-Exist uses ?beneficiary= (REDESIGN FLAG #2 fix).
func Assemble(res Resources, msh10 string) *fhir.Bundle {
	b := &fhir.Bundle{
		ResourceType: "Bundle",
		ID:           strings.ToLower(msh10),
		Type:         "transaction",
		Timestamp:    bundleClock().UTC().Format(time.RFC3339),
	}

	if res.Patient != nil {
		b.Entry = append(b.Entry, patientEntry(res.Patient))
	}
	if res.ManagingOrganization != nil {
		b.Entry = append(b.Entry, organizationEntry(res.ManagingOrganization))
	}
	for _, org := range res.Organizations {
		b.Entry = append(b.Entry, organizationEntry(org))
	}
	for _, pr := range res.Practitioners {
		b.Entry = append(b.Entry, practitionerEntry(pr))
	}
	for _, cov := range res.Coverages {
		b.Entry = append(b.Entry, coverageEntry(cov))
	}

	return b
}

func patientEntry(p *fhir.Patient) fhir.BundleEntry {
	ifNoneExist := ""
	if len(p.Identifier) > 0 {
		ifNoneExist = fmt.Sprintf("Patient?identifier=SONHO|%s", p.Identifier[0].Value)
	}
	return fhir.BundleEntry{
		Resource: p,
		Request:  fhir.BundleRequest{Method: "POST", URL: "Patient", IfNoneExist: ifNoneExist},
	}
}

func organizationEntry(o *fhir.Organization) fhir.BundleEntry {
	ifNoneExist := ""
	if len(o.Identifier) > 0 {
		ifNoneExist = fmt.Sprintf("Organization?identifier=SONHO|%s", o.Identifier[0].Value)
	}
	return fhir.BundleEntry{
		Resource: o,
		Request:  fhir.BundleRequest{Method: "POST", URL: "Organization", IfNoneExist: ifNoneExist},
	}
}

func practitionerEntry(p *fhir.Practitioner) fhir.BundleEntry {
	ifNoneExist := ""
	if len(p.Name) > 0 && p.Name[0].Family != "" {
		ifNoneExist = fmt.Sprintf("Practitioner?name=%s", p.Name[0].Family)
	}
	return fhir.BundleEntry{
		Resource: p,
		Request:  fhir.BundleRequest{Method: "POST", URL: "Practitioner", IfNoneExist: ifNoneExist},
	}
}

func coverageEntry(c *fhir.Coverage) fhir.BundleEntry {
	ifNoneExist := ""
	if ref := c.Beneficiary.Reference; ref != "" {
		if idx := strings.LastIndex(ref, "/"); idx != -1 {
			ifNoneExist = fmt.Sprintf("Coverage?beneficiary=%s", ref[idx+1:])
		}
	}
	return fhir.BundleEntry{
		Resource: c,
		Request:  fhir.BundleRequest{Method: "POST", URL: "Coverage", IfNoneExist: ifNoneExist},
	}
}
