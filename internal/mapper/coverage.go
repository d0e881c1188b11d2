package mapper

import (
	"strings"

	"github.com/route-beacon/mllp-gateway/internal/fhir"
	"github.com/route-beacon/mllp-gateway/internal/hl7"
	"github.com/route-beacon/mllp-gateway/internal/idgen"
	"github.com/route-beacon/mllp-gateway/internal/terminology"
)

// BuildCoverages maps every IN1 segment carrying a plan identifier into a
// Coverage plus the stub payer Organization it references, per
// spec.md §4.4.
func BuildCoverages(msg *hl7.Message, patientID string) ([]*fhir.Coverage, []*fhir.Organization) {
	var coverages []*fhir.Coverage
	var orgs []*fhir.Organization

	for _, in1 := range msg.AllSegments("IN1") {
		planID := hl7.Component(in1.Field(2), 1)
		if planID == "" {
			continue
		}

		orgID := strings.ToLower(idgen.NameUUIDString([]byte(planID)))
		orgs = append(orgs, &fhir.Organization{
			ResourceType: "Organization",
			ID:           orgID,
			Active:       true,
			Identifier:   []fhir.Identifier{fhir.NewIdentifier(planID, terminology.AuthoritySONHO, nil)},
		})

		coverages = append(coverages, &fhir.Coverage{
			ResourceType: "Coverage",
			ID:           strings.ToLower(idgen.NameUUIDString([]byte("coverage:" + planID))),
			Status:       "active",
			Beneficiary:  fhir.NewReference("Patient", patientID),
			PaymentBy:    []fhir.CoveragePaymentBy{fhir.NewPaymentBy(orgID)},
		})
	}

	return coverages, orgs
}
