package mapper

import (
	"strings"

	"github.com/route-beacon/mllp-gateway/internal/fhir"
	"github.com/route-beacon/mllp-gateway/internal/idgen"
	"github.com/route-beacon/mllp-gateway/internal/terminology"
)

// BuildOrganization builds the managing-organization resource for the
// configured healthcare_organization code/name, per spec.md §4.4: a
// deterministic id, active=true, a single ACSS identifier, and an
// optional name.
func BuildOrganization(code, name string) *fhir.Organization {
	identifier := fhir.NewIdentifier(code, terminology.AuthorityACSS, nil)
	identifier.Use = "usual"

	return &fhir.Organization{
		ResourceType: "Organization",
		ID:           strings.ToLower(idgen.NameUUIDString([]byte(code))),
		Active:       true,
		Identifier:   []fhir.Identifier{identifier},
		Name:         name,
	}
}
