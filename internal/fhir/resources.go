package fhir

// Patient is the R5 Patient resource subset this gateway populates.
type Patient struct {
	ResourceType         string             `json:"resourceType"`
	ID                   string             `json:"id"`
	Meta                 *Meta              `json:"meta,omitempty"`
	Identifier           []Identifier       `json:"identifier,omitempty"`
	Name                 []HumanName        `json:"name,omitempty"`
	Gender               string             `json:"gender,omitempty"`
	BirthDate            string             `json:"birthDate,omitempty"`
	DeceasedBoolean      *bool              `json:"deceasedBoolean,omitempty"`
	DeceasedDateTime     string             `json:"deceasedDateTime,omitempty"`
	Address              []Address          `json:"address,omitempty"`
	MaritalStatus        *CodeableConcept   `json:"maritalStatus,omitempty"`
	Telecom              []ContactPoint     `json:"telecom,omitempty"`
	Contact              []ContactComponent `json:"contact,omitempty"`
	GeneralPractitioner  []Reference        `json:"generalPractitioner,omitempty"`
	ManagingOrganization *Reference         `json:"managingOrganization,omitempty"`
	Extension            []Extension        `json:"extension,omitempty"`
}

// Practitioner is the R5 Practitioner resource subset.
type Practitioner struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id"`
	Identifier   []Identifier `json:"identifier,omitempty"`
	Name         []HumanName  `json:"name,omitempty"`
}

// Organization is the R5 Organization resource subset.
type Organization struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id"`
	Active       bool         `json:"active"`
	Identifier   []Identifier `json:"identifier,omitempty"`
	Name         string       `json:"name,omitempty"`
}

// CoveragePaymentBy is Coverage.paymentBy, a party reference with a
// responsibility annotation.
type CoveragePaymentBy struct {
	Party          Reference `json:"party"`
	Responsibility string    `json:"responsibility,omitempty"`
}

// Coverage is the R5 Coverage resource subset.
type Coverage struct {
	ResourceType string              `json:"resourceType"`
	ID           string              `json:"id"`
	Status       string              `json:"status"`
	Beneficiary  Reference           `json:"beneficiary"`
	PaymentBy    []CoveragePaymentBy `json:"paymentBy,omitempty"`
}

// BundleRequest is a transaction entry's HTTP verb/url/conditional-create
// triple.
type BundleRequest struct {
	Method        string `json:"method"`
	URL           string `json:"url"`
	IfNoneExist   string `json:"ifNoneExist,omitempty"`
}

// BundleEntry is one resource plus its transaction request.
type BundleEntry struct {
	Resource any           `json:"resource"`
	Request  BundleRequest `json:"request"`
}

// Bundle is an R5 transaction Bundle.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id"`
	Type         string        `json:"type"`
	Timestamp    string        `json:"timestamp"`
	Entry        []BundleEntry `json:"entry"`
}
