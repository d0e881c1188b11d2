package fhir

// NewIdentifier builds an Identifier from an already-validated
// value/system/type triple. typ may be nil.
func NewIdentifier(value, system string, typ *CodeableConcept) Identifier {
	return Identifier{Value: value, System: system, Type: typ}
}

// NewCoding builds a Coding.
func NewCoding(system, code, display string) Coding {
	return Coding{System: system, Code: code, Display: display}
}

// NewCodeableConcept wraps one Coding in a CodeableConcept.
func NewCodeableConcept(c Coding) *CodeableConcept {
	return &CodeableConcept{Coding: []Coding{c}}
}

// NewHumanName builds a HumanName. use may be empty.
func NewHumanName(family string, given []string, use string) HumanName {
	return HumanName{Family: family, Given: given, Use: use}
}

// NewReference builds a "ResourceType/id" reference.
func NewReference(resourceType, id string) Reference {
	return Reference{Reference: resourceType + "/" + id}
}

// NewExtension builds a top-level extension carrying a single
// CodeableConcept value.
func NewExtension(url string, value *CodeableConcept) Extension {
	return Extension{URL: url, ValueCodeableConcept: value}
}

// NewSubExtension builds a nested sub-extension carrying a CodeableConcept,
// used for the geo/birth-place parent+children extension shape.
func NewSubExtension(url string, value *CodeableConcept) Extension {
	return Extension{URL: url, ValueCodeableConcept: value}
}

// NewAnnotation builds an Annotation. time may be empty.
func NewAnnotation(text, time string) Annotation {
	return Annotation{Text: text, Time: time}
}

// NewPaymentBy builds a Coverage.paymentBy entry referencing an
// Organization.
func NewPaymentBy(organizationID string) CoveragePaymentBy {
	return CoveragePaymentBy{Party: NewReference("Organization", organizationID)}
}
