// Package terminology holds the static HL7 v2.5 <-> FHIR R5 code tables
// the resource mappers translate through: identifier types, gender,
// marital status, address use/type, telecom system/use, NK1 relationship,
// and the assigning-authority and extension-URI constants.
package terminology

// Assigning authorities (HL7 CX-4 / XCN-9 namespace IDs).
const (
	AuthoritySONHO = "SONHO"
	AuthorityACSS  = "ACSS"
	AuthorityRHV   = "RHV"
	AuthorityMEI   = "MEI"
)

// FHIR extension URIs used by the patient mapper.
const (
	ExtensionAddress      = "http://www.saude.pt/fhir/StructureDefinition/address-geo"
	ExtensionBirthPlace   = "http://www.saude.pt/fhir/StructureDefinition/patient-birthPlace"
	ExtensionNationality  = "http://www.saude.pt/fhir/StructureDefinition/patient-nationality"
	ExtensionPatientNotes = "http://www.saude.pt/fhir/StructureDefinition/patient-notes"

	SubExtensionAddressType  = "ADDRESS_TYPE"
	SubExtensionCounty       = "COUNTY"
	SubExtensionMunicipality = "MUNICIPALITY"
	SubExtensionParish       = "PARISH"
	SubExtensionCountry      = "COUNTRY"

	INECodeSystem = "http://www.ine.pt"
)

// ConfidentialityPlaceholderSystem/Code stand in for the real
// confidentiality value-set URI/code the source left as a TODO literal.
// See spec.md REDESIGN FLAG #4 — a deployment must supply the real
// value-set before relying on the A40/A45 security label.
const (
	ConfidentialityPlaceholderSystem = "NORMAL.system"
	ConfidentialityPlaceholderCode   = "NORMAL.code"
)

// IdentifierType maps a PID-3/CX-5 identifier-type code in the SONHO
// namespace to its FHIR v2-0203 identifier-type code.
var IdentifierType = map[string]string{
	"NS":   "PI",
	"SNS":  "HC",
	"B":    "CZ",
	"NIF":  "TAX",
	"NISS": "SS",
	"P":    "PPN",
	"C":    "BCFN",
	"PRC":  "PRC",
}

// LookupIdentifierType returns the mapped FHIR code and whether the
// SONHO code was recognized.
func LookupIdentifierType(sonhoCode string) (string, bool) {
	code, ok := IdentifierType[sonhoCode]
	return code, ok
}

// Gender maps PID-8 administrative sex to the FHIR administrative-gender
// code. There is no "unrecognized" entry: an unmapped code is a hard
// error per spec.md §4.3 ("Unknown codes cause a hard error").
var Gender = map[string]string{
	"M": "male",
	"F": "female",
	"A": "other",
	"U": "unknown",
}

// MaritalStatus maps PID-16.CE-1 to a v3-MaritalStatus code. Display
// strings are taken straight off HL7 table 0002 / v3-MaritalStatus.
type MaritalStatusCode struct {
	Code    string
	Display string
}

var MaritalStatus = map[string]MaritalStatusCode{
	"A": {"A", "Separated"},
	"D": {"D", "Divorced"},
	"I": {"I", "Interlocutory"},
	"L": {"L", "Legally Separated"},
	"M": {"M", "Married"},
	"P": {"P", "Polygamous"},
	"S": {"S", "Never Married"},
	"T": {"T", "Domestic partner"},
	"U": {"UNK", "unknown"},
	"W": {"W", "Widowed"},
	"C": {"C", "Common Law"},
}

const MaritalStatusSystem = "http://terminology.hl7.org/CodeSystem/v3-MaritalStatus"

// AddressUse/AddressType/GeoParent are keyed by PID-11/NK1-4 XAD-7
// (address type) per spec.md's table.
type AddressMapping struct {
	Use       string // FHIR Address.use, "" means unset
	Type      string // FHIR Address.type
	GeoParent string // parent code for the ADDRESS_TYPE geo sub-extension
}

var AddressByXAD7 = map[string]AddressMapping{
	"C":  {Use: "", Type: "postal", GeoParent: "CURRENT"},
	"O":  {Use: "work", Type: "both", GeoParent: "OFFICE"},
	"N":  {Use: "home", Type: "both", GeoParent: "MAIN_ADDRESS"},
	"MA": {Use: "home", Type: "both", GeoParent: "MAIN_ADDRESS"},
	"M":  {Use: "home", Type: "both", GeoParent: "MAIN_ADDRESS"},
}

// DefaultAddressMapping is used for any XAD-7 code not in AddressByXAD7
// (the "other (PID only)" row of spec.md's table).
var DefaultAddressMapping = AddressMapping{Use: "home", Type: "both", GeoParent: "MAIN_ADDRESS"}

// LookupAddressMapping returns the mapping for a PID-11/NK1-4 XAD-7 code,
// falling back to DefaultAddressMapping.
func LookupAddressMapping(xad7 string) AddressMapping {
	if m, ok := AddressByXAD7[xad7]; ok {
		return m
	}
	return DefaultAddressMapping
}

// TelecomSystem maps XTN-3 equipment type to FHIR ContactPoint.system.
var TelecomSystem = map[string]string{
	"PH":   "phone",
	"CP":   "phone",
	"X400": "email",
	"FX":   "fax",
}

// TelecomSystemDefault is used for any XTN-3 code not in TelecomSystem.
const TelecomSystemDefault = "other"

// TelecomUse* are the FHIR ContactPoint.use codes. The XTN-2 use code to
// ContactPoint.use mapping lives in mapper/telecom.go, because XTN-2 "PRN"
// with XTN-3 "CP" equipment maps to mobile, so the equipment code
// participates.
const (
	TelecomUseHome   = "home"
	TelecomUseWork   = "work"
	TelecomUseMobile = "mobile"
)

// NK1RelationshipCoding describes the Coding emitted for an NK1-3 code.
type NK1RelationshipCoding struct {
	System string
	Code   string
}

const (
	systemV3RoleCode = "http://terminology.hl7.org/CodeSystem/v3-RoleCode"
	systemV2_0131    = "http://terminology.hl7.org/CodeSystem/v2-0131"
)

var NK1Relationship = map[string]NK1RelationshipCoding{
	"FTH": {systemV3RoleCode, "FTH"},
	"MTH": {systemV3RoleCode, "MTH"},
	"SPO": {systemV3RoleCode, "SPS"},
	"EXF": {systemV3RoleCode, "FAMMEMB"},
	"EMC": {systemV2_0131, "C"},
	"OTH": {systemV2_0131, "O"},
	"SEL": {systemV3RoleCode, "ONESELF"},
}

// DefaultNK1Relationship is emitted, with a caller-side warning, for any
// NK1-3 code not in NK1Relationship.
var DefaultNK1Relationship = NK1RelationshipCoding{systemV2_0131, "O"}

// LookupNK1Relationship returns the mapped coding and whether the code was
// recognized (the caller warns on false).
func LookupNK1Relationship(code string) (NK1RelationshipCoding, bool) {
	c, ok := NK1Relationship[code]
	if !ok {
		return DefaultNK1Relationship, false
	}
	return c, true
}

// PractitionerIdentifierType maps (XCN-13 code, namespace) pairs to a FHIR
// identifier-type code for ROL-4/XCN practitioner identifiers.
func PractitionerIdentifierType(code, namespace string) (string, bool) {
	switch {
	case code == "EI" && namespace == AuthoritySONHO:
		return "EI", true
	case code == "EI" && namespace == AuthorityMEI:
		return "MEI", true
	case code == "MD":
		return "MD", true
	case code == "NP":
		return "NP", true
	default:
		return "", false
	}
}
