// Package mapper translates parsed HL7 v2.5 segments into FHIR R5
// resources, per the per-resource rules in spec.md §4.3–§4.4. The Build*
// functions that can drop or fail to recognize input (BuildPatient,
// BuildPractitioners, BuildAddresses) return warnings instead of logging
// them directly, so the dispatcher can attach the bundle id to one
// structured log line.
package mapper

import "fmt"

// Warning is a non-fatal mapping defect: a dropped field, an unrecognized
// code, or a skipped segment.
type Warning struct {
	Field   string
	Message string
}

func warnf(field, format string, args ...interface{}) Warning {
	return Warning{Field: field, Message: fmt.Sprintf(format, args...)}
}
