package mapper

import (
	"regexp"

	"github.com/route-beacon/mllp-gateway/internal/fhir"
	"github.com/route-beacon/mllp-gateway/internal/hl7"
	"github.com/route-beacon/mllp-gateway/internal/terminology"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// BuildTelecoms maps a repeating XTN field (PID-13, PID-14, or NK1-5) to
// FHIR ContactPoints per spec.md §4.3's telecom rule.
func BuildTelecoms(field string) []fhir.ContactPoint {
	var out []fhir.ContactPoint
	for _, xtn := range hl7.Repetitions(field) {
		if xtn == "" {
			continue
		}
		cp, ok := buildTelecom(xtn)
		if ok {
			out = append(out, cp)
		}
	}
	return out
}

func buildTelecom(xtn string) (fhir.ContactPoint, bool) {
	phone := hl7.Component(xtn, 12)
	email := hl7.Component(xtn, 4)

	var value string
	if phone != "" {
		value = phone
	} else if email != "" && emailPattern.MatchString(email) {
		value = email
	} else {
		return fhir.ContactPoint{}, false
	}

	equipment := hl7.Component(xtn, 3)
	system, ok := terminology.TelecomSystem[equipment]
	if !ok {
		system = terminology.TelecomSystemDefault
	}

	useCode := hl7.Component(xtn, 2)
	var use string
	switch {
	case useCode == "PRN" && equipment == "CP":
		use = terminology.TelecomUseMobile
	case useCode == "PRN":
		use = terminology.TelecomUseHome
	case useCode == "WPN":
		use = terminology.TelecomUseWork
	case useCode == "EMR":
		use = terminology.TelecomUseMobile
	}

	return fhir.ContactPoint{System: system, Value: value, Use: use}, true
}

// RankFirst sets Rank = 1 on the first contact point with a value, if any
// exist and none is already ranked.
func RankFirst(telecoms []fhir.ContactPoint) {
	for _, t := range telecoms {
		if t.Rank != 0 {
			return
		}
	}
	for i := range telecoms {
		if telecoms[i].Value != "" {
			telecoms[i].Rank = 1
			return
		}
	}
}
