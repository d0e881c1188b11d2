package hl7

import (
	"fmt"
	"strings"
	"time"
)

// ackClock lets tests freeze the ACK timestamp/control-id generator.
var ackClock = time.Now

// GenerateAck builds an MSH+MSA encoded ACK for the given inbound MSH
// segment. It swaps sending/receiving application and facility, mints a
// fresh control ID, and references the inbound message's own control ID
// (MSH-10) in MSA-2. textMessage is only emitted as MSA-3 when non-empty
// (CE acks carry the parse error there; CA/AA acks leave it blank).
//
// Mirrors other_examples' GenerateACK: swap sending/receiving, reference
// the original control ID, stamp a fresh one of our own.
func GenerateAck(msh *Segment, code, textMessage string) string {
	now := ackClock().UTC()
	timestamp := now.Format("20060102150405")
	controlID := fmt.Sprintf("ACK%s", now.Format("20060102150405.000"))

	sendingApp, sendingFac := fieldOrEmpty(msh, 3), fieldOrEmpty(msh, 4)
	receivingApp, receivingFac := fieldOrEmpty(msh, 5), fieldOrEmpty(msh, 6)
	version := fieldOrEmpty(msh, 12)
	if version == "" {
		version = "2.5"
	}
	originalControlID := fieldOrEmpty(msh, 10)
	sequenceNumber := fieldOrEmpty(msh, 13)

	mshOut := strings.Join([]string{
		"MSH",
		"^~\\&",
		receivingApp,
		receivingFac,
		sendingApp,
		sendingFac,
		timestamp,
		"",
		"ACK",
		controlID,
		"P",
		version,
	}, "|")

	msaFields := []string{"MSA", code, originalControlID, textMessage, sequenceNumber}
	for len(msaFields) > 3 && msaFields[len(msaFields)-1] == "" {
		msaFields = msaFields[:len(msaFields)-1]
	}
	msaOut := strings.Join(msaFields, "|")

	return mshOut + "\r" + msaOut + "\r"
}

func fieldOrEmpty(seg *Segment, n int) string {
	if seg == nil {
		return ""
	}
	return seg.Field(n)
}
