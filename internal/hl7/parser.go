package hl7

import (
	"fmt"
	"strings"

	"github.com/route-beacon/mllp-gateway/internal/idgen"
)

// Parse decodes one already-unframed, already-decoded HL7 v2 payload into
// either an InboundMessage or an InternalErrorData, implementing spec.md
// §4.2. Exactly one of the two return values is non-nil.
func Parse(raw string) (*InboundMessage, *InternalErrorData) {
	segs := ParseSegments(raw)
	msh := firstMSH(segs)

	if msh == nil {
		return nil, headerParseFailure(raw, nil, fmt.Errorf("no MSH segment found"))
	}

	if enc := msh.Field(2); enc != "" && enc != `^~\&` {
		errData := headerParseFailure(raw, msh, fmt.Errorf("unsupported encoding characters %q", enc))
		errData.Error = ErrorKindNotSupported
		return nil, errData
	}

	msgType := Component(msh.Field(9), 1)
	trigger := Component(msh.Field(9), 2)

	if msgType == "" {
		return nil, headerParseFailure(raw, msh, fmt.Errorf("Unknown event %s", trigger))
	}

	// Step 4: an incoming ACK acknowledging one of our prior outbound
	// messages — short-circuit using its own MSA fields.
	version := msh.Field(12)
	if msgType == "ACK" && strings.HasPrefix(version, "2.5") {
		msa := firstSegment(segs, "MSA")
		return &InboundMessage{
			BundleID:         fieldOrEmpty(msa, 2),
			AckMsg:           "",
			TriggerEvent:     trigger,
			SequentialNumber: fieldOrEmpty(msa, 4),
		}, nil
	}

	// Step 5: generate an accept ACK and build the InboundMessage.
	ackMsg := GenerateAck(msh, "CA", "")
	ackSegs := ParseSegments(ackMsg)
	ackMSA := firstSegment(ackSegs, "MSA")

	m := NewMessage(raw)
	evn := m.Segment("EVN")
	pv1 := m.Segment("PV1")

	return &InboundMessage{
		BundleID:         fieldOrEmpty(ackMSA, 2),
		AckMsg:           ackMsg,
		TriggerEvent:     trigger,
		ActionCode:       fieldOrEmpty(evn, 4),
		ActivityArea:     fieldOrEmpty(pv1, 2),
		SequentialNumber: fieldOrEmpty(ackMSA, 4),
	}, nil
}

// headerParseFailure implements the "ACK synthesis on header-only failure"
// path: parse just the header (or use a zero-value one if no MSH segment
// at all could be found) and build a CE ACK from it.
func headerParseFailure(raw string, msh *Segment, parseErr error) *InternalErrorData {
	ack := GenerateAck(msh, "CE", parseErr.Error())
	return &InternalErrorData{
		ExceptionID:     idgen.Random(),
		Error:           ErrorKindParseException,
		ExceptionAckMsg: ack,
		OriginalMsg:     sanitize(raw),
	}
}

func firstMSH(segs []Segment) *Segment {
	for i := range segs {
		if segs[i].Name == "MSH" {
			return &segs[i]
		}
	}
	return nil
}

func firstSegment(segs []Segment, name string) *Segment {
	for i := range segs {
		if segs[i].Name == name {
			return &segs[i]
		}
	}
	return nil
}

// sanitize strips CR/LF from the original source text before it is
// attached to InternalErrorData, matching spec.md §3's
// "sanitized source text, CR/LF stripped".
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
