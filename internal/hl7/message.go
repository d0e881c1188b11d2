package hl7

// ErrorKind classifies why a frame failed to parse into an InboundMessage.
type ErrorKind string

const (
	ErrorKindParseException ErrorKind = "parseException"
	ErrorKindNotSupported   ErrorKind = "notSupported"
)

// InboundMessage is the parser's success output (spec.md §3). It is
// immutable after construction and lives only for the duration of one
// MLLP frame.
type InboundMessage struct {
	BundleID         string // control ID, from MSA-2 of the generated ACK
	AckMsg           string // MLLP-ready encoded ACK
	Msg              string // original encoded payload, when echoing is required
	TriggerEvent     string // e.g. "A28"
	ActionCode       string // EVN-4, optional
	ActivityArea     string // PV1-2, optional
	SequentialNumber string // MSA-4 / MSH-13
}

// InternalErrorData is the parser's failure output (spec.md §3).
type InternalErrorData struct {
	ExceptionID     string
	Error           ErrorKind
	ExceptionAckMsg string // MLLP-ready CE ACK built from MSH alone
	OriginalMsg     string // sanitized source text, CR/LF stripped
}

// MessageData is the second-pass parse used by operations after routing
// (spec.md §3): it re-parses the stored original string for field access
// beyond what the first pass extracted.
type MessageData struct {
	AcknowledgmentCode string // AA/CA/CE/CR, optional
	MessageEvent       string // e.g. "ADT^A28"
	ParsedData         *Message
}
