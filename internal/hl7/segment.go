package hl7

import "strings"

// Message is a decoded HL7 v2 message: an ordered list of segments split
// on the \r segment separator.
type Message struct {
	Segments []Segment
	Raw      string
}

// Segment is one pipe-delimited HL7 segment (e.g. "PID|1||12345...").
type Segment struct {
	Name   string
	fields []string // fields[0] is the segment name itself, as in the raw text
}

// ParseSegments splits a decoded HL7 payload into segments on \r, skipping
// blank lines. It does not validate that the first segment is MSH — that
// is the parser's job (a malformed-header message still needs to reach
// Parse so it can synthesize a CE ACK).
func ParseSegments(raw string) []Segment {
	var segs []Segment
	for _, line := range strings.Split(raw, "\r") {
		line = strings.TrimRight(line, "\n")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) == 0 {
			continue
		}
		segs = append(segs, Segment{Name: fields[0], fields: fields})
	}
	return segs
}

// NewMessage builds a Message from raw decoded text.
func NewMessage(raw string) *Message {
	return &Message{Segments: ParseSegments(raw), Raw: raw}
}

// Segment returns the first segment with the given name, or nil.
func (m *Message) Segment(name string) *Segment {
	for i := range m.Segments {
		if m.Segments[i].Name == name {
			return &m.Segments[i]
		}
	}
	return nil
}

// AllSegments returns every segment with the given name, in order.
func (m *Message) AllSegments(name string) []*Segment {
	var out []*Segment
	for i := range m.Segments {
		if m.Segments[i].Name == name {
			out = append(out, &m.Segments[i])
		}
	}
	return out
}

// Field returns the 1-based HL7 field at position n. MSH is special-cased:
// MSH-1 is the field separator character itself (consumed by the split,
// never an element of fields), so MSH-n for n>=2 reads fields[n-1].
func (s *Segment) Field(n int) string {
	if s == nil || n < 1 {
		return ""
	}
	if s.Name == "MSH" {
		if n == 1 {
			return "|"
		}
		idx := n - 1
		if idx < 0 || idx >= len(s.fields) {
			return ""
		}
		return s.fields[idx]
	}
	if n >= len(s.fields) {
		return ""
	}
	return s.fields[n]
}

// Component returns the 1-based `^`-delimited component of a field value.
func Component(field string, n int) string {
	return nthPart(field, "^", n)
}

// SubComponent returns the 1-based `&`-delimited sub-component of a
// component value.
func SubComponent(component string, n int) string {
	return nthPart(component, "&", n)
}

// Repetitions splits a field value on `~` into its repeated occurrences.
// A field with no repetition separator is a single-element slice.
func Repetitions(field string) []string {
	if field == "" {
		return nil
	}
	return strings.Split(field, "~")
}

func nthPart(s, sep string, n int) string {
	if s == "" || n < 1 {
		return ""
	}
	parts := strings.Split(s, sep)
	if n > len(parts) {
		return ""
	}
	return parts[n-1]
}
