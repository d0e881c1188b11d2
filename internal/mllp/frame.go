// Package mllp implements the MLLP connection handler (spec.md §4.1): per
// connection framing, watermark-based flow control, and ACK write-back, in
// the per-connection-goroutine style of other_examples' MLLPServer.
package mllp

import (
	"bytes"
	"fmt"
	"strconv"

	"golang.org/x/text/encoding/charmap"
)

const (
	startBlock      = 0x0B
	endBlock        = 0x1C
	carriageReturn  = 0x0D
)

// frame wraps an already-encoded HL7 payload in MLLP framing.
func frame(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+3)
	out = append(out, startBlock)
	out = append(out, payload...)
	out = append(out, endBlock, carriageReturn)
	return out
}

// decodeFrame strips the MLLP start/end bytes from buf, ISO-8859-1 decodes
// the remaining payload, and unescapes `\Xhh..\` hex sequences, per
// spec.md §4.1's "Frame-complete detection".
func decodeFrame(buf []byte) (string, error) {
	start := bytes.IndexByte(buf, startBlock)
	if start == -1 {
		return "", fmt.Errorf("mllp: frame has no start block")
	}
	end := bytes.IndexByte(buf[start+1:], endBlock)
	if end == -1 {
		return "", fmt.Errorf("mllp: frame has no end block")
	}
	raw := buf[start+1 : start+1+end]

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("mllp: iso-8859-1 decode: %w", err)
	}

	return unescapeHex(string(decoded)), nil
}

// unescapeHex replaces `\Xhh..\` escape sequences with the raw bytes they
// encode. Any other `\...\` escape is left untouched: this handler only
// needs to undo the hex-byte escape HL7 senders use for non-ASCII data.
func unescapeHex(s string) string {
	var out bytes.Buffer
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == 'X' {
			j := i + 2
			for j < len(s) && s[j] != '\\' {
				j++
			}
			if j < len(s) {
				hexDigits := s[i+2 : j]
				if decoded, ok := decodeHexRun(hexDigits); ok {
					out.WriteString(decoded)
					i = j + 1
					continue
				}
			}
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}

func decodeHexRun(hexDigits string) (string, bool) {
	if len(hexDigits)%2 != 0 {
		return "", false
	}
	var out bytes.Buffer
	for i := 0; i < len(hexDigits); i += 2 {
		v, err := strconv.ParseUint(hexDigits[i:i+2], 16, 8)
		if err != nil {
			return "", false
		}
		out.WriteByte(byte(v))
	}
	return out.String(), true
}
