package hl7

import (
	"strings"
	"testing"
	"time"
)

func withFrozenClock(t *testing.T) {
	t.Helper()
	old := ackClock
	ackClock = func() time.Time { return time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { ackClock = old })
}

const a28Msg = "MSH|^~\\&|REG|SONHO|GATEWAY|RBC|20260304120000||ADT^A28|CTRL123|P|2.5|||||||\r" +
	"EVN|A28|20260304120000||01\r" +
	"PID|1||123456^^^SONHO^PI||DOE^JOHN^^^^\r" +
	"PV1|1|N\r"

func TestParse_HappyPathA28(t *testing.T) {
	withFrozenClock(t)

	msg, errData := Parse(a28Msg)
	if errData != nil {
		t.Fatalf("unexpected error: %+v", errData)
	}
	if msg == nil {
		t.Fatal("expected non-nil InboundMessage")
	}
	if msg.TriggerEvent != "A28" {
		t.Errorf("TriggerEvent = %q, want A28", msg.TriggerEvent)
	}
	if msg.ActionCode != "01" {
		t.Errorf("ActionCode = %q, want 01", msg.ActionCode)
	}
	if msg.ActivityArea != "N" {
		t.Errorf("ActivityArea = %q, want N", msg.ActivityArea)
	}
	if msg.BundleID == "" {
		t.Error("expected non-empty BundleID")
	}
	if !strings.Contains(msg.AckMsg, "MSA|CA|CTRL123") {
		t.Errorf("AckMsg missing expected MSA segment: %q", msg.AckMsg)
	}
	if !strings.HasPrefix(msg.AckMsg, "MSH|") {
		t.Errorf("AckMsg missing MSH segment: %q", msg.AckMsg)
	}
}

func TestParse_UnknownEvent(t *testing.T) {
	withFrozenClock(t)

	raw := "MSH|^~\\&|REG|SONHO|GATEWAY|RBC|20260304120000|||CTRL999|P|2.5\r"
	msg, errData := Parse(raw)
	if msg != nil {
		t.Fatalf("expected nil InboundMessage, got %+v", msg)
	}
	if errData == nil {
		t.Fatal("expected InternalErrorData")
	}
	if errData.Error != ErrorKindParseException {
		t.Errorf("Error kind = %q, want %q", errData.Error, ErrorKindParseException)
	}
	if !strings.Contains(errData.ExceptionAckMsg, "MSA|CE") {
		t.Errorf("ExceptionAckMsg missing CE code: %q", errData.ExceptionAckMsg)
	}
	if errData.ExceptionID == "" {
		t.Error("expected non-empty ExceptionID")
	}
}

func TestParse_NoMSHSegment(t *testing.T) {
	withFrozenClock(t)

	raw := "PID|1||123456^^^SONHO^PI||DOE^JOHN\r"
	msg, errData := Parse(raw)
	if msg != nil {
		t.Fatalf("expected nil InboundMessage, got %+v", msg)
	}
	if errData == nil {
		t.Fatal("expected InternalErrorData")
	}
	if errData.Error != ErrorKindParseException {
		t.Errorf("Error kind = %q, want %q", errData.Error, ErrorKindParseException)
	}
	if !strings.Contains(errData.OriginalMsg, "PID|1") {
		t.Errorf("OriginalMsg = %q, expected it to retain sanitized source", errData.OriginalMsg)
	}
}

func TestParse_UnsupportedEncodingCharacters(t *testing.T) {
	withFrozenClock(t)

	raw := "MSH|^~\\?|REG|SONHO|GATEWAY|RBC|20260304120000||ADT^A28|CTRL321|P|2.5\r"
	msg, errData := Parse(raw)
	if msg != nil {
		t.Fatalf("expected nil InboundMessage, got %+v", msg)
	}
	if errData == nil {
		t.Fatal("expected InternalErrorData")
	}
	if errData.Error != ErrorKindNotSupported {
		t.Errorf("Error kind = %q, want %q", errData.Error, ErrorKindNotSupported)
	}
}

func TestParse_IncomingAckShortCircuit(t *testing.T) {
	withFrozenClock(t)

	raw := "MSH|^~\\&|RBC|GATEWAY|REG|SONHO|20260304120000||ACK^A28|ACK20260304120000.000|P|2.5\r" +
		"MSA|AA|CTRL123||7\r"
	msg, errData := Parse(raw)
	if errData != nil {
		t.Fatalf("unexpected error: %+v", errData)
	}
	if msg == nil {
		t.Fatal("expected non-nil InboundMessage")
	}
	if msg.AckMsg != "" {
		t.Errorf("AckMsg = %q, want empty for an incoming ACK", msg.AckMsg)
	}
	if msg.BundleID != "CTRL123" {
		t.Errorf("BundleID = %q, want CTRL123", msg.BundleID)
	}
	if msg.SequentialNumber != "7" {
		t.Errorf("SequentialNumber = %q, want 7", msg.SequentialNumber)
	}
	if msg.TriggerEvent != "A28" {
		t.Errorf("TriggerEvent = %q, want A28", msg.TriggerEvent)
	}
}

func TestGenerateAck_OmitsTrailingEmptyFields(t *testing.T) {
	withFrozenClock(t)

	segs := ParseSegments(a28Msg)
	msh := firstMSH(segs)
	ack := GenerateAck(msh, "AA", "")

	ackSegs := ParseSegments(ack)
	msa := firstSegment(ackSegs, "MSA")
	if msa == nil {
		t.Fatal("expected MSA segment in generated ack")
	}
	if msa.Field(1) != "AA" {
		t.Errorf("MSA-1 = %q, want AA", msa.Field(1))
	}
	if msa.Field(2) != "CTRL123" {
		t.Errorf("MSA-2 = %q, want CTRL123", msa.Field(2))
	}
	if strings.HasSuffix(ack, "|\r") {
		t.Errorf("expected trailing empty fields trimmed: %q", ack)
	}
}

func TestGenerateAck_KeepsTextMessageWhenPresent(t *testing.T) {
	withFrozenClock(t)

	segs := ParseSegments(a28Msg)
	msh := firstMSH(segs)
	ack := GenerateAck(msh, "CE", "boom")

	if !strings.Contains(ack, "MSA|CE|CTRL123|boom") {
		t.Errorf("expected MSA-3 to carry the text message: %q", ack)
	}
}
