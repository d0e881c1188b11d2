package mllp

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/route-beacon/mllp-gateway/internal/hl7"
	"go.uber.org/zap"
)

type fakePublisher struct {
	requestInCalls int
	requestInKey   []byte
	exceptionCalls int
}

func (f *fakePublisher) PublishRequestIn(ctx context.Context, key, value []byte) {
	f.requestInCalls++
	f.requestInKey = key
}

func (f *fakePublisher) PublishException(ctx context.Context, key, value []byte) error {
	f.exceptionCalls++
	return nil
}

type fakeDispatcher struct {
	calls   int
	trigger string
}

func (f *fakeDispatcher) Handle(ctx context.Context, inbound *hl7.InboundMessage, raw string) {
	f.calls++
	f.trigger = inbound.TriggerEvent
}

const a28Msg = "MSH|^~\\&|REG|SONHO|GATEWAY|RBC|20240101120000||ADT^A28|MSG0001|P|2.5\r" +
	"EVN|A28|20240101120000\r" +
	"PID|1||12345^^^SONHO^NS||DOE^JOHN\r"

func serve(t *testing.T, pub *fakePublisher, disp *fakeDispatcher) (client net.Conn, stop func()) {
	t.Helper()
	return serveWithClock(t, pub, disp, nil)
}

func serveWithClock(t *testing.T, pub *fakePublisher, disp *fakeDispatcher, clock *AckClock) (client net.Conn, stop func()) {
	t.Helper()
	server, cli := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	h := newConnHandler(server, pub, disp, clock, zap.NewNop())
	done := make(chan struct{})
	go func() {
		h.run(ctx)
		server.Close()
		close(done)
	}()
	return cli, func() {
		cancel()
		cli.Close()
		<-done
	}
}

func TestConnHandler_HappyPathPublishesAcksAndDispatches(t *testing.T) {
	pub := &fakePublisher{}
	disp := &fakeDispatcher{}
	cli, stop := serve(t, pub, disp)
	defer stop()

	cli.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := cli.Write(frame([]byte(a28Msg))); err != nil {
		t.Fatalf("write: %v", err)
	}

	cli.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, err := cli.Read(buf)
	if err != nil {
		t.Fatalf("read ack: %v", err)
	}
	ack := buf[:n]
	if ack[0] != startBlock || ack[len(ack)-2] != endBlock {
		t.Fatalf("ack not MLLP-framed: %x", ack)
	}
	if !bytes.Contains(ack, []byte("MSA|CA|MSG0001")) {
		t.Errorf("ack = %q, want MSA|CA|MSG0001", ack)
	}

	deadline := time.Now().Add(2 * time.Second)
	for disp.calls == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if disp.calls != 1 {
		t.Fatalf("expected dispatcher to be called once, got %d", disp.calls)
	}
	if disp.trigger != "A28" {
		t.Errorf("trigger = %q, want A28", disp.trigger)
	}
	if pub.requestInCalls != 1 {
		t.Fatalf("expected 1 requestIn publish, got %d", pub.requestInCalls)
	}
	if string(pub.requestInKey) != "MSG0001" {
		t.Errorf("requestIn key = %q, want MSG0001", pub.requestInKey)
	}
}

func TestConnHandler_InboundAckNotReplied(t *testing.T) {
	pub := &fakePublisher{}
	disp := &fakeDispatcher{}
	cli, stop := serve(t, pub, disp)
	defer stop()

	ackMsg := "MSH|^~\\&|GATEWAY|RBC|REG|SONHO|20240101120000||ACK^A28|ACK0001|P|2.5\r" +
		"MSA|AA|MSG0001\r"
	cli.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := cli.Write(frame([]byte(ackMsg))); err != nil {
		t.Fatalf("write: %v", err)
	}

	cli.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	buf := make([]byte, 16)
	if _, err := cli.Read(buf); err == nil {
		t.Fatal("expected no reply for an inbound ACK")
	}
	if pub.requestInCalls != 0 {
		t.Errorf("expected no requestIn publish for an inbound ACK, got %d", pub.requestInCalls)
	}
	if disp.calls != 0 {
		t.Errorf("expected no dispatch for an inbound ACK, got %d", disp.calls)
	}
}

func TestConnHandler_SuccessfulAckRecordsClock(t *testing.T) {
	pub := &fakePublisher{}
	disp := &fakeDispatcher{}
	clock := &AckClock{}
	cli, stop := serveWithClock(t, pub, disp, clock)
	defer stop()

	if !clock.LastAckWrite().IsZero() {
		t.Fatal("expected zero LastAckWrite before any ACK is written")
	}

	cli.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := cli.Write(frame([]byte(a28Msg))); err != nil {
		t.Fatalf("write: %v", err)
	}

	cli.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	if _, err := cli.Read(buf); err != nil {
		t.Fatalf("read ack: %v", err)
	}

	if clock.LastAckWrite().IsZero() {
		t.Fatal("expected LastAckWrite to be set after a successful ACK write")
	}
}

func TestConnHandler_NoStartBlockClosesConnection(t *testing.T) {
	pub := &fakePublisher{}
	disp := &fakeDispatcher{}
	cli, stop := serve(t, pub, disp)
	defer stop()

	cli.SetWriteDeadline(time.Now().Add(2 * time.Second))
	cli.Write([]byte("MSH|garbage" + string(rune(endBlock)) + string(rune(carriageReturn))))

	cli.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	if _, err := cli.Read(buf); err == nil {
		t.Fatal("expected connection to be closed with no ACK")
	}
}
