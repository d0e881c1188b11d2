package mllp

import (
	"bytes"
	"context"
	"net"
	"strings"
	"time"

	"github.com/route-beacon/mllp-gateway/internal/hl7"
	"github.com/route-beacon/mllp-gateway/internal/metrics"
	"go.uber.org/zap"
)

const (
	maxStored     = 100_000_000
	highWatermark = maxStored * 0.5
	lowWatermark  = maxStored * 0.3

	readChunkSize = 4096
	readTimeout   = 30 * time.Second
	writeTimeout  = 10 * time.Second
)

type connState int

const (
	stateReading connState = iota
	stateReadingSuspended
	stateWritingAck
	stateClosing
)

// Publisher is the subset of internal/kafkaegress.Producer a connection
// handler needs to mirror inbound payloads and report exceptions.
type Publisher interface {
	PublishRequestIn(ctx context.Context, key, value []byte)
	PublishException(ctx context.Context, key, value []byte) error
}

// Dispatcher routes an already-ACKed InboundMessage to its operation.
type Dispatcher interface {
	Handle(ctx context.Context, inbound *hl7.InboundMessage, raw string)
}

// connHandler owns one TCP connection's receive buffer, watermark state
// and framing loop. One goroutine per connection, no shared mutable state
// across connections (spec.md §5).
type connHandler struct {
	conn       net.Conn
	publisher  Publisher
	dispatcher Dispatcher
	ackClock   *AckClock
	logger     *zap.Logger

	chunks []([]byte)
	stored int
	state  connState
}

func newConnHandler(conn net.Conn, publisher Publisher, dispatcher Dispatcher, ackClock *AckClock, logger *zap.Logger) *connHandler {
	return &connHandler{
		conn:       conn,
		publisher:  publisher,
		dispatcher: dispatcher,
		ackClock:   ackClock,
		logger:     logger,
		state:      stateReading,
	}
}

// run reads frames until the peer disconnects, a framing error occurs, or
// ctx is cancelled, implementing the state machine in spec.md §4.1.
func (h *connHandler) run(ctx context.Context) {
	readBuf := make([]byte, readChunkSize)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if h.state == stateClosing {
			return
		}

		h.conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, err := h.conn.Read(readBuf)
		if n > 0 {
			if !h.onChunk(ctx, readBuf[:n]) {
				return
			}
		}
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				if h.stored == 0 {
					return
				}
				continue
			}
			return
		}
	}
}

// onChunk appends a chunk, enforces the watermarks, and drains any
// complete frames out of the buffer. Returns false if the connection
// should be torn down.
func (h *connHandler) onChunk(ctx context.Context, chunk []byte) bool {
	buf := append([]byte(nil), chunk...)
	h.chunks = append(h.chunks, buf)
	h.stored += len(buf)

	if h.stored > maxStored {
		h.logger.Error("mllp: buffer exceeds maxStored, closing connection",
			zap.Int("stored", h.stored),
		)
		return false
	}

	if h.stored > highWatermark && h.state != stateReadingSuspended {
		h.state = stateReadingSuspended
		metrics.WatermarkSuspendsTotal.WithLabelValues().Inc()
	}

	for {
		flat := h.flatten()
		startIdx := bytes.IndexByte(flat, startBlock)
		if startIdx == -1 {
			if len(flat) > 0 {
				h.logger.Error("mllp: frame missing start block, closing connection")
				return false
			}
			break
		}
		if startIdx != 0 {
			h.logger.Error("mllp: leading bytes before start block, closing connection")
			return false
		}

		endIdx := bytes.IndexByte(flat[startIdx+1:], endBlock)
		if endIdx == -1 {
			break // incomplete frame, wait for more data
		}
		endIdx = startIdx + 1 + endIdx

		frameEnd := endIdx + 1
		if frameEnd < len(flat) && flat[frameEnd] == carriageReturn {
			frameEnd++
		}

		rawFrame := flat[:frameEnd]
		remainder := flat[frameEnd:]
		h.chunks = [][]byte{append([]byte(nil), remainder...)}
		h.stored = len(remainder)

		decoded, err := decodeFrame(rawFrame)
		if err != nil {
			h.logger.Error("mllp: frame decode failed", zap.Error(err))
			continue
		}

		if !h.processFrame(ctx, decoded) {
			return false
		}

		if h.state == stateReadingSuspended && h.stored < lowWatermark {
			h.state = stateReading
		}
	}

	return true
}

func (h *connHandler) flatten() []byte {
	if len(h.chunks) == 1 {
		return h.chunks[0]
	}
	var buf bytes.Buffer
	for _, c := range h.chunks {
		buf.Write(c)
	}
	return buf.Bytes()
}

// processFrame implements the ACK protocol of spec.md §4.1: ACK frames are
// logged and dropped, everything else is published, ACKed and dispatched.
func (h *connHandler) processFrame(ctx context.Context, raw string) bool {
	inbound, errData := hl7.Parse(raw)

	if errData != nil {
		h.logger.Error("mllp: parse exception",
			zap.String("exception_id", errData.ExceptionID),
			zap.String("error", string(errData.Error)),
		)
		metrics.ParseErrorsTotal.WithLabelValues("hl7_parse", "invalid_message").Inc()
		metrics.FramesTotal.WithLabelValues("unknown", "exception").Inc()
		if err := h.publisher.PublishException(ctx, []byte(errData.ExceptionID), []byte(errData.OriginalMsg)); err != nil {
			h.logger.Error("mllp: publishing exception failed", zap.Error(err))
		}
		return h.writeAck(errData.ExceptionAckMsg)
	}

	if isInboundAck(raw) {
		h.logger.Info("mllp: inbound ACK received, not replying",
			zap.String("bundle_id", inbound.BundleID),
		)
		metrics.FramesTotal.WithLabelValues(inbound.TriggerEvent, "inbound_ack").Inc()
		return true
	}

	h.state = stateWritingAck
	h.publisher.PublishRequestIn(ctx, []byte(inbound.BundleID), []byte(raw))

	ackStart := time.Now()
	wrote := h.writeAck(inbound.AckMsg)
	metrics.AckWriteDuration.WithLabelValues(ackCode(inbound.AckMsg)).Observe(time.Since(ackStart).Seconds())
	if !wrote {
		metrics.FramesTotal.WithLabelValues(inbound.TriggerEvent, "ack_write_failed").Inc()
		return false
	}

	h.dispatcher.Handle(ctx, inbound, raw)
	h.state = stateReading
	metrics.FramesTotal.WithLabelValues(inbound.TriggerEvent, "dispatched").Inc()
	return true
}

// ackCode pulls MSA-1 out of an ACK message for metric labeling.
func ackCode(ack string) string {
	segs := hl7.ParseSegments(ack)
	for i := range segs {
		if segs[i].Name == "MSA" {
			return segs[i].Field(1)
		}
	}
	return "unknown"
}

// isInboundAck reports whether raw's MSH-9 starts with "ACK", meaning the
// peer is acknowledging one of our own prior outbound messages.
func isInboundAck(raw string) bool {
	segs := hl7.ParseSegments(raw)
	for i := range segs {
		if segs[i].Name == "MSH" {
			return strings.HasPrefix(segs[i].Field(9), "ACK")
		}
	}
	return false
}

func (h *connHandler) writeAck(ack string) bool {
	if ack == "" {
		return true
	}
	framed := frame([]byte(ack))
	h.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := h.conn.Write(framed); err != nil {
		h.logger.Error("mllp: ack write failed", zap.Error(err))
		return false
	}
	if h.ackClock != nil {
		h.ackClock.Record(time.Now())
	}
	return true
}
