// Package http is the gateway's operational HTTP surface: liveness,
// readiness, and Prometheus metrics, the same shape as the teacher's
// internal/http.Server but checking the MLLP listener and Kafka producer
// instead of Postgres/consumer-group join state.
package http

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ListenerStatus reports whether the MLLP TCP listener is bound.
type ListenerStatus interface {
	Addr() string
}

// ProducerStatus abstracts a Kafka producer health ping for testability.
type ProducerStatus interface {
	Ping(ctx context.Context) error
}

// AckClock reports the timestamp of the last successful MLLP ACK write,
// per SPEC_FULL.md's readyz supplement.
type AckClock interface {
	LastAckWrite() time.Time
}

type Server struct {
	srv      *http.Server
	listener ListenerStatus
	producer ProducerStatus
	ackClock AckClock
	logger   *zap.Logger
}

func NewServer(addr string, listener ListenerStatus, producer ProducerStatus, ackClock AckClock, logger *zap.Logger) *Server {
	s := &Server{
		listener: listener,
		producer: producer,
		ackClock: ackClock,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return s
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("HTTP server listening", zap.String("addr", s.srv.Addr))
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	allOK := true

	// Check the MLLP listener is bound.
	if s.listener != nil && s.listener.Addr() != "" {
		checks["mllp_listener"] = "ok"
	} else {
		checks["mllp_listener"] = "not_bound"
		allOK = false
	}

	// Check the Kafka producer client.
	if s.producer != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.producer.Ping(ctx); err != nil {
			checks["kafka_producer"] = "error"
			allOK = false
		} else {
			checks["kafka_producer"] = "ok"
		}
	} else {
		checks["kafka_producer"] = "error"
		allOK = false
	}

	// Report the last successful ACK write, if any has happened yet.
	if s.ackClock != nil {
		if last := s.ackClock.LastAckWrite(); !last.IsZero() {
			checks["last_ack_write"] = last.UTC().Format(time.RFC3339)
		} else {
			checks["last_ack_write"] = "none"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	status := "ready"
	httpStatus := http.StatusOK
	if !allOK {
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"checks": checks,
	})
}
