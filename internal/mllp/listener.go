package mllp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
)

// Listener accepts TCP connections and spawns one connHandler goroutine per
// connection, mirroring other_examples' MLLPServer but driven by
// context.Context instead of a done channel.
type Listener struct {
	addr       string
	publisher  Publisher
	dispatcher Dispatcher
	ackClock   *AckClock
	logger     *zap.Logger

	ln net.Listener

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewListener builds a Listener bound to addr (host:port, per spec.md §6's
// tcp.host/tcp.port). ackClock is shared across every connection handler
// this listener spawns, to back the /readyz last-ACK-write check.
func NewListener(addr string, publisher Publisher, dispatcher Dispatcher, ackClock *AckClock, logger *zap.Logger) *Listener {
	return &Listener{
		addr:       addr,
		publisher:  publisher,
		dispatcher: dispatcher,
		ackClock:   ackClock,
		logger:     logger,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Serve binds the listener and accepts connections until ctx is cancelled.
// It blocks until the accept loop and every connection handler have exited.
func (l *Listener) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("mllp: failed to listen on %s: %w", l.addr, err)
	}
	l.ln = ln

	go func() {
		<-ctx.Done()
		l.ln.Close()
		l.mu.Lock()
		for conn := range l.conns {
			conn.Close()
		}
		l.mu.Unlock()
	}()

	l.acceptLoop(ctx)
	l.wg.Wait()
	return nil
}

// Addr returns the bound address, useful when addr was ":0".
func (l *Listener) Addr() string {
	if l.ln != nil {
		return l.ln.Addr().String()
	}
	return l.addr
}

// AckClock returns the clock shared across this listener's connections, for
// wiring into http.Server's readiness check.
func (l *Listener) AckClock() *AckClock {
	return l.ackClock
}

func (l *Listener) acceptLoop(ctx context.Context) {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			l.logger.Error("mllp: accept error", zap.Error(err))
			return
		}

		l.trackConn(conn, true)
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			defer l.trackConn(conn, false)
			defer conn.Close()
			h := newConnHandler(conn, l.publisher, l.dispatcher, l.ackClock, l.logger)
			h.run(ctx)
		}()
	}
}

func (l *Listener) trackConn(conn net.Conn, add bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if add {
		l.conns[conn] = struct{}{}
	} else {
		delete(l.conns, conn)
	}
}
