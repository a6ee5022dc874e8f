// Package session implements the client side of the obby/net6
// collaborative-editing protocol: the connection state machine, the
// command dispatcher, and the user/document registries maintained as a
// side effect of parsing.
//
// A Session is single-owner and cooperative. The embedding event loop
// calls Pump whenever the socket may be readable or on a timer; Pump
// reads whatever is available, dispatches every complete command line,
// and flushes queued outbound bytes. It never blocks.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/luma/obnet/roster"
	"github.com/luma/obnet/transport"
)

const readChunkSize = 4096

var (
	ErrServerRole    = errors.New("server role is not implemented")
	ErrSessionClosed = errors.New("session is closed")
)

// Stream is the byte transport a session drives. *transport.Conn is the
// production implementation; tests substitute scripted streams.
type Stream interface {
	// ReadAvailable returns whatever the peer has sent without
	// blocking; (0, nil) means nothing is ready right now.
	ReadAvailable(p []byte) (int, error)

	Write(p []byte) (int, error)

	// StartTLS upgrades the stream in place. One-shot, no downgrade.
	StartTLS() error

	Encrypted() bool
	Fd() int
	Close() error
}

var _ Stream = (*transport.Conn)(nil)

type Options struct {
	// Host to connect to.
	Host string

	// Port to connect to.
	Port int

	// Role must be RoleClient.
	Role Role

	// Sink receives engine notifications. Optional.
	Sink Sink

	Log *zap.Logger
}

// Session is the root object for one connection. It is owned by the
// goroutine driving its pump loop and is not safe for concurrent use.
type Session struct {
	stream Stream
	state  State
	proto  int

	// inbuf holds received bytes not yet parsed, including any
	// incomplete trailing line carried across pump cycles.
	inbuf []byte

	// outbuf holds command bytes queued by handlers and callers,
	// flushed at the end of each pump cycle in queueing order.
	outbuf []byte

	// expected is the record count announced by obby_sync_init, checked
	// against the registries when obby_sync_final arrives.
	expected int

	users *roster.Users
	docs  *roster.Documents

	sink   Sink
	log    *zap.Logger
	closed bool
}

// Dial connects to an obby server and returns a Session in StateOpen.
// Only the client role is supported.
func Dial(options Options) (*Session, error) {
	if options.Role != RoleClient {
		return nil, ErrServerRole
	}

	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := transport.Dial(transport.Options{
		Host: options.Host,
		Port: options.Port,
		Log:  log.Named("transport"),
	})
	if err != nil {
		return nil, err
	}

	return New(conn, options)
}

// New wraps an already-connected stream. Most callers want Dial; New
// exists for embedders that manage their own transport.
func New(stream Stream, options Options) (*Session, error) {
	if options.Role != RoleClient {
		return nil, ErrServerRole
	}

	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Session{
		stream: stream,
		state:  StateOpen,
		users:  roster.NewUsers(),
		docs:   roster.NewDocuments(),
		sink:   options.Sink,
		log:    log,
	}, nil
}

// Pump advances the session by one I/O cycle: read whatever is
// available, dispatch every complete command line, flush the outbound
// buffer. A no-op once the session is at fault.
func (s *Session) Pump() {
	if s.closed {
		s.log.Debug("session closed, ignoring pump")
		return
	}

	switch s.state {
	case StateOpen, StateShookHands, StateJoined, StateSynced:

	case StateError:
		s.log.Debug("session at fault, ignoring pump")
		return

	default:
		s.log.Debug("bad session state", zap.Int("state", int(s.state)))
		return
	}

	eof := s.fill()

	s.parseInbound()
	s.flush()

	if eof && s.state != StateError {
		s.fault("connection closed by peer", io.EOF)
	}
}

// fill reads until the stream reports no more data ready. It reports
// whether the peer has closed the connection.
func (s *Session) fill() bool {
	for {
		chunk := make([]byte, readChunkSize)

		n, err := s.stream.ReadAvailable(chunk)
		if n > 0 {
			s.inbuf = append(s.inbuf, chunk[:n]...)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return true
			}

			// Treated as "no more data now", consistent with a
			// non-blocking socket.
			s.log.Debug("read stopped", zap.Error(err))
			return false
		}

		if n < readChunkSize {
			return false
		}
	}
}

// parseInbound consumes every complete newline-terminated command from
// the inbound buffer, preserving a trailing partial line for the next
// pump cycle.
func (s *Session) parseInbound() {
	for s.state != StateError {
		i := bytes.IndexByte(s.inbuf, '\n')
		if i < 0 {
			break
		}

		line := string(s.inbuf[:i])
		s.inbuf = s.inbuf[i+1:]

		s.dispatch(line)
	}

	// Re-home the remainder so the consumed prefix can be collected.
	if len(s.inbuf) > 0 {
		s.inbuf = append([]byte(nil), s.inbuf...)
	} else {
		s.inbuf = nil
	}
}

// flush writes the queued outbound bytes. Anything a short write leaves
// behind stays queued for the next cycle.
func (s *Session) flush() {
	if len(s.outbuf) == 0 || s.state == StateError {
		return
	}

	n, err := s.stream.Write(s.outbuf)

	if n >= len(s.outbuf) {
		s.outbuf = nil
	} else if n > 0 {
		s.outbuf = append([]byte(nil), s.outbuf[n:]...)
	}

	if err != nil {
		s.fault("write failed", err)
	}
}

// Enqueue appends a formatted, newline-terminated command to the
// outbound buffer. Plain byte append; order is preserved exactly.
func (s *Session) Enqueue(cmd []byte) {
	if s.closed {
		return
	}

	s.outbuf = append(s.outbuf, cmd...)
}

// fault moves the session to the terminal Error state.
func (s *Session) fault(msg string, err error) {
	s.state = StateError
	s.log.Warn(msg, zap.Error(err))

	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	s.notify(DiagnosticEvent(msg))
}

func (s *Session) notify(event Event) {
	if s.sink != nil {
		s.sink(event)
	}
}

// SetSink replaces the notification sink. Pass nil to silence.
func (s *Session) SetSink(sink Sink) {
	s.sink = sink
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state
}

// ProtocolVersion returns the version the server reported in its
// welcome message, or zero before it arrives. Advisory only.
func (s *Session) ProtocolVersion() int {
	return s.proto
}

// Encrypted reports whether the TLS upgrade has completed.
func (s *Session) Encrypted() bool {
	return s.stream.Encrypted()
}

// Fd exposes the socket descriptor for readiness polling.
func (s *Session) Fd() int {
	return s.stream.Fd()
}

// Users returns a read-only snapshot of the user roster in the order
// users were learned.
func (s *Session) Users() []roster.User {
	return s.users.Snapshot()
}

// Documents returns a read-only snapshot of the document catalog.
func (s *Session) Documents() []roster.Document {
	return s.docs.Snapshot()
}

// Close tears the session down: the stream (and any TLS state it owns)
// is closed and both registries and buffers are released. Safe to call
// in any state, including Error, and more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.stream.Close()

	s.inbuf = nil
	s.outbuf = nil
	s.users.Reset()
	s.docs.Reset()

	return err
}
