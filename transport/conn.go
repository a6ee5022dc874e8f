// Package transport carries bytes between a session and its server over
// either a raw TCP stream or, after a one-shot mid-stream upgrade, a TLS
// record layer on the same socket.
package transport

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
)

var (
	ErrAlreadyEncrypted = errors.New("connection is already encrypted")
	ErrConnClosed       = errors.New("connection is closed")
)

// Conn is one client connection. Reads are poll-style: ReadAvailable
// returns whatever is ready within a short deadline and reports
// (0, nil) when nothing is, so a caller-driven pump loop never blocks.
//
// Conn is owned by a single pump loop and is not safe for concurrent use.
type Conn struct {
	tcp *net.TCPConn

	// stream is the active byte stream: tcp until StartTLS succeeds,
	// the TLS record layer after. There is no downgrade path.
	stream net.Conn

	fd        int
	encrypted bool
	closed    bool

	pollTimeout time.Duration

	log *zap.Logger
}

// Dial resolves host:port and connects. The stdlib dialer walks every
// candidate address; the returned error wraps the failure after all of
// them are exhausted.
func Dial(options Options) (*Conn, error) {
	options = options.withDefaults()
	addr := net.JoinHostPort(options.Host, strconv.Itoa(options.Port))

	d := net.Dialer{Timeout: options.ConnectTimeout}

	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}

	tcp := conn.(*net.TCPConn)

	c := &Conn{
		tcp:         tcp,
		stream:      tcp,
		fd:          -1,
		pollTimeout: options.PollTimeout,
		log:         options.Log,
	}

	// Capture the descriptor for readiness polling. The socket stays
	// owned by the net package; the fd is only ever watched, not used
	// for I/O.
	if raw, err := tcp.SyscallConn(); err == nil {
		_ = raw.Control(func(fd uintptr) {
			c.fd = int(fd)
		})
	}

	c.log.Debug("connected", zap.String("addr", addr))

	return c, nil
}

// ReadAvailable reads whatever the peer has sent, waiting at most the
// poll timeout. A timeout is not an error: it returns (n, nil) with
// whatever was read, possibly nothing. io.EOF is surfaced so the caller
// can tell a quiet peer from a gone one.
func (c *Conn) ReadAvailable(p []byte) (int, error) {
	if c.closed {
		return 0, ErrConnClosed
	}

	if err := c.stream.SetReadDeadline(time.Now().Add(c.pollTimeout)); err != nil {
		return 0, err
	}

	n, err := c.stream.Read(p)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			// No more data ready right now.
			return n, nil
		}

		if errors.Is(err, io.EOF) {
			return n, io.EOF
		}

		return n, fmt.Errorf("read: %w", err)
	}

	return n, nil
}

// Write sends p in full or returns the error that stopped it, with the
// number of bytes that made it out. The caller keeps any remainder.
func (c *Conn) Write(p []byte) (int, error) {
	if c.closed {
		return 0, ErrConnClosed
	}

	if err := c.stream.SetWriteDeadline(time.Now().Add(DefaultWriteTimeout)); err != nil {
		return 0, err
	}

	return c.stream.Write(p)
}

// StartTLS performs the one-shot encrypted-channel upgrade on the open
// socket. The obby protocol does not use certificates, so the handshake
// runs unauthenticated; Go's TLS stack handles the transient-retry
// looping internally. The handshake is the only blocking operation on a
// Conn, bounded by DefaultHandshakeTimeout.
func (c *Conn) StartTLS() error {
	if c.closed {
		return ErrConnClosed
	}
	if c.encrypted {
		return ErrAlreadyEncrypted
	}

	tlsConn := tls.Client(c.tcp, &tls.Config{
		// The protocol's encryption is an anonymous key exchange; there
		// is no certificate to verify.
		InsecureSkipVerify: true,
	})

	if err := c.tcp.SetDeadline(time.Now().Add(DefaultHandshakeTimeout)); err != nil {
		return err
	}

	if err := tlsConn.Handshake(); err != nil {
		return fmt.Errorf("tls handshake: %w", err)
	}

	if err := c.tcp.SetDeadline(time.Time{}); err != nil {
		return err
	}

	c.stream = tlsConn
	c.encrypted = true
	c.log.Info("TLS upgrade complete")

	return nil
}

// Encrypted reports whether the TLS upgrade has completed.
func (c *Conn) Encrypted() bool {
	return c.encrypted
}

// Fd returns the socket descriptor for readiness polling, or -1 when it
// could not be captured.
func (c *Conn) Fd() int {
	return c.fd
}

// Close shuts the connection down. Closing the TLS layer also closes
// the underlying socket. Safe to call more than once.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	return c.stream.Close()
}
