package transport

import (
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPollTimeout bounds how long a ReadAvailable call may wait
	// for data before reporting "nothing ready".
	DefaultPollTimeout = 5 * time.Millisecond

	// DefaultConnectTimeout bounds the initial TCP dial across all
	// candidate addresses.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultHandshakeTimeout bounds the one-shot TLS upgrade.
	DefaultHandshakeTimeout = 30 * time.Second

	// DefaultWriteTimeout bounds a single outbound flush.
	DefaultWriteTimeout = 10 * time.Second
)

type Options struct {
	// Host to connect to.
	Host string

	// Port to connect to.
	Port int

	// PollTimeout replaces DefaultPollTimeout when non-zero.
	PollTimeout time.Duration

	// ConnectTimeout replaces DefaultConnectTimeout when non-zero.
	ConnectTimeout time.Duration

	Log *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.PollTimeout == 0 {
		o.PollTimeout = DefaultPollTimeout
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}

	return o
}
