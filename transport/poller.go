package transport

import (
	"encoding/binary"
	"syscall"
	"time"

	"go.uber.org/multierr"
)

// Poller watches a connection descriptor for readability so an
// embedding event loop can sleep between pump calls. A second eventfd
// lets another goroutine wake the loop early.
type Poller struct {
	fd     int
	connFd int
	wakeFd int
}

func NewPoller(connFd int) (*Poller, error) {
	var (
		poller = Poller{connFd: connFd}
		err    error
	)

	// Open an epoll fd
	// https://man7.org/linux/man-pages/man2/epoll_create.2.html
	poller.fd, err = syscall.EpollCreate1(0)
	if err != nil {
		return nil, err
	}

	// https://man7.org/linux/man-pages/man2/eventfd.2.html
	r0, _, e0 := syscall.Syscall(syscall.SYS_EVENTFD2, 0, 0, 0)
	if e0 != 0 {
		syscall.Close(poller.fd)
		return nil, e0
	}
	poller.wakeFd = int(r0)

	// https://man7.org/linux/man-pages/man2/epoll_ctl.2.html
	wake := &syscall.EpollEvent{
		Fd:     int32(poller.wakeFd),
		Events: syscall.EPOLLIN,
	}

	if err = syscall.EpollCtl(poller.fd, syscall.EPOLL_CTL_ADD, poller.wakeFd, wake); err != nil {
		poller.closeFds()
		return nil, err
	}

	conn := &syscall.EpollEvent{
		Fd:     int32(connFd),
		Events: syscall.EPOLLIN,
	}

	if err = syscall.EpollCtl(poller.fd, syscall.EPOLL_CTL_ADD, connFd, conn); err != nil {
		poller.closeFds()
		return nil, err
	}

	return &poller, nil
}

// Wait blocks until the connection is readable, the poller is woken, or
// the timeout elapses. It reports whether the connection had data.
func (p *Poller) Wait(timeout time.Duration) (bool, error) {
	events := make([]syscall.EpollEvent, 2)

	n, err := syscall.EpollWait(p.fd, events, int(timeout.Milliseconds()))
	if err != nil {
		if err == syscall.EINTR {
			return false, nil
		}

		return false, err
	}

	readable := false

	for i := 0; i < n; i++ {
		switch int(events[i].Fd) {
		case p.connFd:
			readable = true

		case p.wakeFd:
			// Drain the eventfd counter so the next Wait sleeps again.
			var buf [8]byte
			_, _ = syscall.Read(p.wakeFd, buf[:])
		}
	}

	return readable, nil
}

// Wake interrupts a concurrent Wait.
func (p *Poller) Wake() error {
	var one [8]byte
	binary.LittleEndian.PutUint64(one[:], 1)

	_, err := syscall.Write(p.wakeFd, one[:])
	return err
}

func (p *Poller) Close() error {
	return p.closeFds()
}

func (p *Poller) closeFds() (err error) {
	if cerr := syscall.Close(p.wakeFd); cerr != nil {
		err = multierr.Append(err, cerr)
	}

	if cerr := syscall.Close(p.fd); cerr != nil {
		err = multierr.Append(err, cerr)
	}

	return err
}
