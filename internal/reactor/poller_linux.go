// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

//go:build linux

package reactor

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// epollPoller is the Linux Poller: a single epoll instance re-armed every
// iteration. This is the one place in the daemon that cannot be expressed
// against net.Listener/net.Conn, because the reactor needs a manual,
// non-blocking, readiness-based multiplexer rather than the blocking-style
// calls the runtime's own netpoller hides behind.
type epollPoller struct {
	epfd     int
	current  map[int]uint32 // fd -> registered event mask, to diff against Rearm
	eventBuf []unix.EpollEvent
}

// NewLinuxPoller constructs a Poller backed by epoll_create1/epoll_ctl/
// epoll_wait.
func NewLinuxPoller() (Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, errors.Wrap(err, "epoll_create1")
	}
	return &epollPoller{
		epfd:     fd,
		current:  make(map[int]uint32),
		eventBuf: make([]unix.EpollEvent, 256),
	}, nil
}

func (p *epollPoller) Rearm(interests []Interest) error {
	wanted := make(map[int]uint32, len(interests))
	for _, in := range interests {
		var mask uint32
		if in.Readable {
			mask |= unix.EPOLLIN
		}
		if in.Writable {
			mask |= unix.EPOLLOUT
		}
		wanted[in.FD] = mask
	}

	for fd, mask := range wanted {
		if old, ok := p.current[fd]; !ok {
			if err := p.ctl(unix.EPOLL_CTL_ADD, fd, mask); err != nil {
				return err
			}
		} else if old != mask {
			if err := p.ctl(unix.EPOLL_CTL_MOD, fd, mask); err != nil {
				return err
			}
		}
	}
	for fd := range p.current {
		if _, ok := wanted[fd]; !ok {
			// Ignore errors from removing an already-closed fd: the
			// kernel drops epoll registrations on close() automatically.
			_ = p.ctl(unix.EPOLL_CTL_DEL, fd, 0)
		}
	}
	p.current = wanted
	return nil
}

func (p *epollPoller) ctl(op int, fd int, mask uint32) error {
	ev := unix.EpollEvent{Events: mask, Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, op, fd, &ev); err != nil {
		return errors.Wrapf(err, "epoll_ctl(op=%d, fd=%d)", op, fd)
	}
	return nil
}

func (p *epollPoller) Wait() (Events, error) {
	n, err := unix.EpollWait(p.epfd, p.eventBuf, -1)
	if err != nil {
		if err == unix.EINTR {
			return Events{}, ErrRetry
		}
		return Events{}, errors.Wrap(err, "epoll_wait")
	}

	var out Events
	for i := 0; i < n; i++ {
		ev := p.eventBuf[i]
		fd := int(ev.Fd)
		if ev.Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
			out.Readable = append(out.Readable, fd)
		}
		if ev.Events&(unix.EPOLLOUT|unix.EPOLLERR) != 0 {
			out.Writable = append(out.Writable, fd)
		}
	}
	return out, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}
