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

package listener

import (
	"fmt"
	"net"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// resolveIPv4 turns a configured host (empty, a literal, or a hostname)
// into the 4-byte form unix.SockaddrInet4 wants. An empty host binds to
// all interfaces, matching net.Listen's treatment of "".
func resolveIPv4(host string) (addr [4]byte, err error) {
	if host == "" {
		return addr, nil
	}
	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return addr, errors.Errorf("listener: cannot resolve host %q", host)
		}
		ip = ips[0]
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return addr, errors.Errorf("listener: host %q is not an IPv4 address", host)
	}
	copy(addr[:], ip4)
	return addr, nil
}

// TCP is a Listener built directly on unix socket syscalls rather than
// net.Listener, so every accepted descriptor is a raw, non-blocking fd the
// reactor's epoll poller can register without fighting the runtime's own
// netpoller integration.
type TCP struct {
	fds []int
}

// ListenMultiPort opens one listening socket per port in a "host:port" or
// "host:minport-maxport" address.
func ListenMultiPort(addr string) (*TCP, error) {
	mp, err := ParseMultiPort(addr)
	if err != nil {
		return nil, err
	}

	t := &TCP{}
	for port := mp.MinPort; port <= mp.MaxPort; port++ {
		fd, err := listenOne(mp.Host, port)
		if err != nil {
			t.Close()
			return nil, errors.Wrapf(err, "listener: listening on %s:%d", mp.Host, port)
		}
		t.fds = append(t.fds, fd)
	}
	return t, nil
}

func listenOne(host string, port int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, errors.Wrap(err, "socket")
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, errors.Wrap(err, "setsockopt SO_REUSEADDR")
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, errors.Wrap(err, "set non-blocking")
	}

	addr := unix.SockaddrInet4{Port: port}
	ip, err := resolveIPv4(host)
	if err != nil {
		unix.Close(fd)
		return -1, err
	}
	addr.Addr = ip

	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return -1, errors.Wrap(err, "bind")
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return -1, errors.Wrap(err, "listen")
	}
	return fd, nil
}

func (t *TCP) Descriptors() []int {
	out := make([]int, len(t.fds))
	copy(out, t.fds)
	return out
}

// Accept admits one connection on fd, setting it non-blocking before
// returning it.
func (t *TCP) Accept(fd int) (Accepted, bool, error) {
	nfd, sa, err := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
			return Accepted{}, false, nil
		}
		return Accepted{}, false, errors.Wrap(err, "accept4")
	}

	peer := "unknown"
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		peer = fmt.Sprintf("%d.%d.%d.%d:%d", in4.Addr[0], in4.Addr[1], in4.Addr[2], in4.Addr[3], in4.Port)
	}

	return Accepted{
		Conn:     os.NewFile(uintptr(nfd), peer),
		FD:       nfd,
		PeerAddr: peer,
		UID:      UnknownUID,
	}, true, nil
}

func (t *TCP) Close() error {
	var first error
	for _, fd := range t.fds {
		if err := unix.Close(fd); err != nil && first == nil {
			first = err
		}
	}
	t.fds = nil
	return first
}
