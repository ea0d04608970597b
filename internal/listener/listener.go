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

// Package listener is the reference "Listener" collaborator: it registers
// listening descriptors for readability and accepts ready ones, yielding
// (fd, peer_addr, uid_or_unknown) tuples, with multi-port address parsing
// in multiport.go.
package listener

import (
	"os"
)

// UnknownUID is yielded for peers whose credentials cannot be obtained —
// always true for plain TCP, which carries no identity.
const UnknownUID = "unknown"

// Accepted is one freshly accepted connection.
type Accepted struct {
	Conn     *os.File
	FD       int
	PeerAddr string
	UID      string
}

// Listener registers its listening descriptors for readability and
// accepts new connections on demand.
type Listener interface {
	// Descriptors returns the listening socket fds to merge into the
	// reactor's readable set.
	Descriptors() []int
	// Accept is called when one of Descriptors() is readable. ok is
	// false with a nil error when the accept would have blocked (another
	// goroutine or a spurious wakeup already drained it).
	Accept(fd int) (accepted Accepted, ok bool, err error)
	// Close shuts down every listening descriptor.
	Close() error
}
