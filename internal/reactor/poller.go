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

package reactor

// Interest is what a descriptor is currently registered for: readable set,
// writable set, or both.
type Interest struct {
	FD       int
	Readable bool
	Writable bool
}

// Events is what came back from one readiness wait: the FDs that are
// actually ready, split by direction.
type Events struct {
	Readable []int
	Writable []int
}

// Poller is the one blocking syscall per reactor iteration. A
// platform-specific implementation backs it; see poller_linux.go for the
// epoll version this daemon ships.
type Poller interface {
	// Rearm replaces the full set of descriptors of interest. Called once
	// per iteration before Wait, since the readable/writable sets change
	// every time a session's deferred queue empties or fills.
	Rearm(interests []Interest) error
	// Wait blocks until at least one descriptor is ready, or returns a
	// retryable error for an interrupt-like failure, or a fatal error for
	// anything else.
	Wait() (Events, error)
	// Close releases the poller's own resources (its epoll/kqueue fd).
	Close() error
}

// ErrRetry is returned by Poller.Wait for an interrupt-like failure; the
// reactor restarts its loop without treating this as fatal.
var ErrRetry = retryError{}

type retryError struct{}

func (retryError) Error() string { return "reactor: readiness wait interrupted, retrying" }
