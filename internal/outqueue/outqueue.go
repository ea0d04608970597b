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

// Package outqueue implements the per-session deferred output queue: a
// FIFO of byte chunks pending when the socket is not writable, with
// byte-accounted backpressure. Modeled on smux's per-stream write
// accounting (sess.go's bucket/returnTokens) and on kcp-go's ring-buffer
// FIFO (ringbuffer.go), hand-rolled here against an explicit byte-overhead
// accounting rule rather than imported, since neither upstream type
// carries a "chunk + fixed overhead" accounting rule.
package outqueue

import (
	"errors"
	"io"
	"syscall"
)

// Overhead is the fixed per-chunk bookkeeping cost counted against the
// deferred byte total alongside each chunk's payload size.
const Overhead = 16

// ErrLimitExceeded is returned by Enqueue when appending would push the
// queue's byte total past the configured limit.
var ErrLimitExceeded = errors.New("outqueue: output buffer limit exceeded")

type chunk struct {
	data []byte
	off  int
}

func (c *chunk) remaining() int { return len(c.data) - c.off }

// Queue is a FIFO of pending output chunks. It is not safe for concurrent
// use: all operations run on the single reactor thread.
type Queue struct {
	chunks []chunk
	bytes  int
	limit  int
}

// New returns an empty queue bound by limit bytes (payload + overhead).
func New(limit int) *Queue {
	return &Queue{limit: limit}
}

// Empty reports whether the queue has no pending bytes; the reactor uses
// this to decide whether a session is registered for writable readiness
// versus readable-only readiness.
func (q *Queue) Empty() bool { return len(q.chunks) == 0 }

// Bytes returns the current accounted total.
func (q *Queue) Bytes() int { return q.bytes }

// Enqueue appends a copy of p to the tail of the queue. If the resulting
// total would exceed the configured limit, nothing is retained and
// ErrLimitExceeded is returned — callers must expire the owning session
// on this error; there is no partial retention.
func (q *Queue) Enqueue(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	added := len(p) + Overhead
	if q.bytes+added > q.limit {
		return ErrLimitExceeded
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	q.chunks = append(q.chunks, chunk{data: buf})
	q.bytes += added
	return nil
}

// Drain repeatedly writes the head chunk to w until the queue empties or a
// short/failed write stops it. It never blocks.
//
// A write returning EAGAIN/EWOULDBLOCK or EINTR leaves the queue intact
// and returns (false, nil): the caller retries on the next readiness
// iteration. Any other error is surfaced so the caller can expire the
// session.
func (q *Queue) Drain(w io.Writer) (drained bool, err error) {
	for len(q.chunks) > 0 {
		head := &q.chunks[0]
		n, werr := w.Write(head.data[head.off:])
		if n > 0 {
			head.off += n
			q.bytes -= n
		}
		if werr != nil {
			if isRetryable(werr) {
				return false, nil
			}
			return false, werr
		}
		if head.remaining() > 0 {
			// short write with no error: stop, retry later.
			return false, nil
		}
		// head fully written: free it and drop its overhead.
		q.bytes -= Overhead
		q.chunks = q.chunks[1:]
	}
	return true, nil
}

func isRetryable(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EINTR)
}
