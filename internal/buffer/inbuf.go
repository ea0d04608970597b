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

// Package buffer implements the fixed-capacity inbound ring and its line
// framer. The shape (filled-prefix length, consumed cursor, in-place
// compaction) mirrors kcp-go's RingBuffer bookkeeping (head/tail indices
// over a fixed backing array) adapted from a generic element ring to a
// byte-and-terminator scan.
package buffer

import (
	"errors"
	"io"
	"syscall"
)

// Capacity is the fixed size of the inbound region.
const Capacity = 4096

// ErrOverflow is returned when a line exceeds Capacity bytes without a
// terminator.
var ErrOverflow = errors.New("buffer: line exceeds input buffer capacity")

// Input is the per-session fixed 4096-byte inbound region plus its
// consumed cursor. consumed <= filled <= Capacity always holds.
type Input struct {
	data     [Capacity]byte
	filled   int
	consumed int
}

// Filled and Consumed expose the invariant-checked cursors for tests and
// property assertions.
func (b *Input) Filled() int   { return b.filled }
func (b *Input) Consumed() int { return b.consumed }

// Fill attempts to read more bytes from r into [filled, Capacity).
//
// It returns (0, nil) on a retryable error (interrupt-like errors retry
// later), (0, io.EOF) on a clean close or hard error, or (n, nil) after a
// successful read of n bytes.
func (b *Input) Fill(r io.Reader) (n int, err error) {
	if b.filled >= Capacity {
		return 0, nil
	}
	n, err = r.Read(b.data[b.filled:Capacity])
	if err != nil {
		if isRetryable(err) {
			return 0, nil
		}
		return 0, io.EOF
	}
	if n == 0 {
		return 0, io.EOF
	}
	b.filled += n
	return n, nil
}

// Lines scans [consumed, filled) for newline-terminated lines, calling fn
// once per complete line found, in arrival order. A preceding '\r' is
// stripped; the terminator is not included in the string fn sees. Each
// line is marked consumed before fn is called. If fn returns false,
// scanning stops immediately: the line just passed to fn stays consumed,
// and later lines in this batch are left unconsumed — used when the
// session became expired or returned a close directive partway through a
// batch.
//
// After the scan, the caller must call Compact to apply the overflow and
// compaction rules on whatever tail remains unconsumed.
func (b *Input) Lines(fn func(line string) (keepGoing bool)) {
	for {
		idx := indexByte(b.data[b.consumed:b.filled], '\n')
		if idx < 0 {
			return
		}
		end := b.consumed + idx
		start := b.consumed
		line := end
		if line > start && b.data[line-1] == '\r' {
			line--
		}
		s := string(b.data[start:line])
		b.consumed = end + 1
		if !fn(s) {
			return
		}
	}
}

// Compact applies the post-scan rule: an unconsumed tail spanning the
// entire buffer with no terminator is an overflow (ErrOverflow); otherwise,
// if the buffer is full, the tail is shifted to offset 0 so more bytes can
// be read in.
func (b *Input) Compact() error {
	tail := b.filled - b.consumed
	if tail == Capacity {
		return ErrOverflow
	}
	if b.filled == Capacity {
		copy(b.data[0:tail], b.data[b.consumed:b.filled])
		b.consumed = 0
		b.filled = tail
	}
	return nil
}

func indexByte(p []byte, c byte) int {
	for i, b := range p {
		if b == c {
			return i
		}
	}
	return -1
}

func isRetryable(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EINTR)
}
