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

package buffer

import (
	"errors"
	"io"
	"strings"
	"syscall"
	"testing"
)

type stringReader struct {
	r *strings.Reader
}

func (s *stringReader) Read(p []byte) (int, error) { return s.r.Read(p) }

type errReader struct{ err error }

func (e errReader) Read(p []byte) (int, error) { return 0, e.err }

func TestFillAndLines(t *testing.T) {
	var b Input
	r := &stringReader{r: strings.NewReader("ping\nstatus\r\npart")}
	if _, err := b.Fill(r); err != nil {
		t.Fatalf("fill: %v", err)
	}

	var got []string
	b.Lines(func(line string) bool {
		got = append(got, line)
		return true
	})

	want := []string{"ping", "status"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
	if b.Consumed() != len("ping\nstatus\r\n") {
		t.Fatalf("consumed = %d", b.Consumed())
	}
}

func TestFillRetryableErrorReturnsZeroNoError(t *testing.T) {
	var b Input
	n, err := b.Fill(errReader{err: syscall.EAGAIN})
	if err != nil || n != 0 {
		t.Fatalf("fill = (%d, %v), want (0, nil)", n, err)
	}
}

func TestFillHardErrorReturnsEOF(t *testing.T) {
	var b Input
	_, err := b.Fill(errReader{err: errors.New("reset")})
	if err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}

func TestFillCleanCloseReturnsEOF(t *testing.T) {
	var b Input
	_, err := b.Fill(errReader{err: io.EOF})
	if err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}

func TestCompactShiftsTailWhenFull(t *testing.T) {
	var b Input
	b.filled = Capacity
	b.consumed = Capacity - 3
	copy(b.data[Capacity-3:], []byte("xyz"))

	if err := b.Compact(); err != nil {
		t.Fatalf("compact: %v", err)
	}
	if b.consumed != 0 || b.filled != 3 {
		t.Fatalf("consumed=%d filled=%d, want 0,3", b.consumed, b.filled)
	}
	if string(b.data[:3]) != "xyz" {
		t.Fatalf("tail = %q", b.data[:3])
	}
}

func TestCompactOverflowWhenNoTerminatorFillsBuffer(t *testing.T) {
	var b Input
	b.filled = Capacity
	b.consumed = 0
	if err := b.Compact(); !errors.Is(err, ErrOverflow) {
		t.Fatalf("err = %v, want ErrOverflow", err)
	}
}

func TestLinesStopsEarlyWhenCallbackReturnsFalse(t *testing.T) {
	var b Input
	r := &stringReader{r: strings.NewReader("a\nb\nc\n")}
	b.Fill(r)

	var got []string
	b.Lines(func(line string) bool {
		got = append(got, line)
		return line != "b"
	})
	if len(got) != 2 {
		t.Fatalf("got %v, want 2 lines consumed before stopping", got)
	}
	// "c\n" must remain unconsumed.
	if b.Consumed() != len("a\nb\n") {
		t.Fatalf("consumed = %d, want %d", b.Consumed(), len("a\nb\n"))
	}
}
