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

package cmdlist

import (
	"errors"
	"testing"
)

func TestBeginSelectsMode(t *testing.T) {
	l := New(1000)
	l.Begin(false)
	if l.Mode() != CollectingPlain {
		t.Fatalf("mode = %v, want CollectingPlain", l.Mode())
	}
	if l.PerStepAck() {
		t.Fatal("PerStepAck true for a plain batch")
	}

	l.Begin(true)
	if l.Mode() != CollectingAck {
		t.Fatalf("mode = %v, want CollectingAck", l.Mode())
	}
	if !l.PerStepAck() {
		t.Fatal("PerStepAck false for an ack batch")
	}
}

func TestAppendAccumulatesInOrder(t *testing.T) {
	l := New(1000)
	l.Begin(false)
	l.Append("play")
	l.Append("status")

	lines := l.End()
	want := []string{"play", "status"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("lines[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
	if l.Mode() != Off {
		t.Fatalf("mode after End = %v, want Off", l.Mode())
	}
}

func TestAppendEnforcesLimit(t *testing.T) {
	l := New(10)
	l.Begin(false)
	if err := l.Append("12345"); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := l.Append("12345"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
	// A rejected append must not grow the accounted size.
	if l.Size() != 6 {
		t.Fatalf("size = %d, want 6", l.Size())
	}
}

func TestBeginResetsPriorBatch(t *testing.T) {
	l := New(1000)
	l.Begin(false)
	l.Append("stale")
	l.Begin(true)
	if l.Size() != 0 {
		t.Fatalf("size after re-Begin = %d, want 0", l.Size())
	}
	lines := l.End()
	if len(lines) != 0 {
		t.Fatalf("lines = %v, want empty", lines)
	}
}
