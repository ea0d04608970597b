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

// Package cmdlist implements the per-session command-list accumulator and
// its three-valued mode.
package cmdlist

import "errors"

// Mode is the command-list state machine: a session is either not
// collecting, collecting with only a final OK, or collecting with an
// acknowledgement after every line.
type Mode int

const (
	Off Mode = iota
	CollectingPlain
	CollectingAck
)

// ErrTooLarge is returned by Append when accepting the line would push
// the accumulated size past the configured limit.
var ErrTooLarge = errors.New("cmdlist: command list exceeds configured size limit")

// List accumulates command lines for one session's command-list batch.
// Lines are appended directly in arrival order, which is the only
// observable contract at the command collaborator.
type List struct {
	mode  Mode
	lines []string
	size  int
	limit int
}

// New returns an accumulator bound by limit bytes.
func New(limit int) *List {
	return &List{limit: limit}
}

func (l *List) Mode() Mode { return l.mode }

// Begin transitions Off -> Collecting{Plain,Ack}.
func (l *List) Begin(ack bool) {
	l.mode = CollectingPlain
	if ack {
		l.mode = CollectingAck
	}
	l.lines = l.lines[:0]
	l.size = 0
}

// Append accounts len(line)+1 against the size limit (the +1 mirrors the
// line's own terminator) and appends it, or returns ErrTooLarge without
// mutating state further.
func (l *List) Append(line string) error {
	added := len(line) + 1
	if l.size+added > l.limit {
		return ErrTooLarge
	}
	l.size += added
	l.lines = append(l.lines, line)
	return nil
}

// PerStepAck reports whether the batch in progress was opened with
// command_list_ok_begin.
func (l *List) PerStepAck() bool { return l.mode == CollectingAck }

// End returns the accumulated lines in arrival order and resets to Off.
func (l *List) End() []string {
	lines := l.lines
	l.lines = nil
	l.size = 0
	l.mode = Off
	return lines
}

// Size reports the currently accounted byte total, for invariant checks.
func (l *List) Size() int { return l.size }
