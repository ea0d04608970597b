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

// Package command defines the interface the session manager expects from
// the command interpreter, plus a small reference implementation
// sufficient to drive ping/status/idle end to end. Real verb semantics
// (playback control) are not implemented here.
package command

// Result is the disposition a command executor returns after processing
// a line or a command-list batch.
type Result int

const (
	// OK means: keep the session open, emit the normal "OK\n" terminator
	// (after a single line, or once after a whole command list; any
	// per-step "list_OK\n" lines are written by the executor itself).
	OK Result = iota
	// Error means: keep the session open, but the executor already wrote
	// its own error response; emit nothing extra.
	Error
	// Handled means: keep the session open; any reply (including its own
	// terminator, if any) was already written by the executor, so the
	// session must not append one. The idle verb uses this: entering a
	// blocked wait writes nothing at all, and a synchronous delivery
	// writes its own "changed: ...\nOK\n".
	Handled
	// Close means: drop this session only.
	Close
	// Kill means: tear down the whole reactor.
	Kill
)

// Writer is the minimal surface a command implementation needs from a
// session to stage reply bytes.
type Writer interface {
	Write(p []byte) (int, error)
	Puts(s string)
	Printf(format string, args ...interface{})
}

// Session is the subset of session state a command may inspect or mutate,
// kept separate from the full session type so this package has no import
// cycle with internal/session.
type Session interface {
	Writer
	ID() uint64
	UID() string
	Permission() uint32
	SetPermission(mask uint32)
}

// Executor processes a single line, or an accumulated command-list batch,
// against one session.
type Executor interface {
	Process(s Session, line string) Result
	ProcessList(s Session, perStepAck bool, lines []string) Result
}

const unknownUID = "unknown"

// UnknownUID is the sentinel user identity for sessions whose peer
// credentials could not be obtained.
const UnknownUID = unknownUID
