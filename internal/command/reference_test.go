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

package command

import (
	"bytes"
	"fmt"
	"testing"
)

// fakeSession is a minimal Session for exercising Reference in isolation.
type fakeSession struct {
	bytes.Buffer
	id   uint64
	uid  string
	perm uint32
}

func (s *fakeSession) Puts(str string) { s.Buffer.WriteString(str) }
func (s *fakeSession) Printf(format string, args ...interface{}) {
	s.Buffer.WriteString(fmt.Sprintf(format, args...))
}
func (s *fakeSession) ID() uint64         { return s.id }
func (s *fakeSession) UID() string        { return s.uid }
func (s *fakeSession) Permission() uint32 { return s.perm }
func (s *fakeSession) SetPermission(m uint32) { s.perm = m }

type fakeIdleWaiter struct {
	gotID   uint64
	gotMask uint32
	ret     bool
}

func (w *fakeIdleWaiter) Wait(sessionID uint64, mask uint32) bool {
	w.gotID, w.gotMask = sessionID, mask
	return w.ret
}

type fakeNames struct{}

func (fakeNames) Bit(name string) (uint32, bool) {
	switch name {
	case "player":
		return 1 << 3, true
	case "mixer":
		return 1 << 4, true
	default:
		return 0, false
	}
}

func TestProcessStubsReturnOKSilently(t *testing.T) {
	r := &Reference{}
	s := &fakeSession{id: 1}
	for _, line := range []string{"ping", "status", "currentsong"} {
		s.Buffer.Reset()
		if res := r.Process(s, line); res != OK {
			t.Fatalf("%s: result = %v, want OK", line, res)
		}
		if s.Buffer.Len() != 0 {
			t.Fatalf("%s: wrote %q, want nothing (caller appends OK)", line, s.Buffer.String())
		}
	}
}

func TestProcessKillAndClose(t *testing.T) {
	r := &Reference{}
	s := &fakeSession{}
	if res := r.Process(s, "kill"); res != Kill {
		t.Fatalf("kill result = %v, want Kill", res)
	}
	if res := r.Process(s, "close"); res != Close {
		t.Fatalf("close result = %v, want Close", res)
	}
}

func TestProcessUnknownCommandWritesACKAndReturnsError(t *testing.T) {
	r := &Reference{}
	s := &fakeSession{}
	if res := r.Process(s, "frobnicate"); res != Error {
		t.Fatalf("result = %v, want Error", res)
	}
	if s.Buffer.Len() == 0 {
		t.Fatal("expected an ACK error line to be written")
	}
}

func TestProcessIdleRoutesMaskToWaiterAndReturnsHandled(t *testing.T) {
	waiter := &fakeIdleWaiter{}
	r := &Reference{Idle: waiter, Names: fakeNames{}}
	s := &fakeSession{id: 7}

	res := r.Process(s, "idle player mixer")
	if res != Handled {
		t.Fatalf("result = %v, want Handled", res)
	}
	if s.Buffer.Len() != 0 {
		t.Fatal("idle must not write anything itself; delivery is the idle engine's job")
	}
	if waiter.gotID != 7 {
		t.Fatalf("waiter got session id %d, want 7", waiter.gotID)
	}
	if want := uint32(1<<3 | 1<<4); waiter.gotMask != want {
		t.Fatalf("waiter got mask %d, want %d", waiter.gotMask, want)
	}
}

func TestProcessIdleWithNoArgsSubscribesToEverything(t *testing.T) {
	waiter := &fakeIdleWaiter{}
	r := &Reference{Idle: waiter, Names: fakeNames{}}
	s := &fakeSession{}

	r.Process(s, "idle")
	if waiter.gotMask != ^uint32(0) {
		t.Fatalf("mask = %#x, want all bits set", waiter.gotMask)
	}
}

func TestProcessIdleIgnoresUnrecognizedNames(t *testing.T) {
	waiter := &fakeIdleWaiter{}
	r := &Reference{Idle: waiter, Names: fakeNames{}}
	s := &fakeSession{}

	r.Process(s, "idle bogus player")
	if waiter.gotMask != 1<<3 {
		t.Fatalf("mask = %#x, want only player's bit", waiter.gotMask)
	}
}

func TestProcessListStopsOnCloseAndSkipsRemainingLines(t *testing.T) {
	r := &Reference{}
	s := &fakeSession{}

	res := r.ProcessList(s, false, []string{"ping", "close", "kill"})
	if res != Close {
		t.Fatalf("result = %v, want Close", res)
	}
}

func TestProcessListEmitsPerStepAckWhenRequested(t *testing.T) {
	r := &Reference{}
	s := &fakeSession{}

	res := r.ProcessList(s, true, []string{"ping", "status"})
	if res != OK {
		t.Fatalf("result = %v, want OK", res)
	}
	want := "list_OK\nlist_OK\n"
	if s.Buffer.String() != want {
		t.Fatalf("output = %q, want %q", s.Buffer.String(), want)
	}
}

func TestProcessListOmitsPerStepAckWhenNotRequested(t *testing.T) {
	r := &Reference{}
	s := &fakeSession{}

	r.ProcessList(s, false, []string{"ping", "status"})
	if s.Buffer.Len() != 0 {
		t.Fatalf("output = %q, want nothing without per-step ack", s.Buffer.String())
	}
}
