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

import "strings"

// IdleWaiter is implemented by the idle subscription engine and is the
// one piece of cross-subsystem state the reference executor needs: the
// "idle" verb has to reach the idle engine, not just echo a reply.
type IdleWaiter interface {
	// Wait enters idle mode for the session with the given subscription
	// mask, returning true if pending flags were delivered synchronously.
	Wait(sessionID uint64, mask uint32) bool
}

// NameResolver maps idle event names to their bit position, used to parse
// the "idle <name> <name> ..." verb's argument list.
type NameResolver interface {
	Bit(name string) (uint32, bool)
}

// Reference is a minimal stand-in for the real verb interpreter: enough
// to answer ping/status/currentsong and to route the idle verb to the
// idle engine.
type Reference struct {
	Idle  IdleWaiter
	Names NameResolver
}

func (r *Reference) Process(s Session, line string) Result {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return OK
	}

	switch fields[0] {
	case "ping", "status", "currentsong":
		// No reply body beyond the caller's own OK trailer: these stubs
		// stand in for verbs whose real implementation is out of scope.
		return OK
	case "kill":
		return Kill
	case "close":
		return Close
	case "idle":
		var mask uint32
		for _, name := range fields[1:] {
			if bit, ok := r.Names.Bit(name); ok {
				mask |= bit
			}
		}
		if mask == 0 {
			mask = ^uint32(0)
		}
		if r.Idle != nil {
			r.Idle.Wait(s.ID(), mask)
		}
		// No reply here: delivery (or the eventual noidle ack) is the
		// idle engine's job, not the executor's.
		return Handled
	default:
		s.Printf("ACK [5@0] {%s} unknown command\n", fields[0])
		return Error
	}
}

func (r *Reference) ProcessList(s Session, perStepAck bool, lines []string) Result {
	for _, line := range lines {
		res := r.Process(s, line)
		if res == Close || res == Kill {
			return res
		}
		if perStepAck {
			s.Puts("list_OK\n")
		}
	}
	return OK
}
