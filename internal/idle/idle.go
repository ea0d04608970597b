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

// Package idle implements the idle/notify subscription engine: per-session
// subscription and pending-flag bitmasks, gated delivery, and the
// canonical ordered event-name registry.
package idle

// Names is the canonical, ordered event-name registry: bit position i
// corresponds to names[i]. This is the standard MPD idle event set.
var names = []string{
	"database",
	"stored_playlist",
	"playlist",
	"player",
	"mixer",
	"output",
	"options",
	"update",
	"sticker",
	"subscription",
	"message",
	"partition",
	"neighbor",
	"mount",
}

// Names returns the canonical event names in bit-position order.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Bit returns the bitmask bit for a named event class, or false if name is
// unrecognized.
func Bit(name string) (uint32, bool) {
	for i, n := range names {
		if n == name {
			return 1 << uint(i), true
		}
	}
	return 0, false
}

// State is one session's idle bookkeeping:
//
//	waiting       - "awaiting idle response"
//	pending       - bits raised since idle entered or last acknowledged
//	subscriptions - bits the client asked to hear about
//
// State carries no lock: it is only ever touched from the single reactor
// thread, the same single-writer discipline the rest of the daemon relies
// on.
type State struct {
	waiting       bool
	pending       uint32
	subscriptions uint32
}

// Waiting reports whether the session is currently blocked in idle mode.
func (s *State) Waiting() bool { return s.waiting }

// Subscriptions returns the bitmask most recently set by Wait.
func (s *State) Subscriptions() uint32 { return s.subscriptions }

// Wait enters idle mode with the given subscription mask. It returns true
// if a delivery should happen immediately because pending flags already
// intersect the mask — the caller is responsible for delivering in that
// case, exactly as Raise does for the asynchronous path, so the two call
// sites share one delivery routine.
func (s *State) Wait(mask uint32) (deliverNow bool) {
	s.subscriptions = mask
	s.waiting = true
	return s.pending&mask != 0
}

// NoIdle clears the wait flag without delivering anything: the WAITING to
// NORMAL transition on an explicit "noidle".
func (s *State) NoIdle() {
	s.waiting = false
}

// Raise ORs mask into pending (called for every session by external
// subsystems) and reports whether this session should now be delivered:
// it is waiting and the new pending set intersects its subscriptions.
func (s *State) Raise(mask uint32) (deliverNow bool) {
	s.pending |= mask
	return s.waiting && s.pending&s.subscriptions != 0
}

// Deliverable returns the bits that would actually be reported if Deliver
// ran right now: pending intersected with subscriptions, in canonical
// order via DeliverNames.
func (s *State) Deliverable() uint32 {
	return s.pending & s.subscriptions
}

// DeliverNames returns the canonical-order event names to emit for the
// current pending/subscription intersection, then clears pending and the
// waiting flag: one line per set bit, then the terminator.
func (s *State) DeliverNames() []string {
	bits := s.Deliverable()
	var out []string
	for i, name := range names {
		if bits&(1<<uint(i)) != 0 {
			out = append(out, name)
		}
	}
	s.pending = 0
	s.waiting = false
	return out
}
