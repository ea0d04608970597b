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

// Package session implements the client session: identity, timing,
// permission, the idle state machine, the fixed staging buffer, and the
// request processor that dispatches each line against three orthogonal
// modes (idle-waiting, list-collecting, normal). It builds on
// internal/outqueue for deferred output and internal/buffer for inbound
// line framing.
//
// The struct layout and the read/drain/flush wiring follow smux's Session
// (recvLoop feeding per-stream buffers, sendLoop draining a write queue,
// short-write/would-block accounting in writeFrameInternal), adapted from
// smux's frame-multiplexing world to this protocol's line-and-list world.
package session

import (
	"errors"
	"fmt"
	"io"
	"syscall"
	"time"

	"github.com/xtaci/mpdsessiond/internal/buffer"
	"github.com/xtaci/mpdsessiond/internal/cmdlist"
	"github.com/xtaci/mpdsessiond/internal/command"
	"github.com/xtaci/mpdsessiond/internal/idle"
	"github.com/xtaci/mpdsessiond/internal/outqueue"
	"github.com/xtaci/mpdsessiond/internal/protocol"
)

// Directive is what the processor surfaces to the reactor after handling
// a line or a batch: keep going, drop this session, or tear down the
// whole reactor.
type Directive int

const (
	Continue Directive = iota
	Close
	Kill
)

// Conn is the minimal non-blocking socket surface a session needs. The
// reactor constructs one of these (an *os.File over the accepted
// descriptor, in the default wiring) and hands it to New.
type Conn interface {
	io.Reader
	io.Writer
}

// Session is one accepted client. All mutation happens on the single
// reactor thread; there is no internal locking.
type Session struct {
	seq  uint64
	uid  string
	perm uint32

	conn    Conn
	expired bool

	in  buffer.Input
	out struct {
		buf [protocol.StagingBufferSize]byte
		len int
	}
	deferred *outqueue.Queue

	list cmdlist.List
	idle idle.State

	lastActivity time.Time
}

// Config bounds a session's list accumulator and deferred queue, both
// given here in bytes, already converted from the KiB config units.
type Config struct {
	MaxCommandListBytes int
	MaxOutputBytes      int
}

// New constructs a session for a freshly accepted connection.
func New(seq uint64, uid string, perm uint32, conn Conn, cfg Config, now time.Time) *Session {
	s := &Session{
		seq:          seq,
		uid:          uid,
		perm:         perm,
		conn:         conn,
		deferred:     outqueue.New(cfg.MaxOutputBytes),
		lastActivity: now,
	}
	s.list = *cmdlist.New(cfg.MaxCommandListBytes)
	return s
}

func (s *Session) ID() uint64           { return s.seq }
func (s *Session) UID() string          { return s.uid }
func (s *Session) Permission() uint32   { return s.perm }
func (s *Session) SetPermission(m uint32) { s.perm = m }

// Expired reports whether the descriptor has been closed and the session
// is merely awaiting the next sweep.
func (s *Session) Expired() bool { return s.expired }

// Expire marks the session expired. I/O on an expired session is a no-op
// from here on; only the manager's sweep actually detaches and frees it.
// Idempotent.
func (s *Session) Expire() { s.expired = true }

// Close releases the underlying descriptor, if the connection supports
// it. Idempotent: calling it more than once is harmless.
func (s *Session) Close() error {
	s.expired = true
	if c, ok := s.conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// LastActivity returns the timestamp of the last successful read or write.
func (s *Session) LastActivity() time.Time { return s.lastActivity }

func (s *Session) touch(now time.Time) { s.lastActivity = now }

// IdleWaiting reports whether the session is currently blocked in idle
// mode, used by the manager to exempt it from the inactivity sweep.
func (s *Session) IdleWaiting() bool { return s.idle.Waiting() }

// Idle exposes the idle engine for the idle verb and for raise.
func (s *Session) Idle() *idle.State { return &s.idle }

// DeferredBytes reports the deferred queue's accounted total.
func (s *Session) DeferredBytes() int { return s.deferred.Bytes() }

// HasPendingOutput reports whether the deferred queue is non-empty; the
// reactor uses this to decide readable-vs-writable registration.
func (s *Session) HasPendingOutput() bool { return !s.deferred.Empty() }

// --- read step ---

// ReadStep attempts to fill the inbound buffer and frame out complete
// lines, handing each to Feed. It returns the Directive surfaced by the
// batch: Close on a hard read error, buffer overflow, or any Close/Kill
// the line processor itself produced; Continue otherwise (including the
// "retry later" no-op case for a retryable read error).
func (s *Session) ReadStep(exec command.Executor, now time.Time) Directive {
	if s.expired {
		return Close
	}
	n, err := s.in.Fill(s.conn)
	if err == io.EOF {
		return Close
	}
	if n == 0 {
		return Continue
	}
	s.touch(now)

	directive := Continue
	s.in.Lines(func(line string) bool {
		d := s.Feed(exec, line)
		if d != Continue {
			directive = d
			return false
		}
		return true
	})
	if directive != Continue {
		return directive
	}
	if cerr := s.in.Compact(); cerr != nil {
		return Close
	}
	return Continue
}

// --- request processor ---

// Feed evaluates one line against the three orthogonal modes and returns
// the resulting Directive.
func (s *Session) Feed(exec command.Executor, line string) Directive {
	switch {
	case s.idle.Waiting():
		return s.feedWhileIdle(line)
	case s.list.Mode() != cmdlist.Off:
		return s.feedWhileListing(exec, line)
	default:
		return s.feedNormal(exec, line)
	}
}

// feedWhileIdle handles input while the session is blocked in idle mode.
func (s *Session) feedWhileIdle(line string) Directive {
	if line != protocol.VerbNoIdle {
		// Protocol violation while idle-waiting: the only input
		// accepted is "noidle".
		s.Expire()
		return Close
	}
	s.idle.NoIdle()
	s.Puts(protocol.OKLine)
	s.Flush()
	return Continue
}

// feedWhileListing handles input while a command list is being collected.
func (s *Session) feedWhileListing(exec command.Executor, line string) Directive {
	if line == protocol.VerbCommandListEnd {
		perStepAck := s.list.PerStepAck()
		lines := s.list.End()
		res := exec.ProcessList(wrap{s}, perStepAck, lines)
		d := s.interpret(res)
		if d == Close || d == Kill {
			return d
		}
		if res == command.OK {
			s.Puts(protocol.OKLine)
		}
		s.Flush()
		return Continue
	}
	if err := s.list.Append(line); err != nil {
		s.Expire()
		return Close
	}
	return Continue
}

// feedNormal handles input outside of idle-wait and list-collection mode.
func (s *Session) feedNormal(exec command.Executor, line string) Directive {
	switch line {
	case protocol.VerbCommandListBegin:
		s.list.Begin(false)
		return Continue
	case protocol.VerbCommandListOK:
		s.list.Begin(true)
		return Continue
	default:
		res := exec.Process(wrap{s}, line)
		d := s.interpret(res)
		if d == Close || d == Kill {
			return d
		}
		if res == command.OK {
			s.Puts(protocol.OKLine)
		}
		s.Flush()
		return Continue
	}
}

func (s *Session) interpret(res command.Result) Directive {
	switch res {
	case command.Close:
		s.Expire()
		return Close
	case command.Kill:
		return Kill
	default:
		return Continue
	}
}

// --- idle wait/raise/deliver wiring, called from the idle engine's
// consumer (the reference command executor, and the manager's raise
// broadcast) ---

// WaitIdle enters idle mode with mask, delivering immediately through the
// staging buffer if flags are already pending (the synchronous path).
func (s *Session) WaitIdle(mask uint32) (deliveredSync bool) {
	if s.idle.Wait(mask) {
		s.deliver()
		return true
	}
	return false
}

// RaiseIdle ORs mask into this session's pending flags and delivers if it
// is currently idle-waiting on an intersecting subscription. Called for
// every session when an event is raised.
func (s *Session) RaiseIdle(mask uint32) {
	if s.idle.Raise(mask) {
		s.deliver()
	}
}

func (s *Session) deliver() {
	for _, name := range s.idle.DeliverNames() {
		s.Puts(protocol.ChangedLine(name))
	}
	s.Puts(protocol.OKLine)
	s.Flush()
}

// --- staging buffer + output policy ---

// Write appends bytes to the staging buffer, auto-flushing whenever it
// fills, splitting the caller's payload across as many flushes as needed.
func (s *Session) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 && !s.expired {
		space := len(s.out.buf) - s.out.len
		n := copy(s.out.buf[s.out.len:], p[:min(space, len(p))])
		s.out.len += n
		p = p[n:]
		if s.out.len == len(s.out.buf) {
			s.Flush()
		}
	}
	return total, nil
}

// Puts appends a string with no trailing transformation, via Write.
func (s *Session) Puts(str string) { s.Write([]byte(str)) }

// Printf formats and appends via Write.
func (s *Session) Printf(format string, args ...interface{}) {
	s.Puts(fmt.Sprintf(format, args...))
}

// Flush empties the staging buffer through the output policy, then
// truncates it back to empty.
func (s *Session) Flush() {
	if s.out.len == 0 {
		return
	}
	payload := s.out.buf[:s.out.len]
	s.out.len = 0
	s.writeOut(payload)
}

// writeOut implements the output policy:
//
//   - if the deferred queue is non-empty, always enqueue (preserves
//     order), then opportunistically drain;
//   - if empty, attempt one direct write: full success is done, a
//     would-block/interrupt enqueues the whole payload, a short write of
//     k bytes enqueues the remaining length-k, and a hard error expires
//     the session.
func (s *Session) writeOut(payload []byte) {
	if s.expired {
		return
	}
	if !s.deferred.Empty() {
		if err := s.deferred.Enqueue(payload); err != nil {
			s.Expire()
			return
		}
		if _, err := s.deferred.Drain(s.conn); err != nil {
			s.Expire()
		}
		return
	}

	n, err := s.conn.Write(payload)
	if err == nil && n == len(payload) {
		return
	}
	if err != nil && isRetryable(err) {
		if qerr := s.deferred.Enqueue(payload); qerr != nil {
			s.Expire()
		}
		return
	}
	if err != nil {
		s.Expire()
		return
	}
	// Short write of n bytes: defer the unwritten remainder of *this*
	// write, i.e. length-n.
	remainder := payload[n:]
	if qerr := s.deferred.Enqueue(remainder); qerr != nil {
		s.Expire()
	}
}

// DrainDeferred is called by the reactor when the session's descriptor is
// writable.
func (s *Session) DrainDeferred(now time.Time) error {
	if s.expired || s.deferred.Empty() {
		return nil
	}
	_, err := s.deferred.Drain(s.conn)
	if err != nil {
		s.Expire()
		return err
	}
	s.touch(now)
	return nil
}

func isRetryable(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EINTR)
}

// wrap adapts *Session to command.Session without exposing the rest of
// the session's surface to the executor.
type wrap struct{ s *Session }

func (w wrap) Write(p []byte) (int, error)  { return w.s.Write(p) }
func (w wrap) Puts(str string)              { w.s.Puts(str) }
func (w wrap) Printf(f string, a ...interface{}) { w.s.Printf(f, a...) }
func (w wrap) ID() uint64                   { return w.s.ID() }
func (w wrap) UID() string                  { return w.s.UID() }
func (w wrap) Permission() uint32           { return w.s.Permission() }
func (w wrap) SetPermission(m uint32)       { w.s.SetPermission(m) }
