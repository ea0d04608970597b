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

// Package reactor implements the single-threaded, readiness-based
// session manager that ties the listener, the poller, and every live
// session together into one cooperative event loop. It registers
// listening and session descriptors for readiness, makes exactly one
// blocking readiness-wait call per iteration, accepts new connections,
// drives each ready session's read/write steps, and sweeps expired or
// inactive sessions.
//
// The registry and loop shape are grounded on smux's Session: an intrusive
// map keyed by a stream identifier (streams map[uint32]*Stream), allowing
// O(1) detach mid-iteration without invalidating the iteration itself,
// generalized here from stream IDs to accepted-connection descriptors.
package reactor

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/xtaci/mpdsessiond/internal/command"
	"github.com/xtaci/mpdsessiond/internal/idle"
	"github.com/xtaci/mpdsessiond/internal/listener"
	"github.com/xtaci/mpdsessiond/internal/permission"
	"github.com/xtaci/mpdsessiond/internal/protocol"
	"github.com/xtaci/mpdsessiond/internal/session"
)

// Config bounds every session the manager admits, plus the manager's own
// connection cap and sweep cadence.
type Config struct {
	MaxClients          int
	MaxCommandListBytes int
	MaxOutputBytes      int
	InactivityTimeout   time.Duration
	SweepInterval       time.Duration
}

// entry is one live session plus the descriptor the manager drives it
// through. Readable/writable registration is recomputed every iteration
// by buildInterests rather than stored here.
type entry struct {
	fd  int
	sess *session.Session
}

// Manager is the reactor itself. The registry and every session are only
// ever touched from Run's single goroutine, so none of that state needs
// its own lock. shutdown is the one exception: Shutdown is called from a
// signal-handling goroutine (see cmd/mpdsessiond's SIGINT/SIGTERM
// handler) while Run's goroutine reads it every iteration, so it is an
// atomic.Bool rather than a plain bool.
type Manager struct {
	listener listener.Listener
	poller   Poller
	exec     command.Executor
	perm     permission.Source
	cfg      Config
	log      *log.Logger

	sessions map[int]*entry
	nextSeq  uint64
	lastSweep time.Time

	shutdown atomic.Bool
}

// New constructs a Manager. logger may be nil, in which case log.Default()
// is used.
func New(l listener.Listener, p Poller, exec command.Executor, perm permission.Source, cfg Config, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		listener: l,
		poller:   p,
		exec:     exec,
		perm:     perm,
		cfg:      cfg,
		log:      logger,
		sessions: make(map[int]*entry),
	}
}

// SetExecutor installs the command executor the reactor dispatches lines
// to. Separated from New because the stock command.Reference executor
// itself needs a handle back onto this Manager's idle registry.
func (m *Manager) SetExecutor(exec command.Executor) { m.exec = exec }

// LiveCount returns the number of currently registered sessions.
func (m *Manager) LiveCount() int { return len(m.sessions) }

// Header and Row satisfy stats.Source: one CSV column for the live
// session count and one for the number of sessions admitted so far
// (connections refused at the max-clients cap are not counted).
func (m *Manager) Header() []string { return []string{"live_sessions", "accepted_total"} }

func (m *Manager) Row() []string {
	return []string{fmt.Sprint(len(m.sessions)), fmt.Sprint(m.nextSeq)}
}

// Run drives the reactor loop until Shutdown is called or a fatal poller
// error occurs. It returns the error that stopped the loop, or nil on a
// clean shutdown.
func (m *Manager) Run() error {
	m.lastSweep = time.Now()
	for !m.shutdown.Load() {
		if err := m.iterate(); err != nil {
			if err == ErrRetry {
				continue
			}
			return err
		}
	}
	return nil
}

// Shutdown requests the loop exit after its current iteration and closes
// every live session and the listener. Safe to call from any goroutine.
func (m *Manager) Shutdown() {
	m.shutdown.Store(true)
}

// iterate runs exactly one reactor pass: build interest sets, wait for
// readiness (the loop's single blocking call), accept new connections,
// service ready sessions, and run the periodic expiry sweep.
func (m *Manager) iterate() error {
	interests := m.buildInterests()
	if err := m.poller.Rearm(interests); err != nil {
		return err
	}

	events, err := m.poller.Wait()
	if err != nil {
		return err
	}

	now := time.Now()

	listenFDs := make(map[int]bool)
	for _, fd := range m.listener.Descriptors() {
		listenFDs[fd] = true
	}

	for _, fd := range events.Readable {
		if listenFDs[fd] {
			m.acceptOn(fd, now)
			continue
		}
		if e, ok := m.sessions[fd]; ok {
			m.service(e, now)
		}
	}
	for _, fd := range events.Writable {
		if e, ok := m.sessions[fd]; ok && !e.sess.Expired() {
			if err := e.sess.DrainDeferred(now); err != nil {
				m.log.Printf("reactor: session %d: drain error: %v", e.sess.ID(), err)
			}
		}
	}

	m.reapExpired()
	m.sweepInactive(now)

	if m.shutdown.Load() {
		m.closeAll()
	}
	return nil
}

// buildInterests registers every listening descriptor for readability,
// plus every live session whose deferred queue is empty for readability.
// A session with pending deferred output is registered for writability
// instead and not readability: it must not read further until its
// backlog drains, or an unread peer could grow that backlog without
// bound.
func (m *Manager) buildInterests() []Interest {
	interests := make([]Interest, 0, len(m.sessions)+len(m.listener.Descriptors()))
	for _, fd := range m.listener.Descriptors() {
		interests = append(interests, Interest{FD: fd, Readable: true})
	}
	for fd, e := range m.sessions {
		if e.sess.Expired() {
			continue
		}
		interests = append(interests, Interest{
			FD:       fd,
			Readable: !e.sess.HasPendingOutput(),
			Writable: e.sess.HasPendingOutput(),
		})
	}
	return interests
}

// acceptOn drains every pending connection on a ready listening
// descriptor, admitting each against the configured connection cap.
func (m *Manager) acceptOn(fd int, now time.Time) {
	for {
		accepted, ok, err := m.listener.Accept(fd)
		if err != nil {
			m.log.Printf("reactor: accept error on fd %d: %v", fd, err)
			return
		}
		if !ok {
			return
		}
		m.admit(accepted, now)
	}
}

// admit either registers a new session or, if the connection cap is
// already reached, writes nothing and closes the descriptor immediately —
// an MPD daemon at capacity simply refuses the connection rather than
// queuing it.
func (m *Manager) admit(a listener.Accepted, now time.Time) {
	if m.cfg.MaxClients > 0 && len(m.sessions) >= m.cfg.MaxClients {
		m.log.Printf("reactor: rejecting connection on fd %d: at max-clients cap (%d)", a.FD, m.cfg.MaxClients)
		a.Conn.Close()
		return
	}

	m.nextSeq++
	sess := session.New(m.nextSeq, a.UID, m.perm.Default(), a.Conn, session.Config{
		MaxCommandListBytes: m.cfg.MaxCommandListBytes,
		MaxOutputBytes:      m.cfg.MaxOutputBytes,
	}, now)

	m.sessions[a.FD] = &entry{fd: a.FD, sess: sess}

	sess.Puts(protocol.Greeting(protocol.Version))
	sess.Flush()
}

// service runs one session's read step and applies the resulting
// directive.
func (m *Manager) service(e *entry, now time.Time) {
	switch e.sess.ReadStep(m.exec, now) {
	case session.Close:
		e.sess.Expire()
	case session.Kill:
		e.sess.Expire()
		m.Shutdown()
	}
}

// reapExpired detaches and closes every session marked expired. Detaching
// while ranging a Go map is well-defined, the same guarantee the registry
// design leans on for O(1) removal mid-iteration.
func (m *Manager) reapExpired() {
	for fd, e := range m.sessions {
		if e.sess.Expired() {
			m.closeSession(fd, e)
		}
	}
}

// sweepInactive closes sessions that have exceeded the inactivity
// timeout, except sessions currently blocked in idle mode, which are
// exempt for as long as they remain idle-waiting.
func (m *Manager) sweepInactive(now time.Time) {
	if m.cfg.InactivityTimeout <= 0 {
		return
	}
	if m.cfg.SweepInterval > 0 && now.Sub(m.lastSweep) < m.cfg.SweepInterval {
		return
	}
	m.lastSweep = now

	for fd, e := range m.sessions {
		if e.sess.IdleWaiting() {
			continue
		}
		if now.Sub(e.sess.LastActivity()) > m.cfg.InactivityTimeout {
			e.sess.Expire()
			m.closeSession(fd, e)
		}
	}
}

func (m *Manager) closeSession(fd int, e *entry) {
	e.sess.Close()
	delete(m.sessions, fd)
}

func (m *Manager) closeAll() {
	for fd, e := range m.sessions {
		e.sess.Close()
		delete(m.sessions, fd)
	}
	m.listener.Close()
	m.poller.Close()
}

// Broadcast raises mask against every live session's idle state. It is
// the injection point a real playback engine would call on every state
// change; cmd/mpdsessiond wires it to a SIGUSR1 handler as a reference
// trigger in place of real playback-state changes, which are out of
// scope.
func (m *Manager) Broadcast(mask uint32) {
	for _, e := range m.sessions {
		if !e.sess.Expired() {
			e.sess.RaiseIdle(mask)
		}
	}
}

// idleWaiter adapts a Manager's session registry to command.IdleWaiter,
// letting the reference executor's "idle" verb reach the right session by
// ID without exposing the whole registry.
type idleWaiter struct{ m *Manager }

func (w idleWaiter) Wait(sessionID uint64, mask uint32) bool {
	for _, e := range w.m.sessions {
		if e.sess.ID() == sessionID {
			return e.sess.WaitIdle(mask)
		}
	}
	return false
}

// IdleWaiter returns the command.IdleWaiter adapter bound to this
// Manager's session registry, for constructing a *command.Reference.
func (m *Manager) IdleWaiter() command.IdleWaiter { return idleWaiter{m} }

// NameResolver returns the canonical idle event-name resolver, for
// constructing a *command.Reference.
func (m *Manager) NameResolver() command.NameResolver { return idleNames{} }

type idleNames struct{}

func (idleNames) Bit(name string) (uint32, bool) { return idle.Bit(name) }
