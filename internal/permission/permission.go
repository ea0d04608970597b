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

// Package permission is the reference "permission source" collaborator:
// it yields the default bitmask assigned to new sessions. The real
// permission model (credential checks, ACLs) is not implemented here.
package permission

const (
	Read uint32 = 1 << iota
	Add
	Control
	Admin
)

// Source yields the default permission mask for new sessions.
type Source interface {
	Default() uint32
}

// Static is a Source with a fixed default mask, the simplest possible
// permission source and the one the reference daemon wires by default.
type Static uint32

func (s Static) Default() uint32 { return uint32(s) }

// Default grants read+add+control, matching an MPD daemon run without a
// password, where every client is a full peer absent any configured
// credential.
const Default Static = Static(Read | Add | Control)
