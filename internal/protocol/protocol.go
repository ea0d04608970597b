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

// Package protocol carries the wire-level constants of the line protocol:
// the greeting, the control verbs the session manager intercepts itself,
// and the success/ack terminators it appends.
package protocol

// Version is reported in the greeting line. Injected via build flags when
// packaging official binaries.
var Version = "0.1"

// InputBufferSize is the fixed capacity of a session's inbound ring.
const InputBufferSize = 4096

// StagingBufferSize is the fixed capacity of a session's outbound staging
// buffer.
const StagingBufferSize = 4096

// Control verbs handled by the session manager itself. Every other line
// is opaque and forwarded to the command collaborator.
const (
	VerbNoIdle           = "noidle"
	VerbCommandListBegin = "command_list_begin"
	VerbCommandListOK    = "command_list_ok_begin"
	VerbCommandListEnd   = "command_list_end"
)

// OKLine and ListOKLine are the terminators the session manager itself is
// allowed to append: the command collaborator produces everything else.
const (
	OKLine     = "OK\n"
	ListOKLine = "list_OK\n"
)

// Greeting formats the synchronous banner written once on accept.
func Greeting(version string) string {
	return "OK MPD " + version + "\n"
}

// ChangedLine formats one idle-event delivery line.
func ChangedLine(name string) string {
	return "changed: " + name + "\n"
}
