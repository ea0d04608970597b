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

package outqueue

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/xtaci/smux"
)

// TestDrainAgainstFlowControlledStream exercises Drain against a real
// bounded-buffer peer instead of the hand-rolled shortWriter/blockingWriter
// stand-ins: a smux stream over a net.Pipe, configured with a small
// receive window, stands in for "a slow socket peer" using a dependency
// already vendored by this module rather than a synthetic mock.
func TestDrainAgainstFlowControlledStream(t *testing.T) {
	clientConn, serverConn := net.Pipe()

	cfg := smux.DefaultConfig()
	cfg.MaxStreamBuffer = 4096

	serverSess, err := smux.Server(serverConn, cfg)
	if err != nil {
		t.Fatalf("smux.Server: %v", err)
	}
	defer serverSess.Close()

	clientSess, err := smux.Client(clientConn, cfg)
	if err != nil {
		t.Fatalf("smux.Client: %v", err)
	}
	defer clientSess.Close()

	payload := bytes.Repeat([]byte("x"), 10000)
	received := make(chan []byte, 1)
	go func() {
		stream, err := serverSess.AcceptStream()
		if err != nil {
			received <- nil
			return
		}
		defer stream.Close()
		buf, _ := io.ReadAll(stream)
		received <- buf
	}()

	stream, err := clientSess.OpenStream()
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	stream.SetWriteDeadline(time.Now().Add(5 * time.Second))

	q := New(1 << 20)
	if err := q.Enqueue(payload); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	drained, err := q.Drain(stream)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if !drained {
		t.Fatal("expected a full drain against a healthy flow-controlled stream")
	}
	stream.Close()

	select {
	case got := <-received:
		if !bytes.Equal(got, payload) {
			t.Fatalf("peer received %d bytes, want %d matching the drained payload", len(got), len(payload))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the peer to receive the drained payload")
	}
}
