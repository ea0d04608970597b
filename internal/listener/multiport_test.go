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

package listener

import "testing"

func TestParseMultiPortSinglePort(t *testing.T) {
	mp, err := ParseMultiPort(":6600")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if mp.Host != "" || mp.MinPort != 6600 || mp.MaxPort != 6600 {
		t.Fatalf("got %+v", mp)
	}
}

func TestParseMultiPortRange(t *testing.T) {
	mp, err := ParseMultiPort("127.0.0.1:6600-6605")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if mp.Host != "127.0.0.1" || mp.MinPort != 6600 || mp.MaxPort != 6605 {
		t.Fatalf("got %+v", mp)
	}
}

func TestParseMultiPortRejectsInvertedRange(t *testing.T) {
	if _, err := ParseMultiPort(":6605-6600"); err == nil {
		t.Fatal("expected an error for an inverted port range")
	}
}

func TestParseMultiPortRejectsPortZero(t *testing.T) {
	if _, err := ParseMultiPort(":0"); err == nil {
		t.Fatal("expected an error for port 0")
	}
}

func TestParseMultiPortRejectsOutOfRangePort(t *testing.T) {
	if _, err := ParseMultiPort(":70000"); err == nil {
		t.Fatal("expected an error for a port above 65535")
	}
}

func TestParseMultiPortRejectsMalformedAddress(t *testing.T) {
	if _, err := ParseMultiPort("no-colon-here"); err == nil {
		t.Fatal("expected an error for an address with no port")
	}
}
