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

// Package logging sets up the daemon's log destination (stderr by default,
// or a file named with -log) and rotates that file on SIGHUP, archiving
// the rotated-out contents with snappy compression applied to the at-rest
// file instead of a wire stream.
package logging

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// Setup redirects the standard logger to path, or leaves it on stderr
// when path is empty.
func Setup(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, errors.Wrap(err, "logging: opening log file")
	}
	log.SetOutput(f)
	return f, nil
}

// WatchRotate starts a goroutine that rotates path on SIGHUP: the current
// file's contents are archived, snappy-compressed, under
// path+".<unix-timestamp>.snappy", and a fresh file is reopened for the
// standard logger.
func WatchRotate(path string) {
	if path == "" {
		return
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)
	go func() {
		for range ch {
			if err := rotate(path); err != nil {
				log.Println("logging: rotate:", err)
			}
		}
	}()
}

func rotate(path string) error {
	if err := compressTo(path, archiveName(path)); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return errors.Wrap(err, "logging: reopening log file after rotation")
	}
	log.SetOutput(f)
	return nil
}

func archiveName(path string) string {
	return fmt.Sprintf("%s.%d.snappy", path, time.Now().Unix())
}

func compressTo(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "logging: opening log file to archive")
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "logging: creating archive file")
	}
	defer out.Close()

	w := snappy.NewBufferedWriter(out)
	if _, err := w.ReadFrom(in); err != nil {
		return errors.Wrap(err, "logging: compressing rotated log")
	}
	return w.Close()
}

// Warn prints a highlighted warning for conditions that are not fatal
// but deserve the operator's attention.
func Warn(format string, args ...interface{}) {
	color.Red(format, args...)
}
