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

// Package stats periodically appends a row of daemon counters to a
// rotating CSV file. The ticker-driven, date-templated-filename shape is
// carried over verbatim from std/snmp.go; only the counter source changes,
// from kcp.DefaultSnmp to a Source the reactor satisfies.
package stats

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Source supplies the counters to log. The reactor's Manager satisfies
// this with its live session count and the number of sessions admitted
// so far.
type Source interface {
	Header() []string
	Row() []string
}

// Logger appends one row per tick to path, which may contain a
// time.Format layout in its filename component so log files rotate
// naturally by day/hour (e.g. "./stats-20060102.csv").
func Logger(path string, interval time.Duration, src Source) {
	if path == "" || interval == 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		writeRow(path, src)
	}
}

func writeRow(path string, src Source) {
	logdir, logfile := filepath.Split(path)
	name := logdir + time.Now().Format(logfile)

	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Println("stats:", err)
		return
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if stat, err := f.Stat(); err == nil && stat.Size() == 0 {
		if err := w.Write(append([]string{"Unix"}, src.Header()...)); err != nil {
			log.Println("stats:", err)
		}
	}
	if err := w.Write(append([]string{fmt.Sprint(time.Now().Unix())}, src.Row()...)); err != nil {
		log.Println("stats:", err)
	}
	w.Flush()
}
