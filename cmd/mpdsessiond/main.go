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

package main

import (
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/xtaci/mpdsessiond/internal/command"
	cfgpkg "github.com/xtaci/mpdsessiond/internal/config"
	"github.com/xtaci/mpdsessiond/internal/idle"
	"github.com/xtaci/mpdsessiond/internal/listener"
	"github.com/xtaci/mpdsessiond/internal/logging"
	"github.com/xtaci/mpdsessiond/internal/permission"
	"github.com/xtaci/mpdsessiond/internal/reactor"
	"github.com/xtaci/mpdsessiond/internal/stats"
)

// allIdleBits ORs together every canonical idle event bit, for the
// SIGUSR1 reference trigger below.
func allIdleBits() uint32 {
	var mask uint32
	for _, name := range idle.Names() {
		if bit, ok := idle.Bit(name); ok {
			mask |= bit
		}
	}
	return mask
}

// VERSION is populated via build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "mpdsessiond"
	myApp.Usage = "line-oriented session manager for a music player daemon"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "listen,l",
			Value: ":6600",
			Usage: `listen address, eg: "IP:6600" for a single port, "IP:minport-maxport" for a port range`,
		},
		cli.IntFlag{
			Name:  "max-clients",
			Value: 10,
			Usage: "maximum number of simultaneously connected clients",
		},
		cli.IntFlag{
			Name:  "max-command-list-kb",
			Value: 2048,
			Usage: "maximum accumulated size of a command list, in KiB",
		},
		cli.IntFlag{
			Name:  "max-output-kb",
			Value: 8192,
			Usage: "maximum size of a session's deferred output queue, in KiB",
		},
		cli.IntFlag{
			Name:  "inactivity-timeout",
			Value: 60,
			Usage: "seconds of inactivity before a non-idle session is closed",
		},
		cli.IntFlag{
			Name:  "sweep-interval",
			Value: 5,
			Usage: "seconds between inactivity sweeps",
		},
		cli.StringFlag{
			Name:  "statslog",
			Value: "",
			Usage: "collect periodic session stats to file, aware of time format in golang, like: ./stats-20060102.csv",
		},
		cli.IntFlag{
			Name:  "statsperiod",
			Value: 60,
			Usage: "stats collection period, in seconds",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "specify a log file to output, default goes to stderr",
		},
		cli.BoolFlag{
			Name:  "quiet",
			Usage: "to suppress per-connection accept/close messages",
		},
		cli.StringFlag{
			Name:  "c",
			Value: "",
			Usage: "config from json file, which will override the command from shell",
		},
	}

	myApp.Action = func(c *cli.Context) error {
		config := cfgpkg.Default()
		config.Listen = c.String("listen")
		config.MaxClients = c.Int("max-clients")
		config.MaxCommandListKB = c.Int("max-command-list-kb")
		config.MaxOutputKB = c.Int("max-output-kb")
		config.InactivityTimeoutSec = c.Int("inactivity-timeout")
		config.SweepIntervalSec = c.Int("sweep-interval")
		config.StatsLog = c.String("statslog")
		config.StatsPeriodSec = c.Int("statsperiod")
		config.Log = c.String("log")
		config.Quiet = c.Bool("quiet")

		if c.String("c") != "" {
			if err := cfgpkg.LoadJSON(&config, c.String("c")); err != nil {
				log.Fatal(err)
			}
		}

		if err := config.Validate(); err != nil {
			log.Fatal(err)
		}

		if f, err := logging.Setup(config.Log); err != nil {
			log.Fatal(err)
		} else if f != nil {
			defer f.Close()
		}
		logging.WatchRotate(config.Log)

		log.Println("version:", VERSION)
		log.Println("listening on:", config.Listen)
		log.Println("max clients:", config.MaxClients)
		log.Println("max command list:", config.MaxCommandListKB, "KiB")
		log.Println("max output buffer:", config.MaxOutputKB, "KiB")
		log.Println("inactivity timeout:", config.InactivityTimeoutSec, "s")

		lis, err := listener.ListenMultiPort(config.Listen)
		if err != nil {
			log.Fatal(err)
		}

		poller, err := reactor.NewLinuxPoller()
		if err != nil {
			log.Fatal(err)
		}

		// The reactor's logger only carries per-connection messages, so
		// --quiet discards it.
		var reactorLog *log.Logger
		if config.Quiet {
			reactorLog = log.New(io.Discard, "", 0)
		}

		m := reactor.New(lis, poller, nil, permission.Default, reactor.Config{
			MaxClients:          config.MaxClients,
			MaxCommandListBytes: config.MaxCommandListBytes(),
			MaxOutputBytes:      config.MaxOutputBytes(),
			InactivityTimeout:   time.Duration(config.InactivityTimeoutSec) * time.Second,
			SweepInterval:       time.Duration(config.SweepIntervalSec) * time.Second,
		}, reactorLog)

		exec := &command.Reference{Idle: m.IdleWaiter(), Names: m.NameResolver()}
		m.SetExecutor(exec)

		go stats.Logger(config.StatsLog, time.Duration(config.StatsPeriodSec)*time.Second, m)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			log.Println("shutting down")
			m.Shutdown()
		}()

		// SIGUSR1 is the reference trigger for idle delivery: a real
		// playback engine would call m.Broadcast on every state change
		// it makes; this build has no playback engine, so SIGUSR1 lets
		// an operator exercise the idle/notify path by hand.
		usr1Ch := make(chan os.Signal, 1)
		signal.Notify(usr1Ch, syscall.SIGUSR1)
		go func() {
			mask := allIdleBits()
			for range usr1Ch {
				m.Broadcast(mask)
			}
		}()

		if err := m.Run(); err != nil {
			log.Fatal(err)
		}
		return nil
	}

	if err := myApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
