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

// Package config is the daemon's configuration surface: command-line
// flags with a JSON file override, the same two-layer shape as the
// teacher's server/config.go, generalized from KCP tunnel parameters to
// this daemon's connection and buffer limits.
package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Config holds every tunable the reactor and its sessions need. JSON tags
// let it double as the on-disk override file format.
type Config struct {
	Listen string `json:"listen"`

	MaxClients int `json:"max_clients"`

	// MaxCommandListKB and MaxOutputKB are given in KiB on the wire and in
	// config files, then converted to bytes once at startup.
	MaxCommandListKB int `json:"max_command_list_kb"`
	MaxOutputKB      int `json:"max_output_kb"`

	InactivityTimeoutSec int `json:"inactivity_timeout_sec"`
	SweepIntervalSec     int `json:"sweep_interval_sec"`

	Log        string `json:"log"`
	StatsLog   string `json:"stats_log"`
	StatsPeriodSec int `json:"stats_period_sec"`
	Quiet      bool   `json:"quiet"`
}

// Default mirrors an MPD daemon's stock defaults: unlimited command
// lists and output buffers are not sensible, so command lists carry a
// 2MiB ceiling and the deferred output queue an 8MiB one; clients and
// timeouts follow upstream mpd.conf.
func Default() Config {
	return Config{
		Listen:               ":6600",
		MaxClients:           10,
		MaxCommandListKB:     2048,
		MaxOutputKB:          8192,
		InactivityTimeoutSec: 60,
		SweepIntervalSec:     5,
		StatsPeriodSec:       60,
	}
}

// LoadJSON overrides fields in cfg from a JSON config file, the same
// "shell flags, optionally overridden by -c file.json" layering the
// teacher's parseJSONConfig implements.
func LoadJSON(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "config: opening json config")
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return errors.Wrap(err, "config: decoding json config")
	}
	return nil
}

// Validate rejects a configuration that would make the daemon's
// invariants impossible to uphold: the client cap, both size limits, the
// inactivity timeout and the sweep interval must each be a positive
// number of the unit they're declared in. StatsPeriodSec is not checked.
func (c Config) Validate() error {
	if c.MaxClients <= 0 {
		return errors.New("config: max_clients must be positive")
	}
	if c.MaxCommandListKB <= 0 {
		return errors.New("config: max_command_list_kb must be positive")
	}
	if c.MaxOutputKB <= 0 {
		return errors.New("config: max_output_kb must be positive")
	}
	if c.InactivityTimeoutSec <= 0 {
		return errors.New("config: inactivity_timeout_sec must be positive")
	}
	if c.SweepIntervalSec <= 0 {
		return errors.New("config: sweep_interval_sec must be positive")
	}
	return nil
}

// MaxCommandListBytes converts the configured KiB limit to bytes, the
// unit the command-list accumulator accounts in.
func (c Config) MaxCommandListBytes() int { return c.MaxCommandListKB * 1024 }

// MaxOutputBytes converts the configured KiB limit to bytes, the unit the
// deferred output queue accounts in.
func (c Config) MaxOutputBytes() int { return c.MaxOutputKB * 1024 }
