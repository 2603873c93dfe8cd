// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"fmt"
	"net"
)

// SyslogConfig configures shipping preread debug/warning logs to a
// syslog collector, for deployments that want fingerprinting
// decisions centralized rather than scattered across per-host stderr.
type SyslogConfig struct {
	Enabled  bool   `hcl:"enabled,optional"`
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	Protocol string `hcl:"protocol,optional"` // "udp" or "tcp"
	Tag      string `hcl:"tag,optional"`
	Facility int    `hcl:"facility,optional"`
}

// DefaultSyslogConfig returns a disabled config with default values.
// NewSyslogWriter applies the same Port, Protocol and Tag defaults
// when those fields are left zero-valued; it uses Facility as given.
func DefaultSyslogConfig() SyslogConfig {
	return SyslogConfig{
		Enabled:  false,
		Port:     514,
		Protocol: "udp",
		Tag:      "prereadtls",
		Facility: 1, // user-level messages
	}
}

// syslogWriter is a minimal RFC 3164-ish writer: each Write call is
// framed as one syslog datagram/line, priority computed from
// facility*8+severity (severity fixed at 6, "informational", since
// callers already gate debug/warn themselves via Logger).
type syslogWriter struct {
	conn net.Conn
	tag  string
	pri  int
}

// NewSyslogWriter dials cfg.Host and returns an io.Writer that frames
// each write as a syslog message. Port, Protocol and Tag default to
// DefaultSyslogConfig's values when left zero-valued; Host has no
// default and is required.
func NewSyslogWriter(cfg SyslogConfig) (*syslogWriter, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("logging: syslog host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 514
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "udp"
	}
	if cfg.Tag == "" {
		cfg.Tag = "prereadtls"
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := net.Dial(cfg.Protocol, addr)
	if err != nil {
		return nil, fmt.Errorf("logging: dial syslog collector: %w", err)
	}

	return &syslogWriter{
		conn: conn,
		tag:  cfg.Tag,
		pri:  cfg.Facility*8 + 6,
	}, nil
}

func (w *syslogWriter) Write(p []byte) (int, error) {
	msg := fmt.Sprintf("<%d>%s: %s", w.pri, w.tag, p)
	if _, err := w.conn.Write([]byte(msg)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *syslogWriter) Close() error { return w.conn.Close() }
