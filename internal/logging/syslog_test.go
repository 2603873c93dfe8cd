// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import "testing"

func TestDefaultSyslogConfig(t *testing.T) {
	cfg := DefaultSyslogConfig()

	if cfg.Enabled {
		t.Error("default should be disabled")
	}
	if cfg.Port != 514 {
		t.Errorf("expected port 514, got %d", cfg.Port)
	}
	if cfg.Protocol != "udp" {
		t.Errorf("expected protocol udp, got %s", cfg.Protocol)
	}
	if cfg.Tag != "prereadtls" {
		t.Errorf("expected tag prereadtls, got %s", cfg.Tag)
	}
	if cfg.Facility != 1 {
		t.Errorf("expected facility 1, got %d", cfg.Facility)
	}
}

func TestNewSyslogWriter_MissingHost(t *testing.T) {
	cfg := SyslogConfig{
		Enabled: true,
		Host:    "",
	}

	_, err := NewSyslogWriter(cfg)
	if err == nil {
		t.Error("expected error for missing host")
	}
}

func TestNewSyslogWriter_Defaults(t *testing.T) {
	cfg := SyslogConfig{
		Host: "127.0.0.1",
	}

	w, err := NewSyslogWriter(cfg)
	if err != nil {
		t.Fatalf("NewSyslogWriter: %v", err)
	}
	defer w.Close()

	if got := w.conn.RemoteAddr().String(); got != "127.0.0.1:514" {
		t.Errorf("expected defaulted port 514, got %s", got)
	}
	if got := w.conn.RemoteAddr().Network(); got != "udp" {
		t.Errorf("expected defaulted protocol udp, got %s", got)
	}
	if w.tag != "prereadtls" {
		t.Errorf("expected defaulted tag prereadtls, got %s", w.tag)
	}
}
