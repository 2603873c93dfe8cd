// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package hostproxy models the stream host's side of the preread
// contract. The preread core itself never imports a specific proxy
// implementation; everything it needs from its host — a receive
// buffer, SNI validation, virtual-server lookup — is a small
// interface here, with an in-memory fake good enough to drive tests
// and the pcap-replay CLI.
package hostproxy

import (
	"strings"

	"github.com/google/uuid"

	"grimm.is/prereadtls/internal/preread"
)

// HostValidator mirrors the host's validate_host collaborator:
// normalizes and validates an SNI name before it is handed to
// virtual-host selection.
type HostValidator interface {
	ValidateHost(name string) (valid bool, err error)
}

// Session is the per-connection handle the host hands the preread
// phase: a growing receive buffer plus a random per-connection
// identifier. The buffer is owned by the host; the core only ever
// reads it.
type Session struct {
	ID     uuid.UUID
	Server string // virtual server bound at connection accept time

	buf []byte
}

// NewSession creates a Session bound to the default server scope.
func NewSession(defaultServer string) *Session {
	return &Session{ID: uuid.New(), Server: defaultServer}
}

// Append simulates the host delivering more bytes on the connection's
// socket; the buffer only ever grows at the tail, matching the
// contiguous-and-growing view Controller.Handle expects.
func (s *Session) Append(b []byte) {
	s.buf = append(s.buf, b...)
}

// Bytes returns everything buffered for the connection so far.
func (s *Session) Bytes() []byte { return s.buf }

// DNSHostValidator is a minimal HostValidator: it accepts any
// syntactically plausible DNS name (lowercase letters, digits, '-',
// '.') and rejects the rest, without doing a real resolver lookup —
// good enough for routing decisions that only need to reject garbage
// SNI values before a virtual-host table lookup.
type DNSHostValidator struct{}

func (DNSHostValidator) ValidateHost(name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
		default:
			return false, nil
		}
	}
	return true, nil
}

// StaticResolver implements preread.VirtualServerResolver over a
// fixed host-to-server map, standing in for the host's
// find_virtual_server collaborator in tests, which have no real
// virtual-host table to consult.
type StaticResolver struct {
	Servers map[string]string

	Validator HostValidator

	// Session, if set, is rebound to the matched server scope on a
	// successful lookup, mirroring the host rebinding its session's
	// server config and error log once find_virtual_server succeeds.
	Session *Session
}

func (r *StaticResolver) FindVirtualServer(sni string) (bool, error) {
	if sni == "" {
		return false, nil
	}
	if r.Validator != nil {
		valid, err := r.Validator.ValidateHost(sni)
		if err != nil {
			return false, err
		}
		if !valid {
			return false, nil
		}
	}
	name := strings.ToLower(sni)
	server, found := r.Servers[name]
	if !found {
		return false, nil
	}
	if r.Session != nil {
		r.Session.Server = server
	}
	return true, nil
}

var _ preread.VirtualServerResolver = (*StaticResolver)(nil)
