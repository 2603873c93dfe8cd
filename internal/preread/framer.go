// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package preread

import (
	errs "grimm.is/prereadtls/internal/errors"
	"grimm.is/prereadtls/internal/logging"
)

const maxPrologue = 32

// recordHeaderLen is the 5-byte TLS record header: content type (1),
// legacy protocol version (2), length (2).
const recordHeaderLen = 5

// Controller binds the record framer and ClientHello parser to one
// connection's Context and decides the OK/DECLINED/AGAIN/ERROR
// verdict a stream host's preread phase handler needs. A Controller
// is bound to exactly one connection and must not be shared across
// goroutines.
type Controller struct {
	ctx *Context

	// Resolver is consulted once, with the extracted SNI, when a
	// ClientHello is fully parsed. It is the "find_virtual_server"
	// host collaborator; nil disables the lookup (useful for tests
	// and for the pcap-replay CLI, which has no virtual-host table
	// to consult).
	Resolver VirtualServerResolver

	// Logger receives a debug line whenever the framer or the
	// ClientHello parser declines or truncates a connection. nil
	// disables debug logging, matching Config.Debug's default of off.
	Logger *logging.Logger
}

// VirtualServerResolver mirrors the host's find_virtual_server
// collaborator: given the SNI host the core extracted, it selects a
// server scope to rebind the connection to.
type VirtualServerResolver interface {
	FindVirtualServer(sni string) (found bool, err error)
}

// NewController creates a Controller with a fresh per-connection
// Context, ready for the first readiness notification.
func NewController() *Controller {
	return &Controller{ctx: NewContext()}
}

// Context returns the per-connection state the controller is driving,
// so the host can read variables from it once Handle returns OK.
func (ct *Controller) Context() *Context { return ct.ctx }

// Handle processes every complete TLS record (and the legacy SSLv2
// prologue) available in data, which must be the full byte sequence
// the host has buffered for this connection so far — the same
// contiguous region on every call, only ever growing at the tail.
// Handle is idempotent-safe to call again after Again: it resumes
// from ct.ctx's saved cursor and parser state, so the result is
// identical no matter how data arrives split across calls.
func (ct *Controller) Handle(data []byte) (Result, error) {
	c := ct.ctx
	c.logger = ct.Logger

	if c.prologueLen < maxPrologue && c.prologueLen < len(data) {
		n := len(data)
		if n > maxPrologue {
			n = maxPrologue
		}
		if n > c.prologueLen {
			copy(c.prologue[c.prologueLen:n], data[c.prologueLen:n])
			c.prologueLen = n
		}
	}

	for len(data)-c.cursor >= recordHeaderLen {
		p := data[c.cursor:]

		if p[0]&0x80 != 0 && p[2] == 1 && (p[3] == 0 || p[3] == 3) {
			c.version = uint16(p[3])<<8 | uint16(p[4])
			c.isSSL = true
			c.legacy = true
			return OK, nil
		}

		if p[0] != 0x16 {
			c.debugf("ssl preread: not a handshake (content type 0x%02x)", p[0])
			return Declined, errs.Errorf(errs.KindDeclined, "not a handshake (content type 0x%02x)", p[0])
		}
		if p[1] != 3 {
			c.debugf("ssl preread: unsupported record version (major %d)", p[1])
			return Declined, errs.Errorf(errs.KindDeclined, "unsupported record version (major %d)", p[1])
		}

		recLen := int(be16(p[3:5]))
		if len(p) < recordHeaderLen+recLen {
			return Again, nil
		}

		body := p[recordHeaderLen : recordHeaderLen+recLen]
		res, err := c.step(body)
		switch res {
		case Declined:
			return Declined, err
		case Error:
			return Error, err
		case OK:
			c.isSSL = true
			c.sortExtensions()
			if ct.Resolver != nil {
				if _, rerr := ct.Resolver.FindVirtualServer(c.hostString()); rerr != nil {
					return Error, errs.Wrap(rerr, errs.KindInternal, "virtual server lookup failed")
				}
			}
			return OK, nil
		case Again:
			c.cursor += recordHeaderLen + recLen
		}
	}

	return Again, nil
}
