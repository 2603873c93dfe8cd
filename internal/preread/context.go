// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package preread implements a resumable TLS ClientHello parser and a
// JA3N-style fingerprint builder for use at a stream host's
// pre-routing decision point. The parser never buffers a full
// handshake itself: it advances a small state machine across
// whatever contiguous byte range the host hands it on each readiness
// notification, and suspends by recording its position in a Context.
package preread

import "grimm.is/prereadtls/internal/logging"

// Result is the verdict the controller and parser return to their
// caller, matching the host's phase-handler contract.
type Result int

const (
	// Again means more bytes are required; call Handle once more when
	// the host reports additional data.
	Again Result = iota
	// OK means a ClientHello (or legacy SSLv2 ClientHello) was fully
	// recognized; accessors may now be read.
	OK
	// Declined means the stream is not TLS/SSL or its ClientHello is
	// malformed; the host proceeds without preread data.
	Declined
	// Error means an unrecoverable condition (allocation failure,
	// host-side error) occurred; the host aborts the connection.
	Error
)

func (r Result) String() string {
	switch r {
	case Again:
		return "AGAIN"
	case OK:
		return "OK"
	case Declined:
		return "DECLINED"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// parserState enumerates the ClientHello state machine's positions.
// It is the resumption tag stored in Context between Handle
// invocations.
type parserState int

const (
	stateStart parserState = iota
	stateHeader
	stateVersion
	stateRandom
	stateSIDLen
	stateSID
	stateCSLen
	stateCS
	stateCMLen
	stateCM
	stateExt
	stateExtHeader
	stateExtSkip
	stateSNILen
	stateSNIHostHead
	stateSNIHost
	stateALPNLen
	stateALPNProtoLen
	stateALPNProtoData
	stateSupVerLen
	stateSupVerSkip
	stateGroupsLen
	stateGroupsBody
	stateFormatsLen
	stateFormatsBody
	stateDone
)

// ja3Fields accumulates the raw, wire-ordered inputs to the JA3N
// string. GREASE values are kept in here (filtering happens only at
// render time) and extensions are kept in parse order (sorted later,
// once, by sortExtensions).
type ja3Fields struct {
	ciphers    []uint16
	extensions []uint16
	curves     []uint16
	formats    []uint8
}

// Context is the per-connection parser and fingerprint state. It is
// owned exclusively by the connection that created it; nothing in
// this package is safe to share across goroutines.
type Context struct {
	arena arena

	// cursor is the byte offset into the host's receive buffer up to
	// which Controller.Handle has fully inspected records.
	cursor int

	// Resumable ClientHello parser position: state identifies the
	// position, fieldSize is how many bytes remain before the next
	// transition, left is how many bytes remain in the declared
	// ClientHello body, extRemaining is the nested-length counter used
	// inside SNI/ALPN parsing.
	state        parserState
	fieldSize    int
	left         int
	extRemaining int

	// scratch backs small fixed-size reads (handshake and extension
	// headers, length prefixes); sinkBuf/sinkOff point at wherever the next
	// fieldSize bytes should land — scratch, an arena allocation, or
	// nil to discard them.
	scratch [4]byte
	sinkBuf []byte
	sinkOff int

	// First-occurrence gates: only the first extensions-block
	// allocation, first SNI and first ALPN extension take effect;
	// later duplicates fall through to the generic skip path.
	sawExtBlock bool
	sawSNI      bool
	sawALPN     bool

	alpnBuf []byte
	alpnLen int
	hostBuf []byte
	hostLen int

	// version is the ClientHello's legacy_version field, later
	// overridden to {3,4} (TLS 1.3) if a supported_versions extension
	// is present. It feeds both the protocol variable and the JA3N
	// string's version component.
	version uint16

	ja3 ja3Fields

	prologue    [32]byte
	prologueLen int

	isSSL  bool
	legacy bool

	// logger receives a debug line whenever the ClientHello state
	// machine or the record framer declines or truncates a connection;
	// nil is a valid, silent logger (Controller.Handle syncs it from
	// Controller.Logger on every call). See also Config.Debug, which
	// gates whether a host actually constructs a debug-enabled Logger.
	logger *logging.Logger
}

// debugf emits a debug line through c.logger, a no-op when c.logger is
// nil (the default until a Controller's Logger field is set).
func (c *Context) debugf(format string, args ...any) {
	c.logger.Debugf(format, args...)
}

// NewContext allocates a fresh per-connection parser state. The host
// calls this once, on the first readiness notification for a
// connection, and keeps the returned Context bound to that
// connection for its lifetime.
func NewContext() *Context {
	return &Context{state: stateStart}
}

// Release discards everything the Context's arena holds, modeling a
// connection-scoped allocator: every extracted byte-string is freed
// in one step when the connection ends, instead of trickling back to
// the garbage collector field by field. Release must not be called
// while accessors are still in use.
func (c *Context) Release() {
	c.arena.reset()
	*c = Context{state: stateDone}
}

// IsSSL reports whether a ClientHello (TLS or legacy SSLv2) has been
// recognized on this connection.
func (c *Context) IsSSL() bool { return c.isSSL }

// IsLegacySSLv2 reports whether the connection was recognized via the
// legacy SSLv2 ClientHello prologue. No JA3N data exists on such a
// connection; only the protocol variable is meaningful.
func (c *Context) IsLegacySSLv2() bool { return c.legacy }

// PrologueLen reports how many raw bytes of the stream prologue were
// captured (0 to 32).
func (c *Context) PrologueLen() int { return c.prologueLen }
