// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package preread

import "encoding/hex"

// Variable accessors mirror the host's exported variables: pure reads
// over a Context that never mutate state and are safe to call
// repeatedly. All but Prologue require IsSSL() to report true.

// Protocol returns the textual TLS/SSL version name, or "" if the
// version is not one of the recognized values. ok is false when no
// ClientHello has been recognized on this connection.
func (c *Context) Protocol() (value string, ok bool) {
	if !c.isSSL {
		return "", false
	}
	switch c.version {
	case 0x0002:
		return "SSLv2", true
	case 0x0300:
		return "SSLv3", true
	case 0x0301:
		return "TLSv1", true
	case 0x0302:
		return "TLSv1.1", true
	case 0x0303:
		return "TLSv1.2", true
	case 0x0304:
		return "TLSv1.3", true
	default:
		return "", true
	}
}

func (c *Context) hostString() string {
	if c.hostLen == 0 {
		return ""
	}
	return string(c.hostBuf[:c.hostLen])
}

// ServerName returns the SNI host the ClientHello declared. ok is
// false both when no ClientHello was recognized and when one was
// recognized but carried no (or an unparsed) SNI extension — a
// legacy SSLv2 ClientHello, for instance, never reaches the SNI
// parser at all.
func (c *Context) ServerName() (value string, ok bool) {
	if !c.isSSL || c.hostLen == 0 {
		return "", false
	}
	return c.hostString(), true
}

// ALPNProtocols returns the comma-joined ALPN protocol list.
func (c *Context) ALPNProtocols() (value string, ok bool) {
	if !c.isSSL || c.alpnLen == 0 {
		return "", false
	}
	return string(c.alpnBuf[:c.alpnLen]), true
}

// JA3N builds the canonical JA3N string on demand. ok is false if
// this connection never reached a ClientHello, or if every one of
// the four fingerprint input arrays was empty.
func (c *Context) JA3N() (value string, ok bool) {
	if !c.isSSL {
		return "", false
	}
	raw, err := c.buildJA3N()
	if err != nil {
		return "", false
	}
	return raw, true
}

// JA3NHash returns the 32-hex-character MD5 digest of the JA3N
// string.
func (c *Context) JA3NHash() (value string, ok bool) {
	raw, ok := c.JA3N()
	if !ok {
		return "", false
	}
	return JA3NHash(raw), true
}

// Prologue returns the lowercase hex dump of the first up-to-32 raw
// bytes observed on the connection. Unlike the other accessors it is
// available whenever any bytes have been seen, regardless of IsSSL.
func (c *Context) Prologue() (value string, ok bool) {
	if c.prologueLen == 0 {
		return "", false
	}
	return hex.EncodeToString(c.prologue[:c.prologueLen]), true
}
