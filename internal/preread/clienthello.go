// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package preread

import (
	"encoding/binary"

	errs "grimm.is/prereadtls/internal/errors"
)

// Extension types this parser cares about.
const (
	extServerName       = 0x0000
	extSupportedGroups  = 0x000a
	extECPointFormats   = 0x000b
	extALPN             = 0x0010
	extSupportedVersion = 0x002b
)

func be16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }

func be24(b []byte) int { return int(b[0])<<16 | int(b[1])<<8 | int(b[2]) }

// malformed logs msg at debug level and builds the KindMalformed
// error the Declined return carries.
func (c *Context) malformed(msg string) error {
	c.debugf("ssl preread: %s", msg)
	return errs.New(errs.KindMalformed, msg)
}

// truncated logs msg at debug level and builds the KindTruncated error
// for a ClientHello body shorter than its own declared length.
func (c *Context) truncated(msg string) error {
	c.debugf("ssl preread: %s", msg)
	return errs.New(errs.KindTruncated, msg)
}

// setSink points the next fieldSize bytes at buf (nil discards them).
func (c *Context) setSink(buf []byte) {
	c.sinkBuf = buf
	c.sinkOff = 0
}

// gotoExt re-enters the extension loop head with nothing left to
// consume this tick: the next transition() call (immediate, within
// the same Step) inspects c.left and either returns OK or dispatches
// the next ext_header read.
func (c *Context) gotoExt() {
	c.state = stateExt
	c.fieldSize = 0
	c.setSink(nil)
}

// consume copies data into the active sink (or discards it) and
// advances fieldSize/left: the consume / decrement / transition tick
// every state in this machine runs through.
func (c *Context) consume(data []byte) {
	if c.sinkBuf != nil {
		copy(c.sinkBuf[c.sinkOff:], data)
	}
	c.sinkOff += len(data)
	c.fieldSize -= len(data)
	c.left -= len(data)
}

// step drives the ClientHello state machine across data, which is
// (at most) the body of one TLS record. It returns OK once the
// parser has consumed everything it needs, Declined on a malformed
// or semantically rejected ClientHello, Again when data ran out
// before the current state completed (the caller should invoke step
// again with the next record's body), or Error.
//
// step never reads past len(data) and never sizes a buffer from a
// length larger than what remains of the declared ClientHello body:
// every length used to size a buffer is bounds-checked against left
// before the buffer is allocated.
func (c *Context) step(data []byte) (Result, error) {
	i := 0
	for {
		if c.fieldSize > 0 {
			avail := len(data) - i
			if avail <= 0 {
				return Again, nil
			}
			n := avail
			if n > c.fieldSize {
				n = c.fieldSize
			}
			c.consume(data[i : i+n])
			i += n
			if c.fieldSize > 0 {
				continue
			}
		}

		res, err := c.transition()
		switch res {
		case OK, Declined, Error:
			return res, err
		}
		// res == Again: transition set up the next field. Verify the
		// declared ClientHello body still covers it.
		if c.left < c.fieldSize {
			return Declined, c.truncated("clienthello body shorter than declared field")
		}
	}
}

// transition applies the action associated with completing the
// current state's field and advances to the next state.
func (c *Context) transition() (Result, error) {
	switch c.state {
	case stateStart:
		c.ja3 = ja3Fields{}
		c.sawExtBlock, c.sawSNI, c.sawALPN = false, false, false
		c.state = stateHeader
		c.fieldSize = 4
		// left is not meaningful until the handshake header itself has
		// been read (it is what declares left's value); set it to a
		// sentinel so step's "left >= fieldSize" guard does not reject
		// the header read itself.
		c.left = 1 << 30
		c.setSink(c.scratch[:4])
		return Again, nil

	case stateHeader:
		msgType := c.scratch[0]
		if msgType != 1 {
			return Declined, c.malformed("handshake message type is not ClientHello")
		}
		c.left = be24(c.scratch[1:4])
		c.state = stateVersion
		c.fieldSize = 2
		c.setSink(c.scratch[:2])
		return Again, nil

	case stateVersion:
		c.version = be16(c.scratch[:2])
		c.state = stateRandom
		c.fieldSize = 32
		c.setSink(nil)
		return Again, nil

	case stateRandom:
		c.state = stateSIDLen
		c.fieldSize = 1
		c.setSink(c.scratch[:1])
		return Again, nil

	case stateSIDLen:
		c.state = stateSID
		c.fieldSize = int(c.scratch[0])
		c.setSink(nil)
		return Again, nil

	case stateSID:
		c.state = stateCSLen
		c.fieldSize = 2
		c.setSink(c.scratch[:2])
		return Again, nil

	case stateCSLen:
		n := int(be16(c.scratch[:2]))
		if n > c.left {
			return Declined, c.truncated("clienthello body shorter than declared field")
		}
		c.state = stateCS
		c.fieldSize = n
		c.setSink(make([]byte, n))
		return Again, nil

	case stateCS:
		raw := c.sinkBuf
		for off := 0; off+2 <= len(raw); off += 2 {
			c.ja3.ciphers = append(c.ja3.ciphers, be16(raw[off:off+2]))
		}
		c.state = stateCMLen
		c.fieldSize = 1
		c.setSink(c.scratch[:1])
		return Again, nil

	case stateCMLen:
		c.state = stateCM
		c.fieldSize = int(c.scratch[0])
		c.setSink(nil)
		return Again, nil

	case stateCM:
		if c.left == 0 {
			return OK, nil
		}
		c.state = stateExt
		c.fieldSize = 2
		c.setSink(c.scratch[:2])
		return Again, nil

	case stateExt:
		if !c.sawExtBlock {
			blockLen := int(be16(c.scratch[:2]))
			c.sawExtBlock = true
			c.ja3.extensions = make([]uint16, 0, blockLen/2)
		}
		if c.left == 0 {
			return OK, nil
		}
		c.state = stateExtHeader
		c.fieldSize = 4
		c.setSink(c.scratch[:4])
		return Again, nil

	case stateExtHeader:
		extType := be16(c.scratch[0:2])
		extLen := int(be16(c.scratch[2:4]))
		c.ja3.extensions = append(c.ja3.extensions, extType)

		switch extType {
		case extServerName:
			if c.sawSNI {
				c.state = stateExtSkip
				c.fieldSize = extLen
				c.setSink(nil)
				return Again, nil
			}
			c.sawSNI = true
			c.state = stateSNILen
			c.fieldSize = 2
			c.setSink(c.scratch[:2])
		case extALPN:
			if c.sawALPN {
				c.state = stateExtSkip
				c.fieldSize = extLen
				c.setSink(nil)
				return Again, nil
			}
			c.sawALPN = true
			c.state = stateALPNLen
			c.fieldSize = 2
			c.setSink(c.scratch[:2])
		case extSupportedGroups:
			c.state = stateGroupsLen
			c.fieldSize = 2
			c.setSink(c.scratch[:2])
		case extECPointFormats:
			c.state = stateFormatsLen
			c.fieldSize = 1
			c.setSink(c.scratch[:1])
		case extSupportedVersion:
			c.state = stateSupVerLen
			c.fieldSize = 1
			c.setSink(c.scratch[:1])
		default:
			c.state = stateExtSkip
			c.fieldSize = extLen
			c.setSink(nil)
		}
		return Again, nil

	case stateExtSkip:
		c.gotoExt()
		return Again, nil

	case stateSNILen:
		c.extRemaining = int(be16(c.scratch[:2]))
		c.state = stateSNIHostHead
		c.fieldSize = 3
		c.setSink(c.scratch[:3])
		return Again, nil

	case stateSNIHostHead:
		nameType := c.scratch[0]
		nameLen := int(be16(c.scratch[1:3]))
		if nameType != 0 {
			return Declined, c.malformed("sni name type is not host_name")
		}
		if c.extRemaining < 3+nameLen {
			return Declined, c.malformed("sni server_name_list length too short for entry")
		}
		if nameLen > c.left {
			return Declined, c.truncated("clienthello body shorter than declared field")
		}
		c.extRemaining -= 3 + nameLen
		c.state = stateSNIHost
		c.fieldSize = nameLen
		c.setSink(c.arena.alloc(nameLen))
		return Again, nil

	case stateSNIHost:
		c.hostBuf = c.sinkBuf
		c.hostLen = len(c.hostBuf)
		if c.extRemaining > 0 {
			c.state = stateExtSkip
			c.fieldSize = c.extRemaining
			c.extRemaining = 0
			c.setSink(nil)
			return Again, nil
		}
		c.gotoExt()
		return Again, nil

	case stateALPNLen:
		c.extRemaining = int(be16(c.scratch[:2]))
		if c.extRemaining > c.left {
			return Declined, c.truncated("clienthello body shorter than declared field")
		}
		c.alpnBuf = c.arena.alloc(c.extRemaining)
		c.alpnLen = 0
		c.state = stateALPNProtoLen
		c.fieldSize = 1
		c.setSink(c.scratch[:1])
		return Again, nil

	case stateALPNProtoLen:
		protoLen := int(c.scratch[0])
		if protoLen == 0 {
			return Declined, c.malformed("empty alpn protocol name")
		}
		if c.extRemaining < 1+protoLen {
			return Declined, c.malformed("alpn protocol list length too short for entry")
		}
		c.extRemaining -= 1 + protoLen
		c.state = stateALPNProtoData
		c.fieldSize = protoLen
		c.setSink(c.alpnBuf[c.alpnLen : c.alpnLen+protoLen])
		return Again, nil

	case stateALPNProtoData:
		c.alpnLen += len(c.sinkBuf)
		if c.extRemaining > 0 {
			c.alpnBuf[c.alpnLen] = ','
			c.alpnLen++
			c.state = stateALPNProtoLen
			c.fieldSize = 1
			c.setSink(c.scratch[:1])
			return Again, nil
		}
		c.gotoExt()
		return Again, nil

	case stateSupVerLen:
		// Presence alone forces TLSv1.3 regardless of the legacy
		// version field.
		c.version = 0x0304
		n := int(c.scratch[0])
		c.state = stateSupVerSkip
		c.fieldSize = n
		c.setSink(nil)
		return Again, nil

	case stateSupVerSkip:
		c.gotoExt()
		return Again, nil

	case stateGroupsLen:
		n := int(be16(c.scratch[:2]))
		if n > c.left {
			return Declined, c.truncated("clienthello body shorter than declared field")
		}
		c.state = stateGroupsBody
		c.fieldSize = n
		c.setSink(make([]byte, n))
		return Again, nil

	case stateGroupsBody:
		raw := c.sinkBuf
		curves := make([]uint16, 0, len(raw)/2)
		for off := 0; off+2 <= len(raw); off += 2 {
			curves = append(curves, be16(raw[off:off+2]))
		}
		c.ja3.curves = curves
		c.gotoExt()
		return Again, nil

	case stateFormatsLen:
		n := int(c.scratch[0])
		if n > c.left {
			return Declined, c.truncated("clienthello body shorter than declared field")
		}
		c.state = stateFormatsBody
		c.fieldSize = n
		c.setSink(make([]byte, n))
		return Again, nil

	case stateFormatsBody:
		formats := make([]uint8, len(c.sinkBuf))
		copy(formats, c.sinkBuf)
		c.ja3.formats = formats
		c.gotoExt()
		return Again, nil

	default:
		return Error, errs.Errorf(errs.KindInternal, "clienthello parser in unknown state %d", c.state)
	}
}
