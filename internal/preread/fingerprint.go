// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package preread

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	errs "grimm.is/prereadtls/internal/errors"
)

// sortExtensions canonicalizes the extension-type sequence ascending,
// the step that distinguishes JA3N from classic JA3. It runs once,
// after the parser has returned OK, never during parsing itself.
func (c *Context) sortExtensions() {
	sort.Slice(c.ja3.extensions, func(i, j int) bool { return c.ja3.extensions[i] < c.ja3.extensions[j] })
}

// buildJA3N renders the canonical JA3N string. GREASE values are
// filtered out of ciphers, extensions and curves at render time;
// ec_point_formats is never filtered and always rendered in wire
// order.
func (c *Context) buildJA3N() (string, error) {
	ciphers := filterGREASE16(c.ja3.ciphers)
	extensions := filterGREASE16(c.ja3.extensions)
	curves := filterGREASE16(c.ja3.curves)

	if len(ciphers) == 0 && len(extensions) == 0 && len(curves) == 0 && len(c.ja3.formats) == 0 {
		return "", errs.New(errs.KindNotFound, "empty ja3n: no fingerprint inputs were captured")
	}

	var b strings.Builder
	b.WriteString(strconv.FormatUint(uint64(c.version), 10))
	b.WriteByte(',')
	writeUint16List(&b, ciphers)
	b.WriteByte(',')
	writeUint16List(&b, extensions)
	b.WriteByte(',')
	writeUint16List(&b, curves)
	b.WriteByte(',')
	writeUint8List(&b, c.ja3.formats)
	return b.String(), nil
}

// JA3NHash returns the 32-character lowercase hex MD5 digest of raw.
func JA3NHash(raw string) string {
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func filterGREASE16(vals []uint16) []uint16 {
	out := make([]uint16, 0, len(vals))
	for _, v := range vals {
		if !isGREASE(v) {
			out = append(out, v)
		}
	}
	return out
}

func writeUint16List(b *strings.Builder, vals []uint16) {
	for i, v := range vals {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	}
}

func writeUint8List(b *strings.Builder, vals []uint8) {
	for i, v := range vals {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	}
}
