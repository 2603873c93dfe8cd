// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package preread

// arena is a bump allocator for the byte-strings a Context extracts
// (SNI host and ALPN list; the extension/cipher/curve arrays are
// ordinary slices and do not live here). It exists so a
// connection's preread allocations can be released in one step
// (Context.Release) instead of being tracked and freed individually.
// Go has no manual free; reset simply drops the backing slice so the
// garbage collector can reclaim it in one pass rather than many.
type arena struct {
	buf []byte
}

// alloc reserves n zeroed bytes and returns a slice into the arena's
// backing array. Slices returned by alloc must not be retained past
// the owning Context's Release call.
func (a *arena) alloc(n int) []byte {
	if n <= 0 {
		return nil
	}
	a.buf = append(a.buf, make([]byte, n)...)
	return a.buf[len(a.buf)-n:]
}

func (a *arena) reset() {
	a.buf = nil
}
