// Package wasmcompile lowers an ir.Program into a self-contained WASM
// binary module: the nine-function host ABI, an `init`/`step` export
// pair, and compiler-injected fuel metering (see Compile).
package wasmcompile

// This file implements the small slice of the WASM binary encoding
// the compiler needs: LEB128 integers and a byte-buffer section
// builder. Nothing elsewhere in this module's dependency stack covers
// WASM module encoding, so these few dozen lines of hand-rolled
// emission replace it.

const (
	valI32 byte = 0x7F
	valI64 byte = 0x7E
)

func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func sleb128(v int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

// buf is a growable byte buffer with helpers for the handful of
// encodings WASM sections need.
type buf struct{ b []byte }

func (w *buf) byte(b byte)      { w.b = append(w.b, b) }
func (w *buf) bytes(b []byte)   { w.b = append(w.b, b...) }
func (w *buf) u32(v uint32)     { w.bytes(uleb128(v)) }
func (w *buf) i32const(v int32) { w.byte(0x41); w.bytes(sleb128(int64(v))) }
func (w *buf) i64const(v int64) { w.byte(0x42); w.bytes(sleb128(v)) }

// name prepends the uleb128-encoded byte length of s and appends s
// — the WASM "name" encoding used for import/export identifiers.
func (w *buf) name(s string) {
	w.u32(uint32(len(s)))
	w.b = append(w.b, s...)
}

// section wraps content with its id and uleb128 length prefix.
func section(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, uleb128(uint32(len(content)))...)
	out = append(out, content...)
	return out
}
