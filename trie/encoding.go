// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package trie

// Nibble-path helpers and the hex-prefix encoding of §4.C / GLOSSARY.
//
// Three key representations appear in the trie:
//
//   - "key bytes": ordinary byte strings, as stored/retrieved by callers.
//   - "hex" (nibble) form: one nibble per byte, 0-15, with a trailing 16
//     sentinel marking a terminator (leaf) path.
//   - "compact" (hex-prefix) form: the nibble path packed two-per-byte with
//     a leading flag nibble encoding oddness and the terminator bit.

// keybytesToHex expands a byte string into one-nibble-per-byte form with a
// trailing terminator sentinel (16).
func keybytesToHex(key []byte) []byte {
	l := len(key)*2 + 1
	out := make([]byte, l)
	for i, b := range key {
		out[i*2] = b / 16
		out[i*2+1] = b % 16
	}
	out[l-1] = 16
	return out
}

// hexToKeybytes contracts a nibble-form path (without, or with, the
// terminator sentinel) back into bytes. It requires an even number of
// non-terminator nibbles.
func hexToKeybytes(hex []byte) []byte {
	if hasTerm(hex) {
		hex = hex[:len(hex)-1]
	}
	if len(hex)&1 != 0 {
		panic("trie: odd-length hex key cannot be converted to bytes")
	}
	out := make([]byte, len(hex)/2)
	for i := range out {
		out[i] = hex[i*2]<<4 | hex[i*2+1]
	}
	return out
}

// hasTerm reports whether a nibble-form path ends with the terminator
// sentinel (meaning the node it addresses is leaf-valued).
func hasTerm(s []byte) bool {
	return len(s) > 0 && s[len(s)-1] == 16
}

// hexToCompact packs a nibble-form path into hex-prefix ("compact") form:
// one flag byte (odd-length?, terminator?) followed by the packed nibbles.
func hexToCompact(hex []byte) []byte {
	terminator := byte(0)
	if hasTerm(hex) {
		terminator = 1
		hex = hex[:len(hex)-1]
	}
	buf := make([]byte, len(hex)/2+1)
	buf[0] = terminator << 5 // the high flag nibble; low nibble set below
	if len(hex)&1 == 1 {
		buf[0] |= 1 << 4 // odd flag
		buf[0] |= hex[0] // odd nibbles lead with the first nibble
		hex = hex[1:]
	}
	decodeNibbles(hex, buf[1:])
	return buf
}

// compactToHex reverses hexToCompact.
func compactToHex(compact []byte) []byte {
	if len(compact) == 0 {
		return compact
	}
	base := keybytesToHex(compact)
	// keybytesToHex always appends a terminator sentinel; drop it unless
	// the flag nibble says this path really is terminated.
	if base[0] < 2 {
		base = base[:len(base)-1]
	}
	// the flag nibble occupies one extra nibble slot; an odd-length path
	// also padded its first real nibble into the low bits of the flag byte.
	chop := 2 - base[0]&1
	return base[chop:]
}

func decodeNibbles(nibbles []byte, bytes []byte) {
	for bi, ni := 0, 0; ni < len(nibbles); bi, ni = bi+1, ni+2 {
		bytes[bi] = nibbles[ni]<<4 | nibbles[ni+1]
	}
}

// prefixLen returns the length of the common prefix of a and b.
func prefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
