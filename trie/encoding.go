package trie

// Trie keys exist in three encodings.
//
// KEYBYTES is the raw key as callers pass it in (e.g. a hashed account
// address). HEX expands each byte into two nibbles and appends 0x10, the
// terminator, when the path ends at a leaf; all in-memory node keys use
// this form. COMPACT is the Yellow Paper's hex-prefix encoding used on
// disk and in witnesses: the nibbles packed back into bytes, with a first
// nibble carrying the leaf flag (0x2) and the odd-length flag (0x1).

const terminatorByte = 16

// hexToCompact packs a hex nibble key into hex-prefix form. A terminator
// nibble, if present, is stripped and recorded in the flag nibble instead.
func hexToCompact(hex []byte) []byte {
	var flags byte
	if hasTerm(hex) {
		flags = 0x20
		hex = hex[:len(hex)-1]
	}
	buf := make([]byte, len(hex)/2+1)
	if len(hex)&1 == 1 {
		// Odd count: the flag byte absorbs the first nibble.
		flags |= 0x10 | hex[0]
		hex = hex[1:]
	}
	buf[0] = flags
	packNibbles(hex, buf[1:])
	return buf
}

// compactToHex is the inverse of hexToCompact. Leaf keys come back with
// their terminator nibble restored.
func compactToHex(compact []byte) []byte {
	if len(compact) == 0 {
		return compact
	}
	base := keybytesToHex(compact)
	base = base[:len(base)-1] // keybytesToHex appends a terminator we don't want here

	flags := base[0]
	// Even-length keys carry a zero padding nibble after the flag nibble.
	skip := 2 - int(flags&1)
	if flags&2 == 0 {
		return base[skip:]
	}
	hex := make([]byte, len(base)-skip+1)
	copy(hex, base[skip:])
	hex[len(hex)-1] = terminatorByte
	return hex
}

// keybytesToHex expands a raw key into nibbles and appends the terminator.
func keybytesToHex(str []byte) []byte {
	nibbles := make([]byte, len(str)*2+1)
	for i, b := range str {
		nibbles[i*2] = b >> 4
		nibbles[i*2+1] = b & 0xf
	}
	nibbles[len(nibbles)-1] = terminatorByte
	return nibbles
}

// hexToKeybytes packs a nibble key back into raw bytes. The key must hold
// an even number of data nibbles; trie paths that address whole bytes
// always do.
func hexToKeybytes(hex []byte) []byte {
	if hasTerm(hex) {
		hex = hex[:len(hex)-1]
	}
	if len(hex)&1 != 0 {
		panic("hexToKeybytes: odd length hex key")
	}
	key := make([]byte, len(hex)/2)
	packNibbles(hex, key)
	return key
}

// packNibbles writes nibble pairs into bytes, high nibble first.
func packNibbles(nibbles, bytes []byte) {
	for i := 0; i+1 < len(nibbles); i += 2 {
		bytes[i/2] = nibbles[i]<<4 | nibbles[i+1]
	}
}

// prefixLen returns how many leading nibbles a and b share.
func prefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// hasTerm reports whether the nibble key ends in the terminator.
func hasTerm(s []byte) bool {
	return len(s) > 0 && s[len(s)-1] == terminatorByte
}
