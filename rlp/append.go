package rlp

// Append-style encoding helpers. Witness hydration re-encodes an account
// leaf for every proof it links, so the hot paths avoid the reflection
// walk of EncodeToBytes and build their payloads directly.

// AppendUint64 appends the encoding of v to dst.
func AppendUint64(dst []byte, v uint64) []byte {
	switch {
	case v == 0:
		return append(dst, 0x80)
	case v < 0x80:
		return append(dst, byte(v))
	}
	size := minimalBigEndian(v)
	dst = append(dst, 0x80+byte(len(size)))
	return append(dst, size...)
}

// AppendBytes appends the string encoding of data to dst.
func AppendBytes(dst, data []byte) []byte {
	if len(data) == 1 && data[0] <= 0x7f {
		return append(dst, data[0])
	}
	if n := len(data); n <= 55 {
		dst = append(dst, 0x80+byte(n))
	} else {
		size := minimalBigEndian(uint64(n))
		dst = append(dst, 0xb7+byte(len(size)))
		dst = append(dst, size...)
	}
	return append(dst, data...)
}
