package rlp

import "errors"

// Decoding errors. These are sentinels so witness and proof parsers can
// distinguish structural problems (wrong kind, truncation) from canonical
// form violations, which must be rejected outright: a non-canonical
// encoding of the same value would hash differently and break root checks.
var (
	// ErrExpectedString: the next item is a list but the caller asked for
	// string content.
	ErrExpectedString = errors.New("rlp: expected string")

	// ErrExpectedList: the next item is a string but the caller asked to
	// descend into a list.
	ErrExpectedList = errors.New("rlp: expected list")

	// ErrEOL: no items remain in the list being read.
	ErrEOL = errors.New("rlp: end of list")

	// ErrCanonSize: a size field that RLP requires to be minimal is not
	// (long-form header for a short payload, or a length with leading zeros).
	ErrCanonSize = errors.New("rlp: non-canonical size information")

	// ErrCanonInt: an integer carries leading zero bytes, or a single-byte
	// value uses a string header.
	ErrCanonInt = errors.New("rlp: non-canonical integer encoding")

	// ErrNonCanonicalSize: a content size was stored wider than needed.
	ErrNonCanonicalSize = errors.New("rlp: non-canonical size")

	// ErrUint64Range: an integer field holds more than 8 bytes of content.
	ErrUint64Range = errors.New("rlp: uint64 overflow")
)

// ErrValueTooLarge is an encoding error: the value's serialized size does
// not fit the RLP length headers.
var ErrValueTooLarge = errors.New("rlp: value too large")
