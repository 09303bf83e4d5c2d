package trie

import (
	"errors"
	"fmt"
)

// errMalformedNode covers every way witness bytes can fail to parse as a
// trie node. Hydration surfaces it verbatim so callers can tell corrupt
// proof material apart from nodes that are merely missing (MissingNodeError).
var errMalformedNode = errors.New("trie: malformed node")

// decodeNode parses RLP-encoded node bytes into the in-memory node forms.
// hash is the keccak under which the bytes were referenced, kept in the
// node's cache flag so hydrated nodes re-hash for free; pass nil for inline
// nodes, which are too short to have a hash of their own.
func decodeNode(hash hashNode, data []byte) (node, error) {
	if len(data) == 0 {
		return nil, errMalformedNode
	}
	elems, err := splitNodeList(data)
	if err != nil {
		return nil, fmt.Errorf("trie decode: %w", err)
	}
	switch len(elems) {
	case 2:
		return decodeShort(hash, elems)
	case 17:
		return decodeFull(hash, elems)
	}
	return nil, fmt.Errorf("%w: %d list elements", errMalformedNode, len(elems))
}

// decodeShort parses a 2-element node. The hex-prefix flags of the first
// element decide between leaf and extension; only extensions carry a child
// reference.
func decodeShort(hash hashNode, elems [][]byte) (node, error) {
	key := compactToHex(elems[0])
	n := &shortNode{Key: key, flags: nodeFlag{hash: hash}}
	if hasTerm(key) {
		n.Val = valueNode(elems[1])
		return n, nil
	}
	child, err := decodeRef(elems[1])
	if err != nil {
		return nil, err
	}
	n.Val = child
	return n, nil
}

// decodeFull parses a 17-element branch node. Empty child slots stay nil,
// which in a sparse trie is indistinguishable from "this subtree is empty"
// until a lookup needs it; hash references preserve the boundary.
func decodeFull(hash hashNode, elems [][]byte) (node, error) {
	n := &fullNode{flags: nodeFlag{hash: hash}}
	for i := 0; i < 16; i++ {
		if len(elems[i]) == 0 {
			continue
		}
		child, err := decodeRef(elems[i])
		if err != nil {
			return nil, err
		}
		n.Children[i] = child
	}
	if len(elems[16]) > 0 {
		n.Children[16] = valueNode(elems[16])
	}
	return n, nil
}

// decodeRef parses one child slot. A 32-byte string is a hash reference,
// the sparse-trie frontier; anything shorter is a node embedded inline
// under the <32-byte rule and decodes in place.
func decodeRef(data []byte) (node, error) {
	switch {
	case len(data) == 0:
		return nil, nil
	case len(data) == 32:
		return hashNode(data), nil
	}
	return decodeNode(nil, data)
}

// splitNodeList splits a top-level RLP list into its raw element strings.
// Node decoding needs only this one level of structure, so the full rlp
// package machinery stays out of the hot path.
func splitNodeList(data []byte) ([][]byte, error) {
	if len(data) == 0 {
		return nil, errMalformedNode
	}
	prefix := data[0]
	if prefix < 0xc0 {
		return nil, fmt.Errorf("%w: not a list (prefix 0x%02x)", errMalformedNode, prefix)
	}

	var payload []byte
	if prefix <= 0xf7 {
		size := int(prefix - 0xc0)
		if 1+size > len(data) {
			return nil, errMalformedNode
		}
		payload = data[1 : 1+size]
	} else {
		sizeLen := int(prefix - 0xf7)
		if 1+sizeLen > len(data) {
			return nil, errMalformedNode
		}
		size := beInt(data[1 : 1+sizeLen])
		if 1+sizeLen+size > len(data) {
			return nil, errMalformedNode
		}
		payload = data[1+sizeLen : 1+sizeLen+size]
	}

	var elems [][]byte
	for len(payload) > 0 {
		elem, rest, err := nextListItem(payload)
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		payload = rest
	}
	return elems, nil
}

// nextListItem takes one item off the front of a list payload. String items
// yield their content; nested lists yield the whole item including its
// header, since an inline child must round-trip through decodeNode intact.
func nextListItem(data []byte) (content, rest []byte, err error) {
	if len(data) == 0 {
		return nil, nil, errMalformedNode
	}
	prefix := data[0]

	var start, end int
	switch {
	case prefix <= 0x7f: // literal byte
		return data[:1], data[1:], nil
	case prefix <= 0xb7: // short string, 0x80 being the empty one
		start, end = 1, 1+int(prefix-0x80)
	case prefix <= 0xbf: // long string
		sizeLen := int(prefix - 0xb7)
		if 1+sizeLen > len(data) {
			return nil, nil, errMalformedNode
		}
		start = 1 + sizeLen
		end = start + beInt(data[1:start])
	case prefix <= 0xf7: // nested short list, kept whole
		start, end = 0, 1+int(prefix-0xc0)
	default: // nested long list, kept whole
		sizeLen := int(prefix - 0xf7)
		if 1+sizeLen > len(data) {
			return nil, nil, errMalformedNode
		}
		start = 0
		end = 1 + sizeLen + beInt(data[1:1+sizeLen])
	}
	if end > len(data) {
		return nil, nil, errMalformedNode
	}
	if start == end {
		return nil, data[end:], nil
	}
	return data[start:end], data[end:], nil
}

// beInt reads a big-endian size field.
func beInt(b []byte) int {
	var v int
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}
