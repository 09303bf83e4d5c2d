package trie

import (
	"github.com/steleth/steleth/crypto"
	"github.com/steleth/steleth/rlp"
)

// hasher folds a node tree into its keccak commitment. Nodes whose RLP
// encoding is shorter than 32 bytes stay embedded in their parent instead
// of being referenced by hash, per the Yellow Paper node cap function.
type hasher struct{}

func newHasher() *hasher {
	return &hasher{}
}

// hash returns the reference form of n (a hashNode, or the node itself if
// it inlines) together with a cached copy that carries the computed hashes
// in its flags. force requests a real hash even for short encodings; the
// trie root needs that so it always has a 32-byte commitment.
func (h *hasher) hash(n node, force bool) (node, node) {
	if hash, dirty := n.cache(); hash != nil && !dirty {
		return hash, n
	}
	collapsed, cached := h.hashChildren(n)
	hashed, err := h.store(collapsed, force)
	if err != nil {
		panic("hasher: " + err.Error())
	}
	hn, _ := hashed.(hashNode)
	switch cn := cached.(type) {
	case *shortNode:
		cn.flags = nodeFlag{hash: hn}
	case *fullNode:
		cn.flags = nodeFlag{hash: hn}
	}
	return hashed, cached
}

// hashChildren produces the collapsed form used for encoding, with every
// child replaced by its own reference form, alongside the cached form that
// keeps the resolved children.
func (h *hasher) hashChildren(original node) (node, node) {
	switch n := original.(type) {
	case *shortNode:
		collapsed, cached := n.copy(), n.copy()
		collapsed.Key = hexToCompact(n.Key)
		if _, isValue := n.Val.(valueNode); !isValue {
			collapsed.Val, cached.Val = h.hash(n.Val, false)
		}
		return collapsed, cached
	case *fullNode:
		collapsed, cached := n.copy(), n.copy()
		for i, child := range n.Children[:16] {
			if child == nil {
				continue
			}
			collapsed.Children[i], cached.Children[i] = h.hash(child, false)
		}
		return collapsed, cached
	}
	return original, original
}

// store encodes a collapsed node and decides between inlining and hashing.
func (h *hasher) store(n node, force bool) (node, error) {
	switch n.(type) {
	case hashNode, valueNode:
		return n, nil
	}
	enc, err := encodeNode(n)
	if err != nil {
		return nil, err
	}
	if len(enc) < 32 && !force {
		return n, nil
	}
	return hashNode(crypto.Keccak256(enc)), nil
}

// encodeNode serializes a node: a 2-element list for short nodes, a
// 17-element list for branches. Keys must already be in compact form.
func encodeNode(n node) ([]byte, error) {
	switch n := n.(type) {
	case *shortNode:
		return encodeShortNode(n)
	case *fullNode:
		return encodeFullNode(n)
	case hashNode:
		return []byte(n), nil
	case valueNode:
		return rlp.EncodeToBytes([]byte(n))
	}
	return nil, nil
}

func encodeShortNode(n *shortNode) ([]byte, error) {
	keyEnc, err := rlp.EncodeToBytes(n.Key)
	if err != nil {
		return nil, err
	}
	valEnc, err := encodeNodeValue(n.Val)
	if err != nil {
		return nil, err
	}
	return wrapListPayload(append(keyEnc, valEnc...)), nil
}

func encodeFullNode(n *fullNode) ([]byte, error) {
	var payload []byte
	for _, child := range n.Children {
		enc, err := encodeNodeValue(child)
		if err != nil {
			return nil, err
		}
		payload = append(payload, enc...)
	}
	return wrapListPayload(payload), nil
}

// encodeNodeValue serializes a child slot inside a parent's list. Hashes
// and values become RLP strings; resolved children small enough to inline
// contribute their full encoding; empty slots are the empty string.
func encodeNodeValue(n node) ([]byte, error) {
	switch n := n.(type) {
	case valueNode:
		return rlp.EncodeToBytes([]byte(n))
	case hashNode:
		return rlp.EncodeToBytes([]byte(n))
	case *shortNode:
		return encodeShortNode(n)
	case *fullNode:
		return encodeFullNode(n)
	}
	return []byte{0x80}, nil
}

// wrapListPayload prepends the RLP list header for the given payload.
func wrapListPayload(payload []byte) []byte {
	if n := len(payload); n <= 55 {
		return append([]byte{0xc0 + byte(n)}, payload...)
	}
	size := putUintBigEndian(uint64(len(payload)))
	header := append([]byte{0xf7 + byte(len(size))}, size...)
	return append(header, payload...)
}

// putUintBigEndian returns u as big-endian bytes without leading zeros.
func putUintBigEndian(u uint64) []byte {
	n := 1
	for v := u >> 8; v != 0; v >>= 8 {
		n++
	}
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(u)
		u >>= 8
	}
	return out
}
