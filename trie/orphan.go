package trie

import (
	"fmt"

	"github.com/steleth/steleth/core/types"
	"github.com/steleth/steleth/crypto"
)

// UnresolvableError is returned by ResolveOrphan when the supplied
// post-removal proof does not reach the orphaned subtree. Prefix is the
// longest nibble path the resolution got stuck at; a range proof covering
// that prefix lets a retry succeed.
type UnresolvableError struct {
	Prefix []byte
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("trie: orphan unresolvable, unresolved prefix %x", e.Prefix)
}

// HydrateFromRLP adds RLP-encoded proof nodes to the trie's node index,
// extending the hydrated region. Each node is validated before indexing and
// a malformed encoding fails the whole batch with a decode error; nodes
// indexed before the failure remain (they were individually valid).
func (t *Trie) HydrateFromRLP(nodes [][]byte) error {
	for i, enc := range nodes {
		if _, err := decodeNode(nil, enc); err != nil {
			return fmt.Errorf("trie: hydrate node %d: %w", i, err)
		}
		t.nodes[types.BytesToHash(crypto.Keccak256(enc))] = enc
	}
	return nil
}

// ResolveOrphan reconciles a deletion that failed because a branch collapse
// needed a sibling present only as a hash. The post-removal proof (the proof
// of key's absence in the post state, ordered from the root) contains the
// collapsed node that absorbed the orphaned sibling, so the sibling can be
// reconstructed from it and grafted into the node index. On success the
// deletion is performed; on failure the trie is unchanged and the error is
// *UnresolvableError carrying the nibble prefix the caller must cover with a
// range proof.
func (t *Trie) ResolveOrphan(key []byte, postRemovalProof [][]byte) error {
	// Every post-state node whose content is unchanged from the pre state
	// hashes identically, so indexing the whole proof hydrates any shared
	// subtrees for free.
	if err := t.HydrateFromRLP(postRemovalProof); err != nil {
		return err
	}

	var lastMissing []byte
	for {
		err := t.Delete(key)
		if err == nil {
			return nil
		}
		missing, ok := err.(*MissingNodeError)
		if !ok {
			return err
		}
		if lastMissing != nil && keysEqual(missing.Path, lastMissing) {
			// Grafting made no progress.
			return &UnresolvableError{Prefix: missing.Path}
		}
		lastMissing = missing.Path
		if err := t.graftOrphan(missing, postRemovalProof); err != nil {
			return err
		}
	}
}

// graftOrphan reconstructs the node at the missing path from the
// post-removal proof and adds it to the node index. The orphaned sibling is
// untouched by the removal, so the post-state node covering its path embeds
// it verbatim, only with a longer key on the collapsed ancestor.
func (t *Trie) graftOrphan(missing *MissingNodeError, proof [][]byte) error {
	if len(proof) == 0 {
		return &UnresolvableError{Prefix: missing.Path}
	}
	// Index the proof by hash so branch descents can follow references in
	// whatever order the proof lists them.
	byHash := make(map[types.Hash][]byte, len(proof))
	for _, enc := range proof {
		byHash[types.BytesToHash(crypto.Keccak256(enc))] = enc
	}

	target := missing.Path
	cur, err := decodeNode(nil, proof[0])
	if err != nil {
		return fmt.Errorf("trie: post-removal proof root: %w", err)
	}
	pos := 0
	for {
		switch n := cur.(type) {
		case *shortNode:
			klen := len(n.Key)
			if pos+klen >= len(target) {
				// This node's key spans the orphan's path. The orphan is
				// this same node with the already-consumed nibbles
				// stripped from its key.
				tail := n.Key[len(target)-pos:]
				if !keysEqual(n.Key[:len(target)-pos], target[pos:]) {
					return &UnresolvableError{Prefix: target}
				}
				var orphan node
				if len(tail) == 0 {
					orphan = n.Val
				} else {
					orphan = &shortNode{Key: tail, Val: n.Val}
				}
				return t.indexStandalone(orphan, missing.NodeHash, target)
			}
			if !keysEqual(n.Key, target[pos:pos+klen]) {
				return &UnresolvableError{Prefix: target}
			}
			pos += klen
			cur = n.Val

		case *fullNode:
			if pos >= len(target) {
				return t.indexStandalone(n, missing.NodeHash, target)
			}
			child := n.Children[target[pos]]
			if child == nil {
				return &UnresolvableError{Prefix: target[:pos+1]}
			}
			pos++
			cur = child

		case hashNode:
			enc, ok := byHash[types.BytesToHash(n)]
			if !ok {
				return &UnresolvableError{Prefix: target[:pos]}
			}
			cur, err = decodeNode(n, enc)
			if err != nil {
				return fmt.Errorf("trie: post-removal proof node: %w", err)
			}

		case valueNode:
			return &UnresolvableError{Prefix: target[:pos]}

		default:
			return &UnresolvableError{Prefix: target[:pos]}
		}
	}
}

// indexStandalone encodes a reconstructed node and stores it in the node
// index, verifying that it really is the node the trie was missing.
func (t *Trie) indexStandalone(n node, want types.Hash, path []byte) error {
	enc, err := encodeNode(collapseKeys(n))
	if err != nil {
		return fmt.Errorf("trie: encode reconstructed orphan: %w", err)
	}
	hash := types.BytesToHash(crypto.Keccak256(enc))
	if hash != want {
		// The reconstruction does not match the reference we hold, so the
		// proof describes a different subtree.
		return &UnresolvableError{Prefix: path}
	}
	t.nodes[hash] = enc
	return nil
}

// collapseKeys returns a copy of n with every short-node key converted from
// hex nibbles to compact encoding, ready for RLP serialization. Children
// that are hash references or values pass through unchanged.
func collapseKeys(n node) node {
	switch n := n.(type) {
	case *shortNode:
		c := n.copy()
		c.Key = hexToCompact(n.Key)
		c.Val = collapseKeys(n.Val)
		return c
	case *fullNode:
		c := n.copy()
		for i := 0; i < 16; i++ {
			if n.Children[i] != nil {
				c.Children[i] = collapseKeys(n.Children[i])
			}
		}
		return c
	default:
		return n
	}
}
