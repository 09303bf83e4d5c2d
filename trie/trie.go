// Package trie implements the Ethereum Merkle-Patricia trie over keccak256,
// including the sparse form used for stateless verification: a trie
// reconstructed from RPC proof nodes, where unvisited subtrees exist only as
// hash references. Mutations that need such a subtree report the missing node
// so the caller can hydrate it from a supplementary proof.
package trie

import (
	"errors"
	"fmt"

	"github.com/steleth/steleth/core/types"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("trie: key not found")

// emptyRoot is the root hash of an empty trie, keccak256(rlp("")).
var emptyRoot = types.EmptyRootHash

// MissingNodeError is returned when a trie operation reaches a node that is
// referenced by hash but whose preimage was never hydrated. It identifies
// the node and the nibble path at which it was needed.
type MissingNodeError struct {
	NodeHash types.Hash
	Path     []byte // hex nibbles from the root to the missing node
}

func (e *MissingNodeError) Error() string {
	return fmt.Sprintf("trie: missing node %s at path %x", e.NodeHash.Hex(), e.Path)
}

// Trie is an in-memory Merkle-Patricia trie. The zero value is not usable;
// create instances with New or FromRoot.
//
// A trie built by FromRoot plus HydrateFromRLP is sparse: reads and writes
// succeed only along hydrated paths and return *MissingNodeError elsewhere.
// Tries are not safe for concurrent use.
type Trie struct {
	root node

	// nodes indexes hydrated proof nodes by their keccak256 hash. Hash
	// references encountered during traversal resolve against this index.
	nodes map[types.Hash][]byte
}

// New creates an empty trie.
func New() *Trie {
	return &Trie{nodes: make(map[types.Hash][]byte)}
}

// FromRoot creates a sparse trie anchored at the given root hash. The zero
// hash and the empty-trie root both produce an empty trie; any other root
// needs its nodes supplied through HydrateFromRLP before use.
func FromRoot(root types.Hash) *Trie {
	t := New()
	if !root.IsZero() && root != emptyRoot {
		t.root = hashNode(root.Bytes())
	}
	return t
}

// Hash computes the root hash. All dirty nodes are hashed and their hashes
// cached, so repeated calls without mutation are cheap.
func (t *Trie) Hash() types.Hash {
	if t.root == nil {
		return emptyRoot
	}
	hashed, cached := newHasher().hash(t.root, true)
	t.root = cached
	return types.BytesToHash(hashed.(hashNode))
}

// Get returns the value stored under key. It returns ErrNotFound for absent
// keys and *MissingNodeError when the lookup path leaves the hydrated part
// of a sparse trie.
func (t *Trie) Get(key []byte) ([]byte, error) {
	return t.get(t.root, keybytesToHex(key), nil)
}

func (t *Trie) get(n node, key, prefix []byte) ([]byte, error) {
	switch n := n.(type) {
	case nil:
		return nil, ErrNotFound
	case valueNode:
		return n, nil
	case *shortNode:
		if len(key) < len(n.Key) || !keysEqual(n.Key, key[:len(n.Key)]) {
			return nil, ErrNotFound
		}
		return t.get(n.Val, key[len(n.Key):], append(prefix, n.Key...))
	case *fullNode:
		if len(key) == 0 {
			return nil, ErrNotFound
		}
		return t.get(n.Children[key[0]], key[1:], append(prefix, key[0]))
	case hashNode:
		child, err := t.resolve(n, prefix)
		if err != nil {
			return nil, err
		}
		return t.get(child, key, prefix)
	default:
		panic(fmt.Sprintf("trie: unknown node type %T", n))
	}
}

// Put stores value under key, replacing any existing value. A nil or empty
// value deletes the key. The trie is left unchanged when an error is
// returned.
func (t *Trie) Put(key, value []byte) error {
	if len(value) == 0 {
		return t.Delete(key)
	}
	root, err := t.insert(t.root, nil, keybytesToHex(key), valueNode(value))
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

func (t *Trie) insert(n node, prefix, key []byte, value node) (node, error) {
	if len(key) == 0 {
		return value, nil
	}
	switch n := n.(type) {
	case nil:
		return &shortNode{Key: key, Val: value, flags: nodeFlag{dirty: true}}, nil

	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		// Full key-prefix match: descend into the existing node.
		if matchlen == len(n.Key) {
			child, err := t.insert(n.Val, append(prefix, key[:matchlen]...), key[matchlen:], value)
			if err != nil {
				return nil, err
			}
			return &shortNode{Key: n.Key, Val: child, flags: nodeFlag{dirty: true}}, nil
		}
		// Paths diverge: split into a branch at the divergence point.
		branch := &fullNode{flags: nodeFlag{dirty: true}}
		var err error
		branch.Children[n.Key[matchlen]], err = t.insert(nil, append(prefix, n.Key[:matchlen+1]...), n.Key[matchlen+1:], n.Val)
		if err != nil {
			return nil, err
		}
		branch.Children[key[matchlen]], err = t.insert(nil, append(prefix, key[:matchlen+1]...), key[matchlen+1:], value)
		if err != nil {
			return nil, err
		}
		if matchlen == 0 {
			return branch, nil
		}
		return &shortNode{Key: key[:matchlen], Val: branch, flags: nodeFlag{dirty: true}}, nil

	case *fullNode:
		child, err := t.insert(n.Children[key[0]], append(prefix, key[0]), key[1:], value)
		if err != nil {
			return nil, err
		}
		n = n.copy()
		n.flags = nodeFlag{dirty: true}
		n.Children[key[0]] = child
		return n, nil

	case hashNode:
		resolved, err := t.resolve(n, prefix)
		if err != nil {
			return nil, err
		}
		return t.insert(resolved, prefix, key, value)

	default:
		panic(fmt.Sprintf("trie: unknown node type %T", n))
	}
}

// Delete removes the value stored under key. Deleting an absent key is a
// no-op. The trie is left unchanged when an error is returned; in a sparse
// trie a deletion that collapses a branch may need a sibling that exists
// only as a hash, which surfaces as *MissingNodeError (see ResolveOrphan).
func (t *Trie) Delete(key []byte) error {
	_, root, err := t.delete(t.root, nil, keybytesToHex(key))
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

// delete returns whether the key was found, plus the replacement node. Nodes
// are copied on write, so an error leaves the original structure intact.
func (t *Trie) delete(n node, prefix, key []byte) (bool, node, error) {
	switch n := n.(type) {
	case nil:
		return false, nil, nil

	case valueNode:
		return true, nil, nil

	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen < len(n.Key) {
			return false, n, nil
		}
		if matchlen == len(key) {
			// The key terminates here; the whole leaf goes away.
			return true, nil, nil
		}
		found, child, err := t.delete(n.Val, append(prefix, n.Key...), key[len(n.Key):])
		if err != nil {
			return false, nil, err
		}
		if !found {
			return false, n, nil
		}
		if child, ok := child.(*shortNode); ok {
			// The child collapsed into a short node; merge the key
			// segments so no extension points at an extension.
			return true, &shortNode{
				Key:   concat(n.Key, child.Key...),
				Val:   child.Val,
				flags: nodeFlag{dirty: true},
			}, nil
		}
		return true, &shortNode{Key: n.Key, Val: child, flags: nodeFlag{dirty: true}}, nil

	case *fullNode:
		if len(key) == 0 {
			return false, n, nil
		}
		found, child, err := t.delete(n.Children[key[0]], append(prefix, key[0]), key[1:])
		if err != nil {
			return false, nil, err
		}
		if !found {
			return false, n, nil
		}
		n = n.copy()
		n.flags = nodeFlag{dirty: true}
		n.Children[key[0]] = child

		// If the branch is left with a single child, it collapses into a
		// short node. pos is that child's index, -2 while two or more
		// remain.
		pos := -1
		for i, cld := range &n.Children {
			if cld == nil {
				continue
			}
			if pos == -1 {
				pos = i
			} else {
				pos = -2
				break
			}
		}
		switch {
		case pos >= 0 && pos != 16:
			// The surviving child absorbs the branch. It must be a real
			// node to merge key segments, so a hash-only sibling has to
			// be resolved here; in a sparse trie this is the orphan case.
			cnode := n.Children[pos]
			if hn, ok := cnode.(hashNode); ok {
				cnode, err = t.resolve(hn, append(prefix, byte(pos)))
				if err != nil {
					return false, nil, err
				}
			}
			if cnode, ok := cnode.(*shortNode); ok {
				return true, &shortNode{
					Key:   concat([]byte{byte(pos)}, cnode.Key...),
					Val:   cnode.Val,
					flags: nodeFlag{dirty: true},
				}, nil
			}
			return true, &shortNode{
				Key:   []byte{byte(pos)},
				Val:   cnode,
				flags: nodeFlag{dirty: true},
			}, nil
		case pos == 16:
			return true, &shortNode{
				Key:   []byte{16},
				Val:   n.Children[16],
				flags: nodeFlag{dirty: true},
			}, nil
		default:
			return true, n, nil
		}

	case hashNode:
		resolved, err := t.resolve(n, prefix)
		if err != nil {
			return false, nil, err
		}
		return t.delete(resolved, prefix, key)

	default:
		panic(fmt.Sprintf("trie: unknown node type %T", n))
	}
}

// resolve loads the node referenced by hash from the hydrated index.
func (t *Trie) resolve(n hashNode, prefix []byte) (node, error) {
	hash := types.BytesToHash(n)
	if enc, ok := t.nodes[hash]; ok {
		return decodeNode(hashNode(hash.Bytes()), enc)
	}
	return nil, &MissingNodeError{NodeHash: hash, Path: copyBytes(prefix)}
}

// keysEqual compares two nibble slices.
func keysEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// concat returns a fresh slice holding a followed by b.
func concat(a []byte, b ...byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
