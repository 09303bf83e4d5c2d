package trie

import "fmt"

// node is the interface implemented by the four Merkle-Patricia node kinds.
//
// A trie in this package is generally sparse: it is reconstructed from proof
// nodes, so any subtree may be present only as a hashNode reference whose
// preimage was never supplied. Traversal resolves such references against the
// hydrated node index and surfaces a MissingNodeError when the preimage is
// unknown.
type node interface {
	cache() (hashNode, bool)
	fstring(string) string
}

// fullNode is a branch with one child per nibble plus a value slot at
// index 16.
type fullNode struct {
	Children [17]node
	flags    nodeFlag
}

// shortNode is a leaf or extension: Key holds hex nibbles (with terminator
// for a leaf), Val is the value or the single child.
type shortNode struct {
	Key   []byte
	Val   node
	flags nodeFlag
}

// hashNode is a 32-byte reference to a node stored elsewhere.
type hashNode []byte

// valueNode holds raw leaf bytes.
type valueNode []byte

// nodeFlag caches the computed hash of a node and tracks whether the node
// has been modified since it was last hashed.
type nodeFlag struct {
	hash  hashNode
	dirty bool
}

func (n *fullNode) cache() (hashNode, bool)  { return n.flags.hash, n.flags.dirty }
func (n *shortNode) cache() (hashNode, bool) { return n.flags.hash, n.flags.dirty }
func (n hashNode) cache() (hashNode, bool)   { return nil, true }
func (n valueNode) cache() (hashNode, bool)  { return nil, true }

// copy returns a shallow copy; the children array copies by value.
func (n *fullNode) copy() *fullNode {
	c := *n
	return &c
}

func (n *shortNode) copy() *shortNode {
	c := *n
	return &c
}

func (n *fullNode) fstring(ind string) string {
	resp := fmt.Sprintf("[\n%s  ", ind)
	for i, child := range &n.Children {
		if child == nil {
			continue
		}
		resp += fmt.Sprintf("%x: %v", i, child.fstring(ind+"  "))
	}
	return resp + fmt.Sprintf("\n%s] ", ind)
}

func (n *shortNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: %v} ", n.Key, n.Val.fstring(ind+"  "))
}

func (n hashNode) fstring(ind string) string {
	return fmt.Sprintf("<%x> ", []byte(n))
}

func (n valueNode) fstring(ind string) string {
	return fmt.Sprintf("%x ", []byte(n))
}
