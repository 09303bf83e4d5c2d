package stateless

import (
	"errors"

	"github.com/steleth/steleth/core/types"
	"github.com/steleth/steleth/crypto"
	"github.com/steleth/steleth/trie"
)

// Unresolved identifies a nibble prefix that blocked post-state
// reconciliation. The caller fetches a range proof covering the prefix and
// feeds it back through SupplementRange.
type Unresolved struct {
	Address types.Address
	Storage bool // true: Address's storage trie; false: the state trie
	Prefix  []byte
}

// pendingOrphan is a deletion blocked on an unresolved prefix, retried when
// a range proof arrives.
type pendingOrphan struct {
	addr    types.Address
	storage bool
	key     []byte
	proof   [][]byte
}

// ReconcilePostState applies post-execution proofs to the witness. Accounts
// and slots absent from the post state are deleted, resolving orphaned
// siblings from the post-removal proofs; present entries just extend the
// hydrated region. Deletions blocked on subtrees the proofs do not cover
// are reported as Unresolved prefixes and kept pending for SupplementRange.
func (w *Witness) ReconcilePostState(proofs []*AccountProof) ([]Unresolved, error) {
	var unresolved []Unresolved
	for _, p := range proofs {
		u, err := w.reconcileAccount(p)
		if err != nil {
			return unresolved, err
		}
		unresolved = append(unresolved, u...)
	}
	return unresolved, nil
}

func (w *Witness) reconcileAccount(p *AccountProof) ([]Unresolved, error) {
	var unresolved []Unresolved
	addrHash := crypto.Keccak256(p.Address[:])

	if accountAbsent(p) {
		err := w.state.ResolveOrphan(addrHash, p.AccountProof)
		var unres *trie.UnresolvableError
		switch {
		case err == nil:
		case errors.As(err, &unres):
			w.logger.Warn("state orphan unresolved", "address", p.Address, "prefix", unres.Prefix)
			unresolved = append(unresolved, Unresolved{Address: p.Address, Prefix: unres.Prefix})
			w.pending = append(w.pending, pendingOrphan{
				addr:  p.Address,
				key:   addrHash,
				proof: p.AccountProof,
			})
		default:
			return nil, err
		}
	} else if err := w.state.HydrateFromRLP(p.AccountProof); err != nil {
		return nil, err
	}

	if len(p.StorageProof) == 0 {
		return unresolved, nil
	}
	st, ok := w.storage[p.Address]
	if !ok {
		st = trie.FromRoot(p.StorageHash)
		w.storage[p.Address] = st
	}
	for i := range p.StorageProof {
		sp := &p.StorageProof[i]
		slotHash := crypto.Keccak256(sp.Key[:])
		if sp.Value != nil && !sp.Value.IsZero() {
			if err := st.HydrateFromRLP(sp.Proof); err != nil {
				return nil, err
			}
			continue
		}
		err := st.ResolveOrphan(slotHash, sp.Proof)
		var unres *trie.UnresolvableError
		switch {
		case err == nil:
		case errors.As(err, &unres):
			w.logger.Warn("storage orphan unresolved",
				"address", p.Address, "slot", sp.Key, "prefix", unres.Prefix)
			unresolved = append(unresolved, Unresolved{
				Address: p.Address,
				Storage: true,
				Prefix:  unres.Prefix,
			})
			w.pending = append(w.pending, pendingOrphan{
				addr:    p.Address,
				storage: true,
				key:     slotHash,
				proof:   sp.Proof,
			})
		default:
			return nil, err
		}
	}
	return unresolved, nil
}

// SupplementRange injects range-proof nodes covering an unresolved prefix
// into the trie it names and retries the deletions blocked on that trie.
// Deletions still blocked afterwards are returned, staying pending.
func (w *Witness) SupplementRange(u Unresolved, nodes [][]byte) ([]Unresolved, error) {
	target := w.state
	if u.Storage {
		var ok bool
		if target, ok = w.storage[u.Address]; !ok {
			return nil, ErrUnknownAccount
		}
	}
	if err := w.HydrateRange(target, nodes); err != nil {
		return nil, err
	}

	var still []Unresolved
	var keep []pendingOrphan
	for _, po := range w.pending {
		if po.storage != u.Storage || (u.Storage && po.addr != u.Address) {
			keep = append(keep, po)
			continue
		}
		tr := w.state
		if po.storage {
			tr = w.storage[po.addr]
		}
		err := tr.ResolveOrphan(po.key, po.proof)
		var unres *trie.UnresolvableError
		switch {
		case err == nil:
		case errors.As(err, &unres):
			still = append(still, Unresolved{Address: po.addr, Storage: po.storage, Prefix: unres.Prefix})
			keep = append(keep, po)
		default:
			return nil, err
		}
	}
	w.pending = keep
	return still, nil
}

// HydrateRange adds range-proof nodes to an arbitrary trie of the witness.
func (w *Witness) HydrateRange(t *trie.Trie, nodes [][]byte) error {
	return t.HydrateFromRLP(nodes)
}

// accountAbsent reports whether a proof describes an account missing from
// the trie. eth_getProof encodes absence as all-zero account fields; an
// empty account (zero nonce and balance, no code, no storage) hashes to the
// same outcome after EIP-161, so both spellings count.
func accountAbsent(p *AccountProof) bool {
	if p.Nonce != 0 || (p.Balance != nil && !p.Balance.IsZero()) {
		return false
	}
	codeEmpty := p.CodeHash.IsZero() || p.CodeHash == types.EmptyCodeHash
	rootEmpty := p.StorageHash.IsZero() || p.StorageHash == types.EmptyRootHash
	return codeEmpty && rootEmpty
}
