// Package stateless hydrates sparse state and storage tries from
// eth_getProof responses and reconciles them against post-execution proofs.
// The hydrated witness is what a guest program re-executes a block against;
// everything the execution did not touch stays behind bare hash references.
package stateless

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/steleth/steleth/core/types"
	"github.com/steleth/steleth/crypto"
	"github.com/steleth/steleth/log"
	"github.com/steleth/steleth/rlp"
	"github.com/steleth/steleth/trie"
)

var (
	// ErrAccountMismatch is returned when the hydrated trie disagrees with
	// the account fields reported alongside the proof.
	ErrAccountMismatch = errors.New("stateless: hydrated account does not match proof fields")

	// ErrStorageMismatch is the storage-slot flavor of ErrAccountMismatch.
	ErrStorageMismatch = errors.New("stateless: hydrated slot does not match proof value")

	// ErrUnknownAccount is returned when storage operations reference an
	// address whose account proof has not been hydrated.
	ErrUnknownAccount = errors.New("stateless: account not hydrated")
)

// AccountProof is one entry of an eth_getProof response (EIP-1186): the
// account fields at the queried block, the Merkle path from the state root
// to the account leaf (or an exclusion path for absent accounts), and proofs
// for the requested storage slots.
type AccountProof struct {
	Address      types.Address
	Nonce        uint64
	Balance      *uint256.Int
	CodeHash     types.Hash
	StorageHash  types.Hash
	AccountProof [][]byte
	StorageProof []StorageProof
}

// StorageProof proves the value of a single storage slot.
type StorageProof struct {
	Key   types.Hash
	Value *uint256.Int
	Proof [][]byte
}

// Witness is the sparse pre-state a block executes against: the state trie
// plus one storage trie per hydrated account, all anchored to fixed roots.
type Witness struct {
	stateRoot types.Hash
	state     *trie.Trie
	storage   map[types.Address]*trie.Trie
	pending   []pendingOrphan
	logger    *log.Logger
}

// NewWitness creates an empty witness anchored to the given state root.
func NewWitness(stateRoot types.Hash) *Witness {
	return &Witness{
		stateRoot: stateRoot,
		state:     trie.FromRoot(stateRoot),
		storage:   make(map[types.Address]*trie.Trie),
		logger:    log.Default().Module("stateless"),
	}
}

// StateTrie returns the hydrated state trie.
func (w *Witness) StateTrie() *trie.Trie { return w.state }

// StorageTrie returns the hydrated storage trie for addr, or nil if the
// account has not been hydrated.
func (w *Witness) StorageTrie(addr types.Address) *trie.Trie { return w.storage[addr] }

// Root returns the current state trie root.
func (w *Witness) Root() types.Hash { return w.state.Hash() }

// HydrateAccount links an account proof into the state trie and anchors the
// account's storage trie, hydrating any storage proofs carried alongside.
// For an existing account the hydrated leaf is cross-checked against the
// proof's account fields; an exclusion proof just extends the hydrated
// region.
func (w *Witness) HydrateAccount(p *AccountProof) error {
	if err := w.state.HydrateFromRLP(p.AccountProof); err != nil {
		return err
	}

	addrHash := crypto.Keccak256(p.Address[:])
	got, err := w.state.Get(addrHash)
	switch {
	case err == nil:
		want := encodeAccount(p)
		if !bytes.Equal(got, want) {
			return fmt.Errorf("%w: %s", ErrAccountMismatch, p.Address)
		}
	case err == trie.ErrNotFound:
		// Absent account; the proof nodes prove the exclusion.
	default:
		return err
	}

	if _, ok := w.storage[p.Address]; !ok {
		w.storage[p.Address] = trie.FromRoot(p.StorageHash)
	}
	if len(p.StorageProof) > 0 {
		return w.HydrateStorage(p.Address, p.StorageProof)
	}
	return nil
}

// HydrateStorage links storage slot proofs into addr's storage trie. The
// account must have been hydrated first so the trie is anchored to the right
// storage root.
func (w *Witness) HydrateStorage(addr types.Address, proofs []StorageProof) error {
	st, ok := w.storage[addr]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, addr)
	}
	for i := range proofs {
		p := &proofs[i]
		if err := st.HydrateFromRLP(p.Proof); err != nil {
			return err
		}
		slotHash := crypto.Keccak256(p.Key[:])
		got, err := st.Get(slotHash)
		switch {
		case err == nil:
			want, _ := rlp.EncodeToBytes(p.Value)
			if !bytes.Equal(got, want) {
				return fmt.Errorf("%w: %s slot %s", ErrStorageMismatch, addr, p.Key)
			}
		case err == trie.ErrNotFound:
			if p.Value != nil && !p.Value.IsZero() {
				return fmt.Errorf("%w: %s slot %s absent but value nonzero", ErrStorageMismatch, addr, p.Key)
			}
		default:
			return err
		}
	}
	return nil
}

// encodeAccount renders the consensus RLP of the account described by an
// eth_getProof entry: [nonce, balance, storageRoot, codeHash]. Built with
// the append fast path since every hydrated proof re-encodes its leaf.
func encodeAccount(p *AccountProof) []byte {
	balance := p.Balance
	if balance == nil {
		balance = new(uint256.Int)
	}
	payload := rlp.AppendUint64(nil, p.Nonce)
	payload = rlp.AppendBytes(payload, balance.Bytes())
	payload = rlp.AppendBytes(payload, p.StorageHash[:])
	payload = rlp.AppendBytes(payload, p.CodeHash[:])
	return rlp.WrapList(payload)
}
