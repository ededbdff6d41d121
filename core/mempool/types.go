package mempool

import (
	"bytes"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// SequenceMode is the sequencing scheme of an account. It is fixed when the
// account is first seen by the pool.
type SequenceMode uint8

// Constants for SequenceMode.
const (
	// SequenceStrict requires transactions to be executed in strictly
	// increasing, gap-free sequence number order.
	SequenceStrict SequenceMode = iota
	// SequenceWindow accepts any unused nonce inside a sliding window
	// [MinNonce, MinNonce+WindowSize).
	SequenceWindow
)

func (m SequenceMode) String() string {
	switch m {
	case SequenceStrict:
		return "strict"
	case SequenceWindow:
		return "window"
	}
	return fmt.Sprintf("SequenceMode(%d)", uint8(m))
}

// AccountState is the committed sequencing state of an account as known by
// the durable state store.
type AccountState struct {
	Mode SequenceMode
	// Baseline is the next executable sequence number for strict accounts and
	// the window floor (min nonce) for window accounts.
	Baseline uint64
	// WindowSize is the width of the nonce window. Ignored for strict accounts.
	WindowSize uint64
}

// StateResolver resolves the committed sequencing state of an account. It is
// consulted lazily, the first time the pool sees an account, and must not
// block on slow I/O since it runs inside the pool's critical section.
type StateResolver interface {
	ResolveAccountState(addr common.Address) (AccountState, error)
}

// StateResolverFunc adapts a function to the StateResolver interface.
type StateResolverFunc func(addr common.Address) (AccountState, error)

// ResolveAccountState implements StateResolver.
func (f StateResolverFunc) ResolveAccountState(addr common.Address) (AccountState, error) {
	return f(addr)
}

// TxKey uniquely identifies a sequence slot in the pool.
type TxKey struct {
	Sender   common.Address
	Sequence uint64
}

func (k TxKey) String() string {
	return fmt.Sprintf("%s/%d", k.Sender.Hex(), k.Sequence)
}

// less orders keys by sequence first, then account.
func (k TxKey) less(o TxKey) bool {
	if k.Sequence != o.Sequence {
		return k.Sequence < o.Sequence
	}
	return bytes.Compare(k.Sender[:], o.Sender[:]) < 0
}

// Readiness is the eligibility of an admitted transaction.
type Readiness uint8

// Constants for Readiness.
const (
	Blocked Readiness = iota
	Ready
	// NonQualified transactions are eligible for block inclusion but are
	// never placed on the broadcast timeline.
	NonQualified
)

func (r Readiness) String() string {
	switch r {
	case Blocked:
		return "blocked"
	case Ready:
		return "ready"
	case NonQualified:
		return "non-qualified"
	}
	return fmt.Sprintf("Readiness(%d)", uint8(r))
}

// TxStatus is the current status of a transaction as seen by the pool.
type TxStatus uint

// Constants for TxStatus.
const (
	TxStatusUnknown TxStatus = iota
	TxStatusBlocked
	TxStatusReady
)

// Transaction is a validated, signed transaction waiting in the pool.
//
// Callers fill in the exported fields; the pool admits a private copy and
// stamps the rest on it. Transactions returned by queries and events are
// snapshots taken at the time of the call.
type Transaction struct {
	Sender       common.Address
	Sequence     uint64    // sequence number or nonce, depending on the account mode
	Payload      []byte    // signed, serialized transaction
	RankingScore uint64    // fee / gas price used for ordering
	Expiration   time.Time // transaction-declared expiration
	NonQualified bool      // never broadcast on the timeline

	hash       common.Hash
	size       uint64
	insertedAt time.Time
	insertID   uint64 // admission order, unique per pool
	ready      bool
	timeline   uint64 // timeline position + 1, zero if not on the timeline
}

// adopt returns the pool-owned copy of a submitted transaction. Only the
// exported fields are taken over and the payload is copied.
func (tx *Transaction) adopt() *Transaction {
	return &Transaction{
		Sender:       tx.Sender,
		Sequence:     tx.Sequence,
		Payload:      common.CopyBytes(tx.Payload),
		RankingScore: tx.RankingScore,
		Expiration:   tx.Expiration,
		NonQualified: tx.NonQualified,
	}
}

// snapshot copies a pool-owned transaction. The caller must hold the pool
// lock.
func (tx *Transaction) snapshot() *Transaction {
	cpy := *tx
	return &cpy
}

// Key returns the sequence slot of the transaction.
func (tx *Transaction) Key() TxKey {
	return TxKey{Sender: tx.Sender, Sequence: tx.Sequence}
}

// Hash returns the keccak256 hash of the payload.
func (tx *Transaction) Hash() common.Hash {
	if tx.hash == (common.Hash{}) {
		tx.hash = crypto.Keccak256Hash(tx.Payload)
	}
	return tx.hash
}

// Size returns the payload size in bytes captured at admission.
func (tx *Transaction) Size() uint64 {
	if tx.size == 0 {
		return uint64(len(tx.Payload))
	}
	return tx.size
}

// InsertedAt returns the admission time.
func (tx *Transaction) InsertedAt() time.Time {
	return tx.insertedAt
}

// Readiness returns the current readiness of the transaction.
func (tx *Transaction) Readiness() Readiness {
	switch {
	case !tx.ready:
		return Blocked
	case tx.NonQualified:
		return NonQualified
	default:
		return Ready
	}
}

// TimelinePosition returns the broadcast position of the transaction, if any.
func (tx *Transaction) TimelinePosition() (uint64, bool) {
	if tx.timeline == 0 {
		return 0, false
	}
	return tx.timeline - 1, true
}

// Validate checks the fields the pool relies on.
func (tx *Transaction) Validate() error {
	if tx == nil {
		return errors.WithMessage(ErrInvalidTransaction, "nil transaction")
	}
	if len(tx.Payload) == 0 {
		return errors.WithMessagef(ErrInvalidTransaction, "empty payload for %s", tx.Key())
	}
	if tx.Expiration.IsZero() {
		return errors.WithMessagef(ErrInvalidTransaction, "missing expiration for %s", tx.Key())
	}
	return nil
}

// sameAs reports whether two transactions carry byte-identical payloads.
func (tx *Transaction) sameAs(o *Transaction) bool {
	return bytes.Equal(tx.Payload, o.Payload)
}

// Transactions is a Transaction slice type for basic sorting.
type Transactions []*Transaction

// Len returns the length of s.
func (s Transactions) Len() int { return len(s) }

// Hashes returns the hashes of all transactions in s.
func (s Transactions) Hashes() []common.Hash {
	hashes := make([]common.Hash, len(s))
	for i, tx := range s {
		hashes[i] = tx.Hash()
	}
	return hashes
}

// TxBySequence implements sort.Interface on a single account's transactions.
type TxBySequence Transactions

func (s TxBySequence) Len() int           { return len(s) }
func (s TxBySequence) Less(i, j int) bool { return s[i].Sequence < s[j].Sequence }
func (s TxBySequence) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
