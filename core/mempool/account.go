package mempool

import (
	"github.com/google/btree"
)

// accountLedger is the sequence-ordered set of transactions belonging to one
// account, together with the account's committed sequencing state.
//
// The same type serves both sequencing modes; only readiness differs:
//   - strict: a transaction is ready iff every sequence number from the
//     baseline up to its own is occupied.
//   - window: a transaction is ready iff its nonce lies in
//     [baseline, baseline+windowSize).
type accountLedger struct {
	state AccountState
	slots *btree.BTreeG[*Transaction]
}

func bySequence(a, b *Transaction) bool { return a.Sequence < b.Sequence }

// newAccountLedger creates an empty ledger for the given committed state.
func newAccountLedger(state AccountState) *accountLedger {
	return &accountLedger{
		state: state,
		slots: btree.NewG(8, bySequence),
	}
}

// get retrieves the transaction occupying the given slot, if any.
func (l *accountLedger) get(seq uint64) *Transaction {
	tx, _ := l.slots.Get(&Transaction{Sequence: seq})
	return tx
}

// put stores the transaction in its slot, returning the one it overwrote.
func (l *accountLedger) put(tx *Transaction) *Transaction {
	old, _ := l.slots.ReplaceOrInsert(tx)
	return old
}

// remove deletes the given slot, returning the removed transaction.
func (l *accountLedger) remove(seq uint64) *Transaction {
	tx, _ := l.slots.Delete(&Transaction{Sequence: seq})
	return tx
}

func (l *accountLedger) len() int    { return l.slots.Len() }
func (l *accountLedger) empty() bool { return l.slots.Len() == 0 }

// tooOld reports whether the slot is below the committed baseline.
func (l *accountLedger) tooOld(seq uint64) bool {
	return seq < l.state.Baseline
}

// inWindow reports whether the nonce is within the account's current window.
func (l *accountLedger) inWindow(nonce uint64) bool {
	return nonce >= l.state.Baseline && nonce-l.state.Baseline < l.state.WindowSize
}

// wouldBeReady reports whether a transaction inserted into the given (free)
// slot would be ready right after insertion.
func (l *accountLedger) wouldBeReady(seq uint64) bool {
	if l.tooOld(seq) {
		return false
	}
	switch l.state.Mode {
	case SequenceWindow:
		return l.inWindow(seq)
	default:
		if seq == l.state.Baseline {
			return true
		}
		prev := l.get(seq - 1)
		return prev != nil && prev.ready
	}
}

// setBaseline raises the committed baseline to the given value and returns
// every transaction that now falls below it. The returned transactions are
// still stored in the ledger; the caller is responsible for removing them.
func (l *accountLedger) setBaseline(baseline uint64) Transactions {
	if baseline > l.state.Baseline {
		l.state.Baseline = baseline
	}
	var stale Transactions
	l.slots.AscendLessThan(&Transaction{Sequence: l.state.Baseline}, func(tx *Transaction) bool {
		stale = append(stale, tx)
		return true
	})
	return stale
}

// scan walks the ledger in sequence order and reports the readiness every
// transaction should have given the current slots and baseline.
func (l *accountLedger) scan(fn func(tx *Transaction, ready bool)) {
	switch l.state.Mode {
	case SequenceWindow:
		l.slots.Ascend(func(tx *Transaction) bool {
			fn(tx, l.inWindow(tx.Sequence))
			return true
		})
	default:
		next, gapped := l.state.Baseline, false
		l.slots.Ascend(func(tx *Transaction) bool {
			if !gapped && tx.Sequence == next {
				next++
				fn(tx, true)
				return true
			}
			gapped = true
			fn(tx, false)
			return true
		})
	}
}

// flatten returns the transactions of the account sorted by sequence.
func (l *accountLedger) flatten() Transactions {
	txs := make(Transactions, 0, l.slots.Len())
	l.slots.Ascend(func(tx *Transaction) bool {
		txs = append(txs, tx)
		return true
	})
	return txs
}
