package mempool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// txStore owns every admitted transaction exactly once. Transactions live in
// the ledger of their sender, keyed by sequence slot; a hash index maps
// payload hashes back to slots.
type txStore struct {
	accounts map[common.Address]*accountLedger
	byHash   map[common.Hash]TxKey

	count int
	bytes uint64
}

func newTxStore() *txStore {
	return &txStore{
		accounts: make(map[common.Address]*accountLedger),
		byHash:   make(map[common.Hash]TxKey),
	}
}

func (s *txStore) ledger(addr common.Address) *accountLedger {
	return s.accounts[addr]
}

func (s *txStore) addLedger(addr common.Address, l *accountLedger) {
	s.accounts[addr] = l
}

// dropIfEmpty destroys the ledger of the account once its last slot is gone.
func (s *txStore) dropIfEmpty(addr common.Address) bool {
	if l, ok := s.accounts[addr]; ok && l.empty() {
		delete(s.accounts, addr)
		return true
	}
	return false
}

func (s *txStore) get(key TxKey) *Transaction {
	l := s.accounts[key.Sender]
	if l == nil {
		return nil
	}
	return l.get(key.Sequence)
}

func (s *txStore) getByHash(hash common.Hash) *Transaction {
	key, ok := s.byHash[hash]
	if !ok {
		return nil
	}
	return s.get(key)
}

// checkReplace decides whether tx may take its slot in the given ledger. It
// returns the current occupant (if any) and whether tx is a byte-identical
// resubmission of it.
func (s *txStore) checkReplace(l *accountLedger, tx *Transaction) (old *Transaction, duplicate bool, err error) {
	old = l.get(tx.Sequence)
	if old == nil {
		return nil, false, nil
	}
	if old.sameAs(tx) {
		return old, true, nil
	}
	if tx.RankingScore <= old.RankingScore {
		return old, false, errors.WithMessagef(ErrInvalidUpdate,
			"slot %s holds score %d, got %d", tx.Key(), old.RankingScore, tx.RankingScore)
	}
	return old, false, nil
}

// insert puts tx into its (free) slot.
func (s *txStore) insert(l *accountLedger, tx *Transaction) {
	l.put(tx)
	s.byHash[tx.hash] = tx.Key()
	s.count++
	s.bytes += tx.size
}

// remove deletes the transaction from its slot and the hash index. The
// ledger is kept even when it becomes empty.
func (s *txStore) remove(tx *Transaction) bool {
	l := s.accounts[tx.Sender]
	if l == nil || l.get(tx.Sequence) != tx {
		return false
	}
	l.remove(tx.Sequence)
	if key, ok := s.byHash[tx.hash]; ok && key == tx.Key() {
		delete(s.byHash, tx.hash)
	}
	s.count--
	s.bytes -= tx.size
	return true
}
