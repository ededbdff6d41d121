package mempool

import (
	"github.com/google/btree"
)

type parkedEntry struct {
	insertID uint64
	key      TxKey
}

func parkedLess(a, b parkedEntry) bool { return a.insertID < b.insertID }

// parkingLot tracks blocked transactions in admission order. It is the only
// source of capacity eviction: when a ready transaction needs room, the
// oldest parked transactions go first.
type parkingLot struct {
	tree  *btree.BTreeG[parkedEntry]
	bytes uint64
}

func newParkingLot() *parkingLot {
	return &parkingLot{tree: btree.NewG(indexDegree, parkedLess)}
}

func (p *parkingLot) insert(tx *Transaction) {
	if _, replaced := p.tree.ReplaceOrInsert(parkedEntry{insertID: tx.insertID, key: tx.Key()}); !replaced {
		p.bytes += tx.size
	}
}

func (p *parkingLot) remove(tx *Transaction) {
	if _, ok := p.tree.Delete(parkedEntry{insertID: tx.insertID}); ok {
		p.bytes -= tx.size
	}
}

func (p *parkingLot) contains(tx *Transaction) bool {
	return p.tree.Has(parkedEntry{insertID: tx.insertID})
}

func (p *parkingLot) len() int { return p.tree.Len() }

// oldest walks parked transactions from the oldest admission on.
func (p *parkingLot) oldest(fn func(key TxKey) bool) {
	p.tree.Ascend(func(e parkedEntry) bool {
		return fn(e.key)
	})
}
