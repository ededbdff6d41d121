package mempool

import (
	"time"

	"github.com/google/btree"
)

const indexDegree = 32

// priorityEntry orders ready transactions for block production.
type priorityEntry struct {
	score      uint64
	expiration time.Time
	key        TxKey
}

// Higher score first, then earlier expiration, then lower sequence, then
// account bytes. The order is total since keys are unique.
func priorityLess(a, b priorityEntry) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if !a.expiration.Equal(b.expiration) {
		return a.expiration.Before(b.expiration)
	}
	return a.key.less(b.key)
}

// timelineEntry orders qualified ready transactions by broadcast position.
type timelineEntry struct {
	pos uint64
	key TxKey
}

func timelineLess(a, b timelineEntry) bool { return a.pos < b.pos }

// expirationEntry orders every transaction by its declared expiration.
// Index keys hold wall-clock times with the monotonic reading stripped.
type expirationEntry struct {
	expiration time.Time
	key        TxKey
}

func expirationLess(a, b expirationEntry) bool {
	if !a.expiration.Equal(b.expiration) {
		return a.expiration.Before(b.expiration)
	}
	return a.key.less(b.key)
}

// ageEntry orders every transaction by admission time.
type ageEntry struct {
	insertedAt time.Time
	insertID   uint64
	key        TxKey
}

func ageLess(a, b ageEntry) bool {
	if !a.insertedAt.Equal(b.insertedAt) {
		return a.insertedAt.Before(b.insertedAt)
	}
	return a.insertID < b.insertID
}

// txIndices holds the secondary orderings over the store. Entries carry the
// ordering key and the slot key only; records are resolved through the store.
type txIndices struct {
	priority   *btree.BTreeG[priorityEntry]
	timeline   *btree.BTreeG[timelineEntry]
	expiration *btree.BTreeG[expirationEntry]
	age        *btree.BTreeG[ageEntry]

	timelineNext uint64 // next broadcast position, never reused
}

func newTxIndices() *txIndices {
	return &txIndices{
		priority:   btree.NewG(indexDegree, priorityLess),
		timeline:   btree.NewG(indexDegree, timelineLess),
		expiration: btree.NewG(indexDegree, expirationLess),
		age:        btree.NewG(indexDegree, ageLess),
	}
}

func priorityOf(tx *Transaction) priorityEntry {
	return priorityEntry{score: tx.RankingScore, expiration: tx.Expiration.Round(0), key: tx.Key()}
}

func expirationOf(tx *Transaction) expirationEntry {
	return expirationEntry{expiration: tx.Expiration.Round(0), key: tx.Key()}
}

func ageOf(tx *Transaction) ageEntry {
	return ageEntry{insertedAt: tx.insertedAt.Round(0), insertID: tx.insertID, key: tx.Key()}
}

// insert registers a freshly admitted transaction in the
// readiness-independent indices.
func (ix *txIndices) insert(tx *Transaction) {
	ix.expiration.ReplaceOrInsert(expirationOf(tx))
	ix.age.ReplaceOrInsert(ageOf(tx))
}

// remove drops the transaction from every index it is part of.
func (ix *txIndices) remove(tx *Transaction) {
	if tx.ready {
		ix.demote(tx)
	}
	ix.expiration.Delete(expirationOf(tx))
	ix.age.Delete(ageOf(tx))
}

// promote marks the transaction ready, makes it pullable and, unless it is
// non-qualified, appends it to the timeline under a fresh position.
func (ix *txIndices) promote(tx *Transaction) {
	tx.ready = true
	ix.priority.ReplaceOrInsert(priorityOf(tx))
	if !tx.NonQualified {
		pos := ix.timelineNext
		ix.timelineNext++
		tx.timeline = pos + 1
		ix.timeline.ReplaceOrInsert(timelineEntry{pos: pos, key: tx.Key()})
	}
}

// demote reverts promote. A timeline position, once dropped, is skipped by
// every later read.
func (ix *txIndices) demote(tx *Transaction) {
	tx.ready = false
	ix.priority.Delete(priorityOf(tx))
	if pos, ok := tx.TimelinePosition(); ok {
		ix.timeline.Delete(timelineEntry{pos: pos})
		tx.timeline = 0
	}
}

// ascendPriority walks ready transactions from best to worst.
func (ix *txIndices) ascendPriority(fn func(key TxKey) bool) {
	ix.priority.Ascend(func(e priorityEntry) bool {
		return fn(e.key)
	})
}

// ascendTimeline walks the timeline from the given position on.
func (ix *txIndices) ascendTimeline(from uint64, fn func(pos uint64, key TxKey) bool) {
	ix.timeline.AscendGreaterOrEqual(timelineEntry{pos: from}, func(e timelineEntry) bool {
		return fn(e.pos, e.key)
	})
}

// expired returns the keys of transactions whose expiration is at or
// before now.
func (ix *txIndices) expired(now time.Time) []TxKey {
	var keys []TxKey
	now = now.Round(0)
	ix.expiration.Ascend(func(e expirationEntry) bool {
		if e.expiration.After(now) {
			return false
		}
		keys = append(keys, e.key)
		return true
	})
	return keys
}

// admittedBefore returns the keys of transactions admitted at or before the
// given deadline.
func (ix *txIndices) admittedBefore(deadline time.Time) []TxKey {
	var keys []TxKey
	deadline = deadline.Round(0)
	ix.age.Ascend(func(e ageEntry) bool {
		if e.insertedAt.After(deadline) {
			return false
		}
		keys = append(keys, e.key)
		return true
	})
	return keys
}
