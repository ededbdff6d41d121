// Package mempool implements the pending-transaction pool of a validator
// node: admission, per-account sequencing, ordering for block production,
// a replay-safe broadcast timeline and bounded eviction.
package mempool

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/harmony-one/mempool/internal/utils"
	"github.com/harmony-one/mempool/internal/utils/lrucache"
	"github.com/harmony-one/mempool/internal/utils/ttlcache"
)

// Mempool contains all currently known transactions. Transactions enter the
// pool when they are submitted and leave it when execution commits or
// rejects them, when they expire, or when capacity eviction picks them.
//
// Every transaction is either ready (pullable for blocks) or blocked (parked
// until its sequence gap closes or its account's window reaches it).
type Mempool struct {
	config   Config
	resolver StateResolver
	mu       sync.RWMutex

	store   *txStore
	indices *txIndices
	parked  *parkingLot

	nextInsertID uint64
	readyCount   int

	committed *lrucache.Cache[common.Address, uint64] // account -> committed baseline
	seen      *ttlcache.Cache[common.Hash, time.Time]  // hash -> first sight

	txFeed event.Feed
	scope  event.SubscriptionScope

	quit    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// New creates a new, empty transaction pool. The resolver is consulted the
// first time an account is seen; a nil resolver treats every unknown account
// as a strict account starting at sequence zero.
func New(config Config, resolver StateResolver) *Mempool {
	config = (&config).sanitize()

	pool := &Mempool{
		config:    config,
		resolver:  resolver,
		store:     newTxStore(),
		indices:   newTxIndices(),
		parked:    newParkingLot(),
		committed: lrucache.NewCache[common.Address, uint64](config.SequenceCacheSize),
		seen:      ttlcache.New[common.Hash, time.Time](config.SeenCacheSize, config.SeenCacheTTL),
	}
	return pool
}

// SubscribeReadyTxsEvent registers a subscription of ReadyTxsEvent and
// starts sending event to the given channel.
func (pool *Mempool) SubscribeReadyTxsEvent(ch chan<- ReadyTxsEvent) event.Subscription {
	return pool.scope.Track(pool.txFeed.Subscribe(ch))
}

// Submit enqueues a single transaction into the pool.
//
// A byte-identical resubmission of a transaction already in the pool is
// accepted without any state change. A different transaction for an
// occupied slot replaces the occupant only if its ranking score is strictly
// higher, and fails with ErrInvalidUpdate otherwise. If the pool is full,
// a transaction that would be ready evicts the oldest blocked transactions;
// one that would be blocked fails with ErrMempoolFull.
func (pool *Mempool) Submit(tx *Transaction) error {
	receivedTxsCounter.Inc()
	if err := tx.Validate(); err != nil {
		invalidTxsCounterVec.WithLabelValues(errLabel(err)).Inc()
		return err
	}
	if size := uint64(len(tx.Payload)); size > pool.config.MaxPayloadSize {
		invalidTxsCounterVec.WithLabelValues(errLabel(ErrOversizedData)).Inc()
		return errors.WithMessagef(ErrOversizedData, "payload of %s is %d bytes, max %d",
			tx.Key(), size, pool.config.MaxPayloadSize)
	}
	tx = tx.adopt()

	pool.mu.Lock()
	defer pool.mu.Unlock()

	err := pool.add(tx)
	if err != nil {
		invalidTxsCounterVec.WithLabelValues(errLabel(err)).Inc()
		utils.Logger().Debug().
			Err(err).
			Str("key", tx.Key().String()).
			Str("hash", tx.Hash().Hex()).
			Msg("Discarding transaction")
	}
	pool.assertInvariants()
	return err
}

// add validates the transaction against the pool state and inserts it. The
// caller must hold pool.mu.
func (pool *Mempool) add(tx *Transaction) error {
	ledger, err := pool.ledgerFor(tx.Sender)
	if err != nil {
		return err
	}
	defer pool.store.dropIfEmpty(tx.Sender)

	if ledger.tooOld(tx.Sequence) {
		return errors.WithMessagef(ErrSequenceTooOld, "%s below baseline %d",
			tx.Key(), ledger.state.Baseline)
	}
	old, duplicate, err := pool.store.checkReplace(ledger, tx)
	if err != nil {
		return err
	}
	if duplicate {
		knownTxsCounter.Inc()
		utils.Logger().Debug().
			Str("key", tx.Key().String()).
			Msg("Ignoring already known transaction")
		return nil
	}

	var (
		size       = uint64(len(tx.Payload))
		countDelta = 1
		bytesDelta = int64(size)
		ready      bool
	)
	if old != nil {
		countDelta, bytesDelta = 0, int64(size)-int64(old.size)
		ready = old.ready
	} else {
		if uint64(ledger.len()) >= pool.config.CapacityPerAccount {
			return errors.WithMessagef(ErrMempoolFull, "account %s holds %d transactions",
				tx.Sender.Hex(), ledger.len())
		}
		ready = ledger.wouldBeReady(tx.Sequence)
	}
	if err := pool.makeRoom(tx.Sender, countDelta, bytesDelta, ready); err != nil {
		return err
	}

	now := pool.config.Clock()
	tx.hash = tx.Hash()
	tx.size = size
	tx.insertedAt = now
	tx.insertID = pool.nextInsertID
	pool.nextInsertID++

	if old != nil {
		pool.removeTx(old)
		pool.seen.Remove(old.hash)
		replacedTxsCounter.Inc()
		removedTxsCounterVec.WithLabelValues(removedReplaced).Inc()
		utils.Logger().Debug().
			Str("key", tx.Key().String()).
			Uint64("oldScore", old.RankingScore).
			Uint64("newScore", tx.RankingScore).
			Msg("Replaced transaction")
	}
	pool.store.insert(ledger, tx)
	pool.indices.insert(tx)
	pool.parked.insert(tx)
	if _, ok := pool.seen.Get(tx.hash); !ok {
		pool.seen.Insert(tx.hash, now, now)
	}

	utils.Logger().Debug().
		Str("key", tx.Key().String()).
		Str("hash", tx.hash.Hex()).
		Uint64("score", tx.RankingScore).
		Msg("Admitted transaction")

	pool.reconcile(ledger)
	pool.updateGauges()
	return nil
}

// ledgerFor returns the ledger of the account, creating it from the
// resolver (and the committed-sequence cache) on first sight.
func (pool *Mempool) ledgerFor(addr common.Address) (*accountLedger, error) {
	if l := pool.store.ledger(addr); l != nil {
		return l, nil
	}
	state, err := pool.resolveState(addr)
	if err != nil {
		return nil, err
	}
	l := newAccountLedger(state)
	pool.store.addLedger(addr, l)
	return l, nil
}

func (pool *Mempool) resolveState(addr common.Address) (AccountState, error) {
	var state AccountState
	if pool.resolver != nil {
		var err error
		if state, err = pool.resolver.ResolveAccountState(addr); err != nil {
			return AccountState{}, errors.Wrapf(err, "resolve account state of %s", addr.Hex())
		}
	}
	if state.Mode == SequenceWindow && state.WindowSize == 0 {
		state.WindowSize = pool.config.DefaultWindowSize
	}
	if baseline, ok := pool.committed.Get(addr); ok && baseline > state.Baseline {
		state.Baseline = baseline
	}
	return state, nil
}

// fits reports whether the pool stays within its ceilings after the deltas.
func (pool *Mempool) fits(countDelta int, bytesDelta int64) bool {
	count := int64(pool.store.count) + int64(countDelta)
	bytes := int64(pool.store.bytes) + bytesDelta
	return count <= int64(pool.config.Capacity) && bytes <= int64(pool.config.CapacityBytes)
}

// makeRoom evicts the oldest parked transactions until the deltas fit. Only
// a transaction that would be ready may evict; nothing is evicted unless
// enough room can be made. The ledger of the submitting account is kept even
// if eviction empties it.
func (pool *Mempool) makeRoom(submitter common.Address, countDelta int, bytesDelta int64, ready bool) error {
	if pool.fits(countDelta, bytesDelta) {
		return nil
	}
	if !ready {
		return errors.WithMessagef(ErrMempoolFull, "%d transactions, %d bytes", pool.store.count, pool.store.bytes)
	}
	var victims Transactions
	pool.parked.oldest(func(key TxKey) bool {
		victim := pool.store.get(key)
		victims = append(victims, victim)
		countDelta--
		bytesDelta -= int64(victim.size)
		return !pool.fits(countDelta, bytesDelta)
	})
	if !pool.fits(countDelta, bytesDelta) {
		return errors.WithMessagef(ErrMempoolFull, "%d transactions, %d bytes, %d evictable",
			pool.store.count, pool.store.bytes, len(victims))
	}
	for _, victim := range victims {
		pool.removeTx(victim)
		if victim.Sender != submitter {
			pool.store.dropIfEmpty(victim.Sender)
		}
		removedTxsCounterVec.WithLabelValues(removedEvicted).Inc()
		utils.Logger().Debug().
			Str("key", victim.Key().String()).
			Msg("Evicted blocked transaction for capacity")
	}
	return nil
}

// removeTx removes a single transaction from the store and every index
// without re-evaluating its siblings.
func (pool *Mempool) removeTx(tx *Transaction) {
	if tx.ready {
		pool.readyCount--
	} else {
		pool.parked.remove(tx)
	}
	pool.indices.remove(tx)
	pool.store.remove(tx)
}

// removeTxs removes the given transactions and re-evaluates the readiness
// of every affected account.
func (pool *Mempool) removeTxs(txs Transactions, reason string) {
	if len(txs) == 0 {
		return
	}
	touched := make(map[common.Address]struct{})
	for _, tx := range txs {
		pool.removeTx(tx)
		touched[tx.Sender] = struct{}{}
		removedTxsCounterVec.WithLabelValues(reason).Inc()
	}
	for addr := range touched {
		if ledger := pool.store.ledger(addr); ledger != nil {
			pool.reconcile(ledger)
		}
		pool.store.dropIfEmpty(addr)
	}
	pool.updateGauges()
}

// reconcile brings the readiness of every transaction of the account in line
// with the ledger: promoting closed gaps and window members, demoting
// transactions behind a new gap or outside the window.
func (pool *Mempool) reconcile(ledger *accountLedger) {
	var promoted Transactions
	ledger.scan(func(tx *Transaction, ready bool) {
		switch {
		case ready && !tx.ready:
			pool.parked.remove(tx)
			pool.indices.promote(tx)
			pool.readyCount++
			promoted = append(promoted, tx.snapshot())
		case !ready && tx.ready:
			pool.indices.demote(tx)
			pool.parked.insert(tx)
			pool.readyCount--
			utils.Logger().Debug().
				Str("key", tx.Key().String()).
				Msg("Demoted transaction")
		}
	})
	if len(promoted) > 0 {
		go pool.txFeed.Send(ReadyTxsEvent{Txs: promoted})
	}
}

// NotifyCommit informs the pool that execution committed the given
// sequence number (strict) or nonce (window) of the account. Every
// transaction of the account below the new baseline is dropped and the
// remaining ones are re-evaluated.
func (pool *Mempool) NotifyCommit(addr common.Address, seq uint64) {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	// Committing the last representable sequence drops everything.
	baseline := seq + 1
	if seq == math.MaxUint64 {
		baseline = math.MaxUint64
	}
	if cached, ok := pool.committed.Get(addr); !ok || cached < baseline {
		pool.committed.Set(addr, baseline)
	}
	ledger := pool.store.ledger(addr)
	if ledger == nil {
		return
	}
	if tx := ledger.get(seq); tx != nil {
		if firstSeen, ok := pool.seen.Remove(tx.hash); ok {
			commitLatencyHistogram.Observe(pool.config.Clock().Sub(firstSeen).Seconds())
		}
	}
	stale := ledger.setBaseline(baseline)
	if seq == math.MaxUint64 {
		if tx := ledger.get(seq); tx != nil {
			stale = append(stale, tx)
		}
	}
	pool.removeTxs(stale, removedCommitted)
	if len(stale) == 0 {
		pool.reconcile(ledger)
		pool.store.dropIfEmpty(addr)
		pool.updateGauges()
	}
	utils.Logger().Debug().
		Str("account", addr.Hex()).
		Uint64("seq", seq).
		Int("dropped", len(stale)).
		Msg("Committed transactions")
	pool.assertInvariants()
}

// NotifyReject informs the pool that execution rejected the given
// transaction. Only that transaction is removed; the account's baseline and
// window are untouched, so the slot may be resubmitted. It reports whether
// a transaction was removed.
func (pool *Mempool) NotifyReject(addr common.Address, seq uint64) bool {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	tx := pool.store.get(TxKey{Sender: addr, Sequence: seq})
	if tx == nil {
		utils.Logger().Debug().
			Str("key", TxKey{Sender: addr, Sequence: seq}.String()).
			Msg("Rejected transaction not in pool")
		return false
	}
	pool.seen.Remove(tx.hash)
	pool.removeTxs(Transactions{tx}, removedRejected)
	pool.assertInvariants()
	return true
}

// SyncAccount applies a fresher committed state of the account, raising the
// baseline (or window floor) and adopting a new window size. Transactions
// below the new baseline are dropped. A state with a different sequencing
// mode than the account's ledger fails with ErrModeMismatch.
func (pool *Mempool) SyncAccount(addr common.Address, state AccountState) error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if cached, ok := pool.committed.Get(addr); !ok || cached < state.Baseline {
		pool.committed.Set(addr, state.Baseline)
	}
	ledger := pool.store.ledger(addr)
	if ledger == nil {
		return nil
	}
	if ledger.state.Mode != state.Mode {
		return errors.WithMessagef(ErrModeMismatch, "account %s is %s, got %s",
			addr.Hex(), ledger.state.Mode, state.Mode)
	}
	if state.Mode == SequenceWindow && state.WindowSize > 0 {
		ledger.state.WindowSize = state.WindowSize
	}
	stale := ledger.setBaseline(state.Baseline)
	pool.removeTxs(stale, removedStale)
	if len(stale) == 0 {
		pool.reconcile(ledger)
		pool.updateGauges()
	}
	pool.assertInvariants()
	return nil
}

// EvictExpired removes every transaction whose declared expiration is at or
// before now. It returns the number of removed transactions.
func (pool *Mempool) EvictExpired(now time.Time) int {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	txs := pool.resolve(pool.indices.expired(now))
	pool.removeTxs(txs, removedExpired)
	pool.assertInvariants()
	return len(txs)
}

// GCByAge removes every transaction that has been in the pool for at least
// ttl. It returns the number of removed transactions.
func (pool *Mempool) GCByAge(ttl time.Duration, now time.Time) int {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	txs := pool.resolve(pool.indices.admittedBefore(now.Add(-ttl)))
	pool.removeTxs(txs, removedAged)
	pool.assertInvariants()
	return len(txs)
}

func (pool *Mempool) resolve(keys []TxKey) Transactions {
	txs := make(Transactions, 0, len(keys))
	for _, key := range keys {
		txs = append(txs, pool.store.get(key))
	}
	return txs
}

// PullBatch returns up to maxCount ready transactions, best first, whose
// accumulated size does not exceed maxBytes. Transactions whose hash is in
// exclude are skipped. The walk stops at the first transaction that would
// cross either bound. The pool is not modified.
func (pool *Mempool) PullBatch(maxCount int, maxBytes uint64, exclude map[common.Hash]struct{}) Transactions {
	pool.mu.RLock()
	defer pool.mu.RUnlock()

	var (
		batch Transactions
		bytes uint64
	)
	pool.indices.ascendPriority(func(key TxKey) bool {
		tx := pool.store.get(key)
		if _, ok := exclude[tx.hash]; ok {
			return true
		}
		if len(batch) >= maxCount || bytes+tx.size > maxBytes {
			return false
		}
		batch = append(batch, tx.snapshot())
		bytes += tx.size
		return true
	})
	return batch
}

// ReadTimeline returns up to maxCount broadcastable transactions with a
// timeline position at or after from, in position order, together with the
// position to resume from.
func (pool *Mempool) ReadTimeline(from uint64, maxCount int) (Transactions, uint64) {
	pool.mu.RLock()
	defer pool.mu.RUnlock()

	var txs Transactions
	next := from
	if maxCount <= 0 {
		return txs, next
	}
	pool.indices.ascendTimeline(from, func(pos uint64, key TxKey) bool {
		txs = append(txs, pool.store.get(key).snapshot())
		next = pos + 1
		return len(txs) < maxCount
	})
	return txs, next
}

// GetByHash returns the transaction with the given hash, or nil.
func (pool *Mempool) GetByHash(hash common.Hash) *Transaction {
	pool.mu.RLock()
	defer pool.mu.RUnlock()

	if tx := pool.store.getByHash(hash); tx != nil {
		return tx.snapshot()
	}
	return nil
}

// Size returns the number of ready and blocked transactions and the
// accumulated payload size of the pool.
func (pool *Mempool) Size() (ready, blocked int, bytes uint64) {
	pool.mu.RLock()
	defer pool.mu.RUnlock()

	return pool.readyCount, pool.store.count - pool.readyCount, pool.store.bytes
}

// Status returns the status (unknown/blocked/ready) of a batch of
// transactions identified by their hashes.
func (pool *Mempool) Status(hashes []common.Hash) []TxStatus {
	pool.mu.RLock()
	defer pool.mu.RUnlock()

	status := make([]TxStatus, len(hashes))
	for i, hash := range hashes {
		tx := pool.store.getByHash(hash)
		switch {
		case tx == nil:
			status[i] = TxStatusUnknown
		case tx.ready:
			status[i] = TxStatusReady
		default:
			status[i] = TxStatusBlocked
		}
	}
	return status
}

// Content retrieves the data content of the pool, returning all the ready
// as well as the blocked transactions, grouped by account and sorted by
// sequence.
func (pool *Mempool) Content() (map[common.Address]Transactions, map[common.Address]Transactions) {
	pool.mu.RLock()
	defer pool.mu.RUnlock()

	ready := make(map[common.Address]Transactions)
	blocked := make(map[common.Address]Transactions)
	for addr, ledger := range pool.store.accounts {
		for _, tx := range ledger.flatten() {
			if tx.ready {
				ready[addr] = append(ready[addr], tx.snapshot())
			} else {
				blocked[addr] = append(blocked[addr], tx.snapshot())
			}
		}
	}
	for _, txs := range ready {
		sort.Sort(TxBySequence(txs))
	}
	for _, txs := range blocked {
		sort.Sort(TxBySequence(txs))
	}
	return ready, blocked
}

// AccountState returns the sequencing state the pool tracks for the account.
func (pool *Mempool) AccountState(addr common.Address) (AccountState, bool) {
	pool.mu.RLock()
	defer pool.mu.RUnlock()

	if ledger := pool.store.ledger(addr); ledger != nil {
		return ledger.state, true
	}
	return AccountState{}, false
}

func (pool *Mempool) updateGauges() {
	readyTxGauge.Set(float64(pool.readyCount))
	blockedTxGauge.Set(float64(pool.store.count - pool.readyCount))
	bytesGauge.Set(float64(pool.store.bytes))
}
