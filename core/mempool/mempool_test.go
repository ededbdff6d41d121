package mempool

import (
	"math"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestSubmitStrictReadiness(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	tx0, tx1, tx3 := newTx(alice, 0, 1), newTx(alice, 1, 1), newTx(alice, 3, 1)
	mustSubmit(t, pool, tx0, tx1, tx3)
	requireSize(t, pool, 2, 1)
	require.Equal(t, Ready, pooled(t, pool, tx0).Readiness())
	require.Equal(t, Ready, pooled(t, pool, tx1).Readiness())
	require.Equal(t, Blocked, pooled(t, pool, tx3).Readiness())

	// Closing the gap cascades to the higher sibling.
	tx2 := newTx(alice, 2, 1)
	mustSubmit(t, pool, tx2)
	requireSize(t, pool, 4, 0)
	require.Equal(t, Ready, pooled(t, pool, tx3).Readiness())
}

func TestSubmitWindowReadiness(t *testing.T) {
	pool, _ := newTestPool(t, nil, testResolver{
		alice: {Mode: SequenceWindow, Baseline: 10, WindowSize: 3},
	})

	in := []*Transaction{newTx(alice, 12, 1), newTx(alice, 10, 1)}
	out := []*Transaction{newTx(alice, 13, 1), newTx(alice, 20, 1)}
	mustSubmit(t, pool, in...)
	mustSubmit(t, pool, out...)
	for _, tx := range in {
		require.Equal(t, Ready, pooled(t, pool, tx).Readiness(), tx.Key())
	}
	for _, tx := range out {
		require.Equal(t, Blocked, pooled(t, pool, tx).Readiness(), tx.Key())
	}
	requireSize(t, pool, 2, 2)
}

func TestSubmitDefaultWindowSize(t *testing.T) {
	pool, _ := newTestPool(t, func(c *Config) { c.DefaultWindowSize = 2 }, testResolver{
		alice: {Mode: SequenceWindow},
	})

	mustSubmit(t, pool, newTx(alice, 1, 1), newTx(alice, 2, 1))
	requireSize(t, pool, 1, 1)

	state, ok := pool.AccountState(alice)
	require.True(t, ok)
	require.Equal(t, uint64(2), state.WindowSize)
}

func TestSubmitDuplicate(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	tx := newTx(alice, 0, 1)
	mustSubmit(t, pool, tx)
	pos, ok := pooled(t, pool, tx).TimelinePosition()
	require.True(t, ok)

	dup := newTx(alice, 0, 1)
	require.NoError(t, pool.Submit(dup))
	requireInvariants(t, pool)
	requireSize(t, pool, 1, 0)

	again, _ := pooled(t, pool, tx).TimelinePosition()
	require.Equal(t, pos, again)
}

func TestSubmitReplace(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	old := newTx(alice, 0, 5)
	mustSubmit(t, pool, old)

	same := newTx(alice, 0, 5)
	same.Payload = append(same.Payload, 'x')
	require.ErrorIs(t, pool.Submit(same), ErrInvalidUpdate)

	lower := newTx(alice, 0, 4)
	require.ErrorIs(t, pool.Submit(lower), ErrInvalidUpdate)
	require.Equal(t, old.Payload, pooled(t, pool, old).Payload)

	better := newTx(alice, 0, 6)
	mustSubmit(t, pool, better)
	require.Nil(t, pool.GetByHash(old.Hash()))
	require.Equal(t, uint64(6), pooled(t, pool, better).RankingScore)
	requireSize(t, pool, 1, 0)

	batch := pool.PullBatch(10, 1<<20, nil)
	require.Equal(t, []common.Hash{better.Hash()}, batch.Hashes())
}

func TestSubmitReplaceBlocked(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	old := newTx(alice, 3, 1)
	mustSubmit(t, pool, old)
	better := newTx(alice, 3, 2)
	mustSubmit(t, pool, better)

	requireSize(t, pool, 0, 1)
	require.Equal(t, Blocked, pooled(t, pool, better).Readiness())
	require.Nil(t, pool.GetByHash(old.Hash()))
}

func TestSubmitReplaceGetsNewTimelinePosition(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	mustSubmit(t, pool, newTx(alice, 0, 1), newTx(bob, 0, 1))
	better := newTx(alice, 0, 2)
	mustSubmit(t, pool, better)

	pos, ok := pooled(t, pool, better).TimelinePosition()
	require.True(t, ok)
	require.Equal(t, uint64(2), pos)

	txs, next := pool.ReadTimeline(0, 10)
	require.Equal(t, []TxKey{key(bob, 0), key(alice, 0)}, txKeys(txs))
	require.Equal(t, uint64(3), next)
}

func TestSubmitSequenceTooOld(t *testing.T) {
	pool, _ := newTestPool(t, nil, testResolver{
		alice: {Mode: SequenceStrict, Baseline: 5},
		bob:   {Mode: SequenceWindow, Baseline: 5, WindowSize: 4},
	})

	require.ErrorIs(t, pool.Submit(newTx(alice, 4, 1)), ErrSequenceTooOld)
	require.ErrorIs(t, pool.Submit(newTx(bob, 4, 1)), ErrSequenceTooOld)
	requireInvariants(t, pool)

	// Rejected first submissions leave no ledger behind.
	_, ok := pool.AccountState(alice)
	require.False(t, ok)

	mustSubmit(t, pool, newTx(alice, 5, 1), newTx(bob, 5, 1))
	requireSize(t, pool, 2, 0)
}

func TestSubmitInvalid(t *testing.T) {
	pool, _ := newTestPool(t, func(c *Config) { c.MaxPayloadSize = 8 }, nil)

	require.ErrorIs(t, pool.Submit(nil), ErrInvalidTransaction)

	empty := newTx(alice, 0, 1)
	empty.Payload = nil
	require.ErrorIs(t, pool.Submit(empty), ErrInvalidTransaction)

	noExpiry := newTx(alice, 0, 1)
	noExpiry.Expiration = time.Time{}
	require.ErrorIs(t, pool.Submit(noExpiry), ErrInvalidTransaction)

	require.ErrorIs(t, pool.Submit(newSizedTx(alice, 0, 1, 9)), ErrOversizedData)
	require.NoError(t, pool.Submit(newSizedTx(alice, 0, 1, 8)))
	requireInvariants(t, pool)
}

func TestSubmitResolverError(t *testing.T) {
	failure := errors.New("state store unavailable")
	pool := New(DefaultConfig, StateResolverFunc(func(common.Address) (AccountState, error) {
		return AccountState{}, failure
	}))
	defer pool.Stop()

	err := pool.Submit(newTx(alice, 0, 1))
	require.Error(t, err)
	require.Equal(t, failure, errors.Cause(err))
	requireSize(t, pool, 0, 0)
}

func TestPullBatchOrdering(t *testing.T) {
	pool, clock := newTestPool(t, nil, nil)

	early := newTx(carol, 0, 5)
	early.Expiration = clock.now.Add(time.Minute)

	mustSubmit(t, pool,
		newTx(alice, 0, 5),
		newTx(alice, 1, 9),
		newTx(bob, 0, 5),
		early,
		newTx(dave, 0, 1),
	)

	got := pool.PullBatch(10, 1<<20, nil)
	require.Equal(t, []TxKey{
		key(alice, 1), // highest score
		key(carol, 0), // earliest expiration among score 5
		key(bob, 0),   // same score and expiration, account tie-break
		key(alice, 0),
		key(dave, 0),
	}, txKeys(got))
}

func TestPullBatchSequenceTieBreak(t *testing.T) {
	pool, _ := newTestPool(t, nil, testResolver{
		alice: {Mode: SequenceWindow, WindowSize: 10},
	})

	mustSubmit(t, pool, newTx(alice, 4, 1), newTx(alice, 2, 1), newTx(alice, 3, 1))
	got := pool.PullBatch(10, 1<<20, nil)
	require.Equal(t, []TxKey{key(alice, 2), key(alice, 3), key(alice, 4)}, txKeys(got))
}

func TestPullBatchBounds(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	a := newSizedTx(alice, 0, 9, 10)
	b := newSizedTx(bob, 0, 8, 30)
	c := newSizedTx(carol, 0, 7, 5)
	mustSubmit(t, pool, a, b, c)

	require.Equal(t, Transactions{a, b}.Hashes(), pool.PullBatch(2, 1<<20, nil).Hashes())
	require.Empty(t, pool.PullBatch(0, 1<<20, nil))

	// The walk stops at the first transaction crossing the byte bound even
	// if a later one would fit.
	require.Equal(t, Transactions{a}.Hashes(), pool.PullBatch(10, 20, nil).Hashes())

	exclude := map[common.Hash]struct{}{b.Hash(): {}}
	require.Equal(t, Transactions{a, c}.Hashes(), pool.PullBatch(10, 20, exclude).Hashes())

	// Pulling is non-destructive and idempotent.
	require.Equal(t, pool.PullBatch(10, 1<<20, nil), pool.PullBatch(10, 1<<20, nil))
	requireSize(t, pool, 3, 0)
}

func TestPullBatchSkipsBlocked(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	mustSubmit(t, pool, newTx(alice, 0, 1), newTx(alice, 2, 100))
	require.Equal(t, []TxKey{key(alice, 0)}, txKeys(pool.PullBatch(10, 1<<20, nil)))
}

func TestReadTimeline(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	mustSubmit(t, pool, newTx(alice, 0, 1), newTx(alice, 1, 1))
	txs, next := pool.ReadTimeline(0, 10)
	require.Equal(t, []TxKey{key(alice, 0), key(alice, 1)}, txKeys(txs))
	require.Equal(t, uint64(2), next)

	// Blocked transactions are not broadcast.
	mustSubmit(t, pool, newTx(alice, 3, 1))
	txs, next = pool.ReadTimeline(next, 10)
	require.Empty(t, txs)
	require.Equal(t, uint64(2), next)

	mustSubmit(t, pool, newTx(alice, 2, 1))
	txs, next = pool.ReadTimeline(next, 10)
	require.Equal(t, []TxKey{key(alice, 2), key(alice, 3)}, txKeys(txs))
	require.Equal(t, uint64(4), next)

	txs, next = pool.ReadTimeline(0, 3)
	require.Equal(t, []TxKey{key(alice, 0), key(alice, 1), key(alice, 2)}, txKeys(txs))
	require.Equal(t, uint64(3), next)

	txs, next = pool.ReadTimeline(0, 0)
	require.Empty(t, txs)
	require.Equal(t, uint64(0), next)
}

func TestReadTimelineSkipsRemovedPositions(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	mustSubmit(t, pool, newTx(alice, 0, 1), newTx(alice, 1, 1), newTx(alice, 2, 1), newTx(alice, 3, 1))
	require.True(t, pool.NotifyReject(alice, 1))
	requireInvariants(t, pool)
	requireSize(t, pool, 1, 2)

	txs, next := pool.ReadTimeline(0, 10)
	require.Equal(t, []TxKey{key(alice, 0)}, txKeys(txs))
	require.Equal(t, uint64(1), next)

	// Re-promotion assigns fresh positions; old ones are never reused.
	mustSubmit(t, pool, newTx(alice, 1, 1))
	txs, next = pool.ReadTimeline(next, 10)
	require.Equal(t, []TxKey{key(alice, 1), key(alice, 2), key(alice, 3)}, txKeys(txs))
	require.Equal(t, uint64(7), next)
	for i, tx := range txs {
		pos, ok := tx.TimelinePosition()
		require.True(t, ok)
		require.Equal(t, uint64(4+i), pos)
	}
}

func TestReadTimelineRestartable(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)
	for i := uint64(0); i < 10; i++ {
		mustSubmit(t, pool, newTx(alice, i, 1))
	}

	var (
		all  Transactions
		next uint64
	)
	for {
		txs, n := pool.ReadTimeline(next, 3)
		if len(txs) == 0 {
			break
		}
		all = append(all, txs...)
		next = n
	}
	full, _ := pool.ReadTimeline(0, 100)
	require.Equal(t, full, all)
	require.Len(t, all, 10)
}

func TestNonQualified(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	tx := newTx(alice, 0, 1)
	tx.NonQualified = true
	mustSubmit(t, pool, tx, newTx(alice, 1, 1))

	require.Equal(t, NonQualified, pooled(t, pool, tx).Readiness())
	_, ok := pooled(t, pool, tx).TimelinePosition()
	require.False(t, ok)

	txs, _ := pool.ReadTimeline(0, 10)
	require.Equal(t, []TxKey{key(alice, 1)}, txKeys(txs))
	require.Len(t, pool.PullBatch(10, 1<<20, nil), 2)
	requireSize(t, pool, 2, 0)
}

func TestNotifyCommitStrict(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	for i := uint64(0); i < 6; i++ {
		mustSubmit(t, pool, newTx(alice, i, 1))
	}
	mustSubmit(t, pool, newTx(alice, 7, 1))
	requireSize(t, pool, 6, 1)

	pool.NotifyCommit(alice, 4)
	requireInvariants(t, pool)
	requireSize(t, pool, 1, 1)
	require.Equal(t, []TxKey{key(alice, 5)}, txKeys(pool.PullBatch(10, 1<<20, nil)))

	state, ok := pool.AccountState(alice)
	require.True(t, ok)
	require.Equal(t, uint64(5), state.Baseline)

	// A stale commit never lowers the baseline.
	pool.NotifyCommit(alice, 1)
	requireInvariants(t, pool)
	state, _ = pool.AccountState(alice)
	require.Equal(t, uint64(5), state.Baseline)

	// Committing the gap promotes the parked transaction.
	pool.NotifyCommit(alice, 6)
	requireInvariants(t, pool)
	requireSize(t, pool, 1, 0)
	require.Equal(t, []TxKey{key(alice, 7)}, txKeys(pool.PullBatch(10, 1<<20, nil)))

	pool.NotifyCommit(alice, 7)
	requireInvariants(t, pool)
	requireSize(t, pool, 0, 0)
	_, ok = pool.AccountState(alice)
	require.False(t, ok, "empty ledgers are destroyed")
}

func TestNotifyCommitUnknownAccount(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	pool.NotifyCommit(bob, 5)
	requireInvariants(t, pool)

	require.ErrorIs(t, pool.Submit(newTx(bob, 5, 1)), ErrSequenceTooOld)
	tx := newTx(bob, 6, 1)
	mustSubmit(t, pool, tx)
	require.Equal(t, Ready, pooled(t, pool, tx).Readiness())
}

func TestNotifyCommitReadinessMonotonic(t *testing.T) {
	pool, _ := newTestPool(t, nil, testResolver{
		bob: {Mode: SequenceWindow, WindowSize: 4},
	})

	var txs Transactions
	for _, seq := range []uint64{0, 1, 2, 3, 5} {
		txs = append(txs, newTx(alice, seq, 1), newTx(bob, seq, 1))
	}
	mustSubmit(t, pool, txs...)

	wasReady := make(map[TxKey]bool)
	for _, tx := range txs {
		wasReady[tx.Key()] = pooled(t, pool, tx).Readiness() == Ready
	}
	pool.NotifyCommit(alice, 1)
	pool.NotifyCommit(bob, 1)
	requireInvariants(t, pool)

	for _, tx := range txs {
		if pool.GetByHash(tx.Hash()) == nil {
			continue
		}
		if wasReady[tx.Key()] {
			require.Equal(t, Ready, pooled(t, pool, tx).Readiness(), tx.Key())
		}
	}
	// The window moved to [2, 6) and now reaches nonce 5.
	require.Equal(t, TxStatusReady, pool.Status([]common.Hash{newTx(bob, 5, 1).Hash()})[0])
}

func TestWindowCommitScenario(t *testing.T) {
	pool, _ := newTestPool(t, nil, testResolver{
		alice: {Mode: SequenceWindow, Baseline: 0, WindowSize: 3},
	})

	mustSubmit(t, pool, newTx(alice, 2, 1), newTx(alice, 0, 1))
	mustSubmit(t, pool, newTx(alice, 4, 1), newTx(alice, 3, 1))
	requireSize(t, pool, 2, 2)

	pool.NotifyCommit(alice, 2)
	requireInvariants(t, pool)

	state, _ := pool.AccountState(alice)
	require.Equal(t, uint64(3), state.Baseline)
	require.Nil(t, pool.GetByHash(newTx(alice, 0, 1).Hash()), "below the window regardless of commit")
	require.Nil(t, pool.GetByHash(newTx(alice, 2, 1).Hash()))
	require.Equal(t, []TxKey{key(alice, 3), key(alice, 4)}, txKeys(pool.PullBatch(10, 1<<20, nil)))
}

func TestWindowAdvanceBySync(t *testing.T) {
	pool, _ := newTestPool(t, nil, testResolver{
		alice: {Mode: SequenceWindow, Baseline: 0, WindowSize: 3},
	})

	mustSubmit(t, pool, newTx(alice, 2, 1), newTx(alice, 0, 1), newTx(alice, 4, 1), newTx(alice, 3, 1))
	require.NoError(t, pool.SyncAccount(alice, AccountState{Mode: SequenceWindow, Baseline: 3}))
	requireInvariants(t, pool)
	require.Equal(t, []TxKey{key(alice, 3), key(alice, 4)}, txKeys(pool.PullBatch(10, 1<<20, nil)))
	requireSize(t, pool, 2, 0)

	// A new window size demotes what falls outside it.
	require.NoError(t, pool.SyncAccount(alice, AccountState{Mode: SequenceWindow, Baseline: 3, WindowSize: 1}))
	requireInvariants(t, pool)
	requireSize(t, pool, 1, 1)
}

func TestSyncAccountStrict(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	for i := uint64(0); i < 4; i++ {
		mustSubmit(t, pool, newTx(alice, i, 1))
	}
	require.NoError(t, pool.SyncAccount(alice, AccountState{Mode: SequenceStrict, Baseline: 2}))
	requireInvariants(t, pool)
	require.Equal(t, []TxKey{key(alice, 2), key(alice, 3)}, txKeys(pool.PullBatch(10, 1<<20, nil)))

	err := pool.SyncAccount(alice, AccountState{Mode: SequenceWindow, Baseline: 3})
	require.ErrorIs(t, err, ErrModeMismatch)
	requireSize(t, pool, 2, 0)

	// Unknown accounts only seed the baseline cache.
	require.NoError(t, pool.SyncAccount(bob, AccountState{Mode: SequenceStrict, Baseline: 3}))
	require.ErrorIs(t, pool.Submit(newTx(bob, 2, 1)), ErrSequenceTooOld)
	mustSubmit(t, pool, newTx(bob, 3, 1))
}

func TestNotifyReject(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	mustSubmit(t, pool, newTx(alice, 0, 1), newTx(alice, 1, 1), newTx(alice, 2, 1))
	require.True(t, pool.NotifyReject(alice, 1))
	requireInvariants(t, pool)
	requireSize(t, pool, 1, 1)

	state, _ := pool.AccountState(alice)
	require.Equal(t, uint64(0), state.Baseline, "reject leaves the baseline alone")

	// The rejected slot can be refilled.
	mustSubmit(t, pool, newTx(alice, 1, 2))
	requireSize(t, pool, 3, 0)

	require.False(t, pool.NotifyReject(alice, 9))
	require.False(t, pool.NotifyReject(bob, 0))
	requireInvariants(t, pool)
}

func TestNotifyRejectWindow(t *testing.T) {
	pool, _ := newTestPool(t, nil, testResolver{
		alice: {Mode: SequenceWindow, WindowSize: 4},
	})

	mustSubmit(t, pool, newTx(alice, 0, 1), newTx(alice, 1, 1))
	require.True(t, pool.NotifyReject(alice, 0))
	requireInvariants(t, pool)
	requireSize(t, pool, 1, 0)

	state, _ := pool.AccountState(alice)
	require.Equal(t, uint64(0), state.Baseline)
	mustSubmit(t, pool, newTx(alice, 0, 3))
	requireSize(t, pool, 2, 0)
}

func TestCapacityOneCommitFreesSpace(t *testing.T) {
	pool, _ := newTestPool(t, func(c *Config) { c.Capacity = 1 }, nil)

	mustSubmit(t, pool, newTx(alice, 0, 1))
	require.ErrorIs(t, pool.Submit(newTx(bob, 0, 1)), ErrMempoolFull)
	requireInvariants(t, pool)

	pool.NotifyCommit(alice, 0)
	mustSubmit(t, pool, newTx(bob, 0, 1))
	requireSize(t, pool, 1, 0)
}

func TestCapacityEvictsParked(t *testing.T) {
	pool, _ := newTestPool(t, func(c *Config) { c.Capacity = 3 }, nil)

	a0, a5, b3 := newTx(alice, 0, 1), newTx(alice, 5, 1), newTx(bob, 3, 1)
	mustSubmit(t, pool, a0, a5, b3)

	// A ready submission evicts the oldest parked transaction.
	mustSubmit(t, pool, newTx(carol, 0, 1))
	require.Nil(t, pool.GetByHash(a5.Hash()))
	require.NotNil(t, pool.GetByHash(b3.Hash()))

	// A blocked submission never evicts.
	require.ErrorIs(t, pool.Submit(newTx(carol, 5, 1)), ErrMempoolFull)
	require.NotNil(t, pool.GetByHash(b3.Hash()))

	mustSubmit(t, pool, newTx(carol, 1, 1))
	require.Nil(t, pool.GetByHash(b3.Hash()))
	_, ok := pool.AccountState(bob)
	require.False(t, ok)
	requireSize(t, pool, 3, 0)

	// Nothing left to evict.
	require.ErrorIs(t, pool.Submit(newTx(dave, 0, 1)), ErrMempoolFull)
	requireInvariants(t, pool)
}

func TestCapacityEvictionNeverCascades(t *testing.T) {
	pool, _ := newTestPool(t, func(c *Config) { c.Capacity = 3 }, nil)

	mustSubmit(t, pool, newTx(alice, 0, 1), newTx(alice, 2, 1), newTx(alice, 3, 1))
	mustSubmit(t, pool, newTx(bob, 0, 1))

	requireSize(t, pool, 2, 1)
	require.Nil(t, pool.GetByHash(newTx(alice, 2, 1).Hash()))
	require.NotNil(t, pool.GetByHash(newTx(alice, 3, 1).Hash()))
}

func TestCapacityEvictsSubmitterSibling(t *testing.T) {
	pool, _ := newTestPool(t, func(c *Config) { c.Capacity = 1 }, nil)

	mustSubmit(t, pool, newTx(alice, 1, 1))
	mustSubmit(t, pool, newTx(alice, 0, 1))
	requireSize(t, pool, 1, 0)
	state, ok := pool.AccountState(alice)
	require.True(t, ok)
	require.Equal(t, uint64(0), state.Baseline)
}

func TestCapacityBytes(t *testing.T) {
	pool, _ := newTestPool(t, func(c *Config) { c.CapacityBytes = 100 }, nil)

	parked := newSizedTx(bob, 1, 1, 30)
	mustSubmit(t, pool, newSizedTx(alice, 0, 1, 30), parked, newSizedTx(alice, 1, 1, 30))
	_, _, bytes := pool.Size()
	require.Equal(t, uint64(90), bytes)
	requireSize(t, pool, 2, 1)

	// 90 + 20 > 100: the parked transaction goes.
	mustSubmit(t, pool, newSizedTx(carol, 0, 1, 20))
	require.Nil(t, pool.GetByHash(parked.Hash()))
	_, _, bytes = pool.Size()
	require.Equal(t, uint64(80), bytes)

	// A replacement only needs room for the size difference.
	require.ErrorIs(t, pool.Submit(newSizedTx(carol, 0, 2, 41)), ErrMempoolFull)
	mustSubmit(t, pool, newSizedTx(carol, 0, 2, 40))
	_, _, bytes = pool.Size()
	require.Equal(t, uint64(100), bytes)
	requireSize(t, pool, 3, 0)
}

func TestCapacityPerAccount(t *testing.T) {
	pool, _ := newTestPool(t, func(c *Config) { c.CapacityPerAccount = 2 }, nil)

	mustSubmit(t, pool, newTx(alice, 0, 1), newTx(alice, 1, 1))
	require.ErrorIs(t, pool.Submit(newTx(alice, 2, 1)), ErrMempoolFull)

	// Replacing an occupied slot is not bound by the per-account cap.
	mustSubmit(t, pool, newTx(alice, 1, 2))
	mustSubmit(t, pool, newTx(bob, 0, 1))
}

func TestEvictExpired(t *testing.T) {
	pool, clock := newTestPool(t, nil, nil)

	tx0, tx1, tx2 := newTx(alice, 0, 1), newTx(alice, 1, 1), newTx(alice, 2, 1)
	tx1.Expiration = clock.now.Add(10 * time.Second)
	mustSubmit(t, pool, tx0, tx1, tx2)

	require.Equal(t, 0, pool.EvictExpired(clock.now.Add(9*time.Second)))
	require.Equal(t, 1, pool.EvictExpired(clock.now.Add(10*time.Second)))
	requireInvariants(t, pool)

	require.Nil(t, pool.GetByHash(tx1.Hash()))
	require.Equal(t, Ready, pooled(t, pool, tx0).Readiness())
	require.Equal(t, Blocked, pooled(t, pool, tx2).Readiness())
	_, ok := pooled(t, pool, tx2).TimelinePosition()
	require.False(t, ok)

	txs, _ := pool.ReadTimeline(0, 10)
	require.Equal(t, []TxKey{key(alice, 0)}, txKeys(txs))

	require.Equal(t, 2, pool.EvictExpired(clock.now.Add(2*time.Hour)))
	requireSize(t, pool, 0, 0)
	requireInvariants(t, pool)
}

func TestGCByAge(t *testing.T) {
	pool, clock := newTestPool(t, nil, nil)

	mustSubmit(t, pool, newTx(alice, 0, 1))
	clock.Advance(5 * time.Second)
	tx1 := newTx(alice, 1, 1)
	mustSubmit(t, pool, tx1, newTx(bob, 0, 1))

	require.Equal(t, 1, pool.GCByAge(10*time.Second, testEpoch.Add(12*time.Second)))
	requireInvariants(t, pool)
	require.Equal(t, Blocked, pooled(t, pool, tx1).Readiness())
	requireSize(t, pool, 1, 1)

	require.Equal(t, 2, pool.GCByAge(0, clock.now))
	requireInvariants(t, pool)
	requireSize(t, pool, 0, 0)
	require.Empty(t, pool.store.accounts)
}

func TestStatusAndContent(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	ready, blocked := newTx(alice, 0, 1), newTx(alice, 2, 1)
	other := newTx(bob, 0, 1)
	mustSubmit(t, pool, blocked, ready, other)

	status := pool.Status([]common.Hash{ready.Hash(), blocked.Hash(), newTx(carol, 0, 1).Hash()})
	require.Equal(t, []TxStatus{TxStatusReady, TxStatusBlocked, TxStatusUnknown}, status)

	readyTxs, blockedTxs := pool.Content()
	require.Len(t, readyTxs, 2)
	require.Equal(t, []common.Hash{ready.Hash()}, readyTxs[alice].Hashes())
	require.Equal(t, []common.Hash{other.Hash()}, readyTxs[bob].Hashes())
	require.Len(t, blockedTxs, 1)
	require.Equal(t, []common.Hash{blocked.Hash()}, blockedTxs[alice].Hashes())
	require.Equal(t, Blocked, blockedTxs[alice][0].Readiness())
}

func TestReadyEventsPublished(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	ch := make(chan ReadyTxsEvent, 4)
	sub := pool.SubscribeReadyTxsEvent(ch)
	defer sub.Unsubscribe()

	mustSubmit(t, pool, newTx(alice, 1, 1))
	mustSubmit(t, pool, newTx(alice, 0, 1))

	select {
	case ev := <-ch:
		require.ElementsMatch(t, []TxKey{key(alice, 0), key(alice, 1)}, txKeys(ev.Txs))
	case <-time.After(time.Second):
		t.Fatal("no ready event")
	}
}

func TestCommitForgetsFirstSeen(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	tx := newTx(alice, 0, 1)
	mustSubmit(t, pool, tx, newTx(alice, 1, 1))
	require.Equal(t, 2, pool.seen.Len())

	pool.NotifyCommit(alice, 0)
	_, ok := pool.seen.Get(tx.Hash())
	require.False(t, ok)
	require.Equal(t, 1, pool.seen.Len())
}

func TestSubmitErrorsAreWrapped(t *testing.T) {
	pool, _ := newTestPool(t, func(c *Config) { c.Capacity = 1 }, nil)

	mustSubmit(t, pool, newTx(alice, 0, 5))
	err := pool.Submit(newTx(alice, 0, 1))
	require.Equal(t, ErrInvalidUpdate, errors.Cause(err))
	require.Contains(t, err.Error(), key(alice, 0).String())

	err = pool.Submit(newTx(bob, 4, 1))
	require.Equal(t, ErrMempoolFull, errors.Cause(err))
}

func TestFarFutureExpiration(t *testing.T) {
	pool, clock := newTestPool(t, nil, nil)

	late := newTx(alice, 0, 1)
	late.Expiration = time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)
	early := newTx(bob, 0, 1)
	early.Expiration = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	never := newTx(carol, 0, 1)
	never.Expiration = time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)
	mustSubmit(t, pool, late, early, never)

	require.Equal(t, 0, pool.EvictExpired(clock.now))
	require.Equal(t, []TxKey{key(bob, 0), key(alice, 0), key(carol, 0)},
		txKeys(pool.PullBatch(10, 1<<20, nil)))

	require.Equal(t, 1, pool.EvictExpired(time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.Nil(t, pool.GetByHash(early.Hash()))
	requireSize(t, pool, 2, 0)
	requireInvariants(t, pool)
}

func TestReturnedTransactionsAreSnapshots(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	tx0, tx1 := newTx(alice, 0, 1), newTx(alice, 1, 1)
	payload := append([]byte(nil), tx0.Payload...)
	mustSubmit(t, pool, tx0, tx1)

	// The submitter's record is neither stamped nor shared with the pool.
	require.Equal(t, Blocked, tx0.Readiness())
	tx0.Payload[0] ^= 0xff
	require.Equal(t, payload, pooled(t, pool, newTx(alice, 0, 1)).Payload)

	pulled := pool.PullBatch(10, 1<<20, nil)
	require.Len(t, pulled, 2)
	require.True(t, pool.NotifyReject(alice, 0))

	// Earlier results keep the state they were taken with.
	require.Equal(t, Ready, pulled[1].Readiness())
	_, ok := pulled[1].TimelinePosition()
	require.True(t, ok)
	require.Equal(t, Blocked, pooled(t, pool, tx1).Readiness())
}

func TestNotifyCommitLastSequence(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	mustSubmit(t, pool, newTx(alice, 0, 1), newTx(alice, 1, 1), newTx(alice, math.MaxUint64, 1))
	requireSize(t, pool, 2, 1)

	pool.NotifyCommit(alice, math.MaxUint64)
	requireInvariants(t, pool)
	requireSize(t, pool, 0, 0)
	_, ok := pool.AccountState(alice)
	require.False(t, ok)

	require.ErrorIs(t, pool.Submit(newTx(alice, 5, 1)), ErrSequenceTooOld)
}

func TestReplaceForgetsFirstSeen(t *testing.T) {
	pool, _ := newTestPool(t, nil, nil)

	old, better := newTx(alice, 0, 1), newTx(alice, 0, 2)
	mustSubmit(t, pool, old, better)

	require.Equal(t, 1, pool.seen.Len())
	_, ok := pool.seen.Get(old.Hash())
	require.False(t, ok)
	_, ok = pool.seen.Get(better.Hash())
	require.True(t, ok)
}
