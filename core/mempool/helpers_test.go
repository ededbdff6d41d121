package mempool

import (
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0xa11ce")
	bob   = common.HexToAddress("0xb0b")
	carol = common.HexToAddress("0xca201")
	dave  = common.HexToAddress("0xda5e")

	testEpoch = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testResolver map[common.Address]AccountState

func (r testResolver) ResolveAccountState(addr common.Address) (AccountState, error) {
	return r[addr], nil
}

// newTestPool creates a pool driven by a manual clock. Accounts missing from
// states are strict accounts starting at sequence zero.
func newTestPool(t *testing.T, update func(*Config), states testResolver) (*Mempool, *testClock) {
	t.Helper()
	clock := &testClock{now: testEpoch}
	config := DefaultConfig
	config.Clock = clock.Now
	if update != nil {
		update(&config)
	}
	if states == nil {
		states = testResolver{}
	}
	pool := New(config, states)
	t.Cleanup(pool.Stop)
	return pool, clock
}

func newTx(sender common.Address, seq, score uint64) *Transaction {
	return &Transaction{
		Sender:       sender,
		Sequence:     seq,
		Payload:      []byte(fmt.Sprintf("%s/%d/%d", sender.Hex(), seq, score)),
		RankingScore: score,
		Expiration:   testEpoch.Add(time.Hour),
	}
}

func newSizedTx(sender common.Address, seq, score uint64, size int) *Transaction {
	tx := newTx(sender, seq, score)
	seed := crypto.Keccak256(tx.Payload)
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = seed[i%len(seed)]
	}
	tx.Payload = payload
	return tx
}

func mustSubmit(t *testing.T, pool *Mempool, txs ...*Transaction) {
	t.Helper()
	for _, tx := range txs {
		require.NoError(t, pool.Submit(tx), "submit %s", tx.Key())
	}
	requireInvariants(t, pool)
}

func requireInvariants(t *testing.T, pool *Mempool) {
	t.Helper()
	pool.mu.RLock()
	defer pool.mu.RUnlock()
	require.NoError(t, pool.checkInvariants())
}

func requireSize(t *testing.T, pool *Mempool, ready, blocked int) {
	t.Helper()
	gotReady, gotBlocked, _ := pool.Size()
	require.Equal(t, ready, gotReady, "ready")
	require.Equal(t, blocked, gotBlocked, "blocked")
}

// pooled returns the pool's current view of a submitted transaction.
func pooled(t *testing.T, pool *Mempool, tx *Transaction) *Transaction {
	t.Helper()
	got := pool.GetByHash(tx.Hash())
	require.NotNil(t, got, "%s not in pool", tx.Key())
	return got
}

func txKeys(txs Transactions) []TxKey {
	keys := make([]TxKey, len(txs))
	for i, tx := range txs {
		keys[i] = tx.Key()
	}
	return keys
}

func key(sender common.Address, seq uint64) TxKey {
	return TxKey{Sender: sender, Sequence: seq}
}
