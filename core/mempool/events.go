package mempool

// ReadyTxsEvent is posted when transactions become ready. The transactions
// are snapshots taken at promotion; query the pool for their current status.
type ReadyTxsEvent struct {
	Txs Transactions
}
