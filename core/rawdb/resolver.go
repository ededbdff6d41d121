package rawdb

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/harmony-one/mempool/core/mempool"
)

// SequenceResolver resolves the committed sequencing state of accounts from
// a key-value store. Accounts with no stored state get the defaults.
type SequenceResolver struct {
	db       DatabaseReader
	defaults mempool.AccountState
}

// NewSequenceResolver creates a resolver reading from db.
func NewSequenceResolver(db DatabaseReader, defaults mempool.AccountState) *SequenceResolver {
	return &SequenceResolver{db: db, defaults: defaults}
}

// ResolveAccountState implements mempool.StateResolver.
func (r *SequenceResolver) ResolveAccountState(addr common.Address) (mempool.AccountState, error) {
	state, ok, err := ReadAccountSequenceState(r.db, addr)
	if err != nil {
		return mempool.AccountState{}, err
	}
	if !ok {
		return r.defaults, nil
	}
	return state, nil
}
