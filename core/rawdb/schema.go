// Package rawdb contains a collection of low level database accessors.
package rawdb

import (
	"github.com/ethereum/go-ethereum/common"
)

// The fields below define the low level database schema prefixing.
var (
	// databaseVersionKey tracks the current database version.
	databaseVersionKey = []byte("DatabaseVersion")

	accountSequencePrefix = []byte("acct-seq-") // accountSequencePrefix + address -> storedAccountState
)

// accountSequenceKey = accountSequencePrefix + address
func accountSequenceKey(addr common.Address) []byte {
	return append(append([]byte{}, accountSequencePrefix...), addr.Bytes()...)
}
