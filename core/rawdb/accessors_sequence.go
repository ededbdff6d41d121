package rawdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/harmony-one/mempool/core/mempool"
	"github.com/harmony-one/mempool/internal/utils"
)

// storedAccountState is the RLP layout of an account's sequencing state.
type storedAccountState struct {
	Mode       uint8
	Baseline   uint64
	WindowSize uint64
}

// ReadDatabaseVersion retrieves the version number of the database.
func ReadDatabaseVersion(db DatabaseReader) uint64 {
	var version uint64

	enc, _ := db.Get(databaseVersionKey)
	if err := rlp.DecodeBytes(enc, &version); err != nil {
		return 0
	}
	return version
}

// WriteDatabaseVersion stores the version number of the database
func WriteDatabaseVersion(db DatabaseWriter, version uint64) error {
	enc, _ := rlp.EncodeToBytes(version)
	if err := db.Put(databaseVersionKey, enc); err != nil {
		utils.Logger().Error().Err(err).Msg("Failed to store the database version")
		return err
	}
	return nil
}

// ReadAccountSequenceState retrieves the committed sequencing state of an
// account. The second return value is false if nothing was stored.
func ReadAccountSequenceState(db DatabaseReader, addr common.Address) (mempool.AccountState, bool, error) {
	key := accountSequenceKey(addr)
	has, err := db.Has(key)
	if err != nil {
		return mempool.AccountState{}, false, errors.Wrapf(err, "read sequence state of %s", addr.Hex())
	}
	if !has {
		return mempool.AccountState{}, false, nil
	}
	data, err := db.Get(key)
	if err != nil {
		return mempool.AccountState{}, false, errors.Wrapf(err, "read sequence state of %s", addr.Hex())
	}
	var stored storedAccountState
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return mempool.AccountState{}, false, errors.Wrapf(err, "decode sequence state of %s", addr.Hex())
	}
	mode := mempool.SequenceMode(stored.Mode)
	if mode != mempool.SequenceStrict && mode != mempool.SequenceWindow {
		return mempool.AccountState{}, false, errors.Errorf("unknown sequence mode %d for %s", stored.Mode, addr.Hex())
	}
	return mempool.AccountState{
		Mode:       mode,
		Baseline:   stored.Baseline,
		WindowSize: stored.WindowSize,
	}, true, nil
}

// WriteAccountSequenceState stores the committed sequencing state of an account.
func WriteAccountSequenceState(db DatabaseWriter, addr common.Address, state mempool.AccountState) error {
	data, err := rlp.EncodeToBytes(storedAccountState{
		Mode:       uint8(state.Mode),
		Baseline:   state.Baseline,
		WindowSize: state.WindowSize,
	})
	if err != nil {
		return errors.Wrapf(err, "encode sequence state of %s", addr.Hex())
	}
	if err := db.Put(accountSequenceKey(addr), data); err != nil {
		utils.Logger().Error().Err(err).Str("account", addr.Hex()).Msg("Failed to store account sequence state")
		return err
	}
	return nil
}

// DeleteAccountSequenceState removes the stored state of an account.
func DeleteAccountSequenceState(db DatabaseDeleter, addr common.Address) error {
	if err := db.Delete(accountSequenceKey(addr)); err != nil {
		utils.Logger().Error().Err(err).Str("account", addr.Hex()).Msg("Failed to delete account sequence state")
		return err
	}
	return nil
}
