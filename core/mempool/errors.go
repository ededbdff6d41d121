package mempool

import "github.com/pkg/errors"

var (
	// ErrInvalidUpdate is returned if a transaction is attempted to replace an
	// occupied sequence slot without a strictly higher ranking score.
	ErrInvalidUpdate = errors.New("invalid update: ranking score not higher than existing transaction")

	// ErrMempoolFull is returned if the pool hit its count or byte ceiling and
	// nothing could be evicted to make room.
	ErrMempoolFull = errors.New("mempool is full")

	// ErrSequenceTooOld is returned if the sequence number (or nonce) of a
	// transaction is below the committed baseline of its account.
	ErrSequenceTooOld = errors.New("sequence number too old")

	// ErrInvalidTransaction is a sanity error for malformed records.
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrOversizedData is returned if the payload is larger than the
	// configured maximum.
	ErrOversizedData = errors.New("oversized data")

	// ErrModeMismatch is returned if an account state is applied with a
	// sequencing mode different from the one the account was created with.
	ErrModeMismatch = errors.New("sequencing mode mismatch")
)
