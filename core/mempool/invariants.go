package mempool

import (
	"github.com/pkg/errors"

	"github.com/harmony-one/mempool/internal/utils"
)

// assertInvariants panics on an inconsistent pool when built with the
// mempooldebug tag. The caller must hold pool.mu.
func (pool *Mempool) assertInvariants() {
	if !debugInvariants {
		return
	}
	if err := pool.checkInvariants(); err != nil {
		utils.Logger().Error().Err(err).Msg("Mempool invariant violated")
		panic(err)
	}
}

// checkInvariants cross-checks the store against every index. The caller
// must hold pool.mu.
func (pool *Mempool) checkInvariants() error {
	var (
		count, ready, parked int
		timeline             int
		bytes, parkedBytes   uint64
	)
	for addr, ledger := range pool.store.accounts {
		if ledger.empty() {
			return errors.Errorf("empty ledger retained for %s", addr.Hex())
		}
		var err error
		ledger.scan(func(tx *Transaction, want bool) {
			if err != nil {
				return
			}
			key := tx.Key()
			count++
			bytes += tx.size
			switch {
			case tx.Sender != addr:
				err = errors.Errorf("%s filed under account %s", key, addr.Hex())
			case ledger.tooOld(tx.Sequence):
				err = errors.Errorf("%s below baseline %d", key, ledger.state.Baseline)
			case tx.ready != want:
				err = errors.Errorf("%s ready=%v, ledger says %v", key, tx.ready, want)
			case pool.store.byHash[tx.hash] != key:
				err = errors.Errorf("hash index of %s points to %s", key, pool.store.byHash[tx.hash])
			case !pool.indices.expiration.Has(expirationOf(tx)):
				err = errors.Errorf("%s missing from expiration index", key)
			case !pool.indices.age.Has(ageOf(tx)):
				err = errors.Errorf("%s missing from age index", key)
			case tx.ready == pool.parked.contains(tx):
				err = errors.Errorf("%s ready=%v but parked=%v", key, tx.ready, pool.parked.contains(tx))
			case tx.ready != pool.indices.priority.Has(priorityOf(tx)):
				err = errors.Errorf("%s ready=%v but prioritized=%v", key, tx.ready, !tx.ready)
			}
			if err != nil {
				return
			}
			pos, onTimeline := tx.TimelinePosition()
			if onTimeline != (tx.ready && !tx.NonQualified) {
				err = errors.Errorf("%s timeline membership %v, ready=%v qualified=%v",
					key, onTimeline, tx.ready, !tx.NonQualified)
				return
			}
			if onTimeline {
				timeline++
				if e, ok := pool.indices.timeline.Get(timelineEntry{pos: pos}); !ok || e.key != key {
					err = errors.Errorf("%s missing from timeline at %d", key, pos)
					return
				}
				if pos >= pool.indices.timelineNext {
					err = errors.Errorf("%s at timeline %d beyond next %d", key, pos, pool.indices.timelineNext)
					return
				}
			}
			if tx.ready {
				ready++
			} else {
				parked++
				parkedBytes += tx.size
			}
		})
		if err != nil {
			return err
		}
	}
	switch {
	case count != pool.store.count:
		return errors.Errorf("store counts %d transactions, found %d", pool.store.count, count)
	case bytes != pool.store.bytes:
		return errors.Errorf("store counts %d bytes, found %d", pool.store.bytes, bytes)
	case len(pool.store.byHash) != count:
		return errors.Errorf("hash index holds %d entries, store %d", len(pool.store.byHash), count)
	case ready != pool.readyCount:
		return errors.Errorf("ready counter %d, found %d", pool.readyCount, ready)
	case pool.indices.priority.Len() != ready:
		return errors.Errorf("priority index holds %d entries, ready %d", pool.indices.priority.Len(), ready)
	case pool.parked.len() != parked || pool.parked.bytes != parkedBytes:
		return errors.Errorf("parking lot holds %d/%d, blocked %d/%d",
			pool.parked.len(), pool.parked.bytes, parked, parkedBytes)
	case pool.indices.timeline.Len() != timeline:
		return errors.Errorf("timeline holds %d entries, found %d", pool.indices.timeline.Len(), timeline)
	case pool.indices.expiration.Len() != count || pool.indices.age.Len() != count:
		return errors.Errorf("expiration/age indices hold %d/%d entries, store %d",
			pool.indices.expiration.Len(), pool.indices.age.Len(), count)
	case pool.store.count > int(pool.config.Capacity) || pool.store.bytes > pool.config.CapacityBytes:
		return errors.Errorf("pool over capacity: %d transactions, %d bytes", pool.store.count, pool.store.bytes)
	}
	return nil
}
