package mempool

import (
	"time"

	"github.com/harmony-one/mempool/internal/utils"
)

// Start launches the background maintenance loop that periodically evicts
// expired and aged transactions and reports the pool status.
func (pool *Mempool) Start() {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.running {
		return
	}
	pool.running = true
	pool.quit = make(chan struct{})
	pool.wg.Add(1)
	go pool.loop(pool.quit)

	utils.Logger().Info().
		Dur("gcInterval", pool.config.GCInterval).
		Dur("systemTTL", pool.config.SystemTTL).
		Msg("Mempool started")
}

// Stop terminates the maintenance loop and all subscriptions.
func (pool *Mempool) Stop() {
	pool.mu.Lock()
	if pool.running {
		close(pool.quit)
		pool.running = false
	}
	pool.mu.Unlock()

	// Unsubscribe all subscriptions registered from the pool
	pool.scope.Close()
	pool.wg.Wait()

	utils.Logger().Info().Msg("Mempool stopped")
}

// loop is the pool's maintenance goroutine.
func (pool *Mempool) loop(quit chan struct{}) {
	defer pool.wg.Done()

	var prevReady, prevBlocked int

	report := time.NewTicker(pool.config.ReportInterval)
	defer report.Stop()

	evict := time.NewTicker(pool.config.GCInterval)
	defer evict.Stop()

	for {
		select {
		case <-quit:
			return

		case <-report.C:
			ready, blocked, bytes := pool.Size()
			if ready != prevReady || blocked != prevBlocked {
				utils.Logger().Debug().
					Int("ready", ready).
					Int("blocked", blocked).
					Uint64("bytes", bytes).
					Int("cachedBaselines", pool.committed.Len()).
					Msg("Mempool status report")
				prevReady, prevBlocked = ready, blocked
			}

		case <-evict.C:
			pool.sweep(pool.config.Clock())
		}
	}
}

// sweep runs one round of maintenance at the given time.
func (pool *Mempool) sweep(now time.Time) (expired, aged int) {
	expired = pool.EvictExpired(now)
	aged = pool.GCByAge(pool.config.SystemTTL, now)

	pool.mu.Lock()
	forgotten := pool.seen.GC(now)
	pool.mu.Unlock()

	if expired+aged+forgotten > 0 {
		utils.Logger().Debug().
			Int("expired", expired).
			Int("aged", aged).
			Int("forgotten", forgotten).
			Msg("Mempool sweep")
	}
	return expired, aged
}
