package mempool

import (
	"time"

	"github.com/harmony-one/mempool/internal/utils"
)

// Config are the configuration parameters of the mempool.
type Config struct {
	Capacity           uint64 // Maximum number of transactions in the pool
	CapacityBytes      uint64 // Maximum accumulated payload size of the pool
	CapacityPerAccount uint64 // Maximum number of transactions held per account

	SystemTTL      time.Duration // Maximum time a transaction may sit in the pool
	GCInterval     time.Duration // Period of the expiration and age sweeps
	ReportInterval time.Duration // Period of the status report

	DefaultWindowSize uint64 // Window size used when the resolver reports none
	MaxPayloadSize    uint64 // Maximum size of a single payload

	SequenceCacheSize int           // Committed-sequence cache entries
	SeenCacheSize     int           // First-seen cache entries
	SeenCacheTTL      time.Duration // First-seen cache retention

	// Clock returns the current time. Tests replace it to drive the sweeps.
	Clock func() time.Time
}

// DefaultConfig contains the default configurations for the mempool.
var DefaultConfig = Config{
	Capacity:           2_000_000,
	CapacityBytes:      2 * 1024 * 1024 * 1024,
	CapacityPerAccount: 100,

	SystemTTL:      10 * time.Minute,
	GCInterval:     time.Minute,
	ReportInterval: 8 * time.Second,

	DefaultWindowSize: 128,
	MaxPayloadSize:    128 * 1024,

	SequenceCacheSize: 100_000,
	SeenCacheSize:     100_000,
	SeenCacheTTL:      10 * time.Minute,

	Clock: time.Now,
}

// sanitize checks the provided user configurations and changes anything
// that's unreasonable or unworkable.
func (config *Config) sanitize() Config {
	conf := *config
	if conf.Capacity == 0 {
		utils.Logger().Warn().
			Uint64("provided", conf.Capacity).
			Uint64("updated", DefaultConfig.Capacity).
			Msg("Sanitizing invalid mempool capacity")
		conf.Capacity = DefaultConfig.Capacity
	}
	if conf.CapacityBytes == 0 {
		utils.Logger().Warn().
			Uint64("provided", conf.CapacityBytes).
			Uint64("updated", DefaultConfig.CapacityBytes).
			Msg("Sanitizing invalid mempool byte capacity")
		conf.CapacityBytes = DefaultConfig.CapacityBytes
	}
	if conf.CapacityPerAccount == 0 {
		utils.Logger().Warn().
			Uint64("provided", conf.CapacityPerAccount).
			Uint64("updated", DefaultConfig.CapacityPerAccount).
			Msg("Sanitizing invalid mempool per-account capacity")
		conf.CapacityPerAccount = DefaultConfig.CapacityPerAccount
	}
	if conf.SystemTTL <= 0 {
		utils.Logger().Warn().
			Dur("provided", conf.SystemTTL).
			Dur("updated", DefaultConfig.SystemTTL).
			Msg("Sanitizing invalid mempool system ttl")
		conf.SystemTTL = DefaultConfig.SystemTTL
	}
	if conf.GCInterval < time.Second {
		utils.Logger().Warn().
			Dur("provided", conf.GCInterval).
			Dur("updated", DefaultConfig.GCInterval).
			Msg("Sanitizing invalid mempool gc interval")
		conf.GCInterval = DefaultConfig.GCInterval
	}
	if conf.ReportInterval < time.Second {
		utils.Logger().Warn().
			Dur("provided", conf.ReportInterval).
			Dur("updated", DefaultConfig.ReportInterval).
			Msg("Sanitizing invalid mempool report interval")
		conf.ReportInterval = DefaultConfig.ReportInterval
	}
	if conf.DefaultWindowSize == 0 {
		utils.Logger().Warn().
			Uint64("provided", conf.DefaultWindowSize).
			Uint64("updated", DefaultConfig.DefaultWindowSize).
			Msg("Sanitizing invalid mempool window size")
		conf.DefaultWindowSize = DefaultConfig.DefaultWindowSize
	}
	if conf.MaxPayloadSize == 0 {
		utils.Logger().Warn().
			Uint64("provided", conf.MaxPayloadSize).
			Uint64("updated", DefaultConfig.MaxPayloadSize).
			Msg("Sanitizing invalid mempool max payload size")
		conf.MaxPayloadSize = DefaultConfig.MaxPayloadSize
	}
	if conf.SequenceCacheSize <= 0 {
		utils.Logger().Warn().
			Int("provided", conf.SequenceCacheSize).
			Int("updated", DefaultConfig.SequenceCacheSize).
			Msg("Sanitizing invalid mempool sequence cache size")
		conf.SequenceCacheSize = DefaultConfig.SequenceCacheSize
	}
	if conf.SeenCacheSize <= 0 {
		utils.Logger().Warn().
			Int("provided", conf.SeenCacheSize).
			Int("updated", DefaultConfig.SeenCacheSize).
			Msg("Sanitizing invalid mempool seen cache size")
		conf.SeenCacheSize = DefaultConfig.SeenCacheSize
	}
	if conf.SeenCacheTTL <= 0 {
		utils.Logger().Warn().
			Dur("provided", conf.SeenCacheTTL).
			Dur("updated", DefaultConfig.SeenCacheTTL).
			Msg("Sanitizing invalid mempool seen cache ttl")
		conf.SeenCacheTTL = DefaultConfig.SeenCacheTTL
	}
	if conf.Clock == nil {
		conf.Clock = time.Now
	}
	return conf
}
