// Package mempool holds the user-facing configuration of the mempool binary.
// The structure is persisted as a toml file and bridges user flags to the
// internal configs of the pool and its services.
package mempool

import (
	"os"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	prom "github.com/harmony-one/mempool/api/service/prometheus"
	core "github.com/harmony-one/mempool/core/mempool"
)

// TOMLConfigVersion is the version of the toml layout written by Write.
const TOMLConfigVersion = "1.0.0"

// Accepted values of GeneralConfig.DefaultMode.
const (
	ModeStrict = "strict"
	ModeWindow = "window"
)

// MempoolConfig contains all the configs user can set for running the mempool binary.
type MempoolConfig struct {
	Version    string
	General    GeneralConfig
	Pool       PoolConfig
	Log        LogConfig
	Prometheus PrometheusConfig
}

type GeneralConfig struct {
	DataDir     string
	StateDB     string // leveldb holding committed account sequencing state, relative to DataDir
	DBCache     int    // leveldb cache in megabytes
	DBHandles   int
	DefaultMode string // sequencing mode of accounts with no stored state
}

type PoolConfig struct {
	Capacity           uint64
	CapacityBytes      uint64
	CapacityPerAccount uint64
	SystemTTL          string
	GCInterval         string
	ReportInterval     string
	DefaultWindowSize  uint64
	MaxPayloadSize     uint64
	SequenceCacheSize  int
	SeenCacheSize      int
	SeenCacheTTL       string
}

type LogConfig struct {
	Folder       string
	FileName     string
	RotateSize   int
	RotateCount  int
	RotateMaxAge int
	Verbosity    int
}

type PrometheusConfig struct {
	Enabled bool
	IP      string
	Port    int
}

var defaultConfig = MempoolConfig{
	Version: TOMLConfigVersion,
	General: GeneralConfig{
		DataDir:     "./",
		StateDB:     "state_db",
		DBCache:     64,
		DBHandles:   256,
		DefaultMode: ModeStrict,
	},
	Pool: PoolConfig{
		Capacity:           core.DefaultConfig.Capacity,
		CapacityBytes:      core.DefaultConfig.CapacityBytes,
		CapacityPerAccount: core.DefaultConfig.CapacityPerAccount,
		SystemTTL:          core.DefaultConfig.SystemTTL.String(),
		GCInterval:         core.DefaultConfig.GCInterval.String(),
		ReportInterval:     core.DefaultConfig.ReportInterval.String(),
		DefaultWindowSize:  core.DefaultConfig.DefaultWindowSize,
		MaxPayloadSize:     core.DefaultConfig.MaxPayloadSize,
		SequenceCacheSize:  core.DefaultConfig.SequenceCacheSize,
		SeenCacheSize:      core.DefaultConfig.SeenCacheSize,
		SeenCacheTTL:       core.DefaultConfig.SeenCacheTTL.String(),
	},
	Log: LogConfig{
		Folder:       "./latest",
		FileName:     "mempool.log",
		RotateSize:   100,
		RotateCount:  0,
		RotateMaxAge: 0,
		Verbosity:    3,
	},
	Prometheus: PrometheusConfig{
		Enabled: true,
		IP:      "0.0.0.0",
		Port:    9900,
	},
}

// Default returns a copy of the default config.
func Default() MempoolConfig {
	return defaultConfig
}

// Load reads the config from a toml file. Missing fields keep their defaults.
func Load(file string) (MempoolConfig, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return MempoolConfig{}, err
	}
	config := Default()
	if err := toml.Unmarshal(b, &config); err != nil {
		return MempoolConfig{}, errors.Wrapf(err, "parse config %s", file)
	}
	if config.Version != TOMLConfigVersion {
		return MempoolConfig{}, errors.Errorf("unsupported config version %q, want %q", config.Version, TOMLConfigVersion)
	}
	return config, nil
}

// Write persists the config as toml.
func Write(config *MempoolConfig, file string) error {
	b, err := toml.Marshal(*config)
	if err != nil {
		return err
	}
	return os.WriteFile(file, b, 0644)
}

// Validate checks the fields that cannot be sanitized by the pool itself.
func (c MempoolConfig) Validate() error {
	if _, err := c.DefaultAccountState(); err != nil {
		return err
	}
	if _, err := c.ToPoolConfig(); err != nil {
		return err
	}
	if c.Prometheus.Enabled && (c.Prometheus.Port <= 0 || c.Prometheus.Port > 65535) {
		return errors.Errorf("invalid prometheus port %d", c.Prometheus.Port)
	}
	if c.Log.Verbosity < 0 || c.Log.Verbosity > 5 {
		return errors.Errorf("invalid log verbosity %d", c.Log.Verbosity)
	}
	return nil
}

// ToPoolConfig converts the toml pool section into the pool config.
func (c MempoolConfig) ToPoolConfig() (core.Config, error) {
	systemTTL, err := parseDuration("Pool.SystemTTL", c.Pool.SystemTTL)
	if err != nil {
		return core.Config{}, err
	}
	gcInterval, err := parseDuration("Pool.GCInterval", c.Pool.GCInterval)
	if err != nil {
		return core.Config{}, err
	}
	reportInterval, err := parseDuration("Pool.ReportInterval", c.Pool.ReportInterval)
	if err != nil {
		return core.Config{}, err
	}
	seenTTL, err := parseDuration("Pool.SeenCacheTTL", c.Pool.SeenCacheTTL)
	if err != nil {
		return core.Config{}, err
	}
	return core.Config{
		Capacity:           c.Pool.Capacity,
		CapacityBytes:      c.Pool.CapacityBytes,
		CapacityPerAccount: c.Pool.CapacityPerAccount,
		SystemTTL:          systemTTL,
		GCInterval:         gcInterval,
		ReportInterval:     reportInterval,
		DefaultWindowSize:  c.Pool.DefaultWindowSize,
		MaxPayloadSize:     c.Pool.MaxPayloadSize,
		SequenceCacheSize:  c.Pool.SequenceCacheSize,
		SeenCacheSize:      c.Pool.SeenCacheSize,
		SeenCacheTTL:       seenTTL,
		Clock:              time.Now,
	}, nil
}

// DefaultAccountState returns the state assumed for accounts the state
// store knows nothing about.
func (c MempoolConfig) DefaultAccountState() (core.AccountState, error) {
	switch c.General.DefaultMode {
	case ModeStrict:
		return core.AccountState{Mode: core.SequenceStrict}, nil
	case ModeWindow:
		return core.AccountState{Mode: core.SequenceWindow, WindowSize: c.Pool.DefaultWindowSize}, nil
	}
	return core.AccountState{}, errors.Errorf("unknown sequencing mode %q, accepts %q or %q",
		c.General.DefaultMode, ModeStrict, ModeWindow)
}

// ToPrometheusConfig converts the toml prometheus section into the service config.
func (c MempoolConfig) ToPrometheusConfig() prom.Config {
	return prom.Config{
		Enabled: c.Prometheus.Enabled,
		IP:      c.Prometheus.IP,
		Port:    c.Prometheus.Port,
	}
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", field)
	}
	return d, nil
}
