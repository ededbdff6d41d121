package main

import (
	"github.com/spf13/cobra"

	"github.com/harmony-one/mempool/internal/cli"
	mempoolconfig "github.com/harmony-one/mempool/internal/configs/mempool"
)

var defaultConfig = mempoolconfig.Default()

var (
	configFlag = cli.StringFlag{
		Name:      "config",
		Usage:     "load mempool config from the config toml file.",
		Shorthand: "c",
		DefValue:  "",
	}

	generalFlags = []cli.Flag{
		dataDirFlag,
		stateDBFlag,
		defaultModeFlag,
	}

	poolFlags = []cli.Flag{
		capacityFlag,
		capacityBytesFlag,
		capacityPerAccountFlag,
		systemTTLFlag,
		gcIntervalFlag,
		windowSizeFlag,
		maxPayloadSizeFlag,
	}

	logFlags = []cli.Flag{
		logFolderFlag,
		logFileNameFlag,
		logRotateSizeFlag,
		logVerbosityFlag,
	}

	prometheusFlags = []cli.Flag{
		prometheusEnabledFlag,
		prometheusIPFlag,
		prometheusPortFlag,
	}
)

// general flags
var (
	dataDirFlag = cli.StringFlag{
		Name:     "datadir",
		Usage:    "directory of the state database",
		DefValue: defaultConfig.General.DataDir,
	}
	stateDBFlag = cli.StringFlag{
		Name:     "statedb",
		Usage:    "name of the leveldb holding committed account sequencing state",
		DefValue: defaultConfig.General.StateDB,
	}
	defaultModeFlag = cli.StringFlag{
		Name:     "mode",
		Usage:    "sequencing mode of unknown accounts: strict or window",
		DefValue: defaultConfig.General.DefaultMode,
	}
)

func applyGeneralFlags(cmd *cobra.Command, config *mempoolconfig.MempoolConfig) {
	if cli.IsFlagChanged(cmd, dataDirFlag) {
		config.General.DataDir = cli.GetStringFlagValue(cmd, dataDirFlag)
	}
	if cli.IsFlagChanged(cmd, stateDBFlag) {
		config.General.StateDB = cli.GetStringFlagValue(cmd, stateDBFlag)
	}
	if cli.IsFlagChanged(cmd, defaultModeFlag) {
		config.General.DefaultMode = cli.GetStringFlagValue(cmd, defaultModeFlag)
	}
}

// pool flags
var (
	capacityFlag = cli.Uint64Flag{
		Name:     "pool.capacity",
		Usage:    "maximum number of transactions in the pool",
		DefValue: defaultConfig.Pool.Capacity,
	}
	capacityBytesFlag = cli.Uint64Flag{
		Name:     "pool.capacity-bytes",
		Usage:    "maximum accumulated payload size of the pool",
		DefValue: defaultConfig.Pool.CapacityBytes,
	}
	capacityPerAccountFlag = cli.Uint64Flag{
		Name:     "pool.account-slots",
		Usage:    "maximum number of transactions held per account",
		DefValue: defaultConfig.Pool.CapacityPerAccount,
	}
	systemTTLFlag = cli.StringFlag{
		Name:     "pool.ttl",
		Usage:    "maximum time a transaction may stay in the pool",
		DefValue: defaultConfig.Pool.SystemTTL,
	}
	gcIntervalFlag = cli.StringFlag{
		Name:     "pool.gc-interval",
		Usage:    "period of the expiration and age sweeps",
		DefValue: defaultConfig.Pool.GCInterval,
	}
	windowSizeFlag = cli.Uint64Flag{
		Name:     "pool.window-size",
		Usage:    "nonce window size of window accounts with no stored size",
		DefValue: defaultConfig.Pool.DefaultWindowSize,
	}
	maxPayloadSizeFlag = cli.Uint64Flag{
		Name:     "pool.max-payload",
		Usage:    "maximum size in bytes of a single transaction",
		DefValue: defaultConfig.Pool.MaxPayloadSize,
	}
)

func applyPoolFlags(cmd *cobra.Command, config *mempoolconfig.MempoolConfig) {
	if cli.IsFlagChanged(cmd, capacityFlag) {
		config.Pool.Capacity = cli.GetUint64FlagValue(cmd, capacityFlag)
	}
	if cli.IsFlagChanged(cmd, capacityBytesFlag) {
		config.Pool.CapacityBytes = cli.GetUint64FlagValue(cmd, capacityBytesFlag)
	}
	if cli.IsFlagChanged(cmd, capacityPerAccountFlag) {
		config.Pool.CapacityPerAccount = cli.GetUint64FlagValue(cmd, capacityPerAccountFlag)
	}
	if cli.IsFlagChanged(cmd, systemTTLFlag) {
		config.Pool.SystemTTL = cli.GetStringFlagValue(cmd, systemTTLFlag)
	}
	if cli.IsFlagChanged(cmd, gcIntervalFlag) {
		config.Pool.GCInterval = cli.GetStringFlagValue(cmd, gcIntervalFlag)
	}
	if cli.IsFlagChanged(cmd, windowSizeFlag) {
		config.Pool.DefaultWindowSize = cli.GetUint64FlagValue(cmd, windowSizeFlag)
	}
	if cli.IsFlagChanged(cmd, maxPayloadSizeFlag) {
		config.Pool.MaxPayloadSize = cli.GetUint64FlagValue(cmd, maxPayloadSizeFlag)
	}
}

// log flags
var (
	logFolderFlag = cli.StringFlag{
		Name:     "log.dir",
		Usage:    "directory path to put rotation logs",
		DefValue: defaultConfig.Log.Folder,
	}
	logFileNameFlag = cli.StringFlag{
		Name:     "log.name",
		Usage:    "log file name (e.g. mempool.log)",
		DefValue: defaultConfig.Log.FileName,
	}
	logRotateSizeFlag = cli.IntFlag{
		Name:     "log.max-size",
		Usage:    "rotation log size in megabytes",
		DefValue: defaultConfig.Log.RotateSize,
	}
	logVerbosityFlag = cli.IntFlag{
		Name:      "log.verb",
		Shorthand: "v",
		Usage:     "logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		DefValue:  defaultConfig.Log.Verbosity,
	}
)

func applyLogFlags(cmd *cobra.Command, config *mempoolconfig.MempoolConfig) {
	if cli.IsFlagChanged(cmd, logFolderFlag) {
		config.Log.Folder = cli.GetStringFlagValue(cmd, logFolderFlag)
	}
	if cli.IsFlagChanged(cmd, logFileNameFlag) {
		config.Log.FileName = cli.GetStringFlagValue(cmd, logFileNameFlag)
	}
	if cli.IsFlagChanged(cmd, logRotateSizeFlag) {
		config.Log.RotateSize = cli.GetIntFlagValue(cmd, logRotateSizeFlag)
	}
	if cli.IsFlagChanged(cmd, logVerbosityFlag) {
		config.Log.Verbosity = cli.GetIntFlagValue(cmd, logVerbosityFlag)
	}
}

// prometheus flags
var (
	prometheusEnabledFlag = cli.BoolFlag{
		Name:     "prometheus",
		Usage:    "enable HTTP access of Prometheus metrics",
		DefValue: defaultConfig.Prometheus.Enabled,
	}
	prometheusIPFlag = cli.StringFlag{
		Name:     "prometheus.ip",
		Usage:    "ip address to listen for prometheus service",
		DefValue: defaultConfig.Prometheus.IP,
	}
	prometheusPortFlag = cli.IntFlag{
		Name:     "prometheus.port",
		Usage:    "prometheus port to listen for HTTP access",
		DefValue: defaultConfig.Prometheus.Port,
	}
)

func applyPrometheusFlags(cmd *cobra.Command, config *mempoolconfig.MempoolConfig) {
	if cli.IsFlagChanged(cmd, prometheusEnabledFlag) {
		config.Prometheus.Enabled = cli.GetBoolFlagValue(cmd, prometheusEnabledFlag)
	}
	if cli.IsFlagChanged(cmd, prometheusIPFlag) {
		config.Prometheus.IP = cli.GetStringFlagValue(cmd, prometheusIPFlag)
	}
	if cli.IsFlagChanged(cmd, prometheusPortFlag) {
		config.Prometheus.Port = cli.GetIntFlagValue(cmd, prometheusPortFlag)
	}
}

func getRootFlags() []cli.Flag {
	var flags []cli.Flag

	flags = append(flags, configFlag)
	flags = append(flags, generalFlags...)
	flags = append(flags, poolFlags...)
	flags = append(flags, logFlags...)
	flags = append(flags, prometheusFlags...)

	return flags
}

func registerRootCmdFlags() error {
	return cli.RegisterFlags(rootCmd, getRootFlags())
}
