package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harmony-one/mempool/internal/cli"
	mempoolconfig "github.com/harmony-one/mempool/internal/configs/mempool"
)

// getMempoolConfig loads the config file given by --config (or the
// defaults) and applies the command line flags on top of it.
func getMempoolConfig(cmd *cobra.Command) (mempoolconfig.MempoolConfig, error) {
	var (
		config mempoolconfig.MempoolConfig
		err    error
	)
	if cli.IsFlagChanged(cmd, configFlag) {
		configFile := cli.GetStringFlagValue(cmd, configFlag)
		config, err = mempoolconfig.Load(configFile)
	} else {
		config = mempoolconfig.Default()
	}
	if err != nil {
		return mempoolconfig.MempoolConfig{}, err
	}

	if cli.HasFlagsChanged(cmd, generalFlags) {
		applyGeneralFlags(cmd, &config)
	}
	if cli.HasFlagsChanged(cmd, poolFlags) {
		applyPoolFlags(cmd, &config)
	}
	if cli.HasFlagsChanged(cmd, logFlags) {
		applyLogFlags(cmd, &config)
	}
	if cli.HasFlagsChanged(cmd, prometheusFlags) {
		applyPrometheusFlags(cmd, &config)
	}

	if err := config.Validate(); err != nil {
		return mempoolconfig.MempoolConfig{}, err
	}
	return config, nil
}

func dumpConfig(file string) error {
	config := mempoolconfig.Default()
	if err := mempoolconfig.Write(&config, file); err != nil {
		return err
	}
	fmt.Printf("Default config dumped to %s\n", file)
	return nil
}
