package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harmony-one/mempool/internal/cli"
)

// Version string variables
var (
	version string
	builtBy string
	builtAt string
	commit  string
)

var rootCmd = &cobra.Command{
	Use:          "mempool",
	Short:        "run the transaction pool node",
	Long:         "run the transaction pool node: admission, ordering and eviction of pending transactions",
	RunE:         runMempool,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version of the mempool binary",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion()
		os.Exit(0)
	},
}

var dumpConfigCmd = &cobra.Command{
	Use:   "dumpconfig [config_file]",
	Short: "dump the default config to file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dumpConfig(args[0])
	},
}

func init() {
	cli.SetParseErrorHandle(func(err error) {
		fmt.Println(err)
		os.Exit(128)
	})
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(dumpConfigCmd)

	if err := registerRootCmdFlags(); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func getVersion() string {
	return fmt.Sprintf("Harmony mempool (C) 2023. %v, version %v-%v (%v %v)", "mempool", version, commit, builtBy, builtAt)
}

func printVersion() {
	fmt.Println(getVersion())
}
