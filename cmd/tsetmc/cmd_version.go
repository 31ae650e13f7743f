package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mshojaei77/tsetmc-go/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := common.LoadConfig(configFile, "tsetmc.toml")
		if err != nil {
			return err
		}
		logger := common.NewLogger(config.Logging.Level)
		common.PrintBanner(config, logger)
		fmt.Fprintln(cmd.OutOrStdout(), common.GetFullVersion())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
