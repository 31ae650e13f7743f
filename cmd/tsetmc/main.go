package main

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mshojaei77/tsetmc-go/common"
	"github.com/mshojaei77/tsetmc-go/tsetmc"
)

var (
	// Global flags
	configFile string
	logLevel   string
	outputFile string
)

var rootCmd = &cobra.Command{
	Use:   "tsetmc",
	Short: "Tehran Stock Exchange market data client",
	Long: `tsetmc fetches public market data from the Tehran Stock Exchange
(TSETMC): instrument search, daily price history, market index series,
live market watch, and tick-level intraday data.

Dates are Jalali calendar dates in YYYY-MM-DD form.`,
	SilenceUsage: true,
}

// newClient builds a client from the config file, environment, and
// global flags.
func newClient() (*tsetmc.Client, error) {
	config, err := common.LoadConfig(configFile, "tsetmc.toml")
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	return tsetmc.New(tsetmc.WithConfig(config))
}

// writeCSV renders a table to --output, or stdout when unset.
func writeCSV(header []string, rows [][]string) error {
	out := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

func formatInt(v int64) string {
	return fmt.Sprintf("%d", v)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write CSV output to a file instead of stdout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
