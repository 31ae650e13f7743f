package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mshojaei77/tsetmc-go/interfaces"
	"github.com/mshojaei77/tsetmc-go/models"
)

var (
	indexStart    string
	indexEnd      string
	indexAll      bool
	indexAdjOnly  bool
	indexDouble   bool
	watchSaveName string
)

var indexCmd = &cobra.Command{
	Use:   "index [kind]",
	Short: "Fetch a market index series",
	Long: `Fetches one market index series. Kinds:

  CWI    overall index (cap weighted)      EWI    overall index (equal weighted)
  CWPI   price index (cap weighted)        EWPI   price index (equal weighted)
  FFI    free float index                  INDI   industry index
  MKT1I  first market index                MKT2I  second market index
  LCI30  30 large companies                ACT50  50 most active companies`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Fetch a live snapshot of the whole market",
	RunE:  runWatch,
}

var orderBookCmd = &cobra.Command{
	Use:   "orderbook-live",
	Short: "Fetch the live order book of the whole market",
	RunE:  runLiveOrderBook,
}

func runIndex(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	req := interfaces.IndexRequest{
		Kind:         models.IndexKind(strings.ToUpper(args[0])),
		StartDate:    indexStart,
		EndDate:      indexEnd,
		IgnoreDates:  indexAll,
		AdjCloseOnly: indexAdjOnly,
		DoubleDate:   indexDouble,
	}
	bars, err := client.Market().IndexHistory(cmd.Context(), req)
	if err != nil {
		return err
	}

	header := []string{"J-Date"}
	if req.DoubleDate {
		header = append(header, "Date")
	}
	header = append(header, "Open", "High", "Low", "Close", "AdjClose", "Volume")

	rows := make([][]string, 0, len(bars))
	for _, b := range bars {
		row := []string{b.JDate}
		if req.DoubleDate {
			row = append(row, b.Date.Format("2006-01-02"))
		}
		row = append(row,
			formatFloat(b.Open), formatFloat(b.High), formatFloat(b.Low), formatFloat(b.Close),
			formatFloat(b.AdjClose), formatInt(b.Volume),
		)
		rows = append(rows, row)
	}
	return writeCSV(header, rows)
}

func runWatch(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	watch, err := client.Market().Watch(cmd.Context())
	if err != nil {
		return err
	}

	if watchSaveName != "" && client.Cache() != nil {
		if err := client.Cache().SaveJSON(watchSaveName, watch); err != nil {
			return fmt.Errorf("failed to cache snapshot: %w", err)
		}
	}

	rows := make([][]string, 0, len(watch.Rows))
	for _, r := range watch.Rows {
		rows = append(rows, []string{
			r.Symbol, r.Name, r.Time, string(r.Market), r.Sector,
			formatFloat(r.Open), formatFloat(r.High), formatFloat(r.Low),
			formatFloat(r.Close), formatFloat(r.Final),
			formatFloat(r.ClosePct), formatFloat(r.FinalPct),
			formatInt(r.Count), formatInt(r.Volume), formatInt(r.Value),
			formatFloat(r.BuyQueueValue), formatFloat(r.SellQueueValue),
			formatFloat(r.MarketCap),
		})
	}
	return writeCSV([]string{
		"Symbol", "Name", "Time", "Market", "Sector",
		"Open", "High", "Low", "Close", "Final", "Close%", "Final%",
		"Count", "Volume", "Value", "BQ-Value", "SQ-Value", "MarketCap",
	}, rows)
}

func runLiveOrderBook(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	watch, err := client.Market().Watch(cmd.Context())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(watch.OrderBook))
	for _, r := range watch.OrderBook {
		rows = append(rows, []string{
			r.Symbol, r.WebID, formatInt(int64(r.Depth)),
			formatInt(r.BuyCount), formatInt(r.BuyVolume), formatFloat(r.BuyPrice),
			formatFloat(r.SellPrice), formatInt(r.SellVolume), formatInt(r.SellCount),
		})
	}
	return writeCSV([]string{"Symbol", "WebID", "Depth", "BuyCount", "BuyVol", "BuyPrice", "SellPrice", "SellVol", "SellCount"}, rows)
}

func init() {
	indexCmd.Flags().StringVar(&indexStart, "from", "", "start date (Jalali YYYY-MM-DD)")
	indexCmd.Flags().StringVar(&indexEnd, "to", "", "end date (Jalali YYYY-MM-DD)")
	indexCmd.Flags().BoolVar(&indexAll, "all", false, "ignore the date range and fetch everything")
	indexCmd.Flags().BoolVar(&indexAdjOnly, "adj-close-only", false, "skip the OHLCV feed")
	indexCmd.Flags().BoolVar(&indexDouble, "double-date", false, "add the Gregorian date column")

	watchCmd.Flags().StringVar(&watchSaveName, "save", "", "also cache the snapshot under this key")

	rootCmd.AddCommand(indexCmd, watchCmd, orderBookCmd)
}
