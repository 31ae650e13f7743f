package main

import (
	"github.com/spf13/cobra"

	"github.com/mshojaei77/tsetmc-go/interfaces"
)

var (
	intraStart string
	intraEnd   string
)

var tradesCmd = &cobra.Command{
	Use:   "trades [stock]",
	Short: "Fetch tick-level intraday trades",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrades,
}

var orderBookHistCmd = &cobra.Command{
	Use:   "orderbook [stock]",
	Short: "Fetch intraday order-book history",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrderBookHistory,
}

func intradayRequest(stock string) interfaces.IntradayRequest {
	return interfaces.IntradayRequest{
		Stock:     stock,
		StartDate: intraStart,
		EndDate:   intraEnd,
	}
}

func runTrades(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	trades, err := client.Trading().IntradayTrades(cmd.Context(), intradayRequest(args[0]))
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []string{t.JDate, t.Time, formatInt(t.Volume), formatFloat(t.Price)})
	}
	return writeCSV([]string{"J-Date", "Time", "Volume", "Price"}, rows)
}

func runOrderBookHistory(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	quotes, err := client.Trading().IntradayOrderBook(cmd.Context(), intradayRequest(args[0]))
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, []string{
			q.JDate, q.Time, formatInt(int64(q.Depth)),
			formatInt(q.SellCount), formatInt(q.SellVolume), formatFloat(q.SellPrice),
			formatFloat(q.BuyPrice), formatInt(q.BuyVolume), formatInt(q.BuyCount),
			formatFloat(q.DayLower), formatFloat(q.DayUpper),
		})
	}
	return writeCSV([]string{
		"J-Date", "Time", "Depth",
		"SellCount", "SellVol", "SellPrice", "BuyPrice", "BuyVol", "BuyCount",
		"DayLower", "DayUpper",
	}, rows)
}

func init() {
	for _, c := range []*cobra.Command{tradesCmd, orderBookHistCmd} {
		c.Flags().StringVar(&intraStart, "from", "", "start date (Jalali YYYY-MM-DD)")
		c.Flags().StringVar(&intraEnd, "to", "", "end date (Jalali YYYY-MM-DD)")
		c.MarkFlagRequired("from")
		c.MarkFlagRequired("to")
	}
	rootCmd.AddCommand(tradesCmd, orderBookHistCmd)
}
