package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mshojaei77/tsetmc-go/interfaces"
	"github.com/mshojaei77/tsetmc-go/models"
)

var (
	histStart   string
	histEnd     string
	histAll     bool
	histAdjust  bool
	histWeekday bool
	histDouble  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [stock]",
	Short: "Fetch daily price history",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

var riHistoryCmd = &cobra.Command{
	Use:   "ri-history [stock]",
	Short: "Fetch daily return-index history",
	Args:  cobra.ExactArgs(1),
	RunE:  runRIHistory,
}

var usdRialCmd = &cobra.Command{
	Use:   "usd-rial",
	Short: "Fetch the USD/RIAL reference rate history",
	RunE:  runUSDRial,
}

var (
	chartField  string
	chartOut    string
	chartWidth  int
	chartHeight int
)

var chartCmd = &cobra.Command{
	Use:   "chart [stock]",
	Short: "Render a PNG price chart",
	Args:  cobra.ExactArgs(1),
	RunE:  runChart,
}

var panelField string

var panelCmd = &cobra.Command{
	Use:   "panel [stock]...",
	Short: "Build a multi-stock daily price panel",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPanel,
}

func historyRequest(stock string) interfaces.HistoryRequest {
	return interfaces.HistoryRequest{
		Stock:       stock,
		StartDate:   histStart,
		EndDate:     histEnd,
		IgnoreDates: histAll,
		AdjustPrice: histAdjust,
		ShowWeekday: histWeekday,
		DoubleDate:  histDouble,
	}
}

func runHistory(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	req := historyRequest(args[0])
	hist, err := client.Prices().History(cmd.Context(), req)
	if err != nil {
		return err
	}
	return writePriceBars(hist.Bars, hist.Adjusted, req.DoubleDate)
}

func runUSDRial(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	bars, err := client.Prices().USDRialHistory(cmd.Context(), interfaces.RangeRequest{
		StartDate:   histStart,
		EndDate:     histEnd,
		IgnoreDates: histAll,
	})
	if err != nil {
		return err
	}
	return writePriceBars(bars, false, histDouble)
}

func writePriceBars(bars []models.PriceBar, adjusted, doubleDate bool) error {
	header := []string{"J-Date"}
	if doubleDate {
		header = append(header, "Date")
	}
	header = append(header, "Open", "High", "Low", "Close", "Last", "Count", "Volume", "Value")
	if adjusted {
		header = append(header, "AdjOpen", "AdjHigh", "AdjLow", "AdjClose")
	}

	rows := make([][]string, 0, len(bars))
	for _, b := range bars {
		row := []string{b.JDate}
		if doubleDate {
			row = append(row, b.Date.Format("2006-01-02"))
		}
		row = append(row,
			formatFloat(b.Open), formatFloat(b.High), formatFloat(b.Low), formatFloat(b.Close),
			formatFloat(b.Last), formatInt(b.Count), formatInt(b.Volume), formatInt(b.Value),
		)
		if adjusted {
			row = append(row, formatFloat(b.AdjOpen), formatFloat(b.AdjHigh), formatFloat(b.AdjLow), formatFloat(b.AdjClose))
		}
		rows = append(rows, row)
	}
	return writeCSV(header, rows)
}

func runRIHistory(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	req := historyRequest(args[0])
	bars, err := client.Prices().ReturnIndexHistory(cmd.Context(), req)
	if err != nil {
		return err
	}

	header := []string{"J-Date"}
	if req.DoubleDate {
		header = append(header, "Date")
	}
	header = append(header, "RI-Open", "RI-High", "RI-Low", "RI-Close", "RI-Last", "Count", "Volume", "Value")

	rows := make([][]string, 0, len(bars))
	for _, b := range bars {
		row := []string{b.JDate}
		if req.DoubleDate {
			row = append(row, b.Date.Format("2006-01-02"))
		}
		row = append(row,
			formatFloat(b.RIOpen), formatFloat(b.RIHigh), formatFloat(b.RILow), formatFloat(b.RIClose),
			formatFloat(b.RILast), formatInt(b.Count), formatInt(b.Volume), formatInt(b.Value),
		)
		rows = append(rows, row)
	}
	return writeCSV(header, rows)
}

func runChart(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	hist, err := client.Prices().History(cmd.Context(), historyRequest(args[0]))
	if err != nil {
		return err
	}

	png, err := client.Prices().RenderChart(cmd.Context(), interfaces.ChartRequest{
		History: hist,
		Field:   chartField,
		Width:   chartWidth,
		Height:  chartHeight,
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(chartOut, png, 0644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "chart written to %s (%d bytes)\n", chartOut, len(png))
	return nil
}

func runPanel(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	rows, err := client.Data().PricePanel(cmd.Context(), interfaces.PanelRequest{
		Stocks:    args,
		StartDate: histStart,
		EndDate:   histEnd,
		Field:     panelField,
	})
	if err != nil {
		return err
	}

	header := append([]string{"J-Date"}, args...)
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		row := []string{r.JDate}
		for _, stock := range args {
			if v, ok := r.Values[stock]; ok {
				row = append(row, formatFloat(v))
			} else {
				row = append(row, "")
			}
		}
		out = append(out, row)
	}
	return writeCSV(header, out)
}

func addRangeFlags(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().StringVar(&histStart, "from", "", "start date (Jalali YYYY-MM-DD)")
		c.Flags().StringVar(&histEnd, "to", "", "end date (Jalali YYYY-MM-DD)")
		c.Flags().BoolVar(&histAll, "all", false, "ignore the date range and fetch everything")
	}
}

func init() {
	addRangeFlags(historyCmd, riHistoryCmd, usdRialCmd, chartCmd, panelCmd)
	for _, c := range []*cobra.Command{historyCmd, riHistoryCmd} {
		c.Flags().BoolVar(&histWeekday, "weekday", false, "annotate bars with weekday names")
	}
	for _, c := range []*cobra.Command{historyCmd, riHistoryCmd, usdRialCmd} {
		c.Flags().BoolVar(&histDouble, "double-date", false, "add the Gregorian date column")
	}
	historyCmd.Flags().BoolVar(&histAdjust, "adjust", false, "add capital-increase adjusted columns")
	chartCmd.Flags().BoolVar(&histAdjust, "adjust", false, "draw the adjusted close as a second series")

	chartCmd.Flags().StringVar(&chartField, "field", "Close", "plotted field (Open, High, Low, Close, Last, Volume)")
	chartCmd.Flags().StringVar(&chartOut, "png", "chart.png", "output PNG path")
	chartCmd.Flags().IntVar(&chartWidth, "width", 900, "chart width in pixels")
	chartCmd.Flags().IntVar(&chartHeight, "height", 400, "chart height in pixels")

	panelCmd.Flags().StringVar(&panelField, "field", "Close", "panel field (Open, High, Low, Close, AdjClose, Last, Count, Volume, Value)")

	rootCmd.AddCommand(historyCmd, riHistoryCmd, usdRialCmd, chartCmd, panelCmd)
}
