package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mshojaei77/tsetmc-go/interfaces"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search instruments by symbol or company name",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var shareholdersCmd = &cobra.Command{
	Use:   "shareholders [stock]",
	Short: "List the major shareholders of an instrument",
	Args:  cobra.ExactArgs(1),
	RunE:  runShareholders,
}

var sectorCmd = &cobra.Command{
	Use:   "sector [name]",
	Short: "List the instruments of an industry sector",
	Args:  cobra.ExactArgs(1),
	RunE:  runSector,
}

var (
	stockListDetailed bool
	stockListPayeh    bool
	stockListExport   bool
)

var stockListCmd = &cobra.Command{
	Use:   "stocklist",
	Short: "Build the table of all listed instruments",
	RunE:  runStockList,
}

func runSearch(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	results, err := client.Stocks().Search(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.Symbol, r.Name, r.WebID, string(r.Market), r.Sector, r.ISIN})
	}
	return writeCSV([]string{"Symbol", "Name", "WebID", "Market", "Sector", "ISIN"}, rows)
}

func runShareholders(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	holders, err := client.Stocks().Shareholders(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(holders))
	for _, h := range holders {
		rows = append(rows, []string{h.Name, formatInt(h.Shares), h.Percentage})
	}
	return writeCSV([]string{"Name", "Shares", "Percentage"}, rows)
}

func runSector(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	stocks, err := client.Stocks().SectorStocks(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(stocks))
	for _, s := range stocks {
		rows = append(rows, []string{s.Symbol, s.Name, s.WebID, formatFloat(s.LastPrice), formatFloat(s.Change), s.ChangePct})
	}
	return writeCSV([]string{"Symbol", "Name", "WebID", "LastPrice", "Change", "Change%"}, rows)
}

func runStockList(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	stocks, err := client.Data().BuildStockList(cmd.Context(), interfaces.StockListRequest{
		Detailed:     stockListDetailed,
		IncludePayeh: stockListPayeh,
	})
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(stocks))
	for _, s := range stocks {
		rows = append(rows, []string{
			s.Symbol, s.Name, s.WebID, string(s.Market),
			s.Panel, s.Sector, s.SubSector, s.NameEnglish, s.CompanyCode,
		})
	}
	header := []string{"Symbol", "Name", "WebID", "Market", "Panel", "Sector", "SubSector", "NameEN", "CompanyCode"}

	if stockListExport {
		cache := client.Cache()
		if cache == nil {
			return fmt.Errorf("--export needs the cache enabled (see [cache] in the config)")
		}
		path, err := cache.SaveCSV("stocklist", header, rows)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	}
	return writeCSV(header, rows)
}

func init() {
	stockListCmd.Flags().BoolVar(&stockListDetailed, "detailed", false, "fetch every instrument's detail page")
	stockListCmd.Flags().BoolVar(&stockListPayeh, "payeh", false, "include the IFB payeh boards")
	stockListCmd.Flags().BoolVar(&stockListExport, "export", false, "write the table to the cache's export directory instead of stdout")

	rootCmd.AddCommand(searchCmd, shareholdersCmd, sectorCmd, stockListCmd)
}
