// Package interfaces defines the public contracts of the TSETMC client:
// the HTTP gateway, the five market-data services, and the local cache.
package interfaces

import (
	"context"

	"github.com/mshojaei77/tsetmc-go/models"
)

// HistoryRequest describes a daily price history query.
// Dates are Jalali calendar dates in yyyy-mm-dd form.
type HistoryRequest struct {
	// Stock is the instrument symbol or company name to look up.
	Stock     string
	StartDate string
	EndDate   string

	// IgnoreDates fetches the full available history instead of the range.
	IgnoreDates bool

	// AdjustPrice adds capital-increase adjusted price columns.
	AdjustPrice bool

	// ShowWeekday annotates each bar with its Persian weekday name.
	ShowWeekday bool

	// DoubleDate shows the Gregorian date alongside the Jalali one when
	// the result is rendered. Every bar carries both dates regardless.
	DoubleDate bool
}

// RangeRequest is a plain Jalali date range.
type RangeRequest struct {
	StartDate   string
	EndDate     string
	IgnoreDates bool
}

// IndexRequest describes a market index history query.
type IndexRequest struct {
	Kind        models.IndexKind
	StartDate   string
	EndDate     string
	IgnoreDates bool

	// AdjCloseOnly skips the OHLCV feed and returns only the adjusted
	// close series.
	AdjCloseOnly bool
	ShowWeekday  bool
	DoubleDate   bool
}

// IntradayRequest describes an intraday (tick-level) query over a range
// of trading days.
type IntradayRequest struct {
	Stock     string
	StartDate string
	EndDate   string
}

// StockListRequest selects which boards to include when building the
// listed-stock table.
type StockListRequest struct {
	// Detailed fetches the per-instrument detail page for every stock,
	// which adds sector and board columns at the cost of one extra
	// request per instrument.
	Detailed bool

	// IncludePayeh adds the IFB (payeh) boards to the bourse and
	// farabourse lists.
	IncludePayeh bool
}

// PanelRequest describes a multi-stock daily panel for one field.
type PanelRequest struct {
	Stocks    []string
	StartDate string
	EndDate   string

	// Field selects the per-day value: one of "Open", "High", "Low",
	// "Close", "AdjClose", "Last", "Count", "Volume", "Value".
	// Defaults to "Close".
	Field string
}

// ChartRequest describes a price chart rendering.
type ChartRequest struct {
	History *models.PriceHistory

	// Field selects the plotted series, "Close" by default.
	Field  string
	Width  int
	Height int
}

// StockService resolves instruments and their static relations.
type StockService interface {
	// Search returns every instrument matching the query.
	Search(ctx context.Context, query string) ([]models.Instrument, error)

	// Resolve returns the single best instrument for a symbol or name.
	Resolve(ctx context.Context, query string) (*models.Instrument, error)

	// WebID returns the TSETMC web ID for a symbol or name.
	WebID(ctx context.Context, stock string) (string, error)

	// SectorStocks lists the instruments of one industry sector.
	SectorStocks(ctx context.Context, sector string) ([]models.SectorStock, error)

	// Shareholders lists the major shareholders of an instrument.
	Shareholders(ctx context.Context, stock string) ([]models.Shareholder, error)
}

// PriceService fetches daily price and return-index series.
type PriceService interface {
	History(ctx context.Context, req HistoryRequest) (*models.PriceHistory, error)
	ReturnIndexHistory(ctx context.Context, req HistoryRequest) ([]models.ReturnIndexBar, error)
	USDRialHistory(ctx context.Context, req RangeRequest) ([]models.PriceBar, error)
	RenderChart(ctx context.Context, req ChartRequest) ([]byte, error)
}

// MarketService fetches market-wide series and the live watch snapshot.
type MarketService interface {
	IndexHistory(ctx context.Context, req IndexRequest) ([]models.IndexBar, error)
	Watch(ctx context.Context) (*models.MarketWatch, error)
}

// TradingService fetches tick-level intraday data.
type TradingService interface {
	IntradayTrades(ctx context.Context, req IntradayRequest) ([]models.IntradayTrade, error)
	IntradayOrderBook(ctx context.Context, req IntradayRequest) ([]models.IntradayQuote, error)
}

// DataService builds bulk tables spanning many instruments.
type DataService interface {
	BuildStockList(ctx context.Context, req StockListRequest) ([]models.ListedStock, error)
	PricePanel(ctx context.Context, req PanelRequest) ([]models.PanelRow, error)
}
