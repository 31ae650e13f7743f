package models

import "time"

// IndexKind names a TSE market index series.
type IndexKind string

const (
	IndexCWI   IndexKind = "CWI"   // overall index, cap weighted
	IndexEWI   IndexKind = "EWI"   // overall index, equal weighted
	IndexCWPI  IndexKind = "CWPI"  // price index, cap weighted
	IndexEWPI  IndexKind = "EWPI"  // price index, equal weighted
	IndexFFI   IndexKind = "FFI"   // free float index
	IndexMKT1I IndexKind = "MKT1I" // first market index
	IndexMKT2I IndexKind = "MKT2I" // second market index
	IndexINDI  IndexKind = "INDI"  // industry index
	IndexLCI30 IndexKind = "LCI30" // 30 large companies
	IndexACT50 IndexKind = "ACT50" // 50 most active companies
)

// IndexKinds lists all supported index kinds.
func IndexKinds() []IndexKind {
	return []IndexKind{
		IndexCWI, IndexEWI, IndexCWPI, IndexEWPI, IndexFFI,
		IndexMKT1I, IndexMKT2I, IndexINDI, IndexLCI30, IndexACT50,
	}
}

// IndexBar represents one day of a market index series. OHLCV fields are
// zero when only the adjusted close was requested.
type IndexBar struct {
	JDate    string    `json:"j_date"`
	Date     time.Time `json:"date"`
	Weekday  string    `json:"weekday,omitempty"`
	Open     float64   `json:"open,omitempty"`
	High     float64   `json:"high,omitempty"`
	Low      float64   `json:"low,omitempty"`
	Close    float64   `json:"close,omitempty"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume,omitempty"`
}

// WatchRow is one instrument of the live market-watch snapshot, joined
// from the price, client-type, and depth-1 order book feeds.
type WatchRow struct {
	Symbol string     `json:"symbol"`
	Name   string     `json:"name"`
	WebID  string     `json:"web_id"`
	Time   string     `json:"time"` // HH:MM:SS, last trade time
	Market MarketType `json:"market"`
	Sector string     `json:"sector"`

	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Final     float64 `json:"final"`
	ClosePct  float64 `json:"close_pct"` // vs yesterday's final
	FinalPct  float64 `json:"final_pct"`
	YFinal    float64 `json:"y_final"`
	Count     int64   `json:"count"`
	Volume    int64   `json:"volume"`
	Value     int64   `json:"value"`
	DayUpper  float64 `json:"day_upper"` // static price band
	DayLower  float64 `json:"day_lower"`
	EPS       float64 `json:"eps"`
	BaseVol   int64   `json:"base_volume"`
	ShareNo   int64   `json:"share_count"`
	MarketCap float64 `json:"market_cap"`

	// Queue values when the best limit is locked at the daily band.
	BuyQueueValue    float64 `json:"buy_queue_value"`
	SellQueueValue   float64 `json:"sell_queue_value"`
	BuyQueuePerCap   int64   `json:"buy_queue_per_capita"`
	SellQueuePerCap  int64   `json:"sell_queue_per_capita"`

	// Client-type (retail/institutional) breakdown.
	BuyCountRetail  int64 `json:"buy_count_retail"`
	BuyCountInst    int64 `json:"buy_count_inst"`
	BuyVolRetail    int64 `json:"buy_vol_retail"`
	BuyVolInst      int64 `json:"buy_vol_inst"`
	SellCountRetail int64 `json:"sell_count_retail"`
	SellCountInst   int64 `json:"sell_count_inst"`
	SellVolRetail   int64 `json:"sell_vol_retail"`
	SellVolInst     int64 `json:"sell_vol_inst"`
}

// OrderBookRow is one depth level of the live order book.
type OrderBookRow struct {
	Symbol    string  `json:"symbol"`
	WebID     string  `json:"web_id"`
	Depth     int     `json:"depth"`
	BuyCount  int64   `json:"buy_count"`
	BuyVolume int64   `json:"buy_volume"`
	BuyPrice  float64 `json:"buy_price"`
	SellPrice float64 `json:"sell_price"`
	SellVolume int64  `json:"sell_volume"`
	SellCount int64   `json:"sell_count"`
	DayUpper  float64 `json:"day_upper"`
	DayLower  float64 `json:"day_lower"`
}

// MarketWatch is one live snapshot of the whole market.
type MarketWatch struct {
	Rows      []WatchRow     `json:"rows"`
	OrderBook []OrderBookRow `json:"order_book"`
	FetchedAt time.Time      `json:"fetched_at"`
}
