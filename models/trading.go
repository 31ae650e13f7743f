package models

// IntradayTrade is a single trade from the per-day trade history feed.
type IntradayTrade struct {
	JDate  string  `json:"j_date"`
	Time   string  `json:"time"` // HH:MM:SS
	Volume int64   `json:"volume"`
	Price  float64 `json:"price"`
}

// IntradayQuote is one order-book observation from the per-day best
// limits feed, clamped to the continuous trading session.
type IntradayQuote struct {
	JDate      string  `json:"j_date"`
	Time       string  `json:"time"` // HH:MM:SS
	Depth      int     `json:"depth"`
	SellCount  int64   `json:"sell_count"`
	SellVolume int64   `json:"sell_volume"`
	SellPrice  float64 `json:"sell_price"`
	BuyPrice   float64 `json:"buy_price"`
	BuyVolume  int64   `json:"buy_volume"`
	BuyCount   int64   `json:"buy_count"`
	DayLower   float64 `json:"day_lower"` // static price band for that day
	DayUpper   float64 `json:"day_upper"`
}
