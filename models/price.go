package models

import "time"

// PriceBar represents one day of an instrument's trade history.
// JDate is the normalized Jalali date; Date is the same day in the
// Gregorian calendar.
type PriceBar struct {
	JDate   string    `json:"j_date"`
	Date    time.Time `json:"date"`
	Weekday string    `json:"weekday,omitempty"`
	Open    float64   `json:"open"`
	High    float64   `json:"high"`
	Low     float64   `json:"low"`
	Close   float64   `json:"close"`
	Last    float64   `json:"last"`
	Count   int64     `json:"count"`
	Volume  int64     `json:"volume"`
	Value   int64     `json:"value"`
	// Adjusted columns, populated when adjustment is requested.
	AdjOpen  float64 `json:"adj_open,omitempty"`
	AdjHigh  float64 `json:"adj_high,omitempty"`
	AdjLow   float64 `json:"adj_low,omitempty"`
	AdjClose float64 `json:"adj_close,omitempty"`
}

// ReturnIndexBar represents one day of an instrument's return-index series.
type ReturnIndexBar struct {
	JDate   string    `json:"j_date"`
	Date    time.Time `json:"date"`
	Weekday string    `json:"weekday,omitempty"`
	RIOpen  float64   `json:"ri_open"`
	RIHigh  float64   `json:"ri_high"`
	RILow   float64   `json:"ri_low"`
	RIClose float64   `json:"ri_close"`
	RILast  float64   `json:"ri_last"`
	Count   int64     `json:"count"`
	Volume  int64     `json:"volume"`
	Value   int64     `json:"value"`
}

// PriceHistory bundles an instrument with its fetched bars.
type PriceHistory struct {
	Instrument Instrument `json:"instrument"`
	Bars       []PriceBar `json:"bars"`
	Adjusted   bool       `json:"adjusted"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// PanelCell is one (date, stock) observation of a price panel.
type PanelRow struct {
	JDate  string             `json:"j_date"`
	Values map[string]float64 `json:"values"` // stock → selected column, absent when no trade
}
