// Package models defines data structures for tsetmc-go
package models

// MarketType identifies which TSE board an instrument trades on.
type MarketType string

const (
	MarketBourse          MarketType = "بورس"
	MarketFarabourse      MarketType = "فرابورس"
	MarketPayehZard       MarketType = "پایه زرد"
	MarketPayehNarenji    MarketType = "پایه نارنجی"
	MarketPayehGhermez    MarketType = "پایه قرمز"
	MarketKochakMotavaset MarketType = "کوچک و متوسط فرابورس"
	MarketUnknown         MarketType = "نامعلوم"
)

// MarketTypeFromFlow maps the `flow` code returned by the instrument
// search API to a market type.
func MarketTypeFromFlow(flow int) MarketType {
	switch flow {
	case 1:
		return MarketBourse
	case 2:
		return MarketFarabourse
	case 3:
		return MarketPayehZard
	case 4:
		return MarketPayehNarenji
	case 5:
		return MarketPayehGhermez
	default:
		return MarketUnknown
	}
}

// Instrument holds the identity of a listed instrument.
// WebID is the numeric identifier every other TSETMC endpoint keys on.
type Instrument struct {
	Name   string     `json:"name"`
	Symbol string     `json:"symbol"`
	WebID  string     `json:"web_id"`
	Market MarketType `json:"market"`
	Sector string     `json:"sector,omitempty"`
	ISIN   string     `json:"isin,omitempty"`
}

// SectorStock is one row of a sector listing page.
type SectorStock struct {
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol"`
	WebID     string  `json:"web_id"`
	LastPrice float64 `json:"last_price"`
	Change    float64 `json:"change"`
	ChangePct string  `json:"change_pct"`
}

// Shareholder is one row of an instrument's major-shareholders table.
type Shareholder struct {
	Name       string `json:"name"`
	Shares     int64  `json:"shares"`
	Percentage string `json:"percentage"`
}

// ListedStock is one row of the bulk stock list.
type ListedStock struct {
	Symbol string     `json:"symbol"`
	Name   string     `json:"name"`
	WebID  string     `json:"web_id"`
	Market MarketType `json:"market"`
	// Detail-page fields, populated when a detailed list is requested.
	Panel       string `json:"panel,omitempty"`
	Sector      string `json:"sector,omitempty"`
	SubSector   string `json:"sub_sector,omitempty"`
	NameEnglish string `json:"name_english,omitempty"`
	CompanyCode string `json:"company_code,omitempty"`
}
