// Package price fetches daily trade history series: per-instrument
// prices, return-index series, and the USD/RIAL reference rate.
package price

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mshojaei77/tsetmc-go/common"
	"github.com/mshojaei77/tsetmc-go/interfaces"
	"github.com/mshojaei77/tsetmc-go/internal/jalali"
	"github.com/mshojaei77/tsetmc-go/models"
)

// usdRialWebID is the fixed instrument id of the USD/RIAL reference series.
const usdRialWebID = "46348559193224090"

// Service implements interfaces.PriceService against the TSETMC web API.
type Service struct {
	gateway interfaces.Gateway
	stocks  interfaces.StockService
	cache   interfaces.MarketCache
	config  *common.ClientConfig
	logger  *common.Logger
}

// NewService creates a new price service. The cache may be nil, which
// disables the local read-through store.
func NewService(gateway interfaces.Gateway, stocks interfaces.StockService, cache interfaces.MarketCache, config *common.ClientConfig, logger *common.Logger) *Service {
	return &Service{
		gateway: gateway,
		stocks:  stocks,
		cache:   cache,
		config:  config,
		logger:  logger,
	}
}

// History fetches the daily price history of one instrument, filtered to
// the requested Jalali date range and sorted ascending.
func (s *Service) History(ctx context.Context, req interfaces.HistoryRequest) (*models.PriceHistory, error) {
	start, end, err := resolveRange(req.StartDate, req.EndDate, req.IgnoreDates)
	if err != nil {
		return nil, err
	}

	inst, err := s.stocks.Resolve(ctx, req.Stock)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("stock", inst.Symbol).Str("web_id", inst.WebID).
		Str("from", start).Str("to", end).Msg("Fetching price history")

	bars, err := s.fetchBars(ctx, inst.WebID, false)
	if err != nil {
		return nil, err
	}
	bars = filterRange(bars, start, end)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s between %s and %s", models.ErrNoData, inst.Symbol, start, end)
	}

	if req.AdjustPrice {
		if err := s.joinAdjusted(ctx, inst.WebID, bars); err != nil {
			s.logger.Warn().Err(err).Str("stock", inst.Symbol).Msg("Adjusted series unavailable, keeping raw prices")
		}
	}
	if req.ShowWeekday {
		for i := range bars {
			bars[i].Weekday = jalali.Weekday(bars[i].Date)
		}
	}

	return &models.PriceHistory{
		Instrument: *inst,
		Bars:       bars,
		Adjusted:   req.AdjustPrice,
		FetchedAt:  time.Now(),
	}, nil
}

// ReturnIndexHistory fetches the total-return index series of one
// instrument over the requested Jalali range.
func (s *Service) ReturnIndexHistory(ctx context.Context, req interfaces.HistoryRequest) ([]models.ReturnIndexBar, error) {
	start, end, err := resolveRange(req.StartDate, req.EndDate, req.IgnoreDates)
	if err != nil {
		return nil, err
	}

	inst, err := s.stocks.Resolve(ctx, req.Stock)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("stock", inst.Symbol).Str("web_id", inst.WebID).
		Str("from", start).Str("to", end).Msg("Fetching return index history")

	raw, err := s.fetchBars(ctx, inst.WebID, true)
	if err != nil {
		return nil, err
	}
	raw = filterRange(raw, start, end)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s between %s and %s", models.ErrNoData, inst.Symbol, start, end)
	}

	bars := make([]models.ReturnIndexBar, len(raw))
	for i, b := range raw {
		bars[i] = models.ReturnIndexBar{
			JDate:   b.JDate,
			Date:    b.Date,
			RIOpen:  b.Open,
			RIHigh:  b.High,
			RILow:   b.Low,
			RIClose: b.Close,
			RILast:  b.Last,
			Count:   b.Count,
			Volume:  b.Volume,
			Value:   b.Value,
		}
		if req.ShowWeekday {
			bars[i].Weekday = jalali.Weekday(b.Date)
		}
	}
	return bars, nil
}

// USDRialHistory fetches the USD/RIAL reference rate over the requested
// Jalali range.
func (s *Service) USDRialHistory(ctx context.Context, req interfaces.RangeRequest) ([]models.PriceBar, error) {
	start, end, err := resolveRange(req.StartDate, req.EndDate, req.IgnoreDates)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("from", start).Str("to", end).Msg("Fetching USD/RIAL history")

	bars, err := s.fetchBars(ctx, usdRialWebID, false)
	if err != nil {
		return nil, err
	}
	bars = filterRange(bars, start, end)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: USD/RIAL between %s and %s", models.ErrNoData, start, end)
	}
	return bars, nil
}

// fetchBars downloads and parses one InstTradeHistory series, reading a
// fresh local copy instead when one exists. The adjusted flag switches
// the endpoint to the capital-increase adjusted variant of the same
// series.
func (s *Service) fetchBars(ctx context.Context, webID string, adjusted bool) ([]models.PriceBar, error) {
	flag := "0"
	if adjusted {
		flag = "1"
	}
	key := fmt.Sprintf("history_%s_a%s", webID, flag)
	if s.cache != nil {
		var cached []models.PriceBar
		if mod, err := s.cache.LoadJSON(key, &cached); err == nil &&
			common.IsFresh(mod, common.FreshnessHistory) && len(cached) > 0 {
			s.logger.Debug().Str("web_id", webID).Int("bars", len(cached)).Msg("Price history served from cache")
			return cached, nil
		}
	}

	endpoint := s.config.BaseURL + "/tsev2/data/InstTradeHistory.aspx"
	params := url.Values{"i": {webID}, "Top": {"999999"}, "A": {flag}}

	body, err := s.gateway.GetText(ctx, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trade history: %w", err)
	}

	bars := parseTradeHistory(body)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty trade history for %s", models.ErrNoData, webID)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	if s.cache != nil {
		if err := s.cache.SaveJSON(key, bars); err != nil {
			s.logger.Warn().Err(err).Str("web_id", webID).Msg("Failed to cache price history")
		}
	}
	return bars, nil
}

// parseTradeHistory parses the InstTradeHistory payload. Rows are split
// on newlines or semicolons; fields are date, high, low, close, last,
// count, volume, value, open. Malformed rows are skipped.
func parseTradeHistory(body string) []models.PriceBar {
	var bars []models.PriceBar
	for _, line := range strings.FieldsFunc(body, func(r rune) bool { return r == '\n' || r == ';' }) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 9 {
			continue
		}

		date, jdate, err := jalali.ParseYYYYMMDD(parts[0])
		if err != nil {
			continue
		}
		bars = append(bars, models.PriceBar{
			JDate:  jdate,
			Date:   date,
			High:   parseFloat(parts[1]),
			Low:    parseFloat(parts[2]),
			Close:  parseFloat(parts[3]),
			Last:   parseFloat(parts[4]),
			Count:  parseInt(parts[5]),
			Volume: parseInt(parts[6]),
			Value:  parseInt(parts[7]),
			Open:   parseFloat(parts[8]),
		})
	}
	return bars
}

// joinAdjusted fetches the adjusted variant of the series and fills the
// Adj columns of matching days. Days the adjusted series misses keep
// their raw values.
func (s *Service) joinAdjusted(ctx context.Context, webID string, bars []models.PriceBar) error {
	adjusted, err := s.fetchBars(ctx, webID, true)
	if err != nil {
		return err
	}

	byDate := make(map[string]models.PriceBar, len(adjusted))
	for _, b := range adjusted {
		byDate[b.JDate] = b
	}
	for i := range bars {
		if adj, ok := byDate[bars[i].JDate]; ok {
			bars[i].AdjOpen = adj.Open
			bars[i].AdjHigh = adj.High
			bars[i].AdjLow = adj.Low
			bars[i].AdjClose = adj.Close
		} else {
			bars[i].AdjOpen = bars[i].Open
			bars[i].AdjHigh = bars[i].High
			bars[i].AdjLow = bars[i].Low
			bars[i].AdjClose = bars[i].Close
		}
	}
	return nil
}

// resolveRange validates the Jalali range, or widens it to the full
// available history when validation is skipped.
func resolveRange(start, end string, ignore bool) (string, string, error) {
	if ignore {
		return "0000-00-00", "9999-99-99", nil
	}
	return jalali.ValidateRange(start, end)
}

// filterRange keeps bars inside [start, end]. Canonical Jalali strings
// order lexicographically, so plain string compare suffices.
func filterRange(bars []models.PriceBar, start, end string) []models.PriceBar {
	out := bars[:0:0]
	for _, b := range bars {
		if b.JDate >= start && b.JDate <= end {
			out = append(out, b)
		}
	}
	return out
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return int64(v)
}

// Ensure Service implements PriceService
var _ interfaces.PriceService = (*Service)(nil)
