// Package trading fetches tick-level intraday data: per-day trade tapes
// and order-book history over a range of trading days.
package trading

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mshojaei77/tsetmc-go/common"
	"github.com/mshojaei77/tsetmc-go/interfaces"
	"github.com/mshojaei77/tsetmc-go/internal/jalali"
	"github.com/mshojaei77/tsetmc-go/models"
)

// Continuous trading session bounds, HHMMSS as the feed encodes them.
const (
	sessionOpen  = 84500
	sessionClose = 123000
)

// maxConcurrentDays bounds the per-day fetch fan-out.
const maxConcurrentDays = 5

// Service implements interfaces.TradingService against the TSETMC CDN API.
type Service struct {
	gateway interfaces.Gateway
	stocks  interfaces.StockService
	cache   interfaces.MarketCache
	config  *common.ClientConfig
	logger  *common.Logger

	// webID → []string, full trading-day list fetched once per instrument
	days sync.Map
}

// NewService creates a new trading service. The cache may be nil, which
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

// loadCachedDay reads one completed session's records from the local
// store. The current session is still being written to and never served
// from cache.
func (s *Service) loadCachedDay(key, jdate string, out interface{}) bool {
	if s.cache == nil || jdate >= jalali.FromGregorian(time.Now()) {
		return false
	}
	mod, err := s.cache.LoadJSON(key, out)
	return err == nil && common.IsFresh(mod, common.FreshnessIntraday)
}

// saveCachedDay stores one completed session's records.
func (s *Service) saveCachedDay(key, jdate string, value interface{}) {
	if s.cache == nil || jdate >= jalali.FromGregorian(time.Now()) {
		return
	}
	if err := s.cache.SaveJSON(key, value); err != nil {
		s.logger.Warn().Err(err).Str("day", jdate).Msg("Failed to cache intraday records")
	}
}

// tradeHistoryResponse mirrors the per-day trade tape payload.
type tradeHistoryResponse struct {
	TradeHistory []struct {
		Time   int64   `json:"hEven"`
		Volume float64 `json:"qTitTran"`
		Price  float64 `json:"pTran"`
		Seq    int64   `json:"nTran"`
	} `json:"tradeHistory"`
}

// IntradayTrades fetches every trade of the instrument across the
// trading days inside the Jalali range, in execution order per day.
func (s *Service) IntradayTrades(ctx context.Context, req interfaces.IntradayRequest) ([]models.IntradayTrade, error) {
	webID, days, err := s.resolveDays(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("stock", req.Stock).Int("days", len(days)).Msg("Fetching intraday trades")

	perDay := make([][]models.IntradayTrade, len(days))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDays)
	for i, day := range days {
		g.Go(func() error {
			trades, err := s.fetchDayTrades(gctx, webID, day)
			if err != nil {
				// One bad day degrades the series, not the whole range.
				s.logger.Warn().Err(err).Str("day", day).Msg("Skipping day with no trade tape")
				return nil
			}
			perDay[i] = trades
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var trades []models.IntradayTrade
	for _, dt := range perDay {
		trades = append(trades, dt...)
	}
	if len(trades) == 0 {
		return nil, fmt.Errorf("%w: no intraday trades for %s", models.ErrNoData, req.Stock)
	}
	return trades, nil
}

func (s *Service) fetchDayTrades(ctx context.Context, webID, jdate string) ([]models.IntradayTrade, error) {
	gdate, err := jalali.CompactGregorian(jdate)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("trades_%s_%s", webID, gdate)
	var cached []models.IntradayTrade
	if s.loadCachedDay(key, jdate, &cached) {
		return cached, nil
	}

	var resp tradeHistoryResponse
	endpoint := fmt.Sprintf("%s/api/Trade/GetTradeHistory/%s/%s/false", s.config.CDNBaseURL, webID, gdate)
	if err := s.gateway.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	rows := resp.TradeHistory
	sort.Slice(rows, func(i, j int) bool { return rows[i].Seq < rows[j].Seq })

	trades := make([]models.IntradayTrade, 0, len(rows))
	for _, row := range rows {
		trades = append(trades, models.IntradayTrade{
			JDate:  jdate,
			Time:   formatTime(row.Time),
			Volume: int64(row.Volume),
			Price:  row.Price,
		})
	}
	s.saveCachedDay(key, jdate, trades)
	return trades, nil
}

// staticThresholdResponse mirrors the per-day price band payload. The
// last row carries the band that applied during the session.
type staticThresholdResponse struct {
	StaticThreshold []struct {
		Max float64 `json:"psGelStaMax"`
		Min float64 `json:"psGelStaMin"`
	} `json:"staticThreshold"`
}

// bestLimitsResponse mirrors the per-day order book payload.
type bestLimitsResponse struct {
	BestLimitsHistory []struct {
		Time       int64   `json:"hEven"`
		Depth      int     `json:"number"`
		BuyVolume  float64 `json:"qTitMeDem"`
		BuyCount   int64   `json:"zOrdMeDem"`
		BuyPrice   float64 `json:"pMeDem"`
		SellPrice  float64 `json:"pMeOf"`
		SellCount  int64   `json:"zOrdMeOf"`
		SellVolume float64 `json:"qTitMeOf"`
	} `json:"bestLimitsHistory"`
}

// IntradayOrderBook fetches the order-book history of the instrument
// across the trading days inside the Jalali range, clamped to the
// continuous session and annotated with that day's price band.
func (s *Service) IntradayOrderBook(ctx context.Context, req interfaces.IntradayRequest) ([]models.IntradayQuote, error) {
	webID, days, err := s.resolveDays(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("stock", req.Stock).Int("days", len(days)).Msg("Fetching intraday order book")

	perDay := make([][]models.IntradayQuote, len(days))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDays)
	for i, day := range days {
		g.Go(func() error {
			quotes, err := s.fetchDayOrderBook(gctx, webID, day)
			if err != nil {
				s.logger.Warn().Err(err).Str("day", day).Msg("Skipping day with no order book")
				return nil
			}
			perDay[i] = quotes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var quotes []models.IntradayQuote
	for _, dq := range perDay {
		quotes = append(quotes, dq...)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: no intraday order book for %s", models.ErrNoData, req.Stock)
	}
	return quotes, nil
}

func (s *Service) fetchDayOrderBook(ctx context.Context, webID, jdate string) ([]models.IntradayQuote, error) {
	gdate, err := jalali.CompactGregorian(jdate)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("limits_%s_%s", webID, gdate)
	var cached []models.IntradayQuote
	if s.loadCachedDay(key, jdate, &cached) {
		return cached, nil
	}

	var thresholds staticThresholdResponse
	endpoint := fmt.Sprintf("%s/api/MarketData/GetStaticThreshold/%s/%s", s.config.CDNBaseURL, webID, gdate)
	if err := s.gateway.GetJSON(ctx, endpoint, nil, &thresholds); err != nil {
		return nil, err
	}
	var dayUpper, dayLower float64
	if n := len(thresholds.StaticThreshold); n > 0 {
		dayUpper = thresholds.StaticThreshold[n-1].Max
		dayLower = thresholds.StaticThreshold[n-1].Min
	}

	var limits bestLimitsResponse
	endpoint = fmt.Sprintf("%s/api/BestLimits/%s/%s", s.config.CDNBaseURL, webID, gdate)
	if err := s.gateway.GetJSON(ctx, endpoint, nil, &limits); err != nil {
		return nil, err
	}

	rows := limits.BestLimitsHistory
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Time != rows[j].Time {
			return rows[i].Time < rows[j].Time
		}
		return rows[i].Depth < rows[j].Depth
	})

	quotes := make([]models.IntradayQuote, 0, len(rows))
	for _, row := range rows {
		if row.Time < sessionOpen || row.Time >= sessionClose {
			continue
		}
		quotes = append(quotes, models.IntradayQuote{
			JDate:      jdate,
			Time:       formatTime(row.Time),
			Depth:      row.Depth,
			SellCount:  row.SellCount,
			SellVolume: int64(row.SellVolume),
			SellPrice:  row.SellPrice,
			BuyPrice:   row.BuyPrice,
			BuyVolume:  int64(row.BuyVolume),
			BuyCount:   row.BuyCount,
			DayLower:   dayLower,
			DayUpper:   dayUpper,
		})
	}
	s.saveCachedDay(key, jdate, quotes)
	return quotes, nil
}

// resolveDays validates the range, resolves the instrument, and lists
// its trading days inside the range from the daily history feed.
func (s *Service) resolveDays(ctx context.Context, req interfaces.IntradayRequest) (string, []string, error) {
	start, end, err := jalali.ValidateRange(req.StartDate, req.EndDate)
	if err != nil {
		return "", nil, err
	}
	webID, err := s.stocks.WebID(ctx, req.Stock)
	if err != nil {
		return "", nil, err
	}

	days, err := s.tradingDays(ctx, webID, start, end)
	if err != nil {
		return "", nil, err
	}
	if len(days) == 0 {
		return "", nil, fmt.Errorf("%w: no trading days for %s between %s and %s", models.ErrNoData, req.Stock, start, end)
	}
	return webID, days, nil
}

// tradingDays lists the Jalali dates the instrument actually traded,
// read off the daily history feed and filtered to [start, end].
func (s *Service) tradingDays(ctx context.Context, webID, start, end string) ([]string, error) {
	var all []string
	if cached, ok := s.days.Load(webID); ok {
		all = cached.([]string)
	} else {
		endpoint := s.config.BaseURL + "/tsev2/data/InstTradeHistory.aspx"
		body, err := s.gateway.GetText(ctx, endpoint, url.Values{"i": {webID}, "Top": {"999999"}, "A": {"0"}})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch trading days: %w", err)
		}

		for _, line := range strings.FieldsFunc(body, func(r rune) bool { return r == '\n' || r == ';' }) {
			field := strings.TrimSpace(strings.SplitN(line, ",", 2)[0])
			if _, jdate, err := jalali.ParseYYYYMMDD(field); err == nil {
				all = append(all, jdate)
			}
		}
		sort.Strings(all)
		s.days.Store(webID, all)
	}

	var days []string
	for _, d := range all {
		if d >= start && d <= end {
			days = append(days, d)
		}
	}
	return days, nil
}

// formatTime renders the HHMMSS integer feed value as HH:MM:SS.
func formatTime(hhmmss int64) string {
	return fmt.Sprintf("%02d:%02d:%02d", hhmmss/10000, hhmmss/100%100, hhmmss%100)
}

// Ensure Service implements TradingService
var _ interfaces.TradingService = (*Service)(nil)
