// Package market fetches market-wide data: the ten TSE index series and
// the live market-watch snapshot joined from the price, client-type, and
// order-book feeds.
package market

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mshojaei77/tsetmc-go/common"
	"github.com/mshojaei77/tsetmc-go/interfaces"
	"github.com/mshojaei77/tsetmc-go/internal/jalali"
	"github.com/mshojaei77/tsetmc-go/models"
)

// indexWebIDs maps every supported index kind to its TSETMC series id.
var indexWebIDs = map[models.IndexKind]string{
	models.IndexCWI:   "32097828799138957",
	models.IndexEWI:   "67130298613737946",
	models.IndexCWPI:  "5798407779416661",
	models.IndexEWPI:  "8384385859414435",
	models.IndexFFI:   "49579049405614711",
	models.IndexMKT1I: "62752761908615603",
	models.IndexMKT2I: "71704845530629737",
	models.IndexINDI:  "43754960038275285",
	models.IndexLCI30: "10523825119011581",
	models.IndexACT50: "46342955726788357",
}

// Service implements interfaces.MarketService against the TSETMC web API.
type Service struct {
	gateway interfaces.Gateway
	cache   interfaces.MarketCache
	config  *common.ClientConfig
	logger  *common.Logger
}

// NewService creates a new market service. The cache may be nil, which
// disables the local read-through store.
func NewService(gateway interfaces.Gateway, cache interfaces.MarketCache, config *common.ClientConfig, logger *common.Logger) *Service {
	return &Service{
		gateway: gateway,
		cache:   cache,
		config:  config,
		logger:  logger,
	}
}

// indexB2Response mirrors the CDN index history payload.
type indexB2Response struct {
	IndexB2 []struct {
		DEven    int     `json:"dEven"`
		AdjClose float64 `json:"xNivInuClMresIbs"`
	} `json:"indexB2"`
}

// IndexHistory fetches one market index series. The adjusted close comes
// from the CDN API; OHLCV comes from the legacy chart feed and is joined
// by date unless only the adjusted close was requested.
func (s *Service) IndexHistory(ctx context.Context, req interfaces.IndexRequest) ([]models.IndexBar, error) {
	webID, ok := indexWebIDs[req.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidIndex, req.Kind)
	}

	start, end := "0000-00-00", "9999-99-99"
	if !req.IgnoreDates {
		var err error
		start, end, err = jalali.ValidateRange(req.StartDate, req.EndDate)
		if err != nil {
			return nil, err
		}
	}
	s.logger.Info().Str("index", string(req.Kind)).Str("from", start).Str("to", end).Msg("Fetching index history")

	bars, err := s.fetchIndexBars(ctx, req.Kind, webID, req.AdjCloseOnly)
	if err != nil {
		return nil, err
	}

	out := bars[:0:0]
	for _, b := range bars {
		if b.JDate < start || b.JDate > end {
			continue
		}
		if req.ShowWeekday {
			b.Weekday = jalali.Weekday(b.Date)
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: index %s between %s and %s", models.ErrNoData, req.Kind, start, end)
	}
	return out, nil
}

// fetchIndexBars builds the full joined series for one index, reading a
// fresh local copy instead when one exists. Unless only the adjusted
// close is wanted, the CDN series is inner-joined with the legacy OHLCV
// feed on date; the join degrades to close-only when that feed fails.
func (s *Service) fetchIndexBars(ctx context.Context, kind models.IndexKind, webID string, adjCloseOnly bool) ([]models.IndexBar, error) {
	key := "index_" + webID + "_full"
	if adjCloseOnly {
		key = "index_" + webID + "_adj"
	}
	if s.cache != nil {
		var cached []models.IndexBar
		if mod, err := s.cache.LoadJSON(key, &cached); err == nil &&
			common.IsFresh(mod, common.FreshnessIndex) && len(cached) > 0 {
			s.logger.Debug().Str("index", string(kind)).Int("bars", len(cached)).Msg("Index history served from cache")
			return cached, nil
		}
	}

	var resp indexB2Response
	endpoint := s.config.CDNBaseURL + "/api/Index/GetIndexB2History/" + webID
	if err := s.gateway.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch index history: %w", err)
	}

	bars := make([]models.IndexBar, 0, len(resp.IndexB2))
	byDate := make(map[string]int, len(resp.IndexB2))
	for _, row := range resp.IndexB2 {
		date, jdate, err := jalali.ParseYYYYMMDD(fmt.Sprintf("%08d", row.DEven))
		if err != nil {
			continue
		}
		byDate[jdate] = len(bars)
		bars = append(bars, models.IndexBar{
			JDate:    jdate,
			Date:     date,
			AdjClose: row.AdjClose,
		})
	}

	complete := true
	if !adjCloseOnly {
		matched, err := s.joinIndexOHLCV(ctx, webID, bars, byDate)
		if err != nil {
			s.logger.Warn().Err(err).Str("index", string(kind)).Msg("Index OHLCV feed unavailable")
			complete = false
		} else {
			// Inner join: CDN days with no OHLCV row are dropped.
			kept := bars[:0]
			for i, b := range bars {
				if matched[i] {
					kept = append(kept, b)
				}
			}
			bars = kept
		}
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	// A degraded close-only series is never stored under the full key.
	if s.cache != nil && len(bars) > 0 && complete {
		if err := s.cache.SaveJSON(key, bars); err != nil {
			s.logger.Warn().Err(err).Str("index", string(kind)).Msg("Failed to cache index history")
		}
	}
	return bars, nil
}

// joinIndexOHLCV parses the legacy chart feed (semicolon rows of date,
// high, low, open, close, volume) and fills the matching bars. The
// returned flags mark which bars found an OHLCV row.
func (s *Service) joinIndexOHLCV(ctx context.Context, webID string, bars []models.IndexBar, byDate map[string]int) ([]bool, error) {
	endpoint := s.config.LegacyBaseURL + "/tsev2/chart/data/IndexFinancial.aspx?i=" + webID + "&t=ph"
	body, err := s.gateway.GetText(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	matched := make([]bool, len(bars))
	for _, row := range strings.Split(strings.TrimSpace(body), ";") {
		parts := strings.Split(row, ",")
		if len(parts) < 6 {
			continue
		}
		// The feed emits dates both dashed and compact.
		raw := strings.TrimSpace(parts[0])
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			if t, _, err = jalali.ParseYYYYMMDD(raw); err != nil {
				continue
			}
		}
		i, ok := byDate[jalali.FromGregorian(t)]
		if !ok {
			continue
		}
		matched[i] = true
		bars[i].High = parseFloat(parts[1])
		bars[i].Low = parseFloat(parts[2])
		bars[i].Open = parseFloat(parts[3])
		bars[i].Close = parseFloat(parts[4])
		bars[i].Volume = parseInt(parts[5])
	}
	return matched, nil
}
