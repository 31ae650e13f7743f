package market

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mshojaei77/tsetmc-go/interfaces"
	"github.com/mshojaei77/tsetmc-go/internal/textutil"
	"github.com/mshojaei77/tsetmc-go/models"
)

// marketNames maps the Mkt-ID column of the watch feed to board names.
var marketNames = map[string]models.MarketType{
	"300": models.MarketBourse,
	"303": models.MarketFarabourse,
	"305": "صندوق قابل معامله",
	"309": "پایه",
	"400": "حق تقدم بورس",
	"403": "حق تقدم فرابورس",
	"404": "حق تقدم پایه",
}

// watchPriceRow is one instrument of the MarketWatchPlus price section.
type watchPriceRow struct {
	webID      string
	symbol     string
	name       string
	tradeTime  string
	open       float64
	final      float64
	close      float64
	count      int64
	volume     int64
	value      int64
	low        float64
	high       float64
	yFinal     float64
	eps        float64
	baseVol    int64
	sectorCode string
	dayUpper   float64
	dayLower   float64
	shareNo    int64
	marketID   string
}

// clientTypeRow is one instrument of the ClientTypeAll feed, the
// retail/institutional breakdown.
type clientTypeRow struct {
	buyCountRetail, buyCountInst   int64
	buyVolRetail, buyVolInst       int64
	sellCountRetail, sellCountInst int64
	sellVolRetail, sellVolInst     int64
}

// Watch fetches one live snapshot of the whole market: every instrument
// with its prices, client-type breakdown, depth-1 order book, derived
// queue values, and sector names.
func (s *Service) Watch(ctx context.Context) (*models.MarketWatch, error) {
	s.logger.Info().Msg("Fetching market watch snapshot")

	body, err := s.gateway.GetText(ctx, s.config.LegacyBaseURL+"/tsev2/data/MarketWatchPlus.aspx", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market watch: %w", err)
	}
	sections := strings.Split(body, "@")
	if len(sections) < 4 {
		return nil, fmt.Errorf("%w: market watch payload has %d sections", models.ErrNoData, len(sections))
	}

	prices := parseWatchPrices(sections[2])
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: market watch price section empty", models.ErrNoData)
	}
	orderBook := parseWatchOrderBook(sections[3], prices)

	clientTypes := s.fetchClientTypes(ctx)
	sectors := s.fetchSectorNames(ctx)

	depth1 := make(map[string]models.OrderBookRow, len(prices))
	for _, row := range orderBook {
		if row.Depth == 1 {
			depth1[row.WebID] = row
		}
	}

	rows := make([]models.WatchRow, 0, len(prices))
	for _, p := range prices {
		row := models.WatchRow{
			Symbol:   p.symbol,
			Name:     p.name,
			WebID:    p.webID,
			Time:     formatTradeTime(p.tradeTime),
			Market:   marketName(p.marketID),
			Sector:   sectors[p.sectorCode],
			Open:     p.open,
			High:     p.high,
			Low:      p.low,
			Close:    p.close,
			Final:    p.final,
			YFinal:   p.yFinal,
			Count:    p.count,
			Volume:   p.volume,
			Value:    p.value,
			DayUpper: p.dayUpper,
			DayLower: p.dayLower,
			EPS:      p.eps,
			BaseVol:  p.baseVol,
			ShareNo:  p.shareNo,
		}
		if row.Sector == "" {
			row.Sector = p.sectorCode
		}
		if p.yFinal != 0 {
			row.ClosePct = round2((p.close - p.yFinal) / p.yFinal * 100)
			row.FinalPct = round2((p.final - p.yFinal) / p.yFinal * 100)
		}
		row.MarketCap = float64(p.shareNo) * p.final

		if ob, ok := depth1[p.webID]; ok {
			// Locked best limits at the daily band form a queue.
			if ob.BuyPrice == p.dayUpper && p.dayUpper != 0 {
				row.BuyQueueValue = float64(ob.BuyVolume) * ob.BuyPrice
				if ob.BuyCount > 0 {
					row.BuyQueuePerCap = int64(row.BuyQueueValue / float64(ob.BuyCount))
				}
			}
			if ob.SellPrice == p.dayLower && p.dayLower != 0 {
				row.SellQueueValue = float64(ob.SellVolume) * ob.SellPrice
				if ob.SellCount > 0 {
					row.SellQueuePerCap = int64(row.SellQueueValue / float64(ob.SellCount))
				}
			}
		}
		if ct, ok := clientTypes[p.webID]; ok {
			row.BuyCountRetail = ct.buyCountRetail
			row.BuyCountInst = ct.buyCountInst
			row.BuyVolRetail = ct.buyVolRetail
			row.BuyVolInst = ct.buyVolInst
			row.SellCountRetail = ct.sellCountRetail
			row.SellCountInst = ct.sellCountInst
			row.SellVolRetail = ct.sellVolRetail
			row.SellVolInst = ct.sellVolInst
		}
		rows = append(rows, row)
	}

	s.logger.Info().Int("instruments", len(rows)).Int("order_book_rows", len(orderBook)).Msg("Market watch snapshot fetched")
	return &models.MarketWatch{
		Rows:      rows,
		OrderBook: orderBook,
		FetchedAt: time.Now(),
	}, nil
}

// parseWatchPrices parses the price section: semicolon rows of at least
// 23 comma fields.
func parseWatchPrices(section string) []watchPriceRow {
	var rows []watchPriceRow
	for _, line := range strings.Split(section, ";") {
		parts := strings.Split(line, ",")
		if len(parts) < 23 {
			continue
		}
		rows = append(rows, watchPriceRow{
			webID:      strings.TrimSpace(parts[0]),
			symbol:     textutil.Clean(parts[2]),
			name:       textutil.Clean(parts[3]),
			tradeTime:  strings.TrimSpace(parts[4]),
			open:       parseFloat(parts[5]),
			final:      parseFloat(parts[6]),
			close:      parseFloat(parts[7]),
			count:      parseInt(parts[8]),
			volume:     parseInt(parts[9]),
			value:      parseInt(parts[10]),
			low:        parseFloat(parts[11]),
			high:       parseFloat(parts[12]),
			yFinal:     parseFloat(parts[13]),
			eps:        parseFloat(parts[14]),
			baseVol:    parseInt(parts[15]),
			sectorCode: strings.TrimSpace(parts[18]),
			dayUpper:   parseFloat(parts[19]),
			dayLower:   parseFloat(parts[20]),
			shareNo:    parseInt(parts[21]),
			marketID:   strings.TrimSpace(parts[22]),
		})
	}
	return rows
}

// parseWatchOrderBook parses the order-book section: semicolon rows of
// web id, depth, sell count, buy count, buy price, sell price, buy
// volume, sell volume.
func parseWatchOrderBook(section string, prices []watchPriceRow) []models.OrderBookRow {
	symbols := make(map[string]watchPriceRow, len(prices))
	for _, p := range prices {
		symbols[p.webID] = p
	}

	var rows []models.OrderBookRow
	for _, line := range strings.Split(section, ";") {
		parts := strings.Split(line, ",")
		if len(parts) < 8 {
			continue
		}
		webID := strings.TrimSpace(parts[0])
		row := models.OrderBookRow{
			WebID:      webID,
			Depth:      int(parseInt(parts[1])),
			SellCount:  parseInt(parts[2]),
			BuyCount:   parseInt(parts[3]),
			BuyPrice:   parseFloat(parts[4]),
			SellPrice:  parseFloat(parts[5]),
			BuyVolume:  parseInt(parts[6]),
			SellVolume: parseInt(parts[7]),
		}
		if p, ok := symbols[webID]; ok {
			row.Symbol = p.symbol
			row.DayUpper = p.dayUpper
			row.DayLower = p.dayLower
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Symbol != rows[j].Symbol {
			return rows[i].Symbol < rows[j].Symbol
		}
		return rows[i].Depth < rows[j].Depth
	})
	return rows
}

// fetchClientTypes downloads the retail/institutional breakdown. Failure
// degrades the snapshot instead of failing it.
func (s *Service) fetchClientTypes(ctx context.Context) map[string]clientTypeRow {
	body, err := s.gateway.GetText(ctx, s.config.LegacyBaseURL+"/tsev2/data/ClientTypeAll.aspx", nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Client type feed unavailable")
		return nil
	}

	out := make(map[string]clientTypeRow)
	for _, line := range strings.Split(body, ";") {
		parts := strings.Split(line, ",")
		if len(parts) < 9 {
			continue
		}
		out[strings.TrimSpace(parts[0])] = clientTypeRow{
			buyCountRetail:  parseInt(parts[1]),
			buyCountInst:    parseInt(parts[2]),
			buyVolRetail:    parseInt(parts[3]),
			buyVolInst:      parseInt(parts[4]),
			sellCountRetail: parseInt(parts[5]),
			sellCountInst:   parseInt(parts[6]),
			sellVolRetail:   parseInt(parts[7]),
			sellVolInst:     parseInt(parts[8]),
		}
	}
	return out
}

// staticDataResponse mirrors the CDN static data payload used for sector
// names.
type staticDataResponse struct {
	StaticData []struct {
		Code any    `json:"code"`
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"staticData"`
}

// fetchSectorNames maps two-digit sector codes to industrial group names.
func (s *Service) fetchSectorNames(ctx context.Context) map[string]string {
	var resp staticDataResponse
	if err := s.gateway.GetJSON(ctx, s.config.CDNBaseURL+"/api/StaticData/GetStaticData", nil, &resp); err != nil {
		s.logger.Warn().Err(err).Msg("Static data feed unavailable, keeping sector codes")
		return nil
	}

	out := make(map[string]string)
	for _, item := range resp.StaticData {
		if item.Type != "IndustrialGroup" {
			continue
		}
		code := strings.TrimSpace(strings.Trim(fmt.Sprint(item.Code), `"`))
		if len(code) == 1 {
			code = "0" + code
		}
		out[code] = textutil.Clean(item.Name)
	}
	return out
}

func marketName(id string) models.MarketType {
	if name, ok := marketNames[id]; ok {
		return name
	}
	return models.MarketUnknown
}

// formatTradeTime renders the HHMMSS integer feed value as HH:MM:SS.
func formatTradeTime(raw string) string {
	raw = strings.TrimSpace(raw)
	for len(raw) < 6 {
		raw = "0" + raw
	}
	return raw[:2] + ":" + raw[2:4] + ":" + raw[4:6]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return int64(v)
}

// Ensure Service implements MarketService
var _ interfaces.MarketService = (*Service)(nil)
