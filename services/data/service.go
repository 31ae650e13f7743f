// Package data builds bulk tables spanning many instruments: the full
// listed-stock table and multi-stock price panels.
package data

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/mshojaei77/tsetmc-go/common"
	"github.com/mshojaei77/tsetmc-go/interfaces"
	"github.com/mshojaei77/tsetmc-go/internal/textutil"
	"github.com/mshojaei77/tsetmc-go/models"
)

// Market list page ids.
const (
	bourseListID     = "32097828799138957"
	farabourseListID = "43685683301327984"
)

// maxConcurrentDetails bounds the detail-page fetch fan-out.
const maxConcurrentDetails = 10

// Service implements interfaces.DataService against the TSETMC web API.
type Service struct {
	gateway interfaces.Gateway
	stocks  interfaces.StockService
	prices  interfaces.PriceService
	cache   interfaces.MarketCache
	config  *common.ClientConfig
	logger  *common.Logger
}

// NewService creates a new data service. The cache may be nil, which
// disables the local read-through store.
func NewService(gateway interfaces.Gateway, stocks interfaces.StockService, prices interfaces.PriceService, cache interfaces.MarketCache, config *common.ClientConfig, logger *common.Logger) *Service {
	return &Service{
		gateway: gateway,
		stocks:  stocks,
		prices:  prices,
		cache:   cache,
		config:  config,
		logger:  logger,
	}
}

// BuildStockList gathers the listed instruments of the bourse and
// farabourse boards, optionally the IFB payeh boards, deduplicated by
// symbol and optionally enriched from each instrument's detail page.
func (s *Service) BuildStockList(ctx context.Context, req interfaces.StockListRequest) ([]models.ListedStock, error) {
	s.logger.Info().Bool("detailed", req.Detailed).Bool("payeh", req.IncludePayeh).Msg("Building stock list")

	key := stockListKey(req)
	if s.cache != nil {
		var cached []models.ListedStock
		if mod, err := s.cache.LoadJSON(key, &cached); err == nil &&
			common.IsFresh(mod, common.FreshnessStockList) && len(cached) > 0 {
			s.logger.Info().Int("stocks", len(cached)).Msg("Stock list served from cache")
			return cached, nil
		}
	}

	var stocks []models.ListedStock

	bourse, err := s.fetchMarketList(ctx, bourseListID, models.MarketBourse)
	if err != nil {
		return nil, fmt.Errorf("bourse list: %w", err)
	}
	stocks = append(stocks, bourse...)

	farabourse, err := s.fetchMarketList(ctx, farabourseListID, models.MarketFarabourse)
	if err != nil {
		return nil, fmt.Errorf("farabourse list: %w", err)
	}
	stocks = append(stocks, farabourse...)

	if req.IncludePayeh {
		payeh, err := s.fetchPayehList(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Payeh board list unavailable")
		} else {
			stocks = append(stocks, payeh...)
		}
	}

	stocks = dedupeBySymbol(stocks)
	if len(stocks) == 0 {
		return nil, fmt.Errorf("%w: no listed stocks found", models.ErrNoData)
	}

	if req.Detailed {
		s.fillWebIDs(ctx, stocks)
		stocks = dropMissingWebIDs(stocks)
		if err := s.fillDetails(ctx, stocks); err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		if err := s.cache.SaveJSON(key, stocks); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to cache stock list")
		}
	}
	s.logger.Info().Int("stocks", len(stocks)).Msg("Stock list built")
	return stocks, nil
}

// stockListKey names the cached list per board/detail combination.
func stockListKey(req interfaces.StockListRequest) string {
	key := "stocklist"
	if req.IncludePayeh {
		key += "_payeh"
	}
	if req.Detailed {
		key += "_detailed"
	}
	return key
}

// fetchMarketList scrapes one market's listing page. Every instrument is
// a link whose text is the symbol, title the company name, and href
// carries the web id.
func (s *Service) fetchMarketList(ctx context.Context, marketID string, market models.MarketType) ([]models.ListedStock, error) {
	endpoint := s.config.LegacyBaseURL + "/Loader.aspx?ParTree=15131J&i=" + marketID
	body, err := s.gateway.GetText(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse market list page: %w", err)
	}

	var stocks []models.ListedStock
	doc.Find("table.table1 a").Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		_, webID, found := strings.Cut(href, "&i=")
		if !found {
			return
		}
		title, _ := a.Attr("title")
		stock := models.ListedStock{
			Symbol: textutil.Clean(a.Text()),
			Name:   textutil.Clean(title),
			WebID:  strings.TrimSpace(webID),
			Market: market,
		}
		if stock.Symbol != "" {
			stocks = append(stocks, stock)
		}
	})
	return stocks, nil
}

// payehBoards maps the IFB table labels to board names.
var payehBoards = map[string]models.MarketType{
	"تابلو پایه زرد":    models.MarketPayehZard,
	"تابلو پایه نارنجی": models.MarketPayehNarenji,
	"تابلو پایه قرمز":   models.MarketPayehGhermez,
}

// fetchPayehList scrapes the IFB quote export. Rights issues (symbols
// ending in ح) are excluded; web ids are resolved later through search.
func (s *Service) fetchPayehList(ctx context.Context) ([]models.ListedStock, error) {
	endpoint := s.config.IFBBaseURL + "/StockQoute.aspx"
	body, err := s.gateway.PostForm(ctx, endpoint, url.Values{"__EVENTTARGET": {"exportbtn"}})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse payeh list: %w", err)
	}

	var stocks []models.ListedStock
	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		board, ok := payehBoards[textutil.Clean(cells.Eq(2).Text())]
		if !ok {
			return
		}
		symbol := textutil.Clean(cells.Eq(0).Text())
		if symbol == "" || strings.HasSuffix(symbol, "ح") {
			return
		}
		stocks = append(stocks, models.ListedStock{
			Symbol: symbol,
			Name:   textutil.Clean(cells.Eq(1).Text()),
			Market: board,
		})
	})
	return stocks, nil
}

// fillWebIDs resolves missing web ids (payeh rows) through search.
// Unresolvable symbols are dropped by the caller.
func (s *Service) fillWebIDs(ctx context.Context, stocks []models.ListedStock) {
	for i := range stocks {
		if stocks[i].WebID != "" {
			continue
		}
		webID, err := s.stocks.WebID(ctx, stocks[i].Symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", stocks[i].Symbol).Msg("No web id for payeh stock")
			continue
		}
		stocks[i].WebID = webID
	}
}

// detail-page row labels.
const (
	labelPanel       = "تابلو اعلانات"
	labelSector      = "گروه صنعت"
	labelSubSector   = "زیر گروه صنعت"
	labelNameEnglish = "نام لاتین"
	labelCompanyCode = "کد شرکت"
)

// fillDetails fetches every instrument's detail page concurrently and
// fills the panel, sector, and company columns in place.
func (s *Service) fillDetails(ctx context.Context, stocks []models.ListedStock) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDetails)
	for i := range stocks {
		g.Go(func() error {
			if err := s.fetchDetail(gctx, &stocks[i]); err != nil {
				// A missing detail page leaves the row coarse, not absent.
				s.logger.Warn().Err(err).Str("symbol", stocks[i].Symbol).Msg("Detail page unavailable")
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) fetchDetail(ctx context.Context, stock *models.ListedStock) error {
	endpoint := s.config.LegacyBaseURL + "/Loader.aspx?Partree=15131M&i=" + stock.WebID
	body, err := s.gateway.GetText(ctx, endpoint, nil)
	if err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to parse detail page: %w", err)
	}

	doc.Find("table.table1 tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := textutil.Clean(cells.Eq(0).Text())
		value := textutil.Clean(cells.Eq(1).Text())
		switch label {
		case labelPanel:
			stock.Panel = value
		case labelSector:
			stock.Sector = value
		case labelSubSector:
			stock.SubSector = value
		case labelNameEnglish:
			stock.NameEnglish = strings.TrimSpace(cells.Eq(1).Text())
		case labelCompanyCode:
			stock.CompanyCode = strings.TrimSpace(cells.Eq(1).Text())
		}
	})
	return nil
}

// PricePanel builds a date-indexed panel of one price field across
// several instruments. Instruments whose history cannot be fetched are
// skipped; days an instrument did not trade are absent from its column.
func (s *Service) PricePanel(ctx context.Context, req interfaces.PanelRequest) ([]models.PanelRow, error) {
	if len(req.Stocks) == 0 {
		return nil, fmt.Errorf("%w: empty stock list", models.ErrNoData)
	}
	field := req.Field
	if field == "" {
		field = "Close"
	}
	s.logger.Info().Int("stocks", len(req.Stocks)).Str("field", field).Msg("Building price panel")

	byDate := make(map[string]map[string]float64)
	fetched := 0
	for _, stock := range req.Stocks {
		hist, err := s.prices.History(ctx, interfaces.HistoryRequest{
			Stock:       stock,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			IgnoreDates: req.StartDate == "" && req.EndDate == "",
			AdjustPrice: field == "AdjClose",
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("stock", stock).Msg("Skipping stock in price panel")
			continue
		}
		fetched++
		for _, bar := range hist.Bars {
			v, err := panelValue(bar, field)
			if err != nil {
				return nil, err
			}
			if byDate[bar.JDate] == nil {
				byDate[bar.JDate] = make(map[string]float64)
			}
			byDate[bar.JDate][stock] = v
		}
	}
	if fetched == 0 {
		return nil, fmt.Errorf("%w: no price history for any requested stock", models.ErrNoData)
	}

	rows := make([]models.PanelRow, 0, len(byDate))
	for jdate, values := range byDate {
		rows = append(rows, models.PanelRow{JDate: jdate, Values: values})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].JDate < rows[j].JDate })
	return rows, nil
}

func panelValue(b models.PriceBar, field string) (float64, error) {
	switch field {
	case "Open":
		return b.Open, nil
	case "High":
		return b.High, nil
	case "Low":
		return b.Low, nil
	case "Close":
		return b.Close, nil
	case "AdjClose":
		return b.AdjClose, nil
	case "Last":
		return b.Last, nil
	case "Count":
		return float64(b.Count), nil
	case "Volume":
		return float64(b.Volume), nil
	case "Value":
		return float64(b.Value), nil
	default:
		return 0, fmt.Errorf("unknown panel field %q", field)
	}
}

func dedupeBySymbol(stocks []models.ListedStock) []models.ListedStock {
	seen := make(map[string]bool, len(stocks))
	out := stocks[:0:0]
	for _, st := range stocks {
		if seen[st.Symbol] {
			continue
		}
		seen[st.Symbol] = true
		out = append(out, st)
	}
	return out
}

func dropMissingWebIDs(stocks []models.ListedStock) []models.ListedStock {
	out := stocks[:0:0]
	for _, st := range stocks {
		if st.WebID != "" {
			out = append(out, st)
		}
	}
	return out
}

// Ensure Service implements DataService
var _ interfaces.DataService = (*Service)(nil)
