// Package stock resolves TSETMC instruments: search by symbol or name,
// sector listings, and the major-shareholders table.
package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mshojaei77/tsetmc-go/common"
	"github.com/mshojaei77/tsetmc-go/interfaces"
	"github.com/mshojaei77/tsetmc-go/internal/textutil"
	"github.com/mshojaei77/tsetmc-go/models"
)

// Service implements interfaces.StockService against the TSETMC web API.
type Service struct {
	gateway interfaces.Gateway
	config  *common.ClientConfig
	logger  *common.Logger
}

// NewService creates a new stock service.
func NewService(gateway interfaces.Gateway, config *common.ClientConfig, logger *common.Logger) *Service {
	return &Service{
		gateway: gateway,
		config:  config,
		logger:  logger,
	}
}

// instrumentSearchItem mirrors one entry of the GetInstrumentSearch JSON
// response.
type instrumentSearchItem struct {
	Name   string `json:"lVal30"`
	Symbol string `json:"lVal18AFC"`
	// insCode arrives as a string or a bare number depending on the
	// deployment; raw keeps 17-digit ids exact either way.
	WebID  json.RawMessage `json:"insCode"`
	Flow   int             `json:"flow"`
	Sector string          `json:"lSecVal"`
	ISIN   string          `json:"cIsin"`
}

// Search returns every instrument matching the query. The current JSON
// endpoint is tried first, the legacy form endpoint second, and a small
// static table of well-known symbols last.
func (s *Service) Search(ctx context.Context, query string) ([]models.Instrument, error) {
	clean := textutil.Clean(query)
	if len([]rune(clean)) < 2 {
		return nil, models.ErrEmptyQuery
	}
	s.logger.Info().Str("query", clean).Msg("Searching for instrument")

	if results := s.searchJSON(ctx, clean); len(results) > 0 {
		s.logger.Info().Str("query", clean).Int("count", len(results)).Msg("Instrument search done")
		return results, nil
	}
	if results := s.searchLegacy(ctx, clean); len(results) > 0 {
		s.logger.Info().Str("query", clean).Int("count", len(results)).Msg("Instrument search done (legacy endpoint)")
		return results, nil
	}
	if results := fallbackSearch(clean); len(results) > 0 {
		s.logger.Warn().Str("query", clean).Msg("Both search endpoints failed, using static table")
		return results, nil
	}

	return nil, fmt.Errorf("%w: %q", models.ErrInstrumentNotFound, query)
}

// searchJSON queries the current JSON search endpoint. Failures are
// logged and swallowed so the caller can fall through to the legacy one.
func (s *Service) searchJSON(ctx context.Context, query string) []models.Instrument {
	endpoint := s.config.BaseURL + "/tsev2/data/Instrument/GetInstrumentSearch"
	body, err := s.gateway.PostJSON(ctx, endpoint, map[string]string{"searchKey": query})
	if err != nil {
		s.logger.Debug().Err(err).Msg("JSON search endpoint failed")
		return nil
	}

	// The endpoint answers some queries with an HTML error page.
	body = strings.TrimSpace(body)
	if body == "" || strings.HasPrefix(body, "<") {
		return nil
	}

	var items []instrumentSearchItem
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		s.logger.Debug().Err(err).Msg("JSON search response not parseable")
		return nil
	}

	results := make([]models.Instrument, 0, len(items))
	for _, item := range items {
		webID := strings.Trim(strings.TrimSpace(string(item.WebID)), `"`)
		if webID == "" || webID == "null" {
			continue
		}
		results = append(results, models.Instrument{
			Name:   textutil.Clean(item.Name),
			Symbol: textutil.Clean(item.Symbol),
			WebID:  webID,
			Market: models.MarketTypeFromFlow(item.Flow),
			Sector: textutil.Clean(item.Sector),
			ISIN:   item.ISIN,
		})
	}
	return results
}

// searchLegacy queries the form-encoded search endpoint. The response is
// semicolon-separated rows of comma-separated fields.
func (s *Service) searchLegacy(ctx context.Context, query string) []models.Instrument {
	endpoint := s.config.BaseURL + "/tsev2/data/search.aspx"
	body, err := s.gateway.PostForm(ctx, endpoint, url.Values{"skey": {query}})
	if err != nil {
		s.logger.Debug().Err(err).Msg("Legacy search endpoint failed")
		return nil
	}

	body = strings.TrimSpace(body)
	lower := strings.ToLower(body)
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		return nil
	}

	var results []models.Instrument
	for _, line := range strings.Split(body, ";") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 4 {
			continue
		}
		inst := models.Instrument{
			Name:   textutil.Clean(parts[0]),
			Symbol: textutil.Clean(parts[1]),
			WebID:  strings.TrimSpace(parts[2]),
			Market: models.MarketType(strings.TrimSpace(parts[3])),
		}
		if len(parts) > 4 {
			inst.Sector = textutil.Clean(parts[4])
		}
		if len(parts) > 5 {
			inst.ISIN = strings.TrimSpace(parts[5])
		}
		if inst.WebID != "" {
			results = append(results, inst)
		}
	}
	return results
}

// staticInstruments covers a handful of heavily traded symbols so lookup
// keeps working when both search endpoints are unreachable.
var staticInstruments = []models.Instrument{
	{Name: "شرکت ملی صنایع پتروشیمی", Symbol: "پترول", WebID: "46348559193224090", Market: models.MarketBourse, Sector: "پتروشیمی", ISIN: "IRO1MSMI0001"},
	{Name: "ایران خودرو", Symbol: "خودرو", WebID: "65883838195688438", Market: models.MarketBourse, Sector: "خودرو", ISIN: "IRO1IKCO0001"},
	{Name: "فولاد مبارکه اصفهان", Symbol: "فولاد", WebID: "35700344742835695", Market: models.MarketBourse, Sector: "فولاد", ISIN: "IRO1MSMI0001"},
	{Name: "بانک ملت", Symbol: "وبملت", WebID: "778253364357513", Market: models.MarketBourse, Sector: "بانک", ISIN: "IRO1BMLT0001"},
	{Name: "سرمایه گذاری خوارزمی", Symbol: "وخارزم", WebID: "778253364357514", Market: models.MarketBourse, Sector: "فناوری", ISIN: "IRO1KHRZ0001"},
	{Name: "ذوب آهن اصفهان", Symbol: "ذوب", WebID: "778253364357515", Market: models.MarketBourse, Sector: "فولاد", ISIN: "IRO1ZOBS0001"},
}

func fallbackSearch(query string) []models.Instrument {
	norm := textutil.NormalizeSymbol(query)
	var results []models.Instrument
	for _, inst := range staticInstruments {
		symbol := textutil.NormalizeSymbol(inst.Symbol)
		if strings.Contains(symbol, norm) || strings.Contains(norm, symbol) ||
			strings.Contains(textutil.Clean(inst.Name), textutil.Clean(query)) {
			results = append(results, inst)
		}
	}
	return results
}

// Resolve returns the single best instrument for a symbol or name. An
// exact symbol match wins over the first search result.
func (s *Service) Resolve(ctx context.Context, query string) (*models.Instrument, error) {
	results, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	norm := textutil.NormalizeSymbol(query)
	for i := range results {
		if textutil.NormalizeSymbol(results[i].Symbol) == norm {
			return &results[i], nil
		}
	}
	return &results[0], nil
}

// WebID returns the TSETMC web ID for a symbol or name.
func (s *Service) WebID(ctx context.Context, stock string) (string, error) {
	inst, err := s.Resolve(ctx, stock)
	if err != nil {
		return "", err
	}
	return inst.WebID, nil
}

// sectorWebIDs maps frequently requested sector names to their TSETMC
// sector page IDs.
var sectorWebIDs = map[string]string{
	"خودرو":    "35425587644337450",
	"پتروشیمی": "35700344742835695",
	"فولاد":    "46348559193224090",
	"بانک":     "32097828799138957",
	"دارو":     "25846348559193224",
	"سیمان":    "35835747954090",
	"نفت":      "43685097559193224",
	"معدن":     "18431643976890",
	"غذا":      "35700344742835695",
	"نساجی":    "25846348559193224",
}

var webIDPattern = regexp.MustCompile(`i=(\d+)`)

// SectorStocks lists the instruments of one industry sector by scraping
// the sector page.
func (s *Service) SectorStocks(ctx context.Context, sector string) ([]models.SectorStock, error) {
	clean := textutil.Clean(sector)
	s.logger.Info().Str("sector", clean).Msg("Fetching sector stocks")

	sectorID, err := s.sectorWebID(ctx, clean)
	if err != nil {
		return nil, err
	}

	endpoint := s.config.BaseURL + "/Loader.aspx?ParTree=111C1213&i=" + sectorID
	body, err := s.gateway.GetText(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sector page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse sector page: %w", err)
	}

	var stocks []models.SectorStock
	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		webID := ""
		if href, ok := cells.Eq(0).Find("a").Attr("href"); ok {
			if m := webIDPattern.FindStringSubmatch(href); m != nil {
				webID = m[1]
			}
		}

		stock := models.SectorStock{
			Name:      textutil.Clean(cells.Eq(0).Text()),
			Symbol:    textutil.Clean(cells.Eq(1).Text()),
			WebID:     webID,
			LastPrice: parseFloat(cells.Eq(2).Text()),
			Change:    parseFloat(cells.Eq(3).Text()),
		}
		if cells.Length() > 4 {
			stock.ChangePct = strings.TrimSpace(cells.Eq(4).Text())
		}
		if stock.Symbol != "" {
			stocks = append(stocks, stock)
		}
	})

	if len(stocks) == 0 {
		return nil, fmt.Errorf("%w: sector %q produced no rows", models.ErrNoData, sector)
	}
	return stocks, nil
}

// sectorWebID resolves a sector name to its web ID, checking the static
// table first and the legacy search endpoint second.
func (s *Service) sectorWebID(ctx context.Context, clean string) (string, error) {
	if id, ok := sectorWebIDs[clean]; ok {
		return id, nil
	}

	endpoint := s.config.BaseURL + "/tsev2/data/search.aspx"
	body, err := s.gateway.GetText(ctx, endpoint, url.Values{"skey": {clean}, "type": {"sector"}})
	if err != nil {
		return "", fmt.Errorf("failed to search sector: %w", err)
	}

	for _, line := range strings.Split(strings.TrimSpace(body), ";") {
		if !strings.Contains(line, clean) {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) >= 3 && strings.TrimSpace(parts[2]) != "" {
			return strings.TrimSpace(parts[2]), nil
		}
	}
	return "", fmt.Errorf("%w: %q", models.ErrSectorNotFound, clean)
}

// Shareholders lists the major shareholders of an instrument by scraping
// its corporate page.
func (s *Service) Shareholders(ctx context.Context, stock string) ([]models.Shareholder, error) {
	webID, err := s.WebID(ctx, stock)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("stock", stock).Str("web_id", webID).Msg("Fetching shareholders")

	endpoint := s.config.BaseURL + "/Loader.aspx?ParTree=151311&i=" + webID
	body, err := s.gateway.GetText(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shareholders page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse shareholders page: %w", err)
	}

	var shareholders []models.Shareholder
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		// Only the table whose header mentions shareholders.
		header := table.Find("tr").First().Text()
		if !strings.Contains(textutil.Clean(header), "سهامدار") {
			return
		}
		table.Find("tr").Each(func(j int, row *goquery.Selection) {
			if j == 0 {
				return
			}
			cells := row.Find("td")
			if cells.Length() < 3 {
				return
			}
			shareholders = append(shareholders, models.Shareholder{
				Name:       textutil.Clean(cells.Eq(0).Text()),
				Shares:     parseInt(cells.Eq(1).Text()),
				Percentage: strings.TrimSpace(cells.Eq(2).Text()),
			})
		})
	})

	if len(shareholders) == 0 {
		return nil, fmt.Errorf("%w: no shareholders table for %q", models.ErrNoData, stock)
	}
	return shareholders, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(textutil.Digits(s), 64)
	return v
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseFloat(textutil.Digits(s), 64)
	return int64(v)
}

// Ensure Service implements StockService
var _ interfaces.StockService = (*Service)(nil)
