package stock

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mshojaei77/tsetmc-go/common"
	"github.com/mshojaei77/tsetmc-go/internal/transport"
	"github.com/mshojaei77/tsetmc-go/models"
)

func newTestService(srv *httptest.Server) *Service {
	gateway := transport.NewClient(
		transport.WithLogger(common.NewSilentLogger()),
		transport.WithRateLimit(1000),
		transport.WithMaxRetries(0),
	)
	cfg := &common.ClientConfig{
		BaseURL:       srv.URL,
		LegacyBaseURL: srv.URL,
		CDNBaseURL:    srv.URL,
		IFBBaseURL:    srv.URL,
	}
	return NewService(gateway, cfg, common.NewSilentLogger())
}

func TestSearchJSONEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tsev2/data/Instrument/GetInstrumentSearch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Write([]byte(`[
			{"lVal30":"فولاد مباركه اصفهان","lVal18AFC":"فولاد","insCode":"35700344742835695","flow":1,"lSecVal":"فلزات اساسي","cIsin":"IRO1FOLD0001"},
			{"lVal30":"فولاد خوزستان","lVal18AFC":"فخوز","insCode":"4758266259250794","flow":2,"lSecVal":"فلزات اساسي","cIsin":"IRO1FKHZ0001"}
		]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := newTestService(srv)
	results, err := svc.Search(context.Background(), "فولاد")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	first := results[0]
	if first.Symbol != "فولاد" {
		t.Errorf("symbol = %q", first.Symbol)
	}
	if first.WebID != "35700344742835695" {
		t.Errorf("web id = %q", first.WebID)
	}
	if first.Market != models.MarketBourse {
		t.Errorf("market = %q, want بورس", first.Market)
	}
	// Arabic kaf in the payload must come back folded.
	if first.Name != "فولاد مبارکه اصفهان" {
		t.Errorf("name = %q, not normalized", first.Name)
	}
	if results[1].Market != models.MarketFarabourse {
		t.Errorf("second market = %q, want فرابورس", results[1].Market)
	}
}

func TestSearchFallsBackToLegacyEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tsev2/data/Instrument/GetInstrumentSearch", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>service unavailable</html>"))
	})
	mux.HandleFunc("/tsev2/data/search.aspx", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("skey") == "" {
			t.Error("missing skey form value")
		}
		w.Write([]byte("ايران خودرو,خودرو,65883838195688438,بورس,خودرو,IRO1IKCO0001;سايپا,خساپا,44891482026867833,بورس,خودرو,IRO1SIPA0001;"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := newTestService(srv)
	results, err := svc.Search(context.Background(), "خودرو")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Name != "ایران خودرو" {
		t.Errorf("name = %q, not normalized", results[0].Name)
	}
	if results[1].WebID != "44891482026867833" {
		t.Errorf("web id = %q", results[1].WebID)
	}
}

func TestSearchStaticFallback(t *testing.T) {
	// Both endpoints down.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadRequest)
	}))
	defer srv.Close()

	svc := newTestService(srv)
	results, err := svc.Search(context.Background(), "پترول")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].WebID != "46348559193224090" {
		t.Fatalf("unexpected static results %+v", results)
	}
}

func TestSearchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadRequest)
	}))
	defer srv.Close()

	svc := newTestService(srv)
	_, err := svc.Search(context.Background(), "هیچ چیز")
	if !errors.Is(err, models.ErrInstrumentNotFound) {
		t.Errorf("error = %v, want ErrInstrumentNotFound", err)
	}
}

func TestSearchRejectsShortQuery(t *testing.T) {
	svc := newTestService(httptest.NewServer(http.NotFoundHandler()))
	// The last two collapse to a single rune once normalized: the ZWNJ
	// folds to a space and whitespace is trimmed.
	for _, q := range []string{"", " ", "ف", "ف‌", " ‌ف "} {
		if _, err := svc.Search(context.Background(), q); !errors.Is(err, models.ErrEmptyQuery) {
			t.Errorf("Search(%q) error = %v, want ErrEmptyQuery", q, err)
		}
	}
}

func TestResolvePrefersExactSymbol(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tsev2/data/Instrument/GetInstrumentSearch", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"lVal30":"فولاد خوزستان","lVal18AFC":"فخوز","insCode":"1","flow":1},
			{"lVal30":"فولاد مباركه اصفهان","lVal18AFC":"فولاد","insCode":"2","flow":1}
		]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := newTestService(srv)
	inst, err := svc.Resolve(context.Background(), "فولاد")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if inst.WebID != "2" {
		t.Errorf("resolved web id = %s, want exact symbol match 2", inst.WebID)
	}

	webID, err := svc.WebID(context.Background(), "فولاد")
	if err != nil {
		t.Fatalf("WebID failed: %v", err)
	}
	if webID != "2" {
		t.Errorf("WebID = %s, want 2", webID)
	}
}

func TestSectorStocks(t *testing.T) {
	page := `<html><body><table>
		<tr><th>نام</th><th>نماد</th><th>قیمت</th><th>تغییر</th><th>درصد</th></tr>
		<tr>
			<td><a href="Loader.aspx?ParTree=151311&i=65883838195688438">ايران خودرو</a></td>
			<td>خودرو</td><td>2,450</td><td>120</td><td>5.15%</td>
		</tr>
		<tr>
			<td><a href="Loader.aspx?ParTree=151311&i=44891482026867833">سايپا</a></td>
			<td>خساپا</td><td>1,890</td><td>-35</td><td>-1.82%</td>
		</tr>
	</table></body></html>`

	mux := http.NewServeMux()
	mux.HandleFunc("/Loader.aspx", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ParTree") != "111C1213" {
			t.Errorf("ParTree = %q", r.URL.Query().Get("ParTree"))
		}
		if r.URL.Query().Get("i") != "35425587644337450" {
			t.Errorf("sector id = %q", r.URL.Query().Get("i"))
		}
		w.Write([]byte(page))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := newTestService(srv)
	stocks, err := svc.SectorStocks(context.Background(), "خودرو")
	if err != nil {
		t.Fatalf("SectorStocks failed: %v", err)
	}
	if len(stocks) != 2 {
		t.Fatalf("got %d stocks, want 2", len(stocks))
	}
	if stocks[0].WebID != "65883838195688438" {
		t.Errorf("web id = %q", stocks[0].WebID)
	}
	if stocks[0].LastPrice != 2450 {
		t.Errorf("last price = %v, want 2450", stocks[0].LastPrice)
	}
	if stocks[1].Change != -35 {
		t.Errorf("change = %v, want -35", stocks[1].Change)
	}
}

func TestShareholders(t *testing.T) {
	page := `<html><body>
	<table><tr><td>چیز دیگر</td></tr></table>
	<table>
		<tr><th>سهامدار</th><th>سهم</th><th>درصد</th></tr>
		<tr><td>سازمان گسترش</td><td>12,345,678</td><td>14.02</td></tr>
		<tr><td>صندوق بازنشستگی</td><td>9,000,000</td><td>10.21</td></tr>
	</table></body></html>`

	mux := http.NewServeMux()
	mux.HandleFunc("/tsev2/data/Instrument/GetInstrumentSearch", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lVal30":"ايران خودرو","lVal18AFC":"خودرو","insCode":"65883838195688438","flow":1}]`))
	})
	mux.HandleFunc("/Loader.aspx", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ParTree") != "151311" {
			t.Errorf("ParTree = %q", r.URL.Query().Get("ParTree"))
		}
		w.Write([]byte(page))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := newTestService(srv)
	holders, err := svc.Shareholders(context.Background(), "خودرو")
	if err != nil {
		t.Fatalf("Shareholders failed: %v", err)
	}
	if len(holders) != 2 {
		t.Fatalf("got %d holders, want 2", len(holders))
	}
	if holders[0].Shares != 12345678 {
		t.Errorf("shares = %d, want 12345678", holders[0].Shares)
	}
	if holders[1].Percentage != "10.21" {
		t.Errorf("percentage = %q", holders[1].Percentage)
	}
}
