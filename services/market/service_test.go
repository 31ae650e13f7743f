package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mshojaei77/tsetmc-go/common"
	"github.com/mshojaei77/tsetmc-go/interfaces"
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
	}
	return NewService(gateway, nil, cfg, common.NewSilentLogger())
}

func TestIndexHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/Index/GetIndexB2History/32097828799138957", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"indexB2":[
			{"dEven":20240320,"xNivInuClMresIbs":2100000.5},
			{"dEven":20240321,"xNivInuClMresIbs":2110500.25}
		]}`))
	})
	mux.HandleFunc("/tsev2/chart/data/IndexFinancial.aspx", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("t") != "ph" {
			t.Errorf("t = %q, want ph", r.URL.Query().Get("t"))
		}
		w.Write([]byte("2024-03-20,2105000,2095000,2098000,2100000,12345678,0;2024-03-21,2115000,2102000,2103000,2110500,23456789,0"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	bars, err := newTestService(srv).IndexHistory(context.Background(), interfaces.IndexRequest{
		Kind: models.IndexCWI, IgnoreDates: true,
	})
	if err != nil {
		t.Fatalf("IndexHistory failed: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if bars[0].JDate != "1403-01-01" {
		t.Errorf("first date = %s, want 1403-01-01", bars[0].JDate)
	}
	if bars[0].AdjClose != 2100000.5 {
		t.Errorf("adj close = %v", bars[0].AdjClose)
	}
	if bars[0].High != 2105000 || bars[0].Open != 2098000 || bars[0].Volume != 12345678 {
		t.Errorf("OHLCV not joined: %+v", bars[0])
	}
}

func TestIndexHistoryDropsDaysWithoutOHLCV(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/Index/GetIndexB2History/32097828799138957", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"indexB2":[
			{"dEven":20240320,"xNivInuClMresIbs":100},
			{"dEven":20240321,"xNivInuClMresIbs":101},
			{"dEven":20240324,"xNivInuClMresIbs":102}
		]}`))
	})
	mux.HandleFunc("/tsev2/chart/data/IndexFinancial.aspx", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("2024-03-20,105,95,98,100,1000,0;2024-03-21,106,96,99,101,2000,0"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	bars, err := newTestService(srv).IndexHistory(context.Background(), interfaces.IndexRequest{
		Kind: models.IndexCWI, IgnoreDates: true,
	})
	if err != nil {
		t.Fatalf("IndexHistory failed: %v", err)
	}

	// The CDN day without an OHLCV row is dropped, not zero-filled.
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2: %+v", len(bars), bars)
	}
	for _, b := range bars {
		if b.Open == 0 || b.Close == 0 {
			t.Errorf("zero-filled bar survived: %+v", b)
		}
	}
	if bars[1].JDate != "1403-01-02" {
		t.Errorf("last date = %s, want 1403-01-02", bars[1].JDate)
	}
}

func TestIndexHistoryOHLCVFeedDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/Index/GetIndexB2History/32097828799138957", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"indexB2":[{"dEven":20240320,"xNivInuClMresIbs":100}]}`))
	})
	// No IndexFinancial handler: the OHLCV fetch fails.
	srv := httptest.NewServer(mux)
	defer srv.Close()

	bars, err := newTestService(srv).IndexHistory(context.Background(), interfaces.IndexRequest{
		Kind: models.IndexCWI, IgnoreDates: true,
	})
	if err != nil {
		t.Fatalf("IndexHistory failed: %v", err)
	}
	// Degrades to the close-only series instead of dropping everything.
	if len(bars) != 1 || bars[0].AdjClose != 100 || bars[0].Close != 0 {
		t.Errorf("bars = %+v", bars)
	}
}

func TestIndexHistoryAdjCloseOnly(t *testing.T) {
	ohlcCalled := false
	mux := http.NewServeMux()
	mux.HandleFunc("/api/Index/GetIndexB2History/67130298613737946", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"indexB2":[{"dEven":20240320,"xNivInuClMresIbs":750000}]}`))
	})
	mux.HandleFunc("/tsev2/chart/data/IndexFinancial.aspx", func(w http.ResponseWriter, r *http.Request) {
		ohlcCalled = true
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	bars, err := newTestService(srv).IndexHistory(context.Background(), interfaces.IndexRequest{
		Kind: models.IndexEWI, IgnoreDates: true, AdjCloseOnly: true,
	})
	if err != nil {
		t.Fatalf("IndexHistory failed: %v", err)
	}
	if ohlcCalled {
		t.Error("OHLCV feed fetched despite AdjCloseOnly")
	}
	if bars[0].Close != 0 || bars[0].AdjClose != 750000 {
		t.Errorf("bars = %+v", bars)
	}
}

func TestIndexHistoryUnknownKind(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestService(srv).IndexHistory(context.Background(), interfaces.IndexRequest{
		Kind: "NOPE", IgnoreDates: true,
	})
	if !errors.Is(err, models.ErrInvalidIndex) {
		t.Errorf("error = %v, want ErrInvalidIndex", err)
	}
}

// watchPayload has two price rows and a depth-1 order book where فولاد
// has a locked buy queue at the daily upper band.
const watchPayload = "header@instant@" +
	// webid,code,symbol,name,time,open,final,close,count,volume,value,low,high,yfinal,eps,basevol,u1,u2,sector,dayUL,dayLL,shares,mktid
	"35700344742835695,IRO1FOLD0001,فولاد,فولاد مباركه اصفهان,122959,6000,6100,6120,1500,2000000,12240000000,5950,6150,6000,520,1000000,0,0,27,6300,5700,8000000,300;" +
	"65883838195688438,IRO1IKCO0001,خودرو,ايران خودرو,122930,2400,2450,2430,900,9000000,21870000000,2380,2460,2400,-120,5000000,0,0,34,2520,2280,3000000,303" +
	"@" +
	// webid,depth,sellNo,buyNo,buyPrice,sellPrice,buyVol,sellVol
	"35700344742835695,1,0,250,6300,0,1200000,0;" +
	"35700344742835695,2,5,90,6290,6310,400000,20000;" +
	"65883838195688438,1,30,40,2440,2450,80000,95000" +
	"@rest"

const clientTypePayload = "35700344742835695,1200,30,1500000,500000,980,20,1400000,600000;" +
	"65883838195688438,800,10,7000000,2000000,600,15,6500000,2500000"

const staticDataPayload = `{"staticData":[
	{"code":27,"type":"IndustrialGroup","name":"فلزات اساسي"},
	{"code":34,"type":"IndustrialGroup","name":"خودرو و ساخت قطعات"},
	{"code":1,"type":"Other","name":"ignored"}
]}`

func watchServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/tsev2/data/MarketWatchPlus.aspx", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(watchPayload))
	})
	mux.HandleFunc("/tsev2/data/ClientTypeAll.aspx", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(clientTypePayload))
	})
	mux.HandleFunc("/api/StaticData/GetStaticData", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(staticDataPayload))
	})
	return httptest.NewServer(mux)
}

func TestWatch(t *testing.T) {
	srv := watchServer()
	defer srv.Close()

	watch, err := newTestService(srv).Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if len(watch.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(watch.Rows))
	}

	foolad := watch.Rows[0]
	if foolad.Symbol != "فولاد" {
		t.Fatalf("first symbol = %q", foolad.Symbol)
	}
	if foolad.Time != "12:29:59" {
		t.Errorf("time = %q, want 12:29:59", foolad.Time)
	}
	if foolad.Market != models.MarketBourse {
		t.Errorf("market = %q", foolad.Market)
	}
	if foolad.Sector != "فلزات اساسی" {
		t.Errorf("sector = %q, want mapped name", foolad.Sector)
	}
	// (6120-6000)/6000*100 = 2 ; (6100-6000)/6000*100 = 1.67
	if foolad.ClosePct != 2 {
		t.Errorf("close pct = %v, want 2", foolad.ClosePct)
	}
	if foolad.FinalPct != 1.67 {
		t.Errorf("final pct = %v, want 1.67", foolad.FinalPct)
	}
	if foolad.MarketCap != 8000000*6100 {
		t.Errorf("market cap = %v", foolad.MarketCap)
	}

	// Buy locked at the upper band -> queue value 1200000*6300.
	if foolad.BuyQueueValue != 1200000*6300 {
		t.Errorf("buy queue value = %v", foolad.BuyQueueValue)
	}
	if foolad.BuyQueuePerCap != int64(1200000*6300/250) {
		t.Errorf("buy queue per capita = %v", foolad.BuyQueuePerCap)
	}
	if foolad.SellQueueValue != 0 {
		t.Errorf("sell queue value = %v, want 0", foolad.SellQueueValue)
	}

	if foolad.BuyVolRetail != 1500000 || foolad.SellVolInst != 600000 {
		t.Errorf("client type join wrong: %+v", foolad)
	}

	khodro := watch.Rows[1]
	if khodro.Market != models.MarketFarabourse {
		t.Errorf("khodro market = %q", khodro.Market)
	}
	// Best limits away from the band -> no queues.
	if khodro.BuyQueueValue != 0 || khodro.SellQueueValue != 0 {
		t.Errorf("khodro queue values = %v / %v", khodro.BuyQueueValue, khodro.SellQueueValue)
	}

	if len(watch.OrderBook) != 3 {
		t.Fatalf("got %d order book rows, want 3", len(watch.OrderBook))
	}
	// Rows come back sorted by symbol then depth.
	if watch.OrderBook[0].Symbol != "خودرو" || watch.OrderBook[1].Symbol != "فولاد" {
		t.Errorf("order book not sorted by symbol: %+v", watch.OrderBook)
	}
	if watch.OrderBook[1].Depth != 1 || watch.OrderBook[2].Depth != 2 {
		t.Errorf("order book not sorted by depth: %+v", watch.OrderBook)
	}
	depth2 := watch.OrderBook[2]
	if depth2.Symbol != "فولاد" || depth2.SellVolume != 20000 {
		t.Errorf("depth2 row = %+v", depth2)
	}
	if watch.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestWatchDegradesWithoutSideFeeds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tsev2/data/MarketWatchPlus.aspx", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(watchPayload))
	})
	// Client type and static data endpoints return errors.
	srv := httptest.NewServer(mux)
	defer srv.Close()

	watch, err := newTestService(srv).Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if watch.Rows[0].BuyVolRetail != 0 {
		t.Error("client type fields should be zero")
	}
	// Sector falls back to the raw code.
	if watch.Rows[0].Sector != "27" {
		t.Errorf("sector = %q, want raw code 27", watch.Rows[0].Sector)
	}
}

func TestWatchMalformedPayload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tsev2/data/MarketWatchPlus.aspx", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("too@few"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newTestService(srv).Watch(context.Background())
	if !errors.Is(err, models.ErrNoData) {
		t.Errorf("error = %v, want ErrNoData", err)
	}
}
