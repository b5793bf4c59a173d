package mocks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-forecast/internal/types"
)

// MockChartServer serves the Yahoo chart endpoint from in-memory bars.
// Bars are emitted at their UTC timestamp with a zero gmtoffset.
type MockChartServer struct {
	mu     sync.RWMutex
	server *httptest.Server
	bars   map[string][]types.PriceBar
	hits   map[string]int
}

// NewMockChartServer starts a server. Call Close when done.
func NewMockChartServer() *MockChartServer {
	s := &MockChartServer{
		mu:     sync.RWMutex{},
		server: nil,
		bars:   make(map[string][]types.PriceBar),
		hits:   make(map[string]int),
	}

	router := mux.NewRouter()
	router.HandleFunc("/v8/finance/chart/{symbol}", s.handleChart).Methods(http.MethodGet)

	s.server = httptest.NewServer(router)

	return s
}

// URL is the base URL to pass as the Yahoo base URL.
func (s *MockChartServer) URL() string {
	return s.server.URL
}

// Close shuts the server down.
func (s *MockChartServer) Close() {
	s.server.Close()
}

// SetBars registers the bars returned for symbol.
func (s *MockChartServer) SetBars(symbol string, bars []types.PriceBar) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bars[symbol] = bars
}

// Hits returns how many chart requests were made for symbol.
func (s *MockChartServer) Hits(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.hits[symbol]
}

type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type chartResult struct {
	Meta       map[string]any          `json:"meta"`
	Timestamp  []int64                 `json:"timestamp"`
	Indicators map[string][]chartQuote `json:"indicators"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

func (s *MockChartServer) handleChart(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	s.mu.Lock()
	s.hits[symbol]++
	bars, ok := s.bars[symbol]
	s.mu.Unlock()

	var resp chartResponse

	w.Header().Set("Content-Type", "application/json")

	if !ok {
		resp.Chart.Error = &chartError{Code: "Not Found", Description: "No data found, symbol may be delisted"}

		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(resp)

		return
	}

	period1, err1 := strconv.ParseInt(r.URL.Query().Get("period1"), 10, 64)
	period2, err2 := strconv.ParseInt(r.URL.Query().Get("period2"), 10, 64)

	if err1 != nil || err2 != nil {
		resp.Chart.Error = &chartError{Code: "Bad Request", Description: "invalid period"}

		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(resp)

		return
	}

	result := chartResult{
		Meta:       map[string]any{"symbol": symbol, "gmtoffset": 0},
		Timestamp:  []int64{},
		Indicators: map[string][]chartQuote{},
	}

	var quote chartQuote

	for _, bar := range bars {
		ts := bar.Date.Unix()
		if ts < period1 || ts >= period2 {
			continue
		}

		result.Timestamp = append(result.Timestamp, ts)
		quote.Open = append(quote.Open, ptr(bar.Open))
		quote.High = append(quote.High, ptr(bar.High))
		quote.Low = append(quote.Low, ptr(bar.Low))
		quote.Close = append(quote.Close, ptr(bar.Close))

		if bar.Volume.IsSome() {
			quote.Volume = append(quote.Volume, ptr(float64(bar.Volume.Unwrap())))
		} else {
			quote.Volume = append(quote.Volume, nil)
		}
	}

	result.Indicators["quote"] = []chartQuote{quote}
	resp.Chart.Result = []chartResult{result}

	_ = json.NewEncoder(w).Encode(resp)
}

func ptr(v float64) *float64 {
	return &v
}
