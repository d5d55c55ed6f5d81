package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"MA5Sentinel/internal/model"
)

// RESTGateway implements Gateway against a JSON market-data REST API.
type RESTGateway struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTGateway creates a gateway with optional proxy support.
func NewRESTGateway(baseURL, apiKey, proxyURL string, timeout time.Duration) *RESTGateway {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RESTGateway{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (g *RESTGateway) Name() string { return "rest" }

type restBar struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	Volume        float64 `json:"volume"`
	Amount        float64 `json:"amount"`
	Change        float64 `json:"change"`
	ChangePct     float64 `json:"change_pct"`
	TurnoverRatio float64 `json:"turnover_ratio"`
}

type restQuote struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
	Volume    float64 `json:"volume"`
	Amount    float64 `json:"amount"`
}

type restCalendarDay struct {
	Date        string `json:"date"`
	TradeStatus int    `json:"trade_status"`
}

func (g *RESTGateway) HistoryBars(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("start", start.Format(model.DateLayout))
	q.Set("end", end.Format(model.DateLayout))
	var rows []restBar
	if err := g.getJSON(ctx, "/api/v1/bars/daily", q, &rows); err != nil {
		return nil, fmt.Errorf("fetch bars %s: %w", symbol, err)
	}
	bars := make([]model.Bar, 0, len(rows))
	for _, r := range rows {
		if r.Date == "" {
			continue
		}
		bars = append(bars, model.Bar{
			Date:          r.Date,
			Open:          r.Open,
			High:          r.High,
			Low:           r.Low,
			Close:         r.Close,
			Volume:        r.Volume,
			Amount:        r.Amount,
			Change:        r.Change,
			ChangePct:     r.ChangePct,
			TurnoverRatio: r.TurnoverRatio,
		})
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars, nil
}

func (g *RESTGateway) RealtimePrice(ctx context.Context, symbol string) (float64, string, error) {
	quotes, err := g.RealtimeQuotes(ctx, []string{symbol})
	if err != nil {
		return 0, "", err
	}
	q, ok := quotes[symbol]
	if !ok || q.Price <= 0 {
		return 0, "", fmt.Errorf("realtime price %s: %w", symbol, ErrNoData)
	}
	return q.Price, q.Name, nil
}

func (g *RESTGateway) RealtimeQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	out := make(map[string]model.Quote, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}
	q := url.Values{}
	q.Set("symbols", strings.Join(symbols, ","))
	var rows []restQuote
	if err := g.getJSON(ctx, "/api/v1/quote", q, &rows); err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}
	for _, r := range rows {
		out[r.Symbol] = model.Quote{
			Symbol:    r.Symbol,
			Name:      r.Name,
			Price:     r.Price,
			Change:    r.Change,
			ChangePct: r.ChangePct,
			Volume:    r.Volume,
			Amount:    r.Amount,
		}
	}
	return out, nil
}

func (g *RESTGateway) TradingCalendar(ctx context.Context, year int) (model.Calendar, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	var rows []restCalendarDay
	if err := g.getJSON(ctx, "/api/v1/calendar", q, &rows); err != nil {
		return nil, fmt.Errorf("fetch calendar %d: %w", year, err)
	}
	cal := make(model.Calendar, len(rows))
	for _, r := range rows {
		cal[r.Date] = r.TradeStatus == 1
	}
	return cal, nil
}

func (g *RESTGateway) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	endpoint := g.BaseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
