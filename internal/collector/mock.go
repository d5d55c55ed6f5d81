package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MA5Sentinel/internal/model"
)

// MockGateway returns controllable fixed data for development and testing.
type MockGateway struct {
	mu       sync.Mutex
	Bars     map[string][]model.Bar
	Quotes   map[string]model.Quote
	Calendar map[int]model.Calendar
	Err      error
}

// NewMockGateway creates an empty mock.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Bars:     make(map[string][]model.Bar),
		Quotes:   make(map[string]model.Quote),
		Calendar: make(map[int]model.Calendar),
	}
}

func (m *MockGateway) Name() string { return "mock" }

// SetQuote replaces the realtime quote for a symbol.
func (m *MockGateway) SetQuote(q model.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Quotes[q.Symbol] = q
}

// ClearQuote removes the realtime quote for a symbol.
func (m *MockGateway) ClearQuote(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Quotes, symbol)
}

func (m *MockGateway) HistoryBars(_ context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	from, to := start.Format(model.DateLayout), end.Format(model.DateLayout)
	var out []model.Bar
	for _, b := range m.Bars[symbol] {
		if b.Date >= from && b.Date <= to {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *MockGateway) RealtimePrice(_ context.Context, symbol string) (float64, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, "", m.Err
	}
	q, ok := m.Quotes[symbol]
	if !ok || q.Price <= 0 {
		return 0, "", fmt.Errorf("realtime price %s: %w", symbol, ErrNoData)
	}
	return q.Price, q.Name, nil
}

func (m *MockGateway) RealtimeQuotes(_ context.Context, symbols []string) (map[string]model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string]model.Quote, len(symbols))
	for _, s := range symbols {
		if q, ok := m.Quotes[s]; ok {
			out[s] = q
		}
	}
	return out, nil
}

func (m *MockGateway) TradingCalendar(_ context.Context, year int) (model.Calendar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	cal, ok := m.Calendar[year]
	if !ok {
		return nil, fmt.Errorf("calendar %d: %w", year, ErrNoData)
	}
	return cal, nil
}
