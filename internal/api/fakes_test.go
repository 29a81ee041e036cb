package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kjannette/mindful-trader/internal/analytics"
	"github.com/kjannette/mindful-trader/internal/models"
	"github.com/kjannette/mindful-trader/internal/repository"
)

// ---------- fake stores ----------

type fakeTrades struct {
	mu         sync.Mutex
	trades     map[uuid.UUID]models.Trade
	dayCount   int
	failTicker string
	listErr    error
	// afterCreate runs once a trade is stored.
	afterCreate func()

	filter     models.TradeFilter
	start, end *time.Time
}

func newFakeTrades() *fakeTrades {
	return &fakeTrades{trades: make(map[uuid.UUID]models.Trade)}
}

func (f *fakeTrades) build(userID uuid.UUID, id uuid.UUID, in models.TradeInput, pre *models.PreTradeJournal, post *models.PostTradeJournal) models.Trade {
	var stop *float64
	if pre != nil {
		stop = pre.PlannedStopLoss
	}
	d := analytics.Derive(in, stop, time.UTC)
	return models.Trade{
		ID: id, UserID: userID, Ticker: in.Ticker, Direction: in.Direction,
		EntryDate: in.EntryDate, ExitDate: in.ExitDate, EntryPrice: in.EntryPrice, ExitPrice: in.ExitPrice,
		Quantity: in.Quantity, Commissions: in.Commissions,
		GrossPnL: d.GrossPnL, NetPnL: d.NetPnL, ReturnPercent: d.ReturnPercent, ActualRR: d.ActualRR,
		HoldDurationMinutes: d.HoldDurationMinutes, DayOfWeek: &d.DayOfWeek, HourOfDay: &d.HourOfDay,
		ImportedFromCSV: in.ImportedFromCSV, Pre: pre, Post: post,
	}
}

func (f *fakeTrades) Create(_ context.Context, userID uuid.UUID, in models.TradeInput, pre *models.PreTradeJournal, post *models.PostTradeJournal) (*models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTicker != "" && in.Ticker == f.failTicker {
		return nil, errors.New("insert trade: connection reset")
	}
	t := f.build(userID, uuid.New(), in, pre, post)
	f.trades[t.ID] = t
	if f.afterCreate != nil {
		f.afterCreate()
	}
	return &t, nil
}

func (f *fakeTrades) CreateTrade(ctx context.Context, userID uuid.UUID, in models.TradeInput) (*models.Trade, error) {
	return f.Create(ctx, userID, in, nil, nil)
}

func (f *fakeTrades) Get(_ context.Context, userID, id uuid.UUID) (*models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trades[id]
	if !ok || t.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (f *fakeTrades) Update(_ context.Context, userID, id uuid.UUID, in models.TradeInput, pre *models.PreTradeJournal, post *models.PostTradeJournal) (*models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.trades[id]
	if !ok || old.UserID != userID {
		return nil, repository.ErrNotFound
	}
	t := f.build(userID, id, in, pre, post)
	f.trades[id] = t
	return &t, nil
}

func (f *fakeTrades) Delete(_ context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trades[id]
	if !ok || t.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.trades, id)
	return nil
}

func (f *fakeTrades) List(_ context.Context, userID uuid.UUID, filter models.TradeFilter) ([]models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.Trade{}
	for _, t := range f.trades {
		if t.UserID == userID && (!filter.ClosedOnly || t.IsClosed()) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTrades) ListClosed(ctx context.Context, userID uuid.UUID, start, end *time.Time) ([]models.Trade, error) {
	f.mu.Lock()
	f.start, f.end = start, end
	f.mu.Unlock()
	return f.List(ctx, userID, models.TradeFilter{ClosedOnly: true})
}

func (f *fakeTrades) CountOnDay(context.Context, uuid.UUID, time.Time) (int, error) {
	return f.dayCount, nil
}

func (f *fakeTrades) Count(_ context.Context, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.trades {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

// add stores a closed trade directly, bypassing the handlers.
func (f *fakeTrades) add(userID uuid.UUID, ticker string, entry time.Time, entryPrice, exitPrice float64, pre *models.PreTradeJournal) models.Trade {
	exit := entry.Add(30 * time.Minute)
	in := models.TradeInput{
		Ticker: ticker, Direction: models.Long, EntryDate: entry, ExitDate: &exit,
		EntryPrice: entryPrice, ExitPrice: &exitPrice, Quantity: 10,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.build(userID, uuid.New(), in, pre, nil)
	f.trades[t.ID] = t
	return t
}

type fakeStrategies struct {
	mu    sync.Mutex
	items map[uuid.UUID]models.Strategy
}

func (f *fakeStrategies) List(_ context.Context, userID uuid.UUID) ([]models.Strategy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Strategy
	for _, s := range f.items {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStrategies) Create(_ context.Context, userID uuid.UUID, in models.StrategyInput) (*models.Strategy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := models.Strategy{ID: uuid.New(), UserID: userID, Name: in.Name, Description: in.Description, Rules: in.Rules}
	f.items[s.ID] = s
	return &s, nil
}

func (f *fakeStrategies) Update(_ context.Context, userID, id uuid.UUID, in models.StrategyInput) (*models.Strategy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.items[id]
	if !ok || s.UserID != userID {
		return nil, repository.ErrNotFound
	}
	s.Name, s.Description, s.Rules = in.Name, in.Description, in.Rules
	f.items[id] = s
	return &s, nil
}

func (f *fakeStrategies) Delete(_ context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.items[id]
	if !ok || s.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeGamification struct {
	mu     sync.Mutex
	record *models.Gamification
	saves  int
}

func (f *fakeGamification) Get(_ context.Context, userID uuid.UUID) (*models.Gamification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.record == nil {
		f.record = &models.Gamification{UserID: userID, Badges: []models.Badge{}}
	}
	g := *f.record
	return &g, nil
}

func (f *fakeGamification) Save(_ context.Context, g *models.Gamification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *g
	f.record = &cp
	f.saves++
	return nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// ---------- harness ----------

const testKey = "secret123"

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type harness struct {
	trades     *fakeTrades
	strategies *fakeStrategies
	game       *fakeGamification
	user       uuid.UUID
	handler    http.Handler
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	h := &harness{
		trades:     newFakeTrades(),
		strategies: &fakeStrategies{items: make(map[uuid.UUID]models.Strategy)},
		game:       &fakeGamification{},
		user:       uuid.New(),
	}
	opts := Options{
		APIKey:         testKey,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		Location:       time.UTC,
		Now:            func() time.Time { return testNow },
	}
	if mutate != nil {
		mutate(&opts)
	}
	stores := Stores{Trades: h.trades, Strategies: h.strategies, Gamification: h.game, DB: fakePinger{}}
	h.handler = NewServer(stores, opts, zerolog.Nop()).Handler()
	return h
}

func (h *harness) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set(headerUserID, h.user.String())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	return rr
}

func (h *harness) doJSON(method, path string, v any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(v)
	return h.do(method, path, bytes.NewReader(b), "application/json")
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func ptr[T any](v T) *T { return &v }
