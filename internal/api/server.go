package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kjannette/mindful-trader/internal/analytics"
	"github.com/kjannette/mindful-trader/internal/logging"
	"github.com/kjannette/mindful-trader/internal/models"
	"github.com/kjannette/mindful-trader/internal/repository"
	"github.com/kjannette/mindful-trader/internal/risk"
)

const maxQueryLimit = 1000

var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// TradeStore is the trade persistence the handlers need. *repository.TradeRepo satisfies it.
type TradeStore interface {
	Create(ctx context.Context, userID uuid.UUID, in models.TradeInput, pre *models.PreTradeJournal, post *models.PostTradeJournal) (*models.Trade, error)
	CreateTrade(ctx context.Context, userID uuid.UUID, in models.TradeInput) (*models.Trade, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Trade, error)
	Update(ctx context.Context, userID, id uuid.UUID, in models.TradeInput, pre *models.PreTradeJournal, post *models.PostTradeJournal) (*models.Trade, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, f models.TradeFilter) ([]models.Trade, error)
	ListClosed(ctx context.Context, userID uuid.UUID, start, end *time.Time) ([]models.Trade, error)
	CountOnDay(ctx context.Context, userID uuid.UUID, day time.Time) (int, error)
	Count(ctx context.Context, userID uuid.UUID) (int, error)
}

type StrategyStore interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Strategy, error)
	Create(ctx context.Context, userID uuid.UUID, in models.StrategyInput) (*models.Strategy, error)
	Update(ctx context.Context, userID, id uuid.UUID, in models.StrategyInput) (*models.Strategy, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type GamificationStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Gamification, error)
	Save(ctx context.Context, g *models.Gamification) error
}

// Pinger reports database reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Stores struct {
	Trades       TradeStore
	Strategies   StrategyStore
	Gamification GamificationStore
	DB           Pinger
}

type Options struct {
	Port           int
	APIKey         string
	CORSOrigin     string
	RateLimitRPS   float64
	RateLimitBurst int

	// Location is the trader timezone used for calendar days and CSV dates.
	Location *time.Location

	AvoidMinTrades     int
	AvoidMaxWinRate    float64
	BestWorstMinTrades int
	Vocabulary         analytics.SectorVocabulary
	Limits             risk.Limits

	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	stores     Stores
	opts       Options
	guardian   *risk.Guardian
	correlator *analytics.MarketCorrelator
	limiter    *userLimiter
	log        zerolog.Logger
	handler    http.Handler
	httpServer *http.Server
}

func NewServer(stores Stores, opts Options, log zerolog.Logger) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AvoidMinTrades <= 0 {
		opts.AvoidMinTrades = analytics.DefaultAvoidMinTrades
	}
	if opts.AvoidMaxWinRate <= 0 {
		opts.AvoidMaxWinRate = analytics.DefaultAvoidMaxWinRate
	}
	if opts.BestWorstMinTrades <= 0 {
		opts.BestWorstMinTrades = analytics.DefaultBestWorstMinTrades
	}
	if len(opts.Vocabulary.Sectors) == 0 {
		opts.Vocabulary = analytics.DefaultSectorVocabulary()
	}

	s := &Server{
		stores:     stores,
		opts:       opts,
		guardian:   risk.NewGuardian(opts.Limits, stores.Trades),
		correlator: analytics.NewMarketCorrelator(opts.Vocabulary),
		limiter:    newUserLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		log:        log.With().Str("component", "api").Logger(),
	}

	mux := http.NewServeMux()

	// Trade routes
	s.handle(mux, "GET /v1/trades", s.handleListTrades)
	s.handle(mux, "POST /v1/trades", s.handleCreateTrade)
	s.handle(mux, "GET /v1/trades/export.csv", s.handleExportTrades)
	s.handle(mux, "GET /v1/trades/{id}", s.handleGetTrade)
	s.handle(mux, "PUT /v1/trades/{id}", s.handleUpdateTrade)
	s.handle(mux, "DELETE /v1/trades/{id}", s.handleDeleteTrade)

	// Strategy routes
	s.handle(mux, "GET /v1/strategies", s.handleListStrategies)
	s.handle(mux, "POST /v1/strategies", s.handleCreateStrategy)
	s.handle(mux, "PUT /v1/strategies/{id}", s.handleUpdateStrategy)
	s.handle(mux, "DELETE /v1/strategies/{id}", s.handleDeleteStrategy)

	// Analytics routes
	s.handle(mux, "GET /v1/metrics", s.handlePortfolioMetrics)
	s.handle(mux, "GET /v1/analytics/time-heatmap", s.handleTimeHeatmap)
	s.handle(mux, "GET /v1/analytics/best-worst-times", s.handleBestWorstTimes)
	s.handle(mux, "GET /v1/analytics/market-correlation", s.handleMarketCorrelation)
	s.handle(mux, "GET /v1/analytics/strategies", s.handleStrategyBreakdown)

	// Psychology routes
	s.handle(mux, "GET /v1/psychology/metrics", s.handlePsychologyMetrics)
	s.handle(mux, "GET /v1/psychology/weekly-report", s.handleWeeklyReport)

	// Gamification routes
	s.handle(mux, "GET /v1/gamification", s.handleGetGamification)
	s.handle(mux, "POST /v1/gamification", s.handleRecordActivity)

	// CSV import routes
	s.handle(mux, "POST /v1/import/csv/preview", s.handleImportPreview)
	s.handle(mux, "POST /v1/import/csv", s.handleImportConfirm)

	// Health check and metrics (no auth required)
	s.handle(mux, "GET /health", s.handleHealth)
	s.handle(mux, "GET /metrics", s.handlePrometheus)

	// CORS wraps auth so preflight requests never need a token.
	s.handler = corsMiddleware(s.authMiddleware(s.requestContext(s.userMiddleware(mux))), opts.CORSOrigin)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Handler exposes the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("REST API server started")
	if s.opts.APIKey != "" {
		s.log.Info().Msg("authentication: enabled (Bearer token)")
	} else {
		s.log.Warn().Msg("authentication: disabled (no API_KEY configured)")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- validation helpers ---

func validateDate(date string) bool {
	if !dateRegexp.MatchString(date) {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// parseDateParam reads a YYYY-MM-DD or RFC3339 query value. A bare date is the
// start of that day in loc, or its last instant when endOfDay is set.
func parseDateParam(r *http.Request, name string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	if validateDate(v) {
		t, _ := time.ParseInLocation("2006-01-02", v, loc)
		if endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q, expected YYYY-MM-DD or RFC3339", name, v)
	}
	return &t, nil
}

// parseDateRange reads the start/end pair under the given parameter names.
func (s *Server) parseDateRange(r *http.Request, startName, endName string) (start, end *time.Time, err error) {
	if start, err = parseDateParam(r, startName, s.opts.Location, false); err != nil {
		return nil, nil, err
	}
	if end, err = parseDateParam(r, endName, s.opts.Location, true); err != nil {
		return nil, nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, fmt.Errorf("%s must not be before %s", endName, startName)
	}
	return start, end, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// --- response helpers ---

type dataResponse struct {
	Data any `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, dataResponse{Data: v})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type validationResponse struct {
	Error   string                  `json:"error"`
	Details models.ValidationErrors `json:"details"`
}

// writeInputError answers 400, listing each rejected field when err carries them.
func writeInputError(w http.ResponseWriter, err error) {
	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, validationResponse{Error: "Validation failed", Details: verrs})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// writeStoreError maps repository errors: ErrNotFound is a 404, anything else
// is logged and hidden behind a 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, what string) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, what+" not found")
		return
	}
	log := logging.FromContext(r.Context())
	log.Error().Err(err).Str("resource", what).Msg("store operation failed")
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

const maxBodyBytes = 10 << 20
