package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kjannette/mindful-trader/internal/analytics"
	"github.com/kjannette/mindful-trader/internal/logging"
	"github.com/kjannette/mindful-trader/internal/metrics"
	"github.com/kjannette/mindful-trader/internal/models"
	"github.com/kjannette/mindful-trader/internal/trace"
)

// compute runs one analytics calculator under a span and records it.
func compute[T any](ctx context.Context, calculator string, trades []models.Trade, fn func() T) T {
	_, span := trace.StartSpan(ctx, "analytics."+calculator, attribute.Int("trades", len(trades)))
	start := time.Now()
	out := fn()
	trace.End(span, nil)

	metrics.RecordComputation(calculator, len(trades))
	logging.LogComputation(logging.FromContext(ctx), calculator, len(trades), time.Since(start))
	return out
}

// closedTrades loads the caller's closed trades entered in the requested window.
func (s *Server) closedTrades(w http.ResponseWriter, r *http.Request, startName, endName string) ([]models.Trade, bool) {
	start, end, err := s.parseDateRange(r, startName, endName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	trades, err := s.stores.Trades.ListClosed(r.Context(), userIDFrom(r.Context()), start, end)
	if err != nil {
		writeStoreError(w, r, err, "trades")
		return nil, false
	}
	return trades, true
}

func (s *Server) handlePortfolioMetrics(w http.ResponseWriter, r *http.Request) {
	trades, ok := s.closedTrades(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	m := compute(r.Context(), "portfolio", trades, func() analytics.PortfolioMetrics {
		return analytics.ComputePortfolio(trades)
	})
	writeJSON(w, http.StatusOK, m)
}

type heatmapResponse struct {
	HeatmapData   []analytics.TimeSlot     `json:"heatmapData"`
	AvoidPatterns []analytics.AvoidPattern `json:"avoidPatterns"`
}

func (s *Server) handleTimeHeatmap(w http.ResponseWriter, r *http.Request) {
	g := analytics.Granularity(r.URL.Query().Get("period"))
	switch g {
	case "":
		g = analytics.ByDay
	case analytics.ByDay, analytics.ByHour:
	default:
		writeError(w, http.StatusBadRequest, `invalid period parameter, must be "day" or "hour"`)
		return
	}

	trades, ok := s.closedTrades(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	resp := compute(r.Context(), "time_heatmap", trades, func() heatmapResponse {
		slots := analytics.BuildHeatmap(trades, g)
		return heatmapResponse{
			HeatmapData:   slots,
			AvoidPatterns: analytics.DetectAvoidPatterns(slots, s.opts.AvoidMinTrades, s.opts.AvoidMaxWinRate),
		}
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBestWorstTimes(w http.ResponseWriter, r *http.Request) {
	limit := analytics.DefaultBestWorstLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit parameter, must be a positive integer")
			return
		}
		limit = min(n, maxQueryLimit)
	}

	trades, ok := s.closedTrades(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	resp := compute(r.Context(), "best_worst_times", trades, func() analytics.BestWorstTimes {
		return analytics.RankTimes(analytics.BuildHeatmap(trades, analytics.ByHour), s.opts.BestWorstMinTrades, limit)
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarketCorrelation(w http.ResponseWriter, r *http.Request) {
	groupBy, err := analytics.ParseGroupBy(r.URL.Query().Get("groupBy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trades, ok := s.closedTrades(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	resp := compute(r.Context(), "market_correlation", trades, func() analytics.MarketCorrelation {
		return s.correlator.Correlate(trades, groupBy)
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStrategyBreakdown(w http.ResponseWriter, r *http.Request) {
	trades, ok := s.closedTrades(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	resp := compute(r.Context(), "strategy_breakdown", trades, func() []analytics.StrategyPerformance {
		return analytics.StrategyBreakdown(trades)
	})
	writeData(w, http.StatusOK, resp)
}
