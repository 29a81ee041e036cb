package api

import (
	"net/http"

	"github.com/kjannette/mindful-trader/internal/analytics"
	"github.com/kjannette/mindful-trader/internal/gamification"
	"github.com/kjannette/mindful-trader/internal/models"
)

func (s *Server) handlePsychologyMetrics(w http.ResponseWriter, r *http.Request) {
	now := s.opts.Now().In(s.opts.Location)
	start, end, err := analytics.PeriodRange(analytics.Period(r.URL.Query().Get("period")), now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trades, err := s.stores.Trades.ListClosed(r.Context(), userIDFrom(r.Context()), &start, &end)
	if err != nil {
		writeStoreError(w, r, err, "trades")
		return
	}

	m := compute(r.Context(), "psychology", trades, func() analytics.PsychologyMetrics {
		return analytics.ComputePsychology(trades)
	})
	m.PeriodStart = start.Format("2006-01-02")
	m.PeriodEnd = end.Format("2006-01-02")
	writeData(w, http.StatusOK, m)
}

func (s *Server) handleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	now := s.opts.Now().In(s.opts.Location)
	since := now.AddDate(0, 0, -14)

	trades, err := s.stores.Trades.ListClosed(r.Context(), userIDFrom(r.Context()), &since, &now)
	if err != nil {
		writeStoreError(w, r, err, "trades")
		return
	}

	report := compute(r.Context(), "weekly_report", trades, func() analytics.WeeklyReport {
		return analytics.BuildWeeklyReport(trades, now)
	})
	writeData(w, http.StatusOK, report)
}

type activityResponse struct {
	Data      gamification.Progress `json:"data"`
	NewBadges []models.Badge        `json:"newBadges"`
}

func (s *Server) handleGetGamification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFrom(ctx)

	g, err := s.stores.Gamification.Get(ctx, userID)
	if err != nil {
		writeStoreError(w, r, err, "gamification record")
		return
	}
	count, err := s.stores.Trades.Count(ctx, userID)
	if err != nil {
		writeStoreError(w, r, err, "trades")
		return
	}
	writeData(w, http.StatusOK, gamification.Summarize(*g, count))
}

// handleRecordActivity marks today, in the trader's timezone, as a journaling day.
func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFrom(ctx)

	g, err := s.stores.Gamification.Get(ctx, userID)
	if err != nil {
		writeStoreError(w, r, err, "gamification record")
		return
	}
	count, err := s.stores.Trades.Count(ctx, userID)
	if err != nil {
		writeStoreError(w, r, err, "trades")
		return
	}

	now := s.opts.Now()
	earned := gamification.RecordActivity(g, count, now.In(s.opts.Location), now)
	if err := s.stores.Gamification.Save(ctx, g); err != nil {
		writeStoreError(w, r, err, "gamification record")
		return
	}

	if earned == nil {
		earned = []models.Badge{}
	}
	writeJSON(w, http.StatusOK, activityResponse{Data: gamification.Summarize(*g, count), NewBadges: earned})
}
