package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/kjannette/mindful-trader/internal/csvimport"
	"github.com/kjannette/mindful-trader/internal/logging"
	"github.com/kjannette/mindful-trader/internal/models"
	"github.com/kjannette/mindful-trader/internal/risk"
)

const defaultTradeLimit = 100

// tradeRequest is a trade plus the journals written alongside it.
type tradeRequest struct {
	models.TradeInput
	PreTradeJournal  *models.PreTradeJournal  `json:"preTradeJournal,omitempty"`
	PostTradeJournal *models.PostTradeJournal `json:"postTradeJournal,omitempty"`
}

// validate normalizes the ticker and checks the trade and both journals,
// prefixing journal fields so the client can tell them apart.
func (req *tradeRequest) validate() error {
	req.Normalize()
	var all models.ValidationErrors
	merge := func(prefix string, err error) {
		var verrs models.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				all.Add(prefix+fe.Field, fe.Message)
			}
		}
	}
	merge("", req.TradeInput.Validate())
	if req.PreTradeJournal != nil {
		merge("preTradeJournal.", req.PreTradeJournal.Validate())
	}
	if req.PostTradeJournal != nil {
		merge("postTradeJournal.", req.PostTradeJournal.Validate())
	}
	return all.OrNil()
}

type listTradesResponse struct {
	Data  []models.Trade `json:"data"`
	Count int            `json:"count"`
}

type createTradeResponse struct {
	Data     *models.Trade  `json:"data"`
	Warnings []risk.Warning `json:"warnings"`
}

// parseTradeFilter reads ticker, direction, strategy_id, start_date, end_date, limit and offset.
func (s *Server) parseTradeFilter(r *http.Request) (models.TradeFilter, error) {
	q := r.URL.Query()
	f := models.TradeFilter{
		Ticker: q.Get("ticker"),
		Limit:  parseLimit(r, defaultTradeLimit),
	}

	if d := models.Direction(q.Get("direction")); d != "" {
		if !d.Valid() {
			return f, fmt.Errorf("invalid direction %q, expected long|short", d)
		}
		f.Direction = d
	}
	if v := q.Get("strategy_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, fmt.Errorf("invalid strategy_id %q", v)
		}
		f.StrategyID = &id
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid offset %q", v)
		}
		f.Offset = n
	}

	start, end, err := s.parseDateRange(r, "start_date", "end_date")
	if err != nil {
		return f, err
	}
	f.StartDate, f.EndDate = start, end
	return f, nil
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseTradeFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trades, err := s.stores.Trades.List(r.Context(), userIDFrom(r.Context()), f)
	if err != nil {
		writeStoreError(w, r, err, "trades")
		return
	}
	writeJSON(w, http.StatusOK, listTradesResponse{Data: trades, Count: len(trades)})
}

func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeInputError(w, err)
		return
	}

	ctx := r.Context()
	userID := userIDFrom(ctx)
	log := logging.FromContext(ctx)

	// Warnings are computed before the insert so the daily count excludes this trade.
	positionValue := req.EntryPrice * float64(req.Quantity)
	warnings, err := s.guardian.PreTradeCheck(ctx, userID, req.EntryDate, positionValue)
	if err != nil {
		log.Warn().Err(err).Msg("risk check incomplete")
	}

	trade, err := s.stores.Trades.Create(ctx, userID, req.TradeInput, req.PreTradeJournal, req.PostTradeJournal)
	if err != nil {
		writeStoreError(w, r, err, "trade")
		return
	}

	for _, wn := range warnings {
		log.Info().Str("warning", wn.Kind).Str("ticker", trade.Ticker).Msg(wn.Message)
	}
	writeJSON(w, http.StatusCreated, createTradeResponse{Data: trade, Warnings: warnings})
}

func (s *Server) handleGetTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trade, err := s.stores.Trades.Get(r.Context(), userIDFrom(r.Context()), id)
	if err != nil {
		writeStoreError(w, r, err, "trade")
		return
	}
	writeData(w, http.StatusOK, trade)
}

func (s *Server) handleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req tradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeInputError(w, err)
		return
	}

	trade, err := s.stores.Trades.Update(r.Context(), userIDFrom(r.Context()), id, req.TradeInput, req.PreTradeJournal, req.PostTradeJournal)
	if err != nil {
		writeStoreError(w, r, err, "trade")
		return
	}
	writeData(w, http.StatusOK, trade)
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.stores.Trades.Delete(r.Context(), userIDFrom(r.Context()), id); err != nil {
		writeStoreError(w, r, err, "trade")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExportTrades streams every matching trade in the canonical CSV format.
func (s *Server) handleExportTrades(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseTradeFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.Limit, f.Offset = 0, 0

	trades, err := s.stores.Trades.List(r.Context(), userIDFrom(r.Context()), f)
	if err != nil {
		writeStoreError(w, r, err, "trades")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trades.csv"`)
	if err := csvimport.WriteCanonical(w, trades); err != nil {
		log := logging.FromContext(r.Context())
		log.Error().Err(err).Msg("csv export failed")
	}
}
