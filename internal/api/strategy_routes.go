package api

import (
	"net/http"

	"github.com/kjannette/mindful-trader/internal/models"
)

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	list, err := s.stores.Strategies.List(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeStoreError(w, r, err, "strategies")
		return
	}
	if list == nil {
		list = []models.Strategy{}
	}
	writeData(w, http.StatusOK, list)
}

func (s *Server) handleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	var in models.StrategyInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		writeInputError(w, err)
		return
	}

	st, err := s.stores.Strategies.Create(r.Context(), userIDFrom(r.Context()), in)
	if err != nil {
		writeStoreError(w, r, err, "strategy")
		return
	}
	writeData(w, http.StatusCreated, st)
}

func (s *Server) handleUpdateStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in models.StrategyInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		writeInputError(w, err)
		return
	}

	st, err := s.stores.Strategies.Update(r.Context(), userIDFrom(r.Context()), id, in)
	if err != nil {
		writeStoreError(w, r, err, "strategy")
		return
	}
	writeData(w, http.StatusOK, st)
}

func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.stores.Strategies.Delete(r.Context(), userIDFrom(r.Context()), id); err != nil {
		writeStoreError(w, r, err, "strategy")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
