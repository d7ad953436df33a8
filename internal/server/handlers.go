package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rickgao/stockseed/internal/model"
)

type healthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.writeError(w, r, http.StatusServiceUnavailable, "backend_unavailable", err)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Mode: s.q.Mode().String()})
}

func (s *Server) listStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := s.q.ListStocks(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "query_failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, stocks)
}

func (s *Server) listTrades(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if symbol == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorBody{Code: "bad_request", Message: "symbol is required"}})
		return
	}

	trades, err := s.q.ListTrades(r.Context(), symbol)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "query_failed", err)
		return
	}
	model.SortTradesByDate(trades)
	s.writeJSON(w, http.StatusOK, trades)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	s.logger.Error("request failed",
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	s.writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: err.Error()}})
}
