package http

import (
	"fmt"
	"net/http"
	"strconv"

	"loadbook/internal/core"
)

// expenseResponse adds the display summary to the resolved expense.
type expenseResponse struct {
	core.Expense
	Summary string `json:"summary"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{Expense: e, Summary: e.Summary()}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	var loadID int64
	if raw := r.URL.Query().Get("load_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			respondError(w, r, fmt.Errorf("%w: invalid load_id %q", core.ErrValidation, raw))
			return
		}
		loadID = id
	}
	s.listExpenses(w, r, loadID)
}

// handleListLoadExpenses serves the per-load expense list nested under the
// load resource.
func (s *Server) handleListLoadExpenses(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.listExpenses(w, r, id)
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request, loadID int64) {
	expenses, err := s.expenses.List(r.Context(), loadID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseResponse(e)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	e, err := s.expenses.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseResponse(e))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var rec core.ExpenseRecord
	if !decodeJSON(w, r, &rec) {
		return
	}
	rec.ID = 0
	e, err := s.expenses.Save(r.Context(), &rec)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toExpenseResponse(e))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var rec core.ExpenseRecord
	if !decodeJSON(w, r, &rec) {
		return
	}
	rec.ID = id
	e, err := s.expenses.Save(r.Context(), &rec)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseResponse(e))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.expenses.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
