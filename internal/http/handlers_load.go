package http

import (
	"context"
	"net/http"

	"loadbook/internal/core"
)

// loadResponse wraps a load together with its available lifecycle action so
// clients never re-derive toolbar rules.
type loadResponse struct {
	core.Load
	NextAction core.NextAction `json:"next_action"`
}

type savedLoadResponse struct {
	loadResponse
	Warnings []string `json:"warnings,omitempty"`
}

func toLoadResponse(l core.Load) loadResponse {
	return loadResponse{Load: l, NextAction: core.NextActionFor(l.Status)}
}

func (s *Server) handleListLoads(w http.ResponseWriter, r *http.Request) {
	loads, err := s.loads.List(r.Context(), r.URL.Query().Get("q"), boolParam(r, "all"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]loadResponse, len(loads))
	for i, l := range loads {
		out[i] = toLoadResponse(l)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetLoad(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	l, err := s.loads.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toLoadResponse(l))
}

func (s *Server) handleCreateLoad(w http.ResponseWriter, r *http.Request) {
	var l core.Load
	if !decodeJSON(w, r, &l) {
		return
	}
	l.ID = 0
	warnings, err := s.loads.Save(r.Context(), &l)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, savedLoadResponse{
		loadResponse: toLoadResponse(l),
		Warnings:     warnings,
	})
}

func (s *Server) handleUpdateLoad(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var l core.Load
	if !decodeJSON(w, r, &l) {
		return
	}
	l.ID = id
	warnings, err := s.loads.Save(r.Context(), &l)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, savedLoadResponse{
		loadResponse: toLoadResponse(l),
		Warnings:     warnings,
	})
}

// handleCancelLoad soft-cancels. The confirm flag replaces the on-device
// confirmation dialog; without it the client gets a 409 describing what the
// call would do.
func (s *Server) handleCancelLoad(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !boolParam(r, "confirm") {
		respondJSON(w, http.StatusConflict, errorResponse{
			Error: "cancelling a load cannot be undone; repeat the request with confirm=true",
		})
		return
	}
	l, err := s.loads.Cancel(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toLoadResponse(l))
}

func (s *Server) handleStartLoad(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.loads.Start)
}

func (s *Server) handleCompleteLoad(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.loads.Complete)
}

func (s *Server) handleInvoiceLoad(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.loads.Invoice)
}

func (s *Server) lifecycle(w http.ResponseWriter, r *http.Request, action func(context.Context, int64) (core.Load, error)) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	l, err := action(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toLoadResponse(l))
}

func (s *Server) handleOverrideStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	l, err := s.loads.OverrideStatus(r.Context(), id, body.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toLoadResponse(l))
}

func (s *Server) handleNextAction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	l, err := s.loads.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, core.NextActionFor(l.Status))
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	inv, err := s.reports.Invoice(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}
