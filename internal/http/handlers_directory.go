package http

import (
	"net/http"

	"loadbook/internal/core"
)

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.directory.ListCompanies(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if companies == nil {
		companies = []core.Company{}
	}
	respondJSON(w, http.StatusOK, companies)
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	c, err := s.directory.GetCompany(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var c core.Company
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = 0
	if err := s.directory.SaveCompany(r.Context(), &c); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var c core.Company
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = id
	if err := s.directory.SaveCompany(r.Context(), &c); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.directory.DeleteCompany(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.directory.Profile(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var p core.UserProfile
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := s.directory.SaveProfile(r.Context(), &p); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}
