package http

import (
	"net/http"

	"loadbook/internal/core"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.backup.Export(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="loadbook_backup.json"`)
	respondJSON(w, http.StatusOK, data)
}

// handleImport restores a backup. replace=true wipes the database first and,
// like load cancellation, requires confirm=true as a second factor.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	replace := boolParam(r, "replace")
	if replace && !boolParam(r, "confirm") {
		respondJSON(w, http.StatusConflict, errorResponse{
			Error: "import with replace=true deletes all existing data; repeat the request with confirm=true",
		})
		return
	}

	var data core.ExportData
	if !decodeJSON(w, r, &data) {
		return
	}
	res, err := s.backup.Import(r.Context(), data, replace)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
