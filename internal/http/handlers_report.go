package http

import (
	"fmt"
	"net/http"
	"time"

	"loadbook/internal/log"
	"loadbook/internal/xlsx"
)

// settlementRange reads start/end query parameters. When both are absent the
// range defaults to the trailing 7 days through today; a lone parameter is
// rejected.
func settlementRange(r *http.Request) (start, end time.Time, err error) {
	rawStart := r.URL.Query().Get("start")
	rawEnd := r.URL.Query().Get("end")
	if rawStart == "" && rawEnd == "" {
		now := time.Now()
		end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return end.AddDate(0, 0, -7), end, nil
	}

	if start, err = parseDateParam(r, "start"); err != nil {
		return
	}
	end, err = parseDateParam(r, "end")
	return
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	kpi, err := s.reports.KPIs(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, kpi)
}

func (s *Server) handleSettlement(w http.ResponseWriter, r *http.Request) {
	start, end, err := settlementRange(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rep, err := s.reports.Settlement(r.Context(), start, end)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) handleSettlementWorkbook(w http.ResponseWriter, r *http.Request) {
	start, end, err := settlementRange(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rep, err := s.reports.Settlement(r.Context(), start, end)
	if err != nil {
		respondError(w, r, err)
		return
	}

	wb, err := xlsx.BuildWorkbook(rep)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer wb.Close()

	filename := fmt.Sprintf("settlement_%s_%s.xlsx",
		rep.Start.Format("2006-01-02"), rep.End.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := wb.Write(w); err != nil {
		// Headers are already sent; all we can do is log the broken download.
		log.FromContext(r.Context()).ErrorContext(r.Context(),
			"failed to stream settlement workbook", log.FieldError, err.Error())
	}
}
