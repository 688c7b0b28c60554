package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"finledger/internal/core"
	"finledger/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := s.ledger.ListEntries(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponses(entries))
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	in, err := parseEntryInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.ledger.AddEntry(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).Info("Entry added via API",
		log.NewFields().WithOperation(log.OpAdd).WithEntry(entry).ToSlice()...)
	w.Header().Set("Location", "/api/v1/entries/"+strconv.FormatInt(entry.ID, 10))
	writeJSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteEntry(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	totals, err := s.ledger.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTotalsResponse(totals))
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	months, err := s.ledger.Months(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"months": months})
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	breakdown, err := s.ledger.MonthlySummary(r.Context(), chi.URLParam(r, "yearMonth"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthResponse(breakdown))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, err := core.ParseSearchMode(q.Get("mode"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := s.ledger.Search(r.Context(), mode, q.Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponses(entries))
}
