package http

import (
	"net/http"

	"diarybook/internal/core"
	"diarybook/internal/log"
)

// parseBody reads a bounded JSON or form body.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Malformed request body",
			log.FieldError, err,
			"error_type", log.ErrorTypeValidation)
		BadRequestError("malformed request body").Write(w)
		return nil, false
	}
	return p, true
}

// dateParam resolves the "date" value of a query or body, defaulting to today.
func (s *Server) dateParam(w http.ResponseWriter, r *http.Request, value string) (core.Date, bool) {
	date, err := dateOrToday(value, s.journal.Today())
	if err != nil {
		s.writeError(w, r, err)
		return core.Date{}, false
	}
	return date, true
}

// handleSaveEntry stores (or replaces) the diary entry for a date and category.
func (s *Server) handleSaveEntry(w http.ResponseWriter, r *http.Request) {
	body, ok := parseBody(w, r)
	if !ok {
		return
	}
	date, ok := s.dateParam(w, r, body.Get("date"))
	if !ok {
		return
	}

	entry, err := s.journal.SaveDiaryEntry(r.Context(), date, body.Get("category"), body.GetText("text"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(entry).Write(w)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r, r.URL.Query().Get("date"))
	if !ok {
		return
	}
	entries, err := s.journal.LoadDiaryEntries(r.Context(), date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(entries).Write(w)
}

// handleSaveRecord appends a finance record. Each request creates a new record.
func (s *Server) handleSaveRecord(w http.ResponseWriter, r *http.Request) {
	body, ok := parseBody(w, r)
	if !ok {
		return
	}
	date, ok := s.dateParam(w, r, body.Get("date"))
	if !ok {
		return
	}

	rec, err := s.journal.SaveFinanceRecordOn(r.Context(), date,
		body.Get("category"), body.Get("amount"), body.Get("note"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/finance/records?date="+rec.Date.String()).
		JSON(rec).
		Write(w)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r, r.URL.Query().Get("date"))
	if !ok {
		return
	}
	records, err := s.journal.LoadFinanceRecords(r.Context(), date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(records).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.journal.ListFinanceCategories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(categories).Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	body, ok := parseBody(w, r)
	if !ok {
		return
	}
	category, err := s.journal.AddFinanceCategory(r.Context(), body.Get("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(category).Write(w)
}

// handleDeleteCategory removes a category by id. Records that used its name
// are kept, and deleting an unknown id succeeds.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.journal.DeleteFinanceCategory(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleStats returns totals relative to ?today=, or the server's today.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	today, ok := s.dateParam(w, r, r.URL.Query().Get("today"))
	if !ok {
		return
	}
	stats, err := s.journal.ComputeStats(r.Context(), today)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(stats).Write(w)
}
