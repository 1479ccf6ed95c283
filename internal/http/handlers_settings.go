package http

import (
	"net/http"

	"fincal/internal/core"
	"fincal/internal/log"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.store.Settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch core.SettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	updated, err := s.store.UpdateSettings(r.Context(), patch)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleToggleDarkMode(w http.ResponseWriter, r *http.Request) {
	on, err := s.store.ToggleDarkMode(r.Context())
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"darkMode": on})
}

func (s *Server) handleMonthAggregate(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.store.MonthAggregate(p.Year, p.Month0))
}

func (s *Server) handleYearAggregate(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r.URL.Query(), "year", s.now().Year())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.store.YearAggregate(year))
}
