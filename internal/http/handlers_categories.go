package http

import (
	"net/http"

	"fincal/internal/core"
	"fincal/internal/log"
)

type categoryRequest struct {
	Name string `json:"name"`
}

type mergeRequest struct {
	Target string `json:"target"`
}

// affected reports how many operations a category change touched.
type affected struct {
	Affected int `json:"affected"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.store.Categories())
}

func (s *Server) handleCategoriesOf(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.store.CategoriesOf(kind))
}

// handleImportCategories unions the posted lists into the current ones.
func (s *Server) handleImportCategories(w http.ResponseWriter, r *http.Request) {
	var set core.CategorySet
	if err := decodeJSON(w, r, &set); err != nil {
		writeError(w, r, log.OpImport, err)
		return
	}
	if err := s.store.ImportCategories(r.Context(), set); err != nil {
		writeError(w, r, log.OpImport, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.store.Categories())
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	if err := s.store.AddCategory(r.Context(), kind, req.Name); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, s.store.Categories())
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	n, err := s.store.RenameCategory(r.Context(), kind, r.PathValue("name"), req.Name)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, r, http.StatusOK, affected{n})
}

// handleRemoveCategory also deletes every operation filed under the category.
func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	n, err := s.store.RemoveCategory(r.Context(), kind, r.PathValue("name"))
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	writeJSON(w, r, http.StatusOK, affected{n})
}

func (s *Server) handleMergeCategory(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	var req mergeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	n, err := s.store.MergeCategories(r.Context(), kind, r.PathValue("name"), req.Target)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, r, http.StatusOK, affected{n})
}

func (s *Server) handleResetCategories(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ResetCategories(r.Context()); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.store.Categories())
}
