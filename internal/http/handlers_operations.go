package http

import (
	"net/http"
	"net/url"

	"fincal/internal/core"
	"fincal/internal/ledger"
	"fincal/internal/log"
)

func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	ops := s.store.Operations(f)
	if ops == nil {
		ops = []core.Operation{}
	}
	writeJSON(w, r, http.StatusOK, ops)
}

func (s *Server) handleCreateOperation(w http.ResponseWriter, r *http.Request) {
	var op core.Operation
	if err := decodeJSON(w, r, &op); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	created, err := s.store.AddOperation(r.Context(), op)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/operations/"+url.PathEscape(created.ID)).
		JSON(created).
		Write(w, r)
}

func (s *Server) handleGetOperation(w http.ResponseWriter, r *http.Request) {
	op, err := s.store.Operation(r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, r, http.StatusOK, op)
}

func (s *Server) handleUpdateOperation(w http.ResponseWriter, r *http.Request) {
	var patch core.OperationPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	op, err := s.store.UpdateOperation(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, r, http.StatusOK, op)
}

func (s *Server) handleDeleteOperation(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteOperation(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearOperations wipes every operation. It needs confirm=true.
func (s *Server) handleClearOperations(w http.ResponseWriter, r *http.Request) {
	confirmed, err := boolParam(r.URL.Query(), "confirm")
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	if !confirmed {
		BadRequest("clearing all operations needs confirm=true").Write(w, r)
		return
	}
	n, err := s.store.ClearOperations(r.Context())
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{"deleted": n})
}

// DaySummary lists the operations of one calendar day with its totals.
type DaySummary struct {
	Date       string           `json:"date"`
	Operations []core.Operation `json:"operations"`
	Income     float64          `json:"income"`
	Expense    float64          `json:"expense"`
	Balance    float64          `json:"balance"`
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	day, err := core.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, r, log.OpRead, badRequestf("date must be dd.mm.yy, got %q", r.PathValue("date")))
		return
	}
	ops := s.store.OperationsOn(day)
	var income, expense core.Amount
	for _, op := range ops {
		switch op.Type {
		case core.Income:
			income = income.Add(op.Amount)
		case core.Expense:
			expense = expense.Add(op.Amount)
		}
	}
	writeJSON(w, r, http.StatusOK, DaySummary{
		Date:       day.String(),
		Operations: ops,
		Income:     income.Float(),
		Expense:    expense.Float(),
		Balance:    income.Minus(expense).Float(),
	})
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	dups := s.store.Duplicates()
	if dups == nil {
		dups = []ledger.Duplicate{}
	}
	writeJSON(w, r, http.StatusOK, dups)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]float64{"balance": s.store.Balance()})
}
