package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"fincal/internal/core"
	"fincal/internal/exchange"
	"fincal/internal/ledger"
	"fincal/internal/log"
)

// maxRestoreBytes matches the import size limit.
const maxRestoreBytes = 32 << 20

// handleExport serves the whole document as JSON, or the operations as CSV.
// CSV exports accept the operation filter parameters.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	format := strings.ToLower(strings.TrimSpace(query.Get("format")))
	var buf bytes.Buffer

	switch format {
	case "", "json":
		if err := exchange.EncodeJSON(&buf, s.store.ExportDocument()); err != nil {
			writeError(w, r, log.OpExport, err)
			return
		}
		NewResponse().
			Body("application/json; charset=utf-8", buf.Bytes()).
			Attachment(exchange.FileName(s.now(), "json")).
			Write(w, r)

	case "csv":
		f, err := ParseFilter(query)
		if err != nil {
			writeError(w, r, log.OpExport, err)
			return
		}
		if err := exchange.EncodeCSV(&buf, s.store.Operations(f)); err != nil {
			writeError(w, r, log.OpExport, err)
			return
		}
		NewResponse().
			Body("text/csv; charset=utf-8", buf.Bytes()).
			Attachment(exchange.FileName(s.now(), "csv")).
			Write(w, r)

	default:
		writeError(w, r, log.OpExport, badRequestf("format must be json or csv, got %q", format))
	}
}

// handleImport reads an exported document from the body. mode is replace
// (default) or merge.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	mode, err := ledger.ParseImportMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, r, log.OpImport, err)
		return
	}
	exp, err := exchange.Decode(r.Body)
	if err != nil {
		writeError(w, r, log.OpImport, err)
		return
	}
	res, err := s.store.ImportDocument(r.Context(), exp.Document(), mode)
	if err != nil {
		writeError(w, r, log.OpImport, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleBackupInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.store.BackupInfo(r.Context())
	if err != nil {
		writeError(w, r, log.OpBackup, err)
		return
	}
	writeJSON(w, r, http.StatusOK, info)
}

// handleCreateBackup returns a restorable snapshot and records its time.
func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.CreateBackup(r.Context())
	if err != nil {
		writeError(w, r, log.OpBackup, err)
		return
	}
	NewResponse().
		Attachment("backup-"+exchange.FileName(b.Timestamp, "json")).
		JSON(b).
		Write(w, r)
}

// handleRestore replaces the ledger with a snapshot from handleCreateBackup.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var b ledger.Backup
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRestoreBytes))
	if err := dec.Decode(&b); err != nil {
		writeError(w, r, log.OpImport, &core.ValidationError{Rule: core.ErrInvalidImport, Reason: "invalid backup: " + err.Error()})
		return
	}
	res, err := s.store.RestoreBackup(r.Context(), b)
	if err != nil {
		writeError(w, r, log.OpImport, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
