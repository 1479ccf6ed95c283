// Package exchange converts the ledger to and from its portable JSON and CSV
// forms.
package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"fincal/internal/core"
)

// probed is the number of operations whose shape is checked before the
// typed decode.
const probed = 5

// maxImportBytes bounds the size of an import file.
const maxImportBytes = 32 << 20

func invalidImport(format string, args ...any) error {
	return &core.ValidationError{Rule: core.ErrInvalidImport, Reason: fmt.Sprintf(format, args...)}
}

// Decode reads an exported document. Shape errors wrap core.ErrInvalidImport.
// Operation level rules are left to the ledger import, which checks every
// operation.
func Decode(r io.Reader) (core.Export, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxImportBytes+1))
	if err != nil {
		return core.Export{}, fmt.Errorf("read import: %w", err)
	}
	if len(raw) > maxImportBytes {
		return core.Export{}, invalidImport("import exceeds %d bytes", maxImportBytes)
	}

	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return core.Export{}, invalidImport("not valid JSON: %v", err)
	}
	if err := probe(tree); err != nil {
		return core.Export{}, err
	}

	var out core.Export
	if err := json.Unmarshal(raw, &out); err != nil {
		return core.Export{}, invalidImport("unexpected field type: %v", err)
	}
	return out, nil
}

func probe(tree any) error {
	if _, ok := tree.(map[string]any); !ok {
		return invalidImport("document must be a JSON object")
	}
	settings, err := jsonpath.Get("$.settings", tree)
	if err != nil {
		return invalidImport("missing settings")
	}
	if _, ok := settings.(map[string]any); !ok {
		return invalidImport("settings must be an object")
	}

	ops, err := jsonpath.Get("$.operations", tree)
	if err != nil {
		return invalidImport("missing operations")
	}
	list, ok := ops.([]any)
	if !ok {
		return invalidImport("operations must be an array")
	}
	for i := 0; i < len(list) && i < probed; i++ {
		entry, ok := list[i].(map[string]any)
		if !ok {
			return invalidImport("operation %d must be an object", i)
		}
		amount, err := jsonpath.Get("$.amount", entry)
		if err != nil {
			return invalidImport("operation %d: missing amount", i)
		}
		if _, ok := amount.(float64); !ok {
			return invalidImport("operation %d: amount must be a number", i)
		}
	}
	return nil
}

// EncodeJSON writes e as indented JSON.
func EncodeJSON(w io.Writer, e core.Export) error {
	if e.Operations == nil {
		e.Operations = []core.Operation{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// CSVHeader is the first line of a CSV export.
var CSVHeader = []string{"Date", "Type", "Category", "Amount", "Description"}

// EncodeCSV writes ops as CSV. Rows have every cell quoted, lines are
// separated by a single newline and the last one has none.
func EncodeCSV(w io.Writer, ops []core.Operation) error {
	var b bytes.Buffer
	b.WriteString(strings.Join(CSVHeader, ","))
	for _, op := range ops {
		b.WriteByte('\n')
		row := []string{
			op.Date,
			KindLabel(op.Type),
			op.Category,
			strconv.FormatFloat(op.Amount, 'f', -1, 64),
			op.Description,
		}
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quote(cell))
		}
	}
	if _, err := w.Write(b.Bytes()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func quote(cell string) string {
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

// KindLabel is the display label of a kind. Anything but income is shown
// as an expense.
func KindLabel(k core.Kind) string {
	if k == core.Income {
		return "Income"
	}
	return "Expense"
}

// FileName names an export written at t, e.g. financial-calendar-20-03-25.json.
func FileName(t time.Time, ext string) string {
	day := strings.ReplaceAll(core.DateOf(t).String(), ".", "-")
	return "financial-calendar-" + day + "." + strings.TrimPrefix(ext, ".")
}
