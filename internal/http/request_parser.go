package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fincal/internal/core"
	"fincal/internal/ledger"
)

// maxBodyBytes bounds JSON request bodies other than imports.
const maxBodyBytes = 1 << 20

// errBadRequest marks malformed query strings and bodies.
var errBadRequest = errors.New("bad request")

func badRequestf(format string, args ...any) error {
	return &core.ValidationError{Rule: errBadRequest, Reason: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a single JSON value into v, rejecting unknown fields and
// trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return badRequestf("request body larger than %d bytes", maxErr.Limit)
		}
		if errors.Is(err, io.EOF) {
			return badRequestf("request body is empty")
		}
		return badRequestf("invalid JSON body: %v", err)
	}
	if dec.More() {
		return badRequestf("request body must contain a single JSON value")
	}
	return nil
}

// MonthParams is a year and a zero-based month.
type MonthParams struct {
	Year   int
	Month0 int
}

// ParseMonthParams reads year and a 1-12 month from the query, defaulting
// to the month of now.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	p := MonthParams{Year: now.Year(), Month0: int(now.Month()) - 1}
	year, err := intParam(query, "year", p.Year)
	if err != nil {
		return p, err
	}
	month, err := intParam(query, "month", p.Month0+1)
	if err != nil {
		return p, err
	}
	if month < 1 || month > 12 {
		return p, badRequestf("month must be between 1 and 12, got %d", month)
	}
	p.Year, p.Month0 = year, month-1
	return p, nil
}

func intParam(query url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, badRequestf("%s must be an integer, got %q", name, v)
	}
	return n, nil
}

func floatParam(query url.Values, name string) (*float64, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return nil, nil
	}
	f, err := core.ParseAmount(v)
	if err != nil {
		return nil, badRequestf("%s must be a number, got %q", name, v)
	}
	return &f, nil
}

func dateParam(query url.Values, name string) (*core.Date, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, badRequestf("%s must be a dd.mm.yy date, got %q", name, v)
	}
	return &d, nil
}

func boolParam(query url.Values, name string) (bool, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, badRequestf("%s must be a boolean, got %q", name, v)
	}
	return b, nil
}

// ParseFilter builds a ledger filter from from, to, type, category, q,
// min, max, sort, desc and limit.
func ParseFilter(query url.Values) (ledger.Filter, error) {
	var (
		f   ledger.Filter
		err error
	)
	if f.From, err = dateParam(query, "from"); err != nil {
		return f, err
	}
	if f.To, err = dateParam(query, "to"); err != nil {
		return f, err
	}
	if v := query.Get("type"); v != "" {
		if f.Type, err = core.ParseKind(v); err != nil {
			return f, err
		}
	}
	f.Category = strings.TrimSpace(query.Get("category"))
	f.Query = query.Get("q")
	if f.MinAmount, err = floatParam(query, "min"); err != nil {
		return f, err
	}
	if f.MaxAmount, err = floatParam(query, "max"); err != nil {
		return f, err
	}
	sortBy, ok := ledger.ParseSortField(query.Get("sort"))
	if !ok {
		return f, badRequestf("sort must be date, amount or category, got %q", query.Get("sort"))
	}
	f.SortBy = sortBy
	if f.Desc, err = boolParam(query, "desc"); err != nil {
		return f, err
	}
	if f.Limit, err = intParam(query, "limit", 0); err != nil {
		return f, err
	}
	if f.Limit < 0 {
		return f, badRequestf("limit must not be negative")
	}
	return f, nil
}

// pathKind parses the {kind} path segment.
func pathKind(r *http.Request) (core.Kind, error) {
	return core.ParseKind(r.PathValue("kind"))
}
