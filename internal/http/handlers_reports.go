package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"fincal/internal/core"
	"fincal/internal/log"
	"fincal/internal/report"
)

// Report output formats.
const (
	formatJSON     = "json"
	formatMarkdown = "markdown"
	formatHTML     = "html"
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	format := strings.ToLower(strings.TrimSpace(query.Get("format")))
	if format == "" {
		format = formatJSON
	}
	if format != formatJSON && format != formatMarkdown && format != formatHTML {
		writeError(w, r, log.OpRender, badRequestf("format must be json, markdown or html, got %q", format))
		return
	}

	q, err := s.reportQuery(r.PathValue("kind"), query)
	if err != nil {
		writeError(w, r, log.OpRender, err)
		return
	}
	built, err := s.reports.Build(q)
	if err != nil {
		writeError(w, r, log.OpRender, err)
		return
	}
	if format == formatJSON {
		writeJSON(w, r, http.StatusOK, built.Data)
		return
	}

	md, err := built.Markdown(report.NewMarkdown(s.reports.Settings().Currency))
	if err != nil {
		writeError(w, r, log.OpRender, fmt.Errorf("render %s report: %w", q.Kind, err))
		return
	}
	if format == formatMarkdown {
		NewResponse().Body("text/markdown; charset=utf-8", []byte(md)).Write(w, r)
		return
	}
	page, err := report.HTML(built.Title, md)
	if err != nil {
		writeError(w, r, log.OpRender, err)
		return
	}
	NewResponse().Body("text/html; charset=utf-8", []byte(page)).Write(w, r)
}

// reportQuery reads the parameters of a report kind. Months are 1-12 and
// trends default to the last twelve months.
func (s *Server) reportQuery(kind string, query url.Values) (report.Query, error) {
	q := report.Query{Kind: kind}
	switch kind {
	case "monthly", "categories":
		p, err := ParseMonthParams(query, s.now())
		if err != nil {
			return q, err
		}
		q.Year, q.Month0 = p.Year, p.Month0
		if v := query.Get("type"); v != "" {
			k, err := core.ParseKind(v)
			if err != nil {
				return q, err
			}
			q.Type = k
		}

	case "yearly":
		year, err := intParam(query, "year", s.now().Year())
		if err != nil {
			return q, err
		}
		q.Year = year

	case "trend":
		interval, err := report.ParseInterval(query.Get("interval"))
		if err != nil {
			return q, err
		}
		q.Interval = interval
		q.From, q.To = report.DefaultTrendRange(core.DateOf(s.now()))
		if d, err := dateParam(query, "from"); err != nil {
			return q, err
		} else if d != nil {
			q.From = *d
		}
		if d, err := dateParam(query, "to"); err != nil {
			return q, err
		} else if d != nil {
			q.To = *d
		}

	case "top":
		n, err := intParam(query, "n", report.DefaultTopExpenses)
		if err != nil {
			return q, err
		}
		q.N = n
	}
	return q, nil
}

func (s *Server) handlePeriodStats(w http.ResponseWriter, r *http.Request) {
	interval, err := report.ParseInterval(r.URL.Query().Get("interval"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	stats, err := s.reports.PeriodStats(interval)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	if stats == nil {
		stats = []report.PeriodStats{}
	}
	writeJSON(w, r, http.StatusOK, stats)
}

// handleCategoryStats returns usage statistics per kind. With by=count or
// by=amount and a type it returns only the leading categories instead.
func (s *Server) handleCategoryStats(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	tr, err := report.ParseTimeRange(query.Get("range"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	by := query.Get("by")
	if by == "" {
		stats, err := s.reports.CategoryStats(tr)
		if err != nil {
			writeError(w, r, log.OpRead, err)
			return
		}
		writeJSON(w, r, http.StatusOK, stats)
		return
	}

	kind, err := core.ParseKind(query.Get("type"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	limit, err := intParam(query, "limit", report.DefaultStatsLimit)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	var list []report.CategoryStat
	switch by {
	case "count":
		list, err = s.reports.MostUsed(kind, tr, limit)
	case "amount":
		list, err = s.reports.TopByAmount(kind, tr, limit)
	default:
		err = badRequestf("by must be count or amount, got %q", by)
	}
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	if list == nil {
		list = []report.CategoryStat{}
	}
	writeJSON(w, r, http.StatusOK, list)
}
