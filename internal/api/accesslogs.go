package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/wardgate/wardgate-core/internal/accesslog"
)

// maxListLimit caps the page size for audit trail queries.
const maxListLimit = 500

// handleListAccessLogs returns audit trail entries, newest first.
//
// Query parameters:
//   - from, to: RFC3339 time bounds
//   - identity_id: filter by attributed identity
//   - result: GRANTED, DENIED, or FAILED
//   - limit, offset: pagination (limit defaults to 100, capped at 500)
func (s *Server) handleListAccessLogs(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	entries, err := s.accessLogs.List(r.Context(), f)
	if err != nil {
		s.logger.Error("listing access logs failed", "error", err)
		writeInternalError(w, "failed to list access logs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleAccessLogStats aggregates attempt counts by result.
//
// Query parameters:
//   - hours: look-back window, defaults to 24
func (s *Server) handleAccessLogStats(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeBadRequest(w, "hours must be a positive integer")
			return
		}
		hours = n
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	stats, err := s.accessLogs.GetStats(r.Context(), since)
	if err != nil {
		s.logger.Error("access log stats failed", "error", err)
		writeInternalError(w, "failed to aggregate stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// filterFromQuery parses audit trail filter parameters.
func filterFromQuery(r *http.Request) (accesslog.Filter, error) {
	var f accesslog.Filter
	q := r.URL.Query()

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, &queryError{"from must be an RFC3339 timestamp"}
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, &queryError{"to must be an RFC3339 timestamp"}
		}
		f.To = t
	}
	f.IdentityID = q.Get("identity_id")

	if v := q.Get("result"); v != "" {
		switch v {
		case "GRANTED", "DENIED", "FAILED":
			f.Result = v
		default:
			return f, &queryError{"result must be GRANTED, DENIED, or FAILED"}
		}
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, &queryError{"limit must be a positive integer"}
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, &queryError{"offset must be a non-negative integer"}
		}
		f.Offset = n
	}

	return f, nil
}

// queryError is a query parameter validation error.
type queryError struct {
	msg string
}

func (e *queryError) Error() string { return e.msg }
