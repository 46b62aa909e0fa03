package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"moneta/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain errors onto HTTP statuses: validation failures are
// 422, missing entities 404, name collisions and stale references 409.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrNameTaken), errors.Is(err, core.ErrStaleReference):
		status = http.StatusConflict
	case isValidationError(err):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err, "method", r.Method, "url", r.URL.Path)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func isValidationError(err error) bool {
	validation := []error{
		core.ErrEmptyName,
		core.ErrNameTooLong,
		core.ErrCommentTooLong,
		core.ErrInvalidAmount,
		core.ErrInvalidCategoryType,
		core.ErrInvalidPeriodicity,
		core.ErrSameAccount,
		core.ErrMissingAccount,
		core.ErrMissingCategory,
		core.ErrMissingDate,
		core.ErrSubcategoryMismatch,
		core.ErrDateInPast,
	}
	for _, v := range validation {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// parsePeriod reads from/to query parameters (RFC 3339 or YYYY-MM-DD).
// Defaults cover the current calendar month.
func parsePeriod(r *http.Request) (from, to time.Time, err error) {
	now := time.Now().UTC()
	from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to = from.AddDate(0, 1, 0).Add(-time.Second)

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		from, err = parseDate(v)
		if err != nil {
			return from, to, err
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		to, err = parseDate(v)
		if err != nil {
			return from, to, err
		}
	}
	return from, to, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func queryAccountID(r *http.Request) (int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get("account_id"))
	if v == "" {
		return core.TotalAccountID, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid account_id %q", v)
	}
	return id, nil
}
