package httpapi

import (
	"net/http"
	"time"

	"moneta/internal/core"
)

type groupedCategoryPayload struct {
	Type         string `json:"type"`
	CategoryName string `json:"category_name"`
	CategoryID   *int64 `json:"category_id,omitempty"`
	TotalCents   int64  `json:"total_cents"`
}

type monthTotalsPayload struct {
	Year         int   `json:"year"`
	Month        int   `json:"month"`
	ExpenseCents int64 `json:"expense_cents"`
	IncomeCents  int64 `json:"income_cents"`
}

type entryPayload struct {
	Kind      string            `json:"kind"`
	Operation *operationPayload `json:"operation,omitempty"`
	Transfer  *transferPayload  `json:"transfer,omitempty"`
}

func (s *Server) handleGroupByCategory(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryAccountID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	from, to, err := parsePeriod(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	groups, err := s.svc.Reports.GroupByCategory(r.Context(), accountID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload := make([]groupedCategoryPayload, 0, len(groups))
	for _, g := range groups {
		payload = append(payload, groupedCategoryPayload{
			Type:         string(g.Type),
			CategoryName: g.CategoryName,
			CategoryID:   g.CategoryID,
			TotalCents:   g.Total.Cents,
		})
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleMonthlySeries(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryAccountID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	series, err := s.svc.Reports.MonthlySeries(r.Context(), accountID, time.Now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload := make([]monthTotalsPayload, 0, len(series))
	for _, m := range series {
		payload = append(payload, monthTotalsPayload{
			Year:         m.Year,
			Month:        m.Month,
			ExpenseCents: m.Expense.Cents,
			IncomeCents:  m.Income.Cents,
		})
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryAccountID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	from, to, err := parsePeriod(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	entries, err := s.svc.Reports.ListEntries(r.Context(), accountID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload := make([]entryPayload, 0, len(entries))
	for _, e := range entries {
		p := entryPayload{Kind: string(e.Kind)}
		switch e.Kind {
		case core.EntryOperation:
			op := toOperationPayload(*e.Operation)
			p.Operation = &op
		case core.EntryTransfer:
			tr := toTransferPayload(*e.Transfer)
			p.Transfer = &tr
		}
		payload = append(payload, p)
	}
	writeJSON(w, http.StatusOK, payload)
}
