package httpapi

import (
	"net/http"
	"time"

	"moneta/internal/core"
)

type operationPayload struct {
	ID            int64     `json:"id"`
	CategoryID    int64     `json:"category_id"`
	SubcategoryID *int64    `json:"subcategory_id,omitempty"`
	AccountID     int64     `json:"account_id"`
	AmountCents   int64     `json:"amount_cents"`
	Amount        string    `json:"amount,omitempty"` // decimal alternative to amount_cents
	Date          time.Time `json:"date"`
	Comment       string    `json:"comment,omitempty"`
}

func toOperationPayload(op core.Operation) operationPayload {
	return operationPayload{
		ID:            op.ID,
		CategoryID:    op.CategoryID,
		SubcategoryID: op.SubcategoryID,
		AccountID:     op.AccountID,
		AmountCents:   op.Amount.Cents,
		Date:          op.Date,
		Comment:       op.Comment,
	}
}

func (p operationPayload) toCore(id int64) (core.Operation, error) {
	amount, err := parseAmount(p.Amount, p.AmountCents)
	if err != nil {
		return core.Operation{}, err
	}
	return core.Operation{
		ID:            id,
		CategoryID:    p.CategoryID,
		SubcategoryID: p.SubcategoryID,
		AccountID:     p.AccountID,
		Amount:        amount,
		Date:          p.Date,
		Comment:       p.Comment,
	}, nil
}

// parseAmount prefers the decimal string form when the client sends one.
func parseAmount(decimal string, cents int64) (core.Money, error) {
	if decimal == "" {
		return core.Money{Cents: cents}, nil
	}
	parsed, err := core.ParseDecimalToCents(decimal)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: parsed}, nil
}

type transferPayload struct {
	ID            int64     `json:"id"`
	FromAccountID int64     `json:"from_account_id"`
	ToAccountID   int64     `json:"to_account_id"`
	AmountCents   int64     `json:"amount_cents"`
	Amount        string    `json:"amount,omitempty"` // decimal alternative to amount_cents
	Date          time.Time `json:"date"`
	Comment       string    `json:"comment,omitempty"`
}

func toTransferPayload(tr core.Transfer) transferPayload {
	return transferPayload{
		ID:            tr.ID,
		FromAccountID: tr.FromAccountID,
		ToAccountID:   tr.ToAccountID,
		AmountCents:   tr.Amount.Cents,
		Date:          tr.Date,
		Comment:       tr.Comment,
	}
}

func (p transferPayload) toCore(id int64) (core.Transfer, error) {
	amount, err := parseAmount(p.Amount, p.AmountCents)
	if err != nil {
		return core.Transfer{}, err
	}
	return core.Transfer{
		ID:            id,
		FromAccountID: p.FromAccountID,
		ToAccountID:   p.ToAccountID,
		Amount:        amount,
		Date:          p.Date,
		Comment:       p.Comment,
	}, nil
}

func (s *Server) handleCreateOperation(w http.ResponseWriter, r *http.Request) {
	var req operationPayload
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	op, err := req.toCore(0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	created, err := s.svc.Operations.Create(r.Context(), op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOperationPayload(created))
}

func (s *Server) handleGetOperation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	op, err := s.svc.Operations.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOperationPayload(op))
}

func (s *Server) handleUpdateOperation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	var req operationPayload
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	op, err := req.toCore(id)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	updated, err := s.svc.Operations.Update(r.Context(), op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOperationPayload(updated))
}

func (s *Server) handleDeleteOperation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.svc.Operations.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferPayload
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	tr, err := req.toCore(0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	created, err := s.svc.Transfers.Create(r.Context(), tr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransferPayload(created))
}

func (s *Server) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	tr, err := s.svc.Transfers.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransferPayload(tr))
}

func (s *Server) handleUpdateTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	var req transferPayload
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	tr, err := req.toCore(id)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	updated, err := s.svc.Transfers.Update(r.Context(), tr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransferPayload(updated))
}

func (s *Server) handleDeleteTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.svc.Transfers.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
