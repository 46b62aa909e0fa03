package httpapi

import (
	"net/http"
	"time"

	"moneta/internal/core"
)

type reminderPayload struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Comment     string    `json:"comment,omitempty"`
	Periodicity string    `json:"periodicity"`
	NextDate    time.Time `json:"next_date"`
	Active      bool      `json:"active"`
}

func toReminderPayload(r core.Reminder) reminderPayload {
	return reminderPayload{
		ID:          r.ID,
		Name:        r.Name,
		Comment:     r.Comment,
		Periodicity: string(r.Periodicity),
		NextDate:    r.NextDate,
		Active:      r.Active,
	}
}

func (p reminderPayload) toCore(id int64) core.Reminder {
	return core.Reminder{
		ID:          id,
		Name:        p.Name,
		Comment:     p.Comment,
		Periodicity: core.Periodicity(p.Periodicity),
		NextDate:    p.NextDate,
		Active:      p.Active,
	}
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.svc.Reminders.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload := make([]reminderPayload, 0, len(reminders))
	for _, rem := range reminders {
		payload = append(payload, toReminderPayload(rem))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderPayload
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	created, err := s.svc.Reminders.Create(r.Context(), req.toCore(0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReminderPayload(created))
}

func (s *Server) handleGetReminder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	reminder, err := s.svc.Reminders.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderPayload(reminder))
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	var req reminderPayload
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	updated, err := s.svc.Reminders.Update(r.Context(), req.toCore(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderPayload(updated))
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.svc.Reminders.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivateReminder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.svc.Reminders.Activate(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeactivateReminder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.svc.Reminders.Deactivate(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
