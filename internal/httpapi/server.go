// Package httpapi exposes the ledger over a JSON API.
package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"moneta/internal/services"
)

// Services collects the workflow services the API fronts.
type Services struct {
	Accounts   *services.AccountService
	Categories *services.CategoryService
	Operations *services.OperationService
	Transfers  *services.TransferService
	Reminders  *services.ReminderService
	Reports    *services.ReportingService
}

type Server struct {
	http.Server
	svc Services
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services) *Server {
	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		svc: svc,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /accounts", s.withLogging(s.handleListAccounts))
	mux.HandleFunc("POST /accounts", s.withLogging(s.handleCreateAccount))
	mux.HandleFunc("GET /accounts/{id}", s.withLogging(s.handleGetAccount))
	mux.HandleFunc("PATCH /accounts/{id}", s.withLogging(s.handleRenameAccount))
	mux.HandleFunc("DELETE /accounts/{id}", s.withLogging(s.handleDeleteAccount))

	mux.HandleFunc("GET /categories", s.withLogging(s.handleListCategories))
	mux.HandleFunc("POST /categories", s.withLogging(s.handleCreateCategory))
	mux.HandleFunc("PATCH /categories/{id}", s.withLogging(s.handleRenameCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.withLogging(s.handleDeleteCategory))
	mux.HandleFunc("GET /categories/{id}/subcategories", s.withLogging(s.handleListSubcategories))
	mux.HandleFunc("POST /categories/{id}/subcategories", s.withLogging(s.handleCreateSubcategory))
	mux.HandleFunc("PATCH /subcategories/{id}", s.withLogging(s.handleRenameSubcategory))
	mux.HandleFunc("DELETE /subcategories/{id}", s.withLogging(s.handleDeleteSubcategory))

	mux.HandleFunc("POST /operations", s.withLogging(s.handleCreateOperation))
	mux.HandleFunc("GET /operations/{id}", s.withLogging(s.handleGetOperation))
	mux.HandleFunc("PUT /operations/{id}", s.withLogging(s.handleUpdateOperation))
	mux.HandleFunc("DELETE /operations/{id}", s.withLogging(s.handleDeleteOperation))

	mux.HandleFunc("POST /transfers", s.withLogging(s.handleCreateTransfer))
	mux.HandleFunc("GET /transfers/{id}", s.withLogging(s.handleGetTransfer))
	mux.HandleFunc("PUT /transfers/{id}", s.withLogging(s.handleUpdateTransfer))
	mux.HandleFunc("DELETE /transfers/{id}", s.withLogging(s.handleDeleteTransfer))

	mux.HandleFunc("GET /reminders", s.withLogging(s.handleListReminders))
	mux.HandleFunc("POST /reminders", s.withLogging(s.handleCreateReminder))
	mux.HandleFunc("GET /reminders/{id}", s.withLogging(s.handleGetReminder))
	mux.HandleFunc("PUT /reminders/{id}", s.withLogging(s.handleUpdateReminder))
	mux.HandleFunc("DELETE /reminders/{id}", s.withLogging(s.handleDeleteReminder))
	mux.HandleFunc("POST /reminders/{id}/activate", s.withLogging(s.handleActivateReminder))
	mux.HandleFunc("POST /reminders/{id}/deactivate", s.withLogging(s.handleDeactivateReminder))

	mux.HandleFunc("GET /reports/by-category", s.withLogging(s.handleGroupByCategory))
	mux.HandleFunc("GET /reports/monthly", s.withLogging(s.handleMonthlySeries))
	mux.HandleFunc("GET /entries", s.withLogging(s.handleListEntries))

	return s
}

// withLogging attaches a request id and logs request start and completion.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()

		slog.InfoContext(r.Context(), "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(r.Context(), "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
