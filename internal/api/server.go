// Package api exposes the ingestion pipeline and the expense ledger as a
// JSON HTTP surface for the presentation layer.
package api

import (
	"log/slog"
	"net/http"

	"github.com/jmoreda/billy-audit/internal/expense"
	"github.com/jmoreda/billy-audit/internal/ingest"
)

// Server handles HTTP requests for the scan pipeline and the ledger.
type Server struct {
	machine *ingest.Machine
	service *expense.Service
	mux     *http.ServeMux
}

// NewServer creates a new Server with a default mux.
func NewServer(machine *ingest.Machine, service *expense.Service) *Server {
	return NewServerWithMux(machine, service, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing.
func NewServerWithMux(machine *ingest.Machine, service *expense.Service, mux *http.ServeMux) *Server {
	s := &Server{
		machine: machine,
		service: service,
		mux:     mux,
	}
	s.registerRoutes()
	return s
}

// corsMiddleware adds CORS headers and answers preflight requests.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux.
// Routes are registered from most specific to least specific.
func (s *Server) registerRoutes() {
	// Scan pipeline
	s.mux.HandleFunc("POST /api/scan/confirm", s.handleConfirm)
	s.mux.HandleFunc("POST /api/scan/discard", s.handleDiscard)
	s.mux.HandleFunc("POST /api/scan/retry", s.handleRetry)
	s.mux.HandleFunc("POST /api/scan/resolve-credential", s.handleResolveCredential)
	s.mux.HandleFunc("GET /api/scan", s.handleScanState)
	s.mux.HandleFunc("POST /api/scan", s.handleSubmit)

	// Ledger
	s.mux.HandleFunc("GET /api/expenses/{id}/file", s.handleGetExpenseFile)
	s.mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	s.mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	s.mux.HandleFunc("GET /api/expenses", s.handleListExpenses)

	// Assets
	s.mux.HandleFunc("GET /api/assets/{id}", s.handleGetAsset)
	s.mux.HandleFunc("DELETE /api/assets/{id}", s.handleDeleteAsset)
	s.mux.HandleFunc("GET /api/assets", s.handleListAssets)
	s.mux.HandleFunc("POST /api/assets", s.handleCreateAsset)
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
