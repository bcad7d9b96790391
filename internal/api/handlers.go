package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/jmoreda/billy-audit/internal/document"
	"github.com/jmoreda/billy-audit/internal/expense"
	"github.com/jmoreda/billy-audit/internal/ingest"
)

// maxUploadSize bounds multipart uploads; 50MB covers high-resolution phone
// photos of bills.
const maxUploadSize = int64(50 << 20)

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

type errorResponse struct {
	Kind    string `json:"error_kind"`
	Message string `json:"error"`
}

// writePipelineError maps an error taxonomy kind onto an HTTP status and a
// user-facing message with the right tone: credential errors carry a
// call-to-action, quota errors a try-again-later, parse errors a
// take-a-clearer-photo.
func writePipelineError(w http.ResponseWriter, err error) {
	kind := ingest.ErrorKind(err)

	var status int
	var message string
	switch kind {
	case "FILE_READ":
		status = http.StatusBadRequest
		message = "Could not read the selected file. Please select it again or pick another one."
	case "MISSING_CREDENTIAL":
		status = http.StatusServiceUnavailable
		message = "No API credential is configured. Add one, then retry."
	case "INVALID_CREDENTIAL":
		status = http.StatusServiceUnavailable
		message = "The API credential was rejected. Check it, then retry."
	case "QUOTA_EXHAUSTED":
		status = http.StatusTooManyRequests
		message = "The audit service is busy right now. Try again in a few minutes."
	case "EMPTY_RESPONSE", "MALFORMED_RESPONSE":
		status = http.StatusBadGateway
		message = "Could not read the document. Try a clearer photo."
	default:
		status = http.StatusInternalServerError
		message = "Internal server error"
	}

	writeJSON(w, status, errorResponse{Kind: kind, Message: message})
}

// handleSubmit accepts a multipart bill upload and runs it through the
// pipeline. The response is the final snapshot: RESULT with the audited
// facts, or an error with its taxonomy kind.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "FILE_READ", Message: "Error parsing upload form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "FILE_READ", Message: "No file provided"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writePipelineError(w, document.ErrFileRead)
		return
	}

	if err := s.machine.Submit(r.Context(), header.Filename, data, header.Header.Get("Content-Type")); err != nil {
		if errors.Is(err, ingest.ErrSubmissionInFlight) {
			writeJSON(w, http.StatusConflict, errorResponse{Kind: "IN_FLIGHT", Message: "A submission is already being analyzed"})
			return
		}
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.machine.Snapshot())
}

// handleScanState returns the current pipeline snapshot.
func (s *Server) handleScanState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.machine.Snapshot())
}

// handleConfirm appends the pending result to the ledger.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var linkage expense.Linkage
	if err := json.NewDecoder(r.Body).Decode(&linkage); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "BAD_REQUEST", Message: "Invalid request body"})
		return
	}

	exp, err := s.machine.Confirm(linkage)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrNoResult):
			writeJSON(w, http.StatusConflict, errorResponse{Kind: "NO_RESULT", Message: "No pending result to confirm"})
		case errors.Is(err, ingest.ErrUnknownAsset):
			writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "UNKNOWN_ASSET", Message: "The linked asset does not exist"})
		default:
			slog.Error("Error confirming result", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Kind: "INTERNAL", Message: "Internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, exp)
}

// handleDiscard drops the pending result without persisting it.
func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := s.machine.Discard(); err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Kind: "NO_RESULT", Message: "No pending result to discard"})
		return
	}
	writeJSON(w, http.StatusOK, s.machine.Snapshot())
}

// handleRetry acknowledges a failed submission.
func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	if err := s.machine.Retry(); err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Kind: "NO_ERROR", Message: "No failed submission to retry"})
		return
	}
	writeJSON(w, http.StatusOK, s.machine.Snapshot())
}

// handleResolveCredential clears a credential error once a credential is
// available again.
func (s *Server) handleResolveCredential(w http.ResponseWriter, r *http.Request) {
	if err := s.machine.ResolveCredential(); err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.machine.Snapshot())
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.service.ListExpenses()
	if err != nil {
		slog.Error("Error listing expenses", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Kind: "INTERNAL", Message: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	exp, err := s.service.GetExpense(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Kind: "NOT_FOUND", Message: "Expense not found"})
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteExpense(r.PathValue("id")); err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Kind: "NOT_FOUND", Message: "Expense not found"})
		return
	}
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetExpenseFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetExpenseFile(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Kind: "NOT_FOUND", Message: "Document not found"})
		return
	}

	setCORSHeaders(w)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

type createAssetRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Detail   string `json:"detail"`
	Provider string `json:"provider"`
	Limit    int    `json:"limit"`
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "BAD_REQUEST", Message: "Invalid request body"})
		return
	}

	asset, err := s.service.CreateAsset(req.Name, req.Type, req.Detail, req.Provider, req.Limit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "BAD_REQUEST", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := s.service.GetAsset(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Kind: "NOT_FOUND", Message: "Asset not found"})
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteAsset(r.PathValue("id")); err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Kind: "NOT_FOUND", Message: "Asset not found"})
		return
	}
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.service.ListAssets()
	if err != nil {
		slog.Error("Error listing assets", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Kind: "INTERNAL", Message: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, assets)
}
