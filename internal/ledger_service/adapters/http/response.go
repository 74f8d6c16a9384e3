package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/servis30/golang_services/internal/ledger_service/app"
	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

const MaxRequestBodySize = 1 << 20 // 1 MB

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Default().Error("Failed to write JSON response", "error", err)
		}
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// decodeJSON reads a size-limited JSON body into dst and writes the error
// response itself when decoding fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		case errors.Is(err, io.EOF):
			respondWithError(w, http.StatusBadRequest, "Request body is empty")
		default:
			respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		}
		return false
	}
	return true
}

// statusForError maps domain errors to HTTP status codes. Anything unknown is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrStorage):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrIntentNotFound),
		errors.Is(err, domain.ErrServiceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrDuplicateAccount),
		errors.Is(err, domain.ErrIntentInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrIntentExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidMethod),
		errors.Is(err, domain.ErrBelowMinimumAmount):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondWithDomainError writes the domain message for known errors and a
// generic message for everything else.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "request_id", chimiddleware.GetReqID(r.Context()))
		respondWithError(w, code, "Internal server error")
		return
	}
	respondWithError(w, code, err.Error())
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxPageSize)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
