package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/servis30/golang_services/internal/ledger_service/app"
)

type settingRequest struct {
	Key   string          `json:"key"`
	Value decimal.Decimal `json:"value"`
}

func (h *Handler) handleListServices(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalog.ListActive(r.Context())
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleListAllServices(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalog.ListAll(r.Context())
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleGetService(w http.ResponseWriter, r *http.Request) {
	entry, err := h.catalog.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var in app.CatalogEntryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	entry, err := h.catalog.Create(r.Context(), in)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	var in app.CatalogEntryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	entry, err := h.catalog.Update(r.Context(), chi.URLParam(r, "key"), in)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.catalog.Settings(r.Context())
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

func (h *Handler) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	var req settingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.catalog.UpdateSetting(r.Context(), req.Key, req.Value); err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, req)
}
