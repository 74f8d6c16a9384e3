package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/servis30/golang_services/internal/ledger_service/app"
	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string          `json:"token"`
	User  *domain.Account `json:"user"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type creditResponse struct {
	OK      bool            `json:"ok"`
	Balance decimal.Decimal `json:"balance"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req app.RegisterCommand
	if !decodeJSON(w, r, &req) {
		return
	}
	acc, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, acc)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, adminOnly bool) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	acc, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	if adminOnly && acc.Role != domain.RoleAdmin {
		respondWithError(w, http.StatusForbidden, "Admin role required")
		return
	}
	token, err := h.auth.Issue(acc)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, loginResponse{Token: token, User: acc})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, false)
}

func (h *Handler) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, true)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	acc, err := h.ledger.GetAccount(r.Context(), currentUser(r).ID)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, acc)
}

func (h *Handler) handleMyBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.ledger.GetBalance(r.Context(), currentUser(r).ID)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

func (h *Handler) handleMyTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	txns, err := h.ledger.ListUserTransactions(r.Context(), currentUser(r).ID, limit, offset)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, txns)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	accounts, err := h.ledger.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, accounts)
}

func (h *Handler) handleAdminRecharge(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.ledger.AdminRecharge(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, creditResponse{OK: true, Balance: res.NewBalance})
}
