package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

// botCreditReference marks credits made by the recharge bot.
const botCreditReference = "telegram"

type botRechargeRequest struct {
	UserToken string          `json:"user_token"`
	Amount    decimal.Decimal `json:"monto"`
}

type botOrderUpdateRequest struct {
	OrderID string             `json:"order_id"`
	Status  domain.OrderStatus `json:"status"`
}

type botVerifyRequest struct {
	IntentID string `json:"intent_id"`
}

type botVerifyResponse struct {
	OK         bool                  `json:"ok"`
	Method     domain.RechargeMethod `json:"method"`
	Amount     decimal.Decimal       `json:"amount"`
	TokenSaldo string                `json:"token_saldo"`
}

func (h *Handler) handleBotRecharge(w http.ResponseWriter, r *http.Request) {
	var req botRechargeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.ledger.CreditByToken(r.Context(), req.UserToken, req.Amount, domain.TransactionSourceBot, botCreditReference)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, creditResponse{OK: true, Balance: res.NewBalance})
}

func (h *Handler) handleBotBalance(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("user_token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "user_token is required")
		return
	}
	balance, err := h.ledger.BalanceByToken(r.Context(), token)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

func (h *Handler) handleBotOrderUpdate(w http.ResponseWriter, r *http.Request) {
	var req botOrderUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.ledger.SetOrderStatus(r.Context(), req.OrderID, req.Status)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res.Order)
}

func (h *Handler) handleBotVerifyIntent(w http.ResponseWriter, r *http.Request) {
	var req botVerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := h.recharges.VerifyIntent(r.Context(), req.IntentID)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, botVerifyResponse{
		OK:         true,
		Method:     v.Method,
		Amount:     v.Amount,
		TokenSaldo: v.TokenSaldo,
	})
}
