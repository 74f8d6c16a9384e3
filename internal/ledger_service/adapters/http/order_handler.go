package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/servis30/golang_services/internal/ledger_service/app"
	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

type createOrderRequest struct {
	ServiceType   string          `json:"serviceType"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Meta          domain.Metadata `json:"meta"`
}

type serviceOrderRequest struct {
	Price decimal.Decimal `json:"price"`
	Meta  domain.Metadata `json:"meta"`
}

type statusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request, cmd app.CreateOrderCommand) {
	order, err := h.ledger.CreateOrder(r.Context(), cmd)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, order)
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.createOrder(w, r, app.CreateOrderCommand{
		UserID:     currentUser(r).ID,
		ServiceKey: req.ServiceType,
		RawPrice:   req.OriginalPrice,
		Metadata:   req.Meta,
	})
}

func (h *Handler) handleCreateServiceOrder(w http.ResponseWriter, r *http.Request) {
	var req serviceOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.createOrder(w, r, app.CreateOrderCommand{
		UserID:     currentUser(r).ID,
		ServiceKey: chi.URLParam(r, "key"),
		RawPrice:   req.Price,
		Metadata:   req.Meta,
	})
}

func (h *Handler) handleListMyOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	orders, err := h.ledger.ListUserOrders(r.Context(), currentUser(r).ID, limit, offset)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

// handleGetOrder hides other users' orders behind a 404.
func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	order, err := h.ledger.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err == nil && order.UserID != user.ID && !user.IsAdmin() {
		err = domain.ErrOrderNotFound
	}
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, order)
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	orders, err := h.ledger.ListOrders(r.Context(), limit, offset)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleSetOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.ledger.SetOrderStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string          `json:"method"`
		Amount decimal.Decimal `json:"amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	intent, err := h.recharges.CreateIntent(r.Context(), currentUser(r).ID, req.Method, req.Amount)
	if err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"intent_id": intent.ID})
}
