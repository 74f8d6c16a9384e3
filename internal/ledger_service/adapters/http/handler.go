package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/servis30/golang_services/internal/ledger_service/app"
	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

// Ledger is the subset of app.LedgerService the transport calls.
type Ledger interface {
	CreateOrder(ctx context.Context, cmd app.CreateOrderCommand) (*domain.Order, error)
	SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.StatusChangeResult, error)
	CreditByToken(ctx context.Context, token string, amount decimal.Decimal, source domain.TransactionSource, reference string) (*app.CreditResult, error)
	AdminRecharge(ctx context.Context, userID string, amount decimal.Decimal) (*app.CreditResult, error)
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	BalanceByToken(ctx context.Context, token string) (decimal.Decimal, error)
	GetAccount(ctx context.Context, userID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, limit, offset int) ([]domain.Account, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListUserOrders(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
	ListOrders(ctx context.Context, limit, offset int) ([]domain.Order, error)
	ListUserTransactions(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error)
}

type Recharges interface {
	CreateIntent(ctx context.Context, userID, method string, amount decimal.Decimal) (*domain.RechargeIntent, error)
	VerifyIntent(ctx context.Context, intentID string) (*domain.VerifiedIntent, error)
}

type Catalog interface {
	ListActive(ctx context.Context) ([]domain.CatalogEntry, error)
	ListAll(ctx context.Context) ([]domain.CatalogEntry, error)
	Get(ctx context.Context, key string) (*domain.CatalogEntry, error)
	Create(ctx context.Context, in app.CatalogEntryInput) (*domain.CatalogEntry, error)
	Update(ctx context.Context, key string, in app.CatalogEntryInput) (*domain.CatalogEntry, error)
	Delete(ctx context.Context, key string) error
	Settings(ctx context.Context) (domain.PricingSettings, error)
	UpdateSetting(ctx context.Context, key string, value decimal.Decimal) error
}

type Accounts interface {
	Register(ctx context.Context, cmd app.RegisterCommand) (*domain.Account, error)
	Authenticate(ctx context.Context, email, password string) (*domain.Account, error)
}

// Handler serves the ledger's JSON API.
type Handler struct {
	ledger    Ledger
	recharges Recharges
	catalog   Catalog
	accounts  Accounts
	auth      *JWTAuth
	logger    *slog.Logger
}

func NewHandler(ledger Ledger, recharges Recharges, catalog Catalog, accounts Accounts, auth *JWTAuth, logger *slog.Logger) *Handler {
	return &Handler{
		ledger:    ledger,
		recharges: recharges,
		catalog:   catalog,
		accounts:  accounts,
		auth:      auth,
		logger:    logger.With("component", "http_handler"),
	}
}

// RegisterRoutes mounts every route under /api. botAPIKey guards /api/bot.
func (h *Handler) RegisterRoutes(r chi.Router, botAPIKey string) {
	authMW := AuthMiddleware(h.auth, h.logger)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", h.handleHealth)
		api.Post("/auth/register", h.handleRegister)
		api.Post("/auth/login", h.handleLogin)

		api.Group(func(user chi.Router) {
			user.Use(authMW)
			user.Get("/users/me", h.handleMe)
			user.Get("/users/me/balance", h.handleMyBalance)
			user.Get("/users/me/transactions", h.handleMyTransactions)
			user.Get("/orders", h.handleListMyOrders)
			user.Post("/orders", h.handleCreateOrder)
			user.Get("/orders/{id}", h.handleGetOrder)
			user.Get("/services", h.handleListServices)
			user.Get("/services/{key}", h.handleGetService)
			user.Post("/services/{key}", h.handleCreateServiceOrder)
			user.Post("/recharge/intents", h.handleCreateIntent)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Post("/login", h.handleAdminLogin)

			admin.Group(func(admin chi.Router) {
				admin.Use(authMW, RequireAdmin(h.logger))
				admin.Get("/users", h.handleListUsers)
				admin.Post("/users/{id}/recharge", h.handleAdminRecharge)
				admin.Get("/orders", h.handleListOrders)
				admin.Patch("/orders/{id}/status", h.handleSetOrderStatus)
				admin.Get("/services", h.handleListAllServices)
				admin.Post("/services", h.handleCreateService)
				admin.Put("/services/{key}", h.handleUpdateService)
				admin.Delete("/services/{key}", h.handleDeleteService)
				admin.Get("/settings", h.handleGetSettings)
				admin.Put("/settings", h.handleUpdateSetting)
			})
		})

		api.Route("/bot", func(bot chi.Router) {
			bot.Use(BotKeyMiddleware(botAPIKey, h.logger))
			bot.Post("/recarga", h.handleBotRecharge)
			bot.Get("/saldo", h.handleBotBalance)
			bot.Post("/order-update", h.handleBotOrderUpdate)
			bot.Post("/intent/verify", h.handleBotVerifyIntent)
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// currentUser is only called behind AuthMiddleware.
func currentUser(r *http.Request) AuthenticatedUser {
	u, _ := UserFromContext(r.Context())
	return u
}
