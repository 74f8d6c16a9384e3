package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
	"github.com/servis30/golang_services/internal/ledger_service/repository"
	"github.com/servis30/golang_services/internal/platform/database"
)

// ErrInvalidCredentials is returned by Authenticate for any mismatch.
var ErrInvalidCredentials = errors.New("invalid email or password")

// RegisterCommand is the input to Register.
type RegisterCommand struct {
	Name     string `json:"name" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// AccountService registers and authenticates accounts.
type AccountService struct {
	db       database.Querier
	accounts repository.AccountRepository
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAccountService(db database.Querier, accounts repository.AccountRepository, logger *slog.Logger) *AccountService {
	return &AccountService{
		db:       db,
		accounts: accounts,
		validate: validator.New(),
		logger:   logger.With("service", "account"),
	}
}

// Register creates a user with a zero balance and a fresh account token.
func (s *AccountService) Register(ctx context.Context, cmd RegisterCommand) (*domain.Account, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	account := &domain.Account{
		Name:         cmd.Name,
		Email:        cmd.Email,
		Phone:        strings.TrimSpace(cmd.Phone),
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		TokenSaldo:   newAccountToken(),
	}
	if err := s.accounts.Create(ctx, s.db, account); err != nil {
		return nil, asDomainError(err)
	}
	s.logger.InfoContext(ctx, "Account registered", "user_id", account.ID)
	return account, nil
}

// Authenticate checks credentials and returns the account.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, s.db, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, asDomainError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// newAccountToken returns an opaque handle for bot-driven credits, e.g. "SV-3F9A1C0B7D2E".
func newAccountToken() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "SV-" + strings.ToUpper(raw[:12])
}
