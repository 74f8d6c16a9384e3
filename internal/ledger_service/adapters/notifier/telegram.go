package notifier

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink pushes order and recharge notices to the admin chat.
type TelegramSink struct {
	bot    messageSender
	chatID int64
}

// NewTelegramSink authenticates the bot token against the Telegram API.
func NewTelegramSink(token string, chatID int64, timeout time.Duration) (*TelegramSink, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramSink{bot: bot, chatID: chatID}, nil
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Deliver(ctx context.Context, event domain.Event) error {
	var text string
	switch e := event.(type) {
	case domain.OrderCreatedEvent:
		text = FormatOrderMessage(e)
	case domain.RechargeRequestedEvent:
		text = FormatRechargeMessage(e)
	default:
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.bot.Send(tgbotapi.NewMessage(s.chatID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// FormatOrderMessage renders the admin notice for a new order. Metadata is
// expected to be redacted already.
func FormatOrderMessage(e domain.OrderCreatedEvent) string {
	phone := e.UserPhone
	if phone == "" {
		phone = metaString(e.Meta, "telefono")
	}
	if phone == "" {
		phone = metaString(e.Meta, "numero")
	}
	if phone == "" {
		phone = "no registrado"
	}

	details := "Sin detalles"
	if len(e.Meta) > 0 {
		keys := make([]string, 0, len(e.Meta))
		for k := range e.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %v", k, e.Meta[k]))
		}
		details = strings.Join(lines, "\n")
	}

	return strings.Join([]string{
		"Nueva orden",
		"Usuario: " + orNA(e.UserName),
		"Email: " + orNA(e.UserEmail),
		"Token: " + orNA(e.TokenSaldo),
		"Teléfono: " + phone,
		"Servicio: " + e.ServiceType,
		"Precio: S/ " + e.FinalPrice.StringFixed(2),
		"Estado: " + string(e.Status),
		"Detalles:",
		details,
	}, "\n")
}

// FormatRechargeMessage renders the notice for a pending recharge intent.
func FormatRechargeMessage(e domain.RechargeRequestedEvent) string {
	return strings.Join([]string{
		"Nueva solicitud de recarga",
		"Intento: " + e.IntentID,
		"Token: " + orNA(e.TokenSaldo),
		"Método: " + string(e.Method),
		"Monto: S/ " + e.Amount.StringFixed(2),
	}, "\n")
}

func metaString(meta domain.Metadata, key string) string {
	v, ok := meta[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
