package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

// Publisher is the subset of messagebroker.NatsClient the sink needs.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NATSSink fans events out on the event bus as JSON.
type NATSSink struct {
	publisher Publisher
	subjects  map[domain.EventKind]string
}

func NewNATSSink(publisher Publisher, orderSubject, rechargeSubject string) *NATSSink {
	return &NATSSink{
		publisher: publisher,
		subjects: map[domain.EventKind]string{
			domain.EventOrderCreated:      orderSubject,
			domain.EventRechargeRequested: rechargeSubject,
		},
	}
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Deliver(ctx context.Context, event domain.Event) error {
	subject, ok := s.subjects[event.Kind()]
	if !ok || subject == "" {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Kind(), err)
	}
	return s.publisher.Publish(ctx, subject, data)
}
