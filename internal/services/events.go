package services

import (
	"cardiocheck/internal/models/domain_models"
	"cardiocheck/pkg/logger"
	"context"
	"sync"
)

type AssessmentCompleted struct {
	UserID string
	Result domain_models.AssessmentResult
}

type PaymentCompleted struct {
	Payment domain_models.Payment
}

// EventBus delivers cross-engine events synchronously on the publisher's
// goroutine. Publishers call it only after their own state is committed
// and their lock released.
type EventBus struct {
	mu         sync.RWMutex
	log        *logger.Logger
	assessment []func(context.Context, AssessmentCompleted)
	payment    []func(context.Context, PaymentCompleted)
}

func NewEventBus(log *logger.Logger) *EventBus {
	if log == nil {
		log = logger.Nop()
	}
	return &EventBus{log: log.With("component", "EventBus")}
}

func (b *EventBus) OnAssessmentCompleted(fn func(context.Context, AssessmentCompleted)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.assessment = append(b.assessment, fn)
}

func (b *EventBus) OnPaymentCompleted(fn func(context.Context, PaymentCompleted)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payment = append(b.payment, fn)
}

func (b *EventBus) PublishAssessmentCompleted(ctx context.Context, e AssessmentCompleted) {
	b.mu.RLock()
	handlers := append([]func(context.Context, AssessmentCompleted){}, b.assessment...)
	b.mu.RUnlock()

	b.log.Debug("publish AssessmentCompleted", "user_id", e.UserID, "handlers", len(handlers))
	for _, h := range handlers {
		h(ctx, e)
	}
}

func (b *EventBus) PublishPaymentCompleted(ctx context.Context, e PaymentCompleted) {
	b.mu.RLock()
	handlers := append([]func(context.Context, PaymentCompleted){}, b.payment...)
	b.mu.RUnlock()

	b.log.Debug("publish PaymentCompleted", "payment_id", e.Payment.ID, "handlers", len(handlers))
	for _, h := range handlers {
		h(ctx, e)
	}
}
