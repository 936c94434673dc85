package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/partner-gateway-service/internal/model"
	"github.com/partner-gateway-service/internal/store"
	"github.com/partner-gateway-service/internal/webhook"
)

// NotifyService turns business events into webhook deliveries. Dispatch is
// asynchronous; the terminal outcome lands in the delivery log, which serves
// as the dead-letter record for exhausted deliveries.
type NotifyService struct {
	partners   store.PartnerStore
	deliveries store.DeliveryLogStore
	dispatcher *webhook.Dispatcher
}

func NewNotifyService(partners store.PartnerStore, deliveries store.DeliveryLogStore, dispatcher *webhook.Dispatcher) *NotifyService {
	return &NotifyService{
		partners:   partners,
		deliveries: deliveries,
		dispatcher: dispatcher,
	}
}

// Notify queues delivery of event to the partner's registered callback URL.
// Partners without a callback URL are skipped silently — notifications are
// opt-in.
func (s *NotifyService) Notify(ctx context.Context, partnerID uuid.UUID, event model.Event) error {
	partner, err := s.partners.GetPartnerByID(ctx, partnerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewNotFound("not_found", "Partner not found")
		}
		log.Error().Err(err).Str("partner_id", partnerID.String()).Msg("partner lookup failed for notification")
		return NewInternal("internal_error", "Failed to queue notification")
	}
	if partner.CallbackURL == "" {
		return nil
	}

	env, err := model.NewEnvelope(event)
	if err != nil {
		log.Error().Err(err).Str("event_type", event.EventType()).Msg("failed to build event envelope")
		return NewInternal("internal_error", "Failed to queue notification")
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return NewInternal("internal_error", "Failed to queue notification")
	}

	delivery := &model.WebhookDelivery{
		PartnerID: partner.ID,
		EventID:   env.EventID,
		EventType: env.EventType,
		TargetURL: partner.CallbackURL,
		Payload:   payload,
		Status:    model.DeliveryPending,
	}
	if err := s.deliveries.CreateDelivery(ctx, delivery); err != nil {
		log.Error().Err(err).Str("event_id", env.EventID).Msg("failed to record webhook delivery")
		return NewInternal("internal_error", "Failed to queue notification")
	}

	job := webhook.Job{
		Delivery: delivery,
		Secret:   partner.CallbackSecret,
		Done: func(result webhook.Result) {
			s.recordOutcome(delivery, result)
		},
	}
	if err := s.dispatcher.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Str("event_id", env.EventID).Msg("failed to enqueue webhook delivery")
		return NewUnavailable("dispatch_unavailable", "Notification dispatch is unavailable")
	}

	return nil
}

func (s *NotifyService) recordOutcome(delivery *model.WebhookDelivery, result webhook.Result) {
	// Runs on a dispatcher worker after the request context is gone.
	ctx := context.Background()

	if err := s.deliveries.UpdateDeliveryOutcome(ctx, delivery); err != nil {
		log.Error().Err(err).Str("event_id", delivery.EventID).Msg("failed to record delivery outcome")
	}

	if result.Delivered {
		log.Info().
			Str("event_id", delivery.EventID).
			Str("url", delivery.TargetURL).
			Int("attempts", result.Attempts).
			Msg("webhook delivered")
		return
	}
	log.Error().
		Str("event_id", delivery.EventID).
		Str("url", delivery.TargetURL).
		Int("attempts", result.Attempts).
		Err(result.Err).
		Msg("webhook delivery exhausted")
}
