package webpush

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"newscast/service/delivery"
	"newscast/service/subscription"

	webpush "github.com/SherClockHolmes/webpush-go"
)

type Sender struct {
	keys       *KeyStore
	subscriber string
	ttl        int
	client     webpush.HTTPClient
	logger     *slog.Logger
}

func NewSender(keys *KeyStore, subscriber string, ttl int, logger *slog.Logger) *Sender {
	return &Sender{
		keys:       keys,
		subscriber: subscriber,
		ttl:        ttl,
		client:     http.DefaultClient,
		logger:     logger,
	}
}

func (s *Sender) Send(ctx context.Context, sub *subscription.Subscription, notif delivery.Notification) error {
	if sub.Endpoint == "" {
		return delivery.NewPermanentError(fmt.Errorf("no push endpoint configured for subscription %s", sub.ID))
	}

	message, err := notif.MarshalPayload()
	if err != nil {
		return delivery.NewPermanentError(fmt.Errorf("failed to marshal notification: %w", err))
	}

	keys, err := s.keys.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("failed to load VAPID keys: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  keys.Public,
		VAPIDPrivateKey: keys.Private,
		TTL:             s.ttl,
		Urgency:         urgencyFor(notif),
	})
	if err != nil {
		return fmt.Errorf("failed to send webpush: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return delivery.NewGoneError(resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("webpush returned status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &delivery.PermanentError{StatusCode: resp.StatusCode, Err: fmt.Errorf("webpush rejected notification")}
	}

	s.logger.Debug("Sent webpush notification", "subscriptionID", sub.ID, "url", sub.Endpoint, "silent", notif.Silent)
	return nil
}

func urgencyFor(notif delivery.Notification) webpush.Urgency {
	if notif.Silent {
		return webpush.UrgencyLow
	}
	return webpush.UrgencyNormal
}
