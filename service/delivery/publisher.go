package delivery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"newscast/service/subscription"
	"newscast/service/util"
)

type NotificationSender interface {
	Send(ctx context.Context, sub *subscription.Subscription, notif Notification) error
}

type Report struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Removed int `json:"removed"`
}

type Publisher struct {
	store      *subscription.Store
	sender     NotificationSender
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

func NewPublisher(store *subscription.Store, sender NotificationSender, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Publisher {
	return &Publisher{
		store:      store,
		sender:     sender,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Publish sends notif to every subscription. Subscriptions the push service
// reports as gone are removed. An error is returned only when nothing was sent.
func (p *Publisher) Publish(ctx context.Context, notif Notification) (Report, error) {
	var report Report

	subs, err := p.store.List(ctx)
	if err != nil {
		return report, util.LogError(p.logger, "Failed to list subscriptions", err)
	}

	if len(subs) == 0 {
		p.logger.Warn("No subscriptions found, dropping notification")
		return report, nil
	}

	var lastErr error
	for i := range subs {
		sub := &subs[i]
		err := p.sendWithRetry(ctx, sub, notif)
		switch {
		case err == nil:
			report.Sent++
		case IsGone(err):
			report.Failed++
			if _, delErr := p.store.Delete(ctx, sub.ID); delErr != nil {
				p.logger.Error("Failed to remove expired subscription", "subscriptionID", sub.ID, "error", delErr)
			} else {
				report.Removed++
				p.logger.Info("Removed expired subscription", "subscriptionID", sub.ID)
			}
			lastErr = err
		default:
			report.Failed++
			lastErr = err
		}
	}

	if report.Sent == 0 && lastErr != nil {
		return report, lastErr
	}
	return report, nil
}

func (p *Publisher) sendWithRetry(ctx context.Context, sub *subscription.Subscription, notif Notification) error {
	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		err := p.sender.Send(ctx, sub, notif)
		if err == nil {
			if attempt > 0 {
				p.logger.Info("Notification sent after retry", "subscriptionID", sub.ID, "attempt", attempt+1)
			}
			return nil
		}

		lastErr = err

		if IsPermanent(err) {
			p.logger.Error("Permanent error, not retrying", "subscriptionID", sub.ID, "error", err)
			return err
		}

		if attempt < p.maxRetries-1 {
			delay := p.baseDelay * time.Duration(1<<uint(attempt))
			p.logger.Warn("Failed to send notification, retrying", "subscriptionID", sub.ID, "attempt", attempt+1, "error", err, "retryIn", delay)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Join(lastErr, ctx.Err())
			case <-timer.C:
			}
		}
	}

	p.logger.Error("Failed to send notification after retries", "subscriptionID", sub.ID, "attempts", p.maxRetries, "error", lastErr)
	return lastErr
}
