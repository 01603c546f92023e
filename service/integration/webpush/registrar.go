package webpush

import (
	"context"
	"fmt"
	"log/slog"

	"newscast/service/registration"
)

// Registrar registers this server with the Web Push service. The application
// server key that clients subscribe with is reported as the device token.
type Registrar struct {
	keys    *KeyStore
	onToken func(context.Context, registration.DeviceToken) error
	logger  *slog.Logger
}

func NewRegistrar(keys *KeyStore, logger *slog.Logger) *Registrar {
	return &Registrar{keys: keys, logger: logger}
}

// OnToken sets the callback that receives the token after registration.
func (r *Registrar) OnToken(fn func(context.Context, registration.DeviceToken) error) {
	r.onToken = fn
}

func (r *Registrar) RegisterForRemoteNotifications(ctx context.Context) error {
	keys, err := r.keys.Ensure(ctx)
	if err != nil {
		return err
	}

	raw, err := decodeBase64URL(keys.Public)
	if err != nil {
		return fmt.Errorf("invalid VAPID public key: %w", err)
	}

	r.logger.Debug("Registered for remote notifications", "applicationServerKey", keys.Public)

	if r.onToken == nil {
		return nil
	}
	return r.onToken(ctx, registration.DeviceToken(raw))
}
