package webpush

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"newscast/service/credentials"
	"newscast/service/subscription"

	webpush "github.com/SherClockHolmes/webpush-go"
)

const (
	settingVAPIDPrivate = "vapid_private_key"
	settingVAPIDPublic  = "vapid_public_key"
)

type VAPIDKeys struct {
	Private string
	Public  string
}

// KeyStore keeps the server's VAPID key pair in the settings table, generating
// it on first use. The private key is stored sealed.
type KeyStore struct {
	mu     sync.Mutex
	store  *subscription.Store
	sealer *credentials.Sealer
	logger *slog.Logger
	keys   *VAPIDKeys
}

func NewKeyStore(store *subscription.Store, sealer *credentials.Sealer, logger *slog.Logger) *KeyStore {
	return &KeyStore{store: store, sealer: sealer, logger: logger}
}

func (k *KeyStore) Ensure(ctx context.Context) (VAPIDKeys, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.keys != nil {
		return *k.keys, nil
	}

	private, err := k.loadPrivate(ctx)
	if err != nil {
		return VAPIDKeys{}, err
	}
	public, err := k.store.GetSetting(ctx, settingVAPIDPublic)
	if err != nil {
		return VAPIDKeys{}, err
	}

	if private == "" || public == "" {
		if private, public, err = k.generate(ctx); err != nil {
			return VAPIDKeys{}, err
		}
	}

	k.keys = &VAPIDKeys{Private: private, Public: public}
	return *k.keys, nil
}

// loadPrivate returns "" when no usable private key is stored.
func (k *KeyStore) loadPrivate(ctx context.Context) (string, error) {
	sealed, err := k.store.GetSetting(ctx, settingVAPIDPrivate)
	if err != nil || sealed == "" {
		return "", err
	}

	private, err := k.sealer.OpenString(sealed)
	if errors.Is(err, credentials.ErrCorrupted) {
		k.logger.Warn("VAPID private key unreadable (API_KEY likely changed), regenerating; existing subscriptions must re-register", "error", err)
		return "", nil
	}
	if err != nil {
		return "", err
	}

	if _, err := normalizeVAPIDPrivateKey(private); err != nil {
		k.logger.Warn("Stored VAPID private key is invalid, regenerating", "error", err)
		return "", nil
	}
	return private, nil
}

func (k *KeyStore) generate(ctx context.Context) (string, string, error) {
	private, public, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate VAPID keys: %w", err)
	}

	sealed, err := k.sealer.SealString(private)
	if err != nil {
		return "", "", fmt.Errorf("failed to seal VAPID private key: %w", err)
	}
	if err := k.store.SetSetting(ctx, settingVAPIDPrivate, sealed); err != nil {
		return "", "", err
	}
	if err := k.store.SetSetting(ctx, settingVAPIDPublic, public); err != nil {
		return "", "", err
	}

	k.logger.Info("Generated VAPID key pair")
	return private, public, nil
}
