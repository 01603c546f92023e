package webpush

import (
	"crypto/ecdh"
	"crypto/elliptic"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
)

var (
	errInvalidEndpoint = errors.New("invalid pushEndpoint URL")
	errInvalidP256dh   = errors.New("invalid p256dh key")
	errInvalidAuth     = errors.New("invalid auth secret")
)

func validatePushEndpoint(raw string, requireHTTPS bool) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u == nil || u.Scheme == "" || u.Host == "" {
		return errInvalidEndpoint
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("pushEndpoint must use http or https")
	}

	if requireHTTPS && u.Scheme != "https" {
		return fmt.Errorf("webpush endpoint must use https")
	}

	return nil
}

// normalizeVAPIDPrivateKey checks that raw is a P-256 scalar in [1, N).
func normalizeVAPIDPrivateKey(raw string) (string, error) {
	decoded, err := decodeBase64URL(raw)
	if err != nil {
		return "", fmt.Errorf("invalid VAPID private key encoding")
	}

	if len(decoded) != 32 {
		return "", fmt.Errorf("invalid VAPID private key length: expected 32 bytes, got %d", len(decoded))
	}

	d := new(big.Int).SetBytes(decoded)
	if d.Sign() <= 0 || d.Cmp(elliptic.P256().Params().N) >= 0 {
		return "", fmt.Errorf("invalid VAPID private key scalar")
	}

	return base64.RawURLEncoding.EncodeToString(decoded), nil
}

// normalizeP256DH checks that raw is an uncompressed point on P-256.
func normalizeP256DH(raw string) (string, error) {
	decoded, err := decodeBase64URL(raw)
	if err != nil {
		return "", fmt.Errorf("%w: bad encoding", errInvalidP256dh)
	}

	if len(decoded) != 65 || decoded[0] != 0x04 {
		return "", fmt.Errorf("%w: expected 65-byte uncompressed point", errInvalidP256dh)
	}

	if _, err := ecdh.P256().NewPublicKey(decoded); err != nil {
		return "", fmt.Errorf("%w: not on curve", errInvalidP256dh)
	}

	return base64.RawURLEncoding.EncodeToString(decoded), nil
}

func normalizeAuthSecret(raw string) (string, error) {
	decoded, err := decodeBase64URL(raw)
	if err != nil {
		return "", fmt.Errorf("%w: bad encoding", errInvalidAuth)
	}

	if len(decoded) != 16 {
		return "", fmt.Errorf("%w: expected 16 bytes, got %d", errInvalidAuth, len(decoded))
	}

	return base64.RawURLEncoding.EncodeToString(decoded), nil
}

// decodeBase64URL accepts padded and unpadded URL-safe base64.
func decodeBase64URL(raw string) ([]byte, error) {
	key := strings.TrimRight(strings.TrimSpace(raw), "=")
	return base64.RawURLEncoding.DecodeString(key)
}
