package webpush

import (
	"bytes"
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"newscast/service/credentials"
	"newscast/service/delivery"
	"newscast/service/registration"
	"newscast/service/storage"
	"newscast/service/subscription"
	"newscast/service/util"

	"github.com/go-chi/chi/v5"
)

func newTestStore(t *testing.T) *subscription.Store {
	t.Helper()

	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := subscription.NewStore(db)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

func newKeyStore(t *testing.T, store *subscription.Store, apiKey string) *KeyStore {
	t.Helper()

	sealer, err := credentials.NewSealer(apiKey)
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	return NewKeyStore(store, sealer, util.DiscardLogger())
}

func clientKeys(t *testing.T) (p256dh, auth string) {
	t.Helper()

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	secret := make([]byte, 16)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("generate auth: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()), base64.RawURLEncoding.EncodeToString(secret)
}

func TestKeyStorePersistsKeys(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := newKeyStore(t, store, "test").Ensure(ctx)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, err := normalizeVAPIDPrivateKey(first.Private); err != nil {
		t.Fatalf("generated private key is invalid: %v", err)
	}

	second, err := newKeyStore(t, store, "test").Ensure(ctx)
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if first != second {
		t.Fatal("expected keys to be loaded from storage")
	}
}

func TestKeyStoreSealsPrivateKey(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := newKeyStore(t, store, "test").Ensure(ctx)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	stored, err := store.GetSetting(ctx, settingVAPIDPrivate)
	if err != nil {
		t.Fatalf("get setting: %v", err)
	}
	if stored == "" || stored == first.Private {
		t.Fatal("expected private key to be stored sealed")
	}

	rotated, err := newKeyStore(t, store, "changed").Ensure(ctx)
	if err != nil {
		t.Fatalf("ensure with new key: %v", err)
	}
	if rotated == first {
		t.Fatal("expected keys to be regenerated after API key change")
	}
}

func TestRegistrarReportsApplicationServerKey(t *testing.T) {
	ctx := context.Background()
	keys := newKeyStore(t, newTestStore(t), "test")
	registrar := NewRegistrar(keys, util.DiscardLogger())

	var got registration.DeviceToken
	registrar.OnToken(func(ctx context.Context, token registration.DeviceToken) error {
		got = token
		return nil
	})

	if err := registrar.RegisterForRemoteNotifications(ctx); err != nil {
		t.Fatalf("register: %v", err)
	}

	vapid, _ := keys.Ensure(ctx)
	raw, _ := decodeBase64URL(vapid.Public)
	if !bytes.Equal(got, raw) {
		t.Fatalf("expected public key bytes as token, got %x", []byte(got))
	}
	if len(got) != 65 {
		t.Fatalf("expected uncompressed P-256 point, got %d bytes", len(got))
	}
}

func TestSenderClassifiesStatus(t *testing.T) {
	p256dh, auth := clientKeys(t)
	store := newTestStore(t)
	sender := NewSender(newKeyStore(t, store, "test"), "ops@example.com", 60, util.DiscardLogger())

	tests := []struct {
		status    int
		wantErr   bool
		permanent bool
		gone      bool
	}{
		{status: http.StatusCreated},
		{status: http.StatusGone, wantErr: true, permanent: true, gone: true},
		{status: http.StatusNotFound, wantErr: true, permanent: true, gone: true},
		{status: http.StatusBadRequest, wantErr: true, permanent: true},
		{status: http.StatusTooManyRequests, wantErr: true},
		{status: http.StatusBadGateway, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Content-Encoding") != "aes128gcm" {
					t.Errorf("expected encrypted body, got encoding %q", r.Header.Get("Content-Encoding"))
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			sub := &subscription.Subscription{
				ID:                  "s1",
				WebPushSubscription: subscription.WebPushSubscription{Endpoint: srv.URL, P256dh: p256dh, Auth: auth},
			}
			err := sender.Send(context.Background(), sub, delivery.Notification{Message: "hello"})

			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error %v", err)
			}
			if delivery.IsPermanent(err) != tt.permanent || delivery.IsGone(err) != tt.gone {
				t.Fatalf("status %d: permanent=%v gone=%v", tt.status, delivery.IsPermanent(err), delivery.IsGone(err))
			}
		})
	}
}

func TestSenderRejectsMissingEndpoint(t *testing.T) {
	sender := NewSender(newKeyStore(t, newTestStore(t), "test"), "ops@example.com", 60, util.DiscardLogger())

	err := sender.Send(context.Background(), &subscription.Subscription{ID: "s1"}, delivery.Notification{Message: "x"})
	if !delivery.IsPermanent(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestValidation(t *testing.T) {
	p256dh, auth := clientKeys(t)

	if _, err := normalizeP256DH(p256dh + "=="); err != nil {
		t.Fatalf("padded key should be accepted: %v", err)
	}
	if _, err := normalizeP256DH(base64.RawURLEncoding.EncodeToString(make([]byte, 65))); !errors.Is(err, errInvalidP256dh) {
		t.Fatalf("expected invalid point error, got %v", err)
	}
	if _, err := normalizeAuthSecret(auth); err != nil {
		t.Fatalf("auth: %v", err)
	}
	if _, err := normalizeAuthSecret("AAAA"); !errors.Is(err, errInvalidAuth) {
		t.Fatalf("expected auth length error, got %v", err)
	}
	if err := validatePushEndpoint("http://push.example.com/x", true); err == nil {
		t.Fatal("expected https requirement")
	}
	if err := validatePushEndpoint("not a url", false); !errors.Is(err, errInvalidEndpoint) {
		t.Fatalf("expected invalid endpoint, got %v", err)
	}
}

func TestSubscriptionRoutes(t *testing.T) {
	store := newTestStore(t)
	router := chi.NewRouter()
	noAuth := func(next http.Handler) http.Handler { return next }
	RegisterRoutes(router, store, newKeyStore(t, store, "test"), util.DiscardLogger(), noAuth)

	p256dh, auth := clientKeys(t)
	body, _ := json.Marshal(map[string]string{
		"deviceName":   "phone",
		"pushEndpoint": "https://push.example.com/abc",
		"p256dh":       p256dh,
		"auth":         auth,
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/webpush/subscriptions", bytes.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id := created["subscriptionId"]
	if id == "" {
		t.Fatal("expected subscription ID")
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/webpush/subscriptions", bytes.NewReader([]byte(`{"pushEndpoint":"https://x"}`))))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing keys, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/webpush/vapid", nil))
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("publicKey")) {
		t.Fatalf("unexpected vapid response %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/webpush/subscriptions/"+id, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on get, got %d", w.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["pushEndpoint"] != "https://push.example.com/abc" || got["deviceName"] != "phone" {
		t.Fatalf("unexpected subscription %+v", got)
	}
	if _, leaked := got["auth"]; leaked {
		t.Fatal("subscription keys must not be returned")
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/webpush/subscriptions/"+id, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/webpush/subscriptions/"+id, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/webpush/subscriptions/"+id, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}
