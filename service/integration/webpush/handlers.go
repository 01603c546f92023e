package webpush

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"newscast/service/subscription"
	"newscast/service/util"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	store  *subscription.Store
	keys   *KeyStore
	logger *slog.Logger
}

func NewHandlers(store *subscription.Store, keys *KeyStore, logger *slog.Logger) *Handlers {
	return &Handlers{
		store:  store,
		keys:   keys,
		logger: logger,
	}
}

type registerRequest struct {
	DeviceName   string `json:"deviceName"`
	PushEndpoint string `json:"pushEndpoint"`
	P256dh       string `json:"p256dh"`
	Auth         string `json:"auth"`
}

func (h *Handlers) HandleVAPIDKey(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keys.Ensure(r.Context())
	if err != nil {
		util.LogAndError(w, h.logger, "Failed to load VAPID keys", http.StatusInternalServerError, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]string{"publicKey": keys.Public})
}

func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.PushEndpoint == "" || req.P256dh == "" || req.Auth == "" {
		util.JSONError(w, "pushEndpoint, p256dh and auth are required", http.StatusBadRequest)
		return
	}

	if err := validatePushEndpoint(req.PushEndpoint, true); err != nil {
		util.JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	p256dh, err := normalizeP256DH(req.P256dh)
	if err != nil {
		util.JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	auth, err := normalizeAuthSecret(req.Auth)
	if err != nil {
		util.JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	subID, err := h.store.Add(r.Context(), subscription.Subscription{
		DeviceName: req.DeviceName,
		WebPushSubscription: subscription.WebPushSubscription{
			Endpoint: req.PushEndpoint,
			P256dh:   p256dh,
			Auth:     auth,
		},
	})
	if err != nil {
		util.LogAndError(w, h.logger, "Failed to add subscription", http.StatusInternalServerError, err)
		return
	}

	h.logger.Info("Added webpush subscription", "subscriptionID", subID, "pushEndpoint", req.PushEndpoint)

	util.WriteJSON(w, http.StatusCreated, map[string]string{
		"subscriptionId": subID,
	})
}

type subscriptionResponse struct {
	ID         string `json:"subscriptionId"`
	DeviceName string `json:"deviceName,omitempty"`
	Endpoint   string `json:"pushEndpoint"`
}

// HandleGet reports a subscription without its encryption keys.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	sub, err := h.store.Get(r.Context(), chi.URLParam(r, "subscriptionId"))
	if err != nil {
		util.LogAndError(w, h.logger, "Failed to load subscription", http.StatusInternalServerError, err)
		return
	}
	if sub == nil {
		util.JSONError(w, "Subscription not found", http.StatusNotFound)
		return
	}

	util.WriteJSON(w, http.StatusOK, subscriptionResponse{
		ID:         sub.ID,
		DeviceName: sub.DeviceName,
		Endpoint:   sub.Endpoint,
	})
}

func (h *Handlers) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	subscriptionID := chi.URLParam(r, "subscriptionId")
	if subscriptionID == "" {
		util.JSONError(w, "subscriptionId is required", http.StatusBadRequest)
		return
	}

	deleted, err := h.store.Delete(r.Context(), subscriptionID)
	if err != nil {
		util.LogAndError(w, h.logger, "Failed to delete subscription", http.StatusInternalServerError, err)
		return
	}
	if !deleted {
		util.JSONError(w, "Subscription not found", http.StatusNotFound)
		return
	}

	h.logger.Info("Deleted webpush subscription", "subscriptionID", subscriptionID)

	util.WriteJSON(w, http.StatusOK, map[string]string{
		"status":         "deleted",
		"subscriptionId": subscriptionID,
	})
}
