package webpush

import (
	"log/slog"
	"net/http"

	"newscast/service/subscription"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(router chi.Router, store *subscription.Store, keys *KeyStore, logger *slog.Logger, authMiddleware func(http.Handler) http.Handler) {
	handlers := NewHandlers(store, keys, logger)

	router.Route("/api/v1/webpush", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/vapid", handlers.HandleVAPIDKey)
		r.Post("/subscriptions", handlers.HandleRegister)
		r.Get("/subscriptions/{subscriptionId}", handlers.HandleGet)
		r.Delete("/subscriptions/{subscriptionId}", handlers.HandleUnregister)
	})
}
