package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"newscast/service/bus"
	"newscast/service/config"
	"newscast/service/credentials"
	"newscast/service/delivery"
	"newscast/service/integration/webpush"
	"newscast/service/navigation"
	"newscast/service/news"
	"newscast/service/podcast"
	"newscast/service/registration"
	"newscast/service/routing"
	"newscast/service/storage"
	"newscast/service/subscription"
	"newscast/service/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	cfg     *config.Config
	version string
	db      *sqlx.DB
	logger  *slog.Logger

	bus           *bus.PubSubBus
	categories    *registration.CategoryRegistry
	devices       *registration.DeviceStore
	registration  *registration.Service
	newsStore     *news.Store
	podcasts      *podcast.Store
	router        *routing.Router
	navigator     *navigation.Navigator
	host          *navigation.BusHost
	subscriptions *subscription.Store
	vapidKeys     *webpush.KeyStore
	publisher     *delivery.Publisher

	mux        *chi.Mux
	httpServer *http.Server
	startTime  time.Time

	// shutdown is closed when the server starts shutting down so long-lived
	// streams can return; http.Server.Shutdown does not cancel their contexts.
	shutdown     chan struct{}
	shutdownOnce sync.Once
	closeOnce    sync.Once
	closeErr     error
}

func New(cfg *config.Config, logger *slog.Logger, version string) (*Server, error) {
	status, err := registration.ParseAuthorizationStatus(cfg.NotificationAuthorization)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		version:   version,
		db:        db,
		logger:    logger,
		startTime: time.Now(),
		shutdown:  make(chan struct{}),
	}

	if err := s.wire(status); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) wire(status registration.AuthorizationStatus) error {
	var err error

	if s.newsStore, err = news.NewStore(s.db); err != nil {
		return fmt.Errorf("failed to create news store: %w", err)
	}
	if s.podcasts, err = podcast.NewStore(s.db, s.cfg.PodcastFeedURL, s.cfg.PodcastFeedTimeout, s.logger.With("component", "podcast")); err != nil {
		return fmt.Errorf("failed to create podcast store: %w", err)
	}
	if s.devices, err = registration.NewDeviceStore(s.db); err != nil {
		return fmt.Errorf("failed to create device store: %w", err)
	}
	if s.subscriptions, err = subscription.NewStore(s.db); err != nil {
		return fmt.Errorf("failed to create subscription store: %w", err)
	}

	s.bus = bus.New(s.logger.With("component", "bus"))
	s.host = navigation.NewBusHost(s.bus)

	maker := news.NewMaker(s.newsStore, s.logger.With("component", "news"))
	s.router = routing.NewRouter(s.podcasts, maker, s.cfg.BackgroundFetchTimeout, s.logger.With("component", "router"))
	s.navigator = navigation.NewNavigator(maker, s.host, s.logger.With("component", "navigator"))

	sealer, err := credentials.NewSealer(s.cfg.APIKey)
	if err != nil {
		return err
	}
	s.vapidKeys = webpush.NewKeyStore(s.subscriptions, sealer, s.logger.With("component", "vapid"))
	registrar := webpush.NewRegistrar(s.vapidKeys, s.logger.With("component", "webpush"))

	s.categories = registration.NewCategoryRegistry()
	s.registration = registration.NewService(
		registration.NewLocalCenter(status, s.categories),
		registrar,
		s.devices,
		s.logger.With("component", "registration"),
	)
	registrar.OnToken(s.registration.DidRegisterForRemoteNotifications)

	sender := webpush.NewSender(s.vapidKeys, s.cfg.VAPIDSubscriber, s.cfg.WebPushTTL, s.logger.With("component", "webpush"))
	s.publisher = delivery.NewPublisher(s.subscriptions, sender, s.cfg.DeliveryMaxRetries, s.cfg.DeliveryBaseDelay, s.logger.With("component", "delivery"))

	return nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(s.logger))
	r.Use(securityHeadersMiddleware())
	r.Use(middleware.StripSlashes)
	if s.cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(s.cfg.RateLimit, time.Minute))
	}

	auth := authMiddleware(s.cfg.APIKey)

	r.Get("/health", s.handleHealth)

	// The event stream stays open, so it sits outside the request timeout.
	r.With(auth).Get("/api/v1/events", s.handleEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.BackgroundFetchTimeout + 5*time.Second))
		r.Use(auth)

		r.Route("/api/v1/registration", func(r chi.Router) {
			r.Post("/permission", s.handleRequestPermission)
			r.Get("/settings", s.handleCheckAuthorization)
			r.Get("/categories", s.handleListCategories)
			r.Get("/categories/{identifier}", s.handleGetCategory)
		})

		r.Route("/api/v1/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/token", s.handleDeviceToken)
			r.Post("/token/error", s.handleDeviceTokenError)
		})

		r.Route("/api/v1/notifications", func(r chi.Router) {
			r.Post("/remote", s.handleRemoteNotification)
			r.Post("/response", s.handleNotificationResponse)
			r.Post("/launch", s.handleLaunch)
		})

		r.Get("/api/v1/navigation", s.handleNavigationState)

		r.Route("/api/v1/news", func(r chi.Router) {
			r.Get("/", s.handleListNews)
			r.Post("/publish", s.handlePublishNews)
			r.Get("/{id}/qr", s.handleNewsQR)
		})

		r.Route("/api/v1/podcasts", func(r chi.Router) {
			r.Get("/", s.handleListPodcasts)
			r.Post("/refresh", s.handleRefreshPodcasts)
		})
	})

	webpush.RegisterRoutes(r, s.subscriptions, s.vapidKeys, s.logger.With("component", "webpush"), auth)

	s.mux = r
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	msg := fmt.Sprintf("Newscast running on:\n  Local: http://localhost:%d", s.cfg.Port)
	if lanIP := util.GetLANIP(); lanIP != "" {
		msg += fmt.Sprintf("\n  Network: http://%s:%d", lanIP, s.cfg.Port)
	}
	s.logger.Info(msg)

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:     s.mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	s.httpServer.RegisterOnShutdown(s.beginShutdown)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return errors.Join(err, s.Close())
	}
}

func (s *Server) beginShutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdown) })
}

// Shutdown stops the HTTP server and always releases the bus and database,
// even when draining connections times out.
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down server")
	s.beginShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var shutdownErr error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("failed to shutdown http server: %w", err)
		}
	}

	return errors.Join(shutdownErr, s.Close())
}

// Close releases the bus and the database without touching the HTTP listener.
// It is safe to call more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.beginShutdown()
		s.bus.Close()

		if err := s.db.Close(); err != nil {
			s.closeErr = fmt.Errorf("failed to close store: %w", err)
		}
	})
	return s.closeErr
}
