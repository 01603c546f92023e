// Package registration asks for notification permission, registers the
// actionable news category and registers the device for remote pushes.
package registration

import (
	"context"
	"log/slog"
	"time"

	"newscast/service/util"
)

type Permission int

const (
	PermissionDenied Permission = iota
	PermissionAuthorized
)

func (p Permission) String() string {
	if p == PermissionAuthorized {
		return "authorized"
	}
	return "denied"
}

type Service struct {
	center  Center
	remote  RemoteRegistrar
	devices *DeviceStore
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(center Center, remote RemoteRegistrar, devices *DeviceStore, logger *slog.Logger) *Service {
	return &Service{
		center:  center,
		remote:  remote,
		devices: devices,
		logger:  logger,
		now:     time.Now,
	}
}

// RequestPermission prompts for alert, sound and badge permission. On grant it
// replaces the registered categories with the news category and runs
// CheckAuthorization. A denial is not an error.
func (s *Service) RequestPermission(ctx context.Context) (Permission, error) {
	granted, err := s.center.RequestAuthorization(ctx, OptionAlert|OptionSound|OptionBadge)
	if err != nil {
		return PermissionDenied, util.LogError(s.logger, "Failed to request notification permission", err)
	}

	s.logger.Info("Permission granted", "granted", granted)
	if !granted {
		return PermissionDenied, nil
	}

	s.center.SetNotificationCategories([]Category{NewsCategory()})

	if _, err := s.CheckAuthorization(ctx); err != nil {
		return PermissionAuthorized, err
	}
	return PermissionAuthorized, nil
}

// CheckAuthorization re-reads the granted settings and registers for remote
// notifications only when they are authorized.
func (s *Service) CheckAuthorization(ctx context.Context) (Settings, error) {
	settings, err := s.center.NotificationSettings(ctx)
	if err != nil {
		return Settings{}, util.LogError(s.logger, "Failed to read notification settings", err)
	}

	s.logger.Info("Notification settings",
		"status", settings.AuthorizationStatus,
		"alert", settings.Alert,
		"sound", settings.Sound,
		"badge", settings.Badge)

	if settings.AuthorizationStatus != StatusAuthorized {
		return settings, nil
	}

	if err := s.remote.RegisterForRemoteNotifications(ctx); err != nil {
		s.DidFailToRegisterForRemoteNotifications(err)
	}
	return settings, nil
}

func (s *Service) DidRegisterForRemoteNotifications(ctx context.Context, token DeviceToken) error {
	s.logger.Info("Device Token", "token", token.String())

	if s.devices == nil {
		return nil
	}
	if err := s.devices.Save(ctx, token, s.now()); err != nil {
		return util.LogError(s.logger, "Failed to store device token", err)
	}
	return nil
}

func (s *Service) DidFailToRegisterForRemoteNotifications(err error) {
	s.logger.Error("Failed to register", "error", err)
}
