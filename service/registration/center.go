package registration

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type AuthorizationStatus int

const (
	StatusNotDetermined AuthorizationStatus = iota
	StatusDenied
	StatusAuthorized
	StatusProvisional
)

func (s AuthorizationStatus) String() string {
	switch s {
	case StatusDenied:
		return "denied"
	case StatusAuthorized:
		return "authorized"
	case StatusProvisional:
		return "provisional"
	default:
		return "notDetermined"
	}
}

func (s AuthorizationStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func ParseAuthorizationStatus(raw string) (AuthorizationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "authorized":
		return StatusAuthorized, nil
	case "denied":
		return StatusDenied, nil
	case "provisional":
		return StatusProvisional, nil
	case "notdetermined", "":
		return StatusNotDetermined, nil
	default:
		return StatusNotDetermined, fmt.Errorf("unknown authorization status %q", raw)
	}
}

type AuthorizationOptions uint8

const (
	OptionAlert AuthorizationOptions = 1 << iota
	OptionSound
	OptionBadge
)

type Settings struct {
	AuthorizationStatus AuthorizationStatus `json:"authorizationStatus"`
	Alert               bool                `json:"alert"`
	Sound               bool                `json:"sound"`
	Badge               bool                `json:"badge"`
}

// Center is the platform notification center: permission prompts, category
// registration and settings queries.
type Center interface {
	RequestAuthorization(ctx context.Context, options AuthorizationOptions) (bool, error)
	SetNotificationCategories(categories []Category)
	NotificationSettings(ctx context.Context) (Settings, error)
}

// RemoteRegistrar asks the push provider for a device token. The token is
// reported back through Service.DidRegisterForRemoteNotifications.
type RemoteRegistrar interface {
	RegisterForRemoteNotifications(ctx context.Context) error
}

// LocalCenter answers permission requests from a configured status.
type LocalCenter struct {
	mu         sync.Mutex
	status     AuthorizationStatus
	categories *CategoryRegistry
	granted    AuthorizationOptions
}

func NewLocalCenter(status AuthorizationStatus, categories *CategoryRegistry) *LocalCenter {
	return &LocalCenter{
		status:     status,
		categories: categories,
	}
}

func (c *LocalCenter) RequestAuthorization(ctx context.Context, options AuthorizationOptions) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if c.status != StatusAuthorized && c.status != StatusProvisional {
		return false, nil
	}
	c.mu.Lock()
	c.granted = options
	c.mu.Unlock()
	return true, nil
}

func (c *LocalCenter) SetNotificationCategories(categories []Category) {
	c.categories.Set(categories)
}

func (c *LocalCenter) NotificationSettings(ctx context.Context) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Settings{
		AuthorizationStatus: c.status,
		Alert:               c.granted&OptionAlert != 0,
		Sound:               c.granted&OptionSound != 0,
		Badge:               c.granted&OptionBadge != 0,
	}, nil
}
