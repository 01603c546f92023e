package registration

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"newscast/service/storage"

	"github.com/jmoiron/sqlx"
)

// DeviceToken is the opaque push token handed out by the push provider.
type DeviceToken []byte

// String renders the token as lowercase hex, two digits per byte.
func (t DeviceToken) String() string {
	return hex.EncodeToString(t)
}

func ParseDeviceToken(raw string) (DeviceToken, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("device token is empty")
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("device token is not hex: %w", err)
	}
	return DeviceToken(b), nil
}

type Device struct {
	Token     string    `json:"token" db:"token"`
	FirstSeen time.Time `json:"firstSeen" db:"first_seen"`
	LastSeen  time.Time `json:"lastSeen" db:"last_seen"`
}

type DeviceStore struct {
	db *sqlx.DB
}

func NewDeviceStore(db *sqlx.DB) (*DeviceStore, error) {
	if err := storage.Migrate(db,
		`CREATE TABLE IF NOT EXISTS devices (
			token TEXT PRIMARY KEY,
			first_seen DATETIME NOT NULL,
			last_seen DATETIME NOT NULL
		)`,
	); err != nil {
		return nil, err
	}
	return &DeviceStore{db: db}, nil
}

func (s *DeviceStore) Save(ctx context.Context, token DeviceToken, now time.Time) error {
	now = now.UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (token, first_seen, last_seen) VALUES (?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET last_seen = excluded.last_seen`,
		token.String(), now, now)
	return err
}

func (s *DeviceStore) List(ctx context.Context) ([]Device, error) {
	devices := make([]Device, 0)
	err := s.db.SelectContext(ctx, &devices,
		`SELECT token, first_seen, last_seen FROM devices ORDER BY last_seen DESC`)
	return devices, err
}
