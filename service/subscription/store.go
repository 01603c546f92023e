package subscription

import (
	"context"
	"database/sql"
	"errors"

	"newscast/service/storage"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Store struct {
	DB *sqlx.DB
}

func NewStore(db *sqlx.DB) (*Store, error) {
	if err := storage.Migrate(db,
		`CREATE TABLE IF NOT EXISTS webpush_subscriptions (
			id TEXT PRIMARY KEY,
			device_name TEXT NOT NULL DEFAULT '',
			endpoint TEXT NOT NULL UNIQUE,
			p256dh TEXT NOT NULL,
			auth TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Add stores sub and returns its ID. Re-subscribing an endpoint refreshes its
// keys and keeps the original ID.
func (s *Store) Add(ctx context.Context, sub Subscription) (string, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	var id string
	err := s.DB.QueryRowxContext(ctx, `
		INSERT INTO webpush_subscriptions (id, device_name, endpoint, p256dh, auth)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET p256dh = excluded.p256dh, auth = excluded.auth, device_name = excluded.device_name
		RETURNING id`,
		sub.ID, sub.DeviceName, sub.Endpoint, sub.P256dh, sub.Auth).Scan(&id)
	return id, err
}

func (s *Store) Get(ctx context.Context, id string) (*Subscription, error) {
	var sub Subscription
	err := s.DB.GetContext(ctx, &sub,
		`SELECT id, device_name, endpoint, p256dh, auth FROM webpush_subscriptions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Store) List(ctx context.Context) ([]Subscription, error) {
	subs := make([]Subscription, 0)
	err := s.DB.SelectContext(ctx, &subs,
		`SELECT id, device_name, endpoint, p256dh, auth FROM webpush_subscriptions ORDER BY rowid`)
	return subs, err
}

// Delete removes a subscription and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM webpush_subscriptions WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.DB.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
