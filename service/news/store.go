package news

import (
	"context"
	"database/sql"
	"errors"

	"newscast/service/storage"

	"github.com/jmoiron/sqlx"
)

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) (*Store, error) {
	if err := storage.Migrate(db,
		`CREATE TABLE IF NOT EXISTS news_items (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			link TEXT NOT NULL,
			date DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_news_items_date ON news_items(date)`,
	); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Add(ctx context.Context, item *Item) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO news_items (id, title, link, date) VALUES (:id, :title, :link, :date)`, item)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*Item, error) {
	var item Item
	err := s.db.GetContext(ctx, &item, `SELECT id, title, link, date FROM news_items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) List(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 50
	}
	items := make([]Item, 0)
	err := s.db.SelectContext(ctx, &items,
		`SELECT id, title, link, date FROM news_items ORDER BY date DESC, rowid DESC LIMIT ?`, limit)
	return items, err
}
