package podcast

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"newscast/service/storage"

	"github.com/jmoiron/sqlx"
)

type Episode struct {
	GUID        string    `json:"guid" db:"guid"`
	Title       string    `json:"title" db:"title"`
	Link        string    `json:"link" db:"link"`
	PublishedAt time.Time `json:"publishedAt" db:"published_at"`
}

type Store struct {
	db      *sqlx.DB
	client  *http.Client
	feedURL string
	logger  *slog.Logger

	// refreshMu serializes refreshes so overlapping silent pushes do not
	// both report the same episodes as new.
	refreshMu sync.Mutex
}

func NewStore(db *sqlx.DB, feedURL string, timeout time.Duration, logger *slog.Logger) (*Store, error) {
	if err := storage.Migrate(db,
		`CREATE TABLE IF NOT EXISTS podcast_episodes (
			guid TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			link TEXT NOT NULL,
			published_at DATETIME NOT NULL
		)`,
	); err != nil {
		return nil, err
	}

	return &Store{
		db:      db,
		client:  &http.Client{Timeout: timeout},
		feedURL: feedURL,
		logger:  logger,
	}, nil
}

// RefreshItems pulls the feed and reports whether any episode was not stored yet.
func (s *Store) RefreshItems(ctx context.Context) (bool, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	episodes, err := FetchFeed(ctx, s.client, s.feedURL)
	if err != nil {
		return false, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	added := 0
	for _, ep := range episodes {
		res, err := tx.NamedExecContext(ctx, `
			INSERT INTO podcast_episodes (guid, title, link, published_at)
			VALUES (:guid, :title, :link, :published_at)
			ON CONFLICT(guid) DO NOTHING`, ep)
		if err != nil {
			return false, fmt.Errorf("failed to store episode %s: %w", ep.GUID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit episodes: %w", err)
	}

	s.logger.Info("Refreshed podcast feed", "episodes", len(episodes), "new", added)
	return added > 0, nil
}

func (s *Store) List(ctx context.Context, limit int) ([]Episode, error) {
	if limit <= 0 {
		limit = 50
	}
	episodes := make([]Episode, 0)
	err := s.db.SelectContext(ctx, &episodes,
		`SELECT guid, title, link, published_at FROM podcast_episodes ORDER BY published_at DESC LIMIT ?`, limit)
	return episodes, err
}
