package news

import (
	"context"
	"log/slog"
	"time"

	"newscast/service/payload"
)

// Maker turns notification payloads into stored news items.
type Maker struct {
	store  *Store
	logger *slog.Logger
	now    func() time.Time
}

func NewMaker(store *Store, logger *slog.Logger) *Maker {
	return &Maker{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (m *Maker) MakeNewsItem(ctx context.Context, aps payload.APS) (*Item, error) {
	item, err := NewItem(aps, m.now())
	if err != nil {
		m.logger.Debug("Payload is not a news item", "error", err)
		return nil, err
	}

	if err := m.store.Add(ctx, item); err != nil {
		m.logger.Error("Failed to store news item", "id", item.ID, "error", err)
		return nil, err
	}

	m.logger.Info("Added news item", "id", item.ID, "title", item.Title, "link", item.Link)
	return item, nil
}
