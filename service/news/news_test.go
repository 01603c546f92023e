package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"newscast/service/payload"
	"newscast/service/storage"
	"newscast/service/util"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

func TestNewItem(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	item, err := NewItem(payload.APS{"alert": "Breaking News!", "link_url": "https://example.com/a"}, now)
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	if item.Title != "Breaking News!" || item.Link != "https://example.com/a" || !item.Date.Equal(now) {
		t.Fatalf("unexpected item %+v", item)
	}
	if item.ID == "" {
		t.Fatal("expected generated ID")
	}

	item, err = NewItem(payload.APS{
		"alert":    map[string]any{"title": "Podcast", "body": "New episode"},
		"link_url": "https://example.com/b",
	}, now)
	if err != nil {
		t.Fatalf("new item from alert object: %v", err)
	}
	if item.Title != "Podcast: New episode" {
		t.Fatalf("unexpected title %q", item.Title)
	}
}

func TestNewItemIncomplete(t *testing.T) {
	cases := []payload.APS{
		{"alert": "no link"},
		{"link_url": "https://example.com"},
		{"alert": "  ", "link_url": "https://example.com"},
		{"content-available": 1},
	}

	for _, aps := range cases {
		if _, err := NewItem(aps, time.Now()); !errors.Is(err, ErrIncompleteItem) {
			t.Fatalf("expected ErrIncompleteItem for %v, got %v", aps, err)
		}
	}
}

func TestMakerStoresItems(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	maker := NewMaker(store, util.DiscardLogger())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	maker.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := maker.MakeNewsItem(ctx, payload.APS{"alert": "one", "link_url": "https://example.com/1"})
	if err != nil {
		t.Fatalf("make first: %v", err)
	}
	if _, err := maker.MakeNewsItem(ctx, payload.APS{"alert": "two", "link_url": "https://example.com/2"}); err != nil {
		t.Fatalf("make second: %v", err)
	}
	if _, err := maker.MakeNewsItem(ctx, payload.APS{"alert": "broken"}); err == nil {
		t.Fatal("expected error for incomplete item")
	}

	items, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "two" {
		t.Fatalf("expected newest first, got %q", items[0].Title)
	}

	got, err := store.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Link != "https://example.com/1" {
		t.Fatalf("unexpected stored item %+v", got)
	}

	missing, err := store.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing item, got %+v, %v", missing, err)
	}
}
