package podcast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
)

func newParser(client *http.Client) *gofeed.Parser {
	fp := gofeed.NewParser()
	fp.Client = client
	fp.UserAgent = "newscast"
	return fp
}

// FetchFeed downloads an RSS or Atom document and returns its episodes in
// feed order.
func FetchFeed(ctx context.Context, client *http.Client, feedURL string) ([]Episode, error) {
	feed, err := newParser(client).ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	return episodesFrom(feed), nil
}

func ParseFeed(r io.Reader) ([]Episode, error) {
	feed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return episodesFrom(feed), nil
}

// episodesFrom keys episodes by GUID, falling back to the link. Items with
// neither are skipped.
func episodesFrom(feed *gofeed.Feed) []Episode {
	episodes := make([]Episode, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		guid := strings.TrimSpace(item.GUID)
		if guid == "" {
			guid = link
		}
		if guid == "" {
			continue
		}

		ep := Episode{
			GUID:  guid,
			Title: strings.TrimSpace(item.Title),
			Link:  link,
		}
		switch {
		case item.PublishedParsed != nil:
			ep.PublishedAt = item.PublishedParsed.UTC()
		case item.UpdatedParsed != nil:
			ep.PublishedAt = item.UpdatedParsed.UTC()
		}
		episodes = append(episodes, ep)
	}
	return episodes
}
