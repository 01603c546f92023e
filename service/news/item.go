package news

import (
	"errors"
	"strings"
	"time"

	"newscast/service/payload"

	"github.com/google/uuid"
)

var ErrIncompleteItem = errors.New("notification does not describe a news item")

type Item struct {
	ID    string    `json:"id" db:"id"`
	Title string    `json:"title" db:"title"`
	Link  string    `json:"link" db:"link"`
	Date  time.Time `json:"date" db:"date"`
}

// NewItem builds an item from an aps dictionary. The title comes from the alert
// (title and body joined when both are present) and the link from link_url.
func NewItem(aps payload.APS, now time.Time) (*Item, error) {
	title, body := aps.Alert()
	headline := strings.TrimSpace(strings.Join(nonEmpty(title, body), ": "))
	link := strings.TrimSpace(aps.Text(payload.KeyLinkURL))

	if headline == "" || link == "" {
		return nil, ErrIncompleteItem
	}

	return &Item{
		ID:    uuid.NewString(),
		Title: headline,
		Link:  link,
		Date:  now.UTC(),
	}, nil
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
