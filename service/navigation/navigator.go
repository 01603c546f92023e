// Package navigation reacts to the user opening a notification: it switches
// the app to the News tab and, for the View action, opens the item link.
package navigation

import (
	"context"
	"log/slog"
	"net/url"

	"newscast/service/completion"
	"newscast/service/news"
	"newscast/service/payload"
	"newscast/service/registration"
)

const TabNews = 1

// Host is the UI the navigator drives.
type Host interface {
	SelectTab(index int)
	PresentBrowser(u *url.URL)
}

type ItemMaker interface {
	MakeNewsItem(ctx context.Context, aps payload.APS) (*news.Item, error)
}

// Response is the user's interaction with a delivered notification.
type Response struct {
	ActionIdentifier string         `json:"actionIdentifier"`
	Payload          map[string]any `json:"payload"`
}

type Outcome struct {
	Item         *news.Item `json:"item,omitempty"`
	SelectedTab  *int       `json:"selectedTab,omitempty"`
	PresentedURL string     `json:"presentedUrl,omitempty"`
	Category     string     `json:"category,omitempty"`
	Err          error      `json:"-"`
}

type Navigator struct {
	maker  ItemMaker
	host   Host
	logger *slog.Logger
}

func NewNavigator(maker ItemMaker, host Host, logger *slog.Logger) *Navigator {
	return &Navigator{
		maker:  maker,
		host:   host,
		logger: logger,
	}
}

// HandleResponse navigates for resp. The returned signal is always completed.
func (n *Navigator) HandleResponse(ctx context.Context, resp Response) *completion.Signal[Outcome] {
	done := completion.New[Outcome]()
	defer func() {
		if p := recover(); p != nil {
			n.logger.Error("Notification response handler panicked", "panic", p)
			done.Complete(Outcome{})
		}
	}()

	out := n.openNews(ctx, resp.Payload)
	if out.Item != nil && resp.ActionIdentifier == registration.ViewActionIdentifier {
		if u, ok := browsableURL(out.Item.Link); ok {
			n.host.PresentBrowser(u)
			out.PresentedURL = u.String()
		} else {
			n.logger.Warn("News item link is not a browsable URL", "link", out.Item.Link)
		}
	}

	done.Complete(out)
	return done
}

// HandleLaunch handles an app launch triggered by a notification.
func (n *Navigator) HandleLaunch(ctx context.Context, raw map[string]any) *completion.Signal[Outcome] {
	done := completion.New[Outcome]()
	done.Complete(n.openNews(ctx, raw))
	return done
}

func (n *Navigator) openNews(ctx context.Context, raw map[string]any) Outcome {
	notif, err := payload.FromMap(raw)
	if err != nil {
		n.logger.Warn("Ignoring notification response with malformed payload", "error", err)
		return Outcome{Err: err}
	}

	category := notif.Category()
	item, err := n.maker.MakeNewsItem(ctx, notif.APS)
	if err != nil || item == nil {
		n.logger.Debug("Notification response did not produce a news item", "category", category, "error", err)
		return Outcome{Category: category, Err: err}
	}

	n.host.SelectTab(TabNews)
	tab := TabNews
	return Outcome{Item: item, SelectedTab: &tab, Category: category}
}

func browsableURL(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}
