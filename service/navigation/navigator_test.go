package navigation

import (
	"context"
	"net/url"
	"testing"
	"time"

	"newscast/service/bus"
	"newscast/service/news"
	"newscast/service/payload"
	"newscast/service/registration"
	"newscast/service/util"
)

type recordingHost struct {
	tabs []int
	urls []string
}

func (h *recordingHost) SelectTab(index int) { h.tabs = append(h.tabs, index) }

func (h *recordingHost) PresentBrowser(u *url.URL) { h.urls = append(h.urls, u.String()) }

type stubMaker struct {
	link string
	fail bool
}

func (m *stubMaker) MakeNewsItem(ctx context.Context, aps payload.APS) (*news.Item, error) {
	if m.fail {
		return nil, news.ErrIncompleteItem
	}
	return &news.Item{ID: "n1", Title: "Breaking", Link: m.link}, nil
}

func respond(t *testing.T, n *Navigator, resp Response) (Outcome, int) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	signal := n.HandleResponse(ctx, resp)
	out, err := signal.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	return out, signal.Attempts()
}

func newsPayload() map[string]any {
	return map[string]any{"aps": map[string]any{"alert": "Breaking", "link_url": "https://example.com/a"}}
}

func TestViewActionPresentsBrowser(t *testing.T) {
	host := &recordingHost{}
	nav := NewNavigator(&stubMaker{link: "https://example.com/a"}, host, util.DiscardLogger())

	out, attempts := respond(t, nav, Response{ActionIdentifier: registration.ViewActionIdentifier, Payload: newsPayload()})

	if len(host.tabs) != 1 || host.tabs[0] != TabNews {
		t.Fatalf("expected switch to news tab, got %v", host.tabs)
	}
	if len(host.urls) != 1 || host.urls[0] != "https://example.com/a" {
		t.Fatalf("expected browser with exact URL, got %v", host.urls)
	}
	if out.PresentedURL != "https://example.com/a" || attempts != 1 {
		t.Fatalf("unexpected outcome %+v (attempts %d)", out, attempts)
	}
}

func TestOutcomeCarriesCategory(t *testing.T) {
	host := &recordingHost{}
	nav := NewNavigator(&stubMaker{link: "https://example.com/a"}, host, util.DiscardLogger())

	raw := newsPayload()
	raw["aps"].(map[string]any)["category"] = registration.NewsCategoryIdentifier

	out, _ := respond(t, nav, Response{ActionIdentifier: registration.ViewActionIdentifier, Payload: raw})
	if out.Category != registration.NewsCategoryIdentifier {
		t.Fatalf("expected %s, got %q", registration.NewsCategoryIdentifier, out.Category)
	}

	out, _ = respond(t, nav, Response{Payload: newsPayload()})
	if out.Category != "" {
		t.Fatalf("expected no category, got %q", out.Category)
	}
}

func TestDefaultActionOnlySwitchesTab(t *testing.T) {
	host := &recordingHost{}
	nav := NewNavigator(&stubMaker{link: "https://example.com/a"}, host, util.DiscardLogger())

	_, attempts := respond(t, nav, Response{ActionIdentifier: "com.apple.UNNotificationDefaultActionIdentifier", Payload: newsPayload()})

	if len(host.tabs) != 1 || len(host.urls) != 0 || attempts != 1 {
		t.Fatalf("unexpected navigation tabs=%v urls=%v attempts=%d", host.tabs, host.urls, attempts)
	}
}

func TestInvalidLinkSkipsBrowser(t *testing.T) {
	for _, link := range []string{"not a url", "javascript:alert(1)", "/relative", "ftp://example.com/x"} {
		host := &recordingHost{}
		nav := NewNavigator(&stubMaker{link: link}, host, util.DiscardLogger())

		_, attempts := respond(t, nav, Response{ActionIdentifier: registration.ViewActionIdentifier, Payload: newsPayload()})

		if len(host.tabs) != 1 {
			t.Fatalf("%q: expected tab switch, got %v", link, host.tabs)
		}
		if len(host.urls) != 0 {
			t.Fatalf("%q: expected no browser, got %v", link, host.urls)
		}
		if attempts != 1 {
			t.Fatalf("%q: expected one completion, got %d", link, attempts)
		}
	}
}

func TestFailedConstructionSkipsNavigation(t *testing.T) {
	host := &recordingHost{}
	nav := NewNavigator(&stubMaker{fail: true}, host, util.DiscardLogger())

	out, attempts := respond(t, nav, Response{ActionIdentifier: registration.ViewActionIdentifier, Payload: newsPayload()})

	if len(host.tabs) != 0 || len(host.urls) != 0 {
		t.Fatalf("expected no navigation, got tabs=%v urls=%v", host.tabs, host.urls)
	}
	if out.Item != nil || out.SelectedTab != nil || attempts != 1 {
		t.Fatalf("unexpected outcome %+v (attempts %d)", out, attempts)
	}
}

func TestMalformedPayloadStillCompletes(t *testing.T) {
	host := &recordingHost{}
	nav := NewNavigator(&stubMaker{link: "https://example.com/a"}, host, util.DiscardLogger())

	out, attempts := respond(t, nav, Response{ActionIdentifier: registration.ViewActionIdentifier, Payload: map[string]any{"alert": "x"}})

	if len(host.tabs) != 0 || out.Err == nil || attempts != 1 {
		t.Fatalf("unexpected outcome %+v tabs=%v attempts=%d", out, host.tabs, attempts)
	}
}

func TestHandleLaunchSelectsNewsTab(t *testing.T) {
	host := &recordingHost{}
	nav := NewNavigator(&stubMaker{link: "https://example.com/a"}, host, util.DiscardLogger())

	out, err := nav.HandleLaunch(context.Background(), newsPayload()).Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(host.tabs) != 1 || len(host.urls) != 0 || out.SelectedTab == nil || *out.SelectedTab != TabNews {
		t.Fatalf("unexpected launch navigation %+v tabs=%v urls=%v", out, host.tabs, host.urls)
	}
}

func TestBusHostPublishesCommands(t *testing.T) {
	b := bus.New(util.DiscardLogger())
	defer b.Close()

	sub := b.Subscribe(bus.TopicNavigation)
	host := NewBusHost(b)

	host.SelectTab(TabNews)
	u, _ := url.Parse("https://example.com/a")
	host.PresentBrowser(u)

	var got []Command
	for len(got) < 2 {
		select {
		case msg := <-sub:
			got = append(got, msg.(Command))
		case <-time.After(time.Second):
			t.Fatalf("timed out, got %+v", got)
		}
	}

	if got[0].Type != CommandSelectTab || got[0].Tab != TabNews {
		t.Fatalf("unexpected first command %+v", got[0])
	}
	if got[1].Type != CommandPresentBrowser || got[1].URL != "https://example.com/a" {
		t.Fatalf("unexpected second command %+v", got[1])
	}

	state := host.State()
	if state.SelectedTab != TabNews || state.PresentedURL != "https://example.com/a" {
		t.Fatalf("unexpected state %+v", state)
	}
}
