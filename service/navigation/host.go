package navigation

import (
	"net/url"
	"sync"
	"time"

	"newscast/service/bus"
)

const (
	CommandSelectTab      = "select_tab"
	CommandPresentBrowser = "present_browser"
)

// Command is a UI instruction forwarded to connected app clients.
type Command struct {
	Type string    `json:"type"`
	Tab  int       `json:"tab,omitempty"`
	URL  string    `json:"url,omitempty"`
	At   time.Time `json:"at"`
}

type State struct {
	SelectedTab  int    `json:"selectedTab"`
	PresentedURL string `json:"presentedUrl,omitempty"`
}

// BusHost is a Host that records navigation state and publishes every change
// on the navigation topic.
type BusHost struct {
	mu    sync.RWMutex
	state State
	bus   bus.MessageBus
	now   func() time.Time
}

func NewBusHost(b bus.MessageBus) *BusHost {
	return &BusHost{bus: b, now: time.Now}
}

func (h *BusHost) SelectTab(index int) {
	h.mu.Lock()
	h.state.SelectedTab = index
	h.state.PresentedURL = ""
	h.mu.Unlock()

	h.bus.Publish(bus.TopicNavigation, Command{Type: CommandSelectTab, Tab: index, At: h.now().UTC()})
}

func (h *BusHost) PresentBrowser(u *url.URL) {
	h.mu.Lock()
	h.state.PresentedURL = u.String()
	h.mu.Unlock()

	h.bus.Publish(bus.TopicNavigation, Command{Type: CommandPresentBrowser, URL: u.String(), At: h.now().UTC()})
}

func (h *BusHost) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}
