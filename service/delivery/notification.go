package delivery

import (
	"encoding/json"

	"newscast/service/payload"
	"newscast/service/registration"
)

// Notification is a news announcement pushed to subscribed devices.
type Notification struct {
	Title    string `json:"title,omitempty"`
	Message  string `json:"message"`
	Link     string `json:"link,omitempty"`
	Silent   bool   `json:"silent,omitempty"`
	Category string `json:"category,omitempty"`
}

// Payload renders the notification in the aps wire format the payload router
// consumes. Silent notifications carry only content-available.
func (n Notification) Payload() map[string]any {
	if n.Silent {
		return map[string]any{payload.KeyAPS: map[string]any{payload.KeyContentAvailable: 1}}
	}

	var alert any = n.Message
	if n.Title != "" {
		alert = map[string]any{"title": n.Title, "body": n.Message}
	}

	aps := map[string]any{
		payload.KeyAlert: alert,
		"sound":          "default",
	}
	if n.Link != "" {
		aps[payload.KeyLinkURL] = n.Link
	}

	category := n.Category
	if category == "" && n.Link != "" {
		category = registration.NewsCategoryIdentifier
	}
	if category != "" {
		aps[payload.KeyCategory] = category
	}

	return map[string]any{payload.KeyAPS: aps}
}

func (n Notification) MarshalPayload() ([]byte, error) {
	return json.Marshal(n.Payload())
}
