// Package payload parses remote notification payloads delivered by a push
// provider. Every handled payload carries an "aps" object; anything else is
// reported as a MalformedError before dispatch.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const (
	KeyAPS              = "aps"
	KeyContentAvailable = "content-available"
	KeyCategory         = "category"
	KeyAlert            = "alert"
	KeyLinkURL          = "link_url"
)

var ErrMalformed = errors.New("malformed notification payload")

type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformed.Error(), e.Reason)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

// APS is the "aps" dictionary of a payload.
type APS map[string]any

type Notification struct {
	Raw map[string]any
	APS APS
}

func Parse(data []byte) (*Notification, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &MalformedError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if raw == nil {
		return nil, &MalformedError{Reason: "payload is not an object"}
	}

	return FromMap(raw)
}

func FromMap(raw map[string]any) (*Notification, error) {
	value, ok := raw[KeyAPS]
	if !ok {
		return nil, &MalformedError{Reason: "missing aps"}
	}

	aps, ok := value.(map[string]any)
	if !ok {
		return nil, &MalformedError{Reason: fmt.Sprintf("aps is %T, want object", value)}
	}

	return &Notification{Raw: raw, APS: APS(aps)}, nil
}

// IsSilent reports whether the payload is a background refresh signal.
func (n *Notification) IsSilent() bool {
	return n.APS.ContentAvailable()
}

func (n *Notification) Category() string {
	return n.APS.Text(KeyCategory)
}

// ContentAvailable is true only when content-available is numerically 1.
func (a APS) ContentAvailable() bool {
	v, ok := asInt(a[KeyContentAvailable])
	return ok && v == 1
}

func (a APS) Text(key string) string {
	s, _ := a[key].(string)
	return s
}

// Alert returns the title and body of the alert, which may be a plain string
// (body only) or an object with title/body keys.
func (a APS) Alert() (title, body string) {
	switch alert := a[KeyAlert].(type) {
	case string:
		return "", alert
	case map[string]any:
		title, _ = alert["title"].(string)
		body, _ = alert["body"].(string)
		return title, body
	default:
		return "", ""
	}
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil && f == math.Trunc(f) {
			return int64(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}
