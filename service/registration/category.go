package registration

import (
	"slices"
	"strings"
	"sync"
)

const (
	ViewActionIdentifier   = "VIEW_IDENTIFIER"
	NewsCategoryIdentifier = "NEWS_CATEGORY"
)

type ActionOptions uint8

const (
	// ActionForeground launches the app into the foreground when the action is chosen.
	ActionForeground ActionOptions = 1 << iota
	ActionDestructive
	ActionAuthenticationRequired
)

func (o ActionOptions) Has(flag ActionOptions) bool {
	return o&flag != 0
}

type Action struct {
	Identifier string        `json:"identifier"`
	Title      string        `json:"title"`
	Options    ActionOptions `json:"options"`
}

type Category struct {
	Identifier        string   `json:"identifier"`
	Actions           []Action `json:"actions"`
	IntentIdentifiers []string `json:"intentIdentifiers"`
}

// NewsCategory is the actionable category attached to news notifications: a
// single "View" action that opens the app.
func NewsCategory() Category {
	return Category{
		Identifier: NewsCategoryIdentifier,
		Actions: []Action{
			{Identifier: ViewActionIdentifier, Title: "View", Options: ActionForeground},
		},
		IntentIdentifiers: []string{},
	}
}

// CategoryRegistry holds the process-wide category set. Set replaces the whole
// set; categories are never merged.
type CategoryRegistry struct {
	mu         sync.RWMutex
	categories map[string]Category
}

func NewCategoryRegistry() *CategoryRegistry {
	return &CategoryRegistry{categories: make(map[string]Category)}
}

func (r *CategoryRegistry) Set(categories []Category) {
	next := make(map[string]Category, len(categories))
	for _, c := range categories {
		next[c.Identifier] = cloneCategory(c)
	}

	r.mu.Lock()
	r.categories = next
	r.mu.Unlock()
}

func (r *CategoryRegistry) List() []Category {
	r.mu.RLock()
	out := make([]Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, cloneCategory(c))
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Category) int {
		return strings.Compare(a.Identifier, b.Identifier)
	})
	return out
}

func (r *CategoryRegistry) Get(identifier string) (Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.categories[identifier]
	return cloneCategory(c), ok
}

func cloneCategory(c Category) Category {
	c.Actions = slices.Clone(c.Actions)
	c.IntentIdentifiers = slices.Clone(c.IntentIdentifiers)
	return c
}
