// Package routing dispatches incoming remote notifications either to a silent
// background refresh or to news item creation.
package routing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newscast/service/completion"
	"newscast/service/news"
	"newscast/service/payload"
)

type FetchResult int

const (
	NewData FetchResult = iota
	NoData
	Failed
)

func (r FetchResult) String() string {
	switch r {
	case NewData:
		return "newData"
	case NoData:
		return "noData"
	default:
		return "failed"
	}
}

func (r FetchResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Result is the outcome of routing one payload. Silent payloads always end in
// NewData or NoData; Err carries a refresh failure alongside NoData. Failed is
// reserved for payloads that could not be parsed.
type Result struct {
	Fetch FetchResult
	Err   error
}

// Refresher reloads remote content and reports whether anything new arrived.
type Refresher interface {
	RefreshItems(ctx context.Context) (bool, error)
}

type ItemMaker interface {
	MakeNewsItem(ctx context.Context, aps payload.APS) (*news.Item, error)
}

type Router struct {
	refresher Refresher
	maker     ItemMaker
	timeout   time.Duration
	logger    *slog.Logger
}

// NewRouter builds a router. A positive timeout bounds each background refresh.
func NewRouter(refresher Refresher, maker ItemMaker, timeout time.Duration, logger *slog.Logger) *Router {
	return &Router{
		refresher: refresher,
		maker:     maker,
		timeout:   timeout,
		logger:    logger,
	}
}

// RouteRaw parses data and routes it. Malformed payloads complete as Failed.
func (r *Router) RouteRaw(ctx context.Context, data []byte) *completion.Signal[Result] {
	n, err := payload.Parse(data)
	if err != nil {
		r.logger.Warn("Dropping malformed notification", "error", err)
		return completion.Completed(Result{Fetch: Failed, Err: err})
	}
	return r.Route(ctx, n)
}

// Route dispatches n. The returned signal completes exactly once.
func (r *Router) Route(ctx context.Context, n *payload.Notification) *completion.Signal[Result] {
	done := completion.New[Result]()
	r.logger.Debug("Routing notification", "silent", n.IsSilent(), "category", n.Category())

	if n.IsSilent() {
		go r.refresh(ctx, done)
		return done
	}

	if _, err := r.maker.MakeNewsItem(ctx, n.APS); err != nil {
		r.logger.Warn("Failed to create news item from notification", "error", err)
	}
	done.Complete(Result{Fetch: NewData})
	return done
}

func (r *Router) refresh(ctx context.Context, done *completion.Signal[Result]) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Background refresh panicked", "panic", p)
			done.Complete(Result{Fetch: NoData, Err: fmt.Errorf("refresh panicked: %v", p)})
		}
	}()

	hasNew, err := r.refresher.RefreshItems(ctx)
	if err != nil {
		r.logger.Error("Background refresh failed", "error", err)
		done.Complete(Result{Fetch: NoData, Err: err})
		return
	}

	result := NoData
	if hasNew {
		result = NewData
	}
	r.logger.Debug("Background refresh finished", "result", result)
	done.Complete(Result{Fetch: result})
}
