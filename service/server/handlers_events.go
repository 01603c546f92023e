package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"newscast/service/bus"
)

// handleEvents streams navigation commands to a connected app client as
// server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub := s.bus.Subscribe(bus.TopicNavigation)
	subClosed := false
	defer func() {
		if subClosed {
			return
		}
		// Unsub is processed by the bus loop, which may be blocked delivering
		// to this channel; keep draining until it closes.
		go s.bus.Unsubscribe(sub)
		for range sub {
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n") //nolint:errcheck
	flusher.Flush()

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.shutdown:
			return
		case <-keepAlive.C:
			_, _ = fmt.Fprint(w, ": ping\n\n") //nolint:errcheck
			flusher.Flush()
		case msg, ok := <-sub:
			if !ok {
				subClosed = true
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error("Failed to encode navigation event", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: navigation\ndata: %s\n\n", data) //nolint:errcheck
			flusher.Flush()
		}
	}
}
