package server

import (
	"net/http"
	"time"

	"newscast/service/util"
)

type healthResponse struct {
	Version       string `json:"version"`
	Uptime        string `json:"uptime"`
	Categories    int    `json:"categories"`
	Subscriptions int    `json:"subscriptions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Version:    s.version,
		Uptime:     util.FormatUptime(time.Since(s.startTime)),
		Categories: len(s.categories.List()),
	}

	subs, err := s.subscriptions.List(r.Context())
	if err != nil {
		util.LogAndError(w, s.logger, "Storage unavailable", http.StatusServiceUnavailable, err)
		return
	}
	resp.Subscriptions = len(subs)

	util.WriteJSON(w, http.StatusOK, resp)
}
