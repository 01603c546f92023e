package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"newscast/service/delivery"
	"newscast/service/util"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

func (s *Server) handleListNews(w http.ResponseWriter, r *http.Request) {
	items, err := s.newsStore.List(r.Context(), queryLimit(r))
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to list news", http.StatusInternalServerError, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, items)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// handleNewsQR renders the item's link as a PNG QR code so it can be opened
// on another device.
func (s *Server) handleNewsQR(w http.ResponseWriter, r *http.Request) {
	item, err := s.newsStore.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to load news item", http.StatusInternalServerError, err)
		return
	}
	if item == nil {
		util.JSONError(w, "News item not found", http.StatusNotFound)
		return
	}

	qrc, err := qrcode.New(item.Link)
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to encode QR code", http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	writer := standard.NewWithWriter(nopWriteCloser{w},
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(8),
	)
	if err := qrc.Save(writer); err != nil {
		s.logger.Error("Failed to write QR code", "id", item.ID, "error", err)
	}
}

// handlePublishNews pushes a news notification to every Web Push subscriber.
// It accepts JSON, form data or a plain-text body with a Title header.
func (s *Server) handlePublishNews(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		util.JSONError(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	var notif delivery.Notification
	contentType := r.Header.Get("Content-Type")

	switch {
	case strings.Contains(contentType, "application/json"):
		if err := json.Unmarshal(body, &notif); err != nil {
			util.JSONError(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
	case strings.Contains(contentType, "application/x-www-form-urlencoded"):
		values, err := url.ParseQuery(string(body))
		if err != nil {
			util.JSONError(w, "Invalid form body", http.StatusBadRequest)
			return
		}
		notif.Title = values.Get("title")
		notif.Message = values.Get("message")
		notif.Link = values.Get("link")
		notif.Silent = values.Get("silent") == "true" || values.Get("silent") == "1"
	default:
		notif.Message = strings.TrimSpace(string(body))
	}

	if notif.Title == "" {
		notif.Title = r.Header.Get("X-Title")
	}
	if notif.Link == "" {
		notif.Link = r.Header.Get("X-Link")
	}

	if notif.Message == "" && !notif.Silent {
		util.JSONError(w, "Message required", http.StatusBadRequest)
		return
	}

	report, err := s.publisher.Publish(r.Context(), notif)
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to publish notification", http.StatusBadGateway, err)
		return
	}

	s.logger.Debug("Published news notification", "preview", util.Truncate(notif.Message, 50), "sent", report.Sent)
	util.WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleListPodcasts(w http.ResponseWriter, r *http.Request) {
	episodes, err := s.podcasts.List(r.Context(), queryLimit(r))
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to list podcasts", http.StatusInternalServerError, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, episodes)
}

func (s *Server) handleRefreshPodcasts(w http.ResponseWriter, r *http.Request) {
	hasNew, err := s.podcasts.RefreshItems(r.Context())
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to refresh podcasts", http.StatusBadGateway, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]bool{"newItems": hasNew})
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}
