package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"newscast/service/registration"
	"newscast/service/util"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleRequestPermission(w http.ResponseWriter, r *http.Request) {
	perm, err := s.registration.RequestPermission(r.Context())
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to request permission", http.StatusBadGateway, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]any{
		"permission": perm.String(),
		"granted":    perm == registration.PermissionAuthorized,
		"categories": s.categories.List(),
	})
}

func (s *Server) handleCheckAuthorization(w http.ResponseWriter, r *http.Request) {
	settings, err := s.registration.CheckAuthorization(r.Context())
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to read notification settings", http.StatusBadGateway, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, settings)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	util.WriteJSON(w, http.StatusOK, s.categories.List())
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := s.categories.Get(chi.URLParam(r, "identifier"))
	if !ok {
		util.JSONError(w, "Category not registered", http.StatusNotFound)
		return
	}
	util.WriteJSON(w, http.StatusOK, category)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.List(r.Context())
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to list devices", http.StatusInternalServerError, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, devices)
}

func (s *Server) handleDeviceToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, err := registration.ParseDeviceToken(req.Token)
	if err != nil {
		util.JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.registration.DidRegisterForRemoteNotifications(r.Context(), token); err != nil {
		util.LogAndError(w, s.logger, "Failed to register device", http.StatusInternalServerError, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]string{"token": token.String()})
}

func (s *Server) handleDeviceTokenError(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Error == "" {
		util.JSONError(w, "error is required", http.StatusBadRequest)
		return
	}

	s.registration.DidFailToRegisterForRemoteNotifications(errors.New(req.Error))
	w.WriteHeader(http.StatusNoContent)
}
