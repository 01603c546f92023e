package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"newscast/service/navigation"
	"newscast/service/payload"
	"newscast/service/routing"
	"newscast/service/util"
)

const maxPayloadBytes = 64 << 10

type routeResponse struct {
	Result routing.FetchResult `json:"result"`
	Error  string              `json:"error,omitempty"`
}

func (s *Server) handleRemoteNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		util.JSONError(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	res, err := s.router.RouteRaw(r.Context(), body).Wait(r.Context())
	if err != nil {
		util.LogAndError(w, s.logger, "Notification handling did not finish", http.StatusGatewayTimeout, err)
		return
	}

	resp := routeResponse{Result: res.Fetch}
	code := http.StatusOK
	if res.Err != nil {
		resp.Error = res.Err.Error()
		if errors.Is(res.Err, payload.ErrMalformed) {
			code = http.StatusBadRequest
		}
	}

	s.logger.Debug("Handled remote notification", "result", res.Fetch)
	util.WriteJSON(w, code, resp)
}

type navigationResponse struct {
	navigation.Outcome
	Completed bool   `json:"completed"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleNotificationResponse(w http.ResponseWriter, r *http.Request) {
	var req navigation.Response
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPayloadBytes)).Decode(&req); err != nil {
		util.JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.writeOutcome(w, r.Context(), func(ctx context.Context) (navigation.Outcome, error) {
		return s.navigator.HandleResponse(ctx, req).Wait(ctx)
	})
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Payload map[string]any `json:"payload"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPayloadBytes)).Decode(&req); err != nil {
		util.JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.writeOutcome(w, r.Context(), func(ctx context.Context) (navigation.Outcome, error) {
		return s.navigator.HandleLaunch(ctx, req.Payload).Wait(ctx)
	})
}

func (s *Server) writeOutcome(w http.ResponseWriter, ctx context.Context, run func(context.Context) (navigation.Outcome, error)) {
	out, err := run(ctx)
	if err != nil {
		util.LogAndError(w, s.logger, "Notification response did not finish", http.StatusGatewayTimeout, err)
		return
	}

	resp := navigationResponse{Outcome: out, Completed: true}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	util.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNavigationState(w http.ResponseWriter, r *http.Request) {
	util.WriteJSON(w, http.StatusOK, s.host.State())
}
