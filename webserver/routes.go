package webserver

import (
	"encoding/json"
	"github.com/go-chi/chi/v5"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/model"
	"go.uber.org/zap"
	"net/http"
	"strconv"
)

// populateRoutes sets up the websocket endpoint and the API.
func (server *WebServer) populateRoutes(lobby Lobby, ws http.HandlerFunc) {
	// The websocket connection is hijacked, so the response writer must not be
	// wrapped.
	server.router.Get("/ws", ws)
	server.router.Route("/api/v1", func(r chi.Router) {
		r.Use(loggingMiddleware(server.logger))
		r.Use(noCacheMiddleware)
		r.Get("/channels", server.handleListChannels(lobby))
		r.Get("/channels/{channelID}/rooms", server.handleListRooms(lobby))
	})
}

func (server *WebServer) handleListChannels(lobby Lobby) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		server.respondJSON(w, http.StatusOK, lobby.List())
	}
}

func (server *WebServer) handleListRooms(lobby Lobby) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelIDStr := chi.URLParam(r, "channelID")
		channelID, err := strconv.ParseUint(channelIDStr, 10, 16)
		if err != nil {
			server.respondError(w, errors.NewBadRequestError("", "invalid channel id",
				errors.Details{"channel_id": channelIDStr}))
			return
		}
		rooms, err := lobby.RoomList(model.ChannelID(channelID))
		if err != nil {
			server.respondError(w, errors.Wrap(err, "room list", nil))
			return
		}
		server.respondJSON(w, http.StatusOK, rooms)
	}
}

// respondJSON writes the given content as JSON.
func (server *WebServer) respondJSON(w http.ResponseWriter, status int, content interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(content)
	if err != nil {
		server.logger.Debug("write response", zap.Error(err))
	}
}

// apiError is the response body for failed requests.
type apiError struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message,omitempty"`
}

// respondError responds with the status matching the error's code. Messages
// are only exposed for errors caused by the requester.
func (server *WebServer) respondError(w http.ResponseWriter, err error) {
	e, _ := errors.Cast(err)
	body := apiError{Code: e.Code}
	if errors.BlameUser(err) {
		body.Message = e.Message
	} else {
		errors.Log(server.logger, err)
	}
	server.respondJSON(w, httpStatus(e.Code), body)
}

// httpStatus returns the HTTP status code for the given errors.Code.
func httpStatus(code errors.Code) int {
	switch code {
	case errors.ErrBadRequest:
		return http.StatusBadRequest
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrForbidden, errors.ErrAccessDenied:
		return http.StatusForbidden
	case errors.ErrInvalidState:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
