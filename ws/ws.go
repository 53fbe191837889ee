// Package ws provides websocket sessions for players.
package ws

import (
	"context"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lefinal/masc-match/errors"
	"go.uber.org/zap"
	"net/http"
)

const (
	// sendBufferSize is the count of outgoing messages that are buffered per
	// client. Further messages are dropped until the buffer drains.
	sendBufferSize = 256
	// receiveBufferSize is the count of incoming messages that are buffered per
	// client.
	receiveBufferSize = 64
)

// ClientListener provides methods for accepting new clients and unregister
// events.
type ClientListener interface {
	// AcceptClient is called when a new Client connects. It is called in its own
	// goroutine and should serve the Client until Client.Receive is closed.
	AcceptClient(ctx context.Context, client *Client)
	// SayGoodbyeToClient is called when a Client's connection has been closed.
	SayGoodbyeToClient(client *Client)
}

// HandleWS handles websocket requests. The passed context is used in order to
// stop all remaining read-pumps.
func HandleWS(ctx context.Context, logger *zap.Logger, hub *Hub) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			errors.Log(logger, errors.Error{
				Code:    errors.ErrBadRequest,
				Err:     err,
				Message: "upgrade connection",
				Details: errors.Details{"remote_addr": r.RemoteAddr},
			})
			return
		}
		id := uuid.New()
		client := &Client{
			ID:         id,
			logger:     logger.With(zap.String("client_id", id.String())),
			hub:        hub,
			connection: conn,
			send:       make(chan []byte, sendBufferSize),
			receive:    make(chan []byte, receiveBufferSize),
		}
		// Use the client's hub so that the reference from the handler can be dropped.
		select {
		case <-ctx.Done():
			_ = conn.Close()
			return
		case client.hub.register <- client:
		}
		// Power the pumps.
		go client.writePump()
		go client.readPump(ctx)
	}
}
