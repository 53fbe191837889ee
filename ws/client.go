package ws

import (
	"bytes"
	"context"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/messages"
	"go.uber.org/zap"
	"sync"
	"time"
)

const (
	// writeTimeout is the timeout for writing a message to the peer.
	writeTimeout = 10 * time.Second
	// pingInterval is the interval in which pings are sent to the peer. Must be
	// less than pongTimeout.
	pingInterval = (pongTimeout * 9) / 10
	// pongTimeout is the timeout for waiting for the next pong message from the
	// peer. Must be greater than pingInterval.
	pongTimeout = 60 * time.Second
	// maxMessageSize is the maximum message size allowed from peer.
	maxMessageSize = 16384
)

var (
	// newLine is used for separating messages in writer.
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Client holds the websocket connection and is used by Hub. It implements
// player.Session.
type Client struct {
	// ID is a temporary id assigned to the Client.
	ID     uuid.UUID
	logger *zap.Logger
	// hub is the actual websocket hub which is used for registering and
	// unregistering.
	hub *Hub
	// connection is the actual websocket connection.
	connection *websocket.Conn
	// send is the channel for outgoing messages. It is closed by the hub after
	// unregistering.
	send chan []byte
	// sendClosed is set when send was closed.
	sendClosed bool
	// sendMutex locks send and sendClosed.
	sendMutex sync.RWMutex
	// receive is the channel for incoming messages. It is closed when the
	// connection was closed.
	receive chan []byte
}

// Receive returns the channel for incoming messages. The channel is closed
// when the connection was closed.
func (c *Client) Receive() <-chan []byte {
	return c.receive
}

// Send the given messages.Message. Messages are dropped if the connection was
// closed or the send buffer is full.
func (c *Client) Send(message messages.Message) {
	raw, err := message.Marshal()
	if err != nil {
		errors.Log(c.logger, errors.Wrap(err, "marshal message", nil))
		return
	}
	c.sendMutex.RLock()
	defer c.sendMutex.RUnlock()
	if c.sendClosed {
		return
	}
	select {
	case c.send <- raw:
	default:
		c.logger.Warn("dropping message due to full send buffer", zap.Any("message_type", message.MessageType))
	}
}

// Close the connection. The read pump will fail and unregister the Client.
func (c *Client) Close() {
	err := c.connection.Close()
	if err != nil {
		c.logger.Debug("close connection", zap.Error(err))
	}
}

// closeSend closes the send channel which stops the write pump.
func (c *Client) closeSend() {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// readPump forwards messages from the websocket connection to receive.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		close(c.receive)
		select {
		case <-ctx.Done():
			c.closeSend()
		case c.hub.unregister <- c:
		}
		c.Close()
	}()
	c.connection.SetReadLimit(maxMessageSize)
	_ = c.connection.SetReadDeadline(time.Now().Add(pongTimeout))
	// Handle received pong.
	c.connection.SetPongHandler(func(string) error {
		_ = c.connection.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})
	for {
		// Read next message.
		_, message, err := c.connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("unexpected close", zap.Error(err))
			}
			return
		}
		// Trim.
		message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
		// Forward.
		select {
		case <-ctx.Done():
			c.logger.Warn("dropping message due to ctx done", zap.ByteString("message", message))
			return
		case c.receive <- message:
		}
	}
}

// writePump forwards outgoing messages to the websocket connection. We do not
// pass a context.Context here because the hub will close the send-channel
// which will lead to termination, anyways.
func (c *Client) writePump() {
	pingTicker := time.NewTicker(pingInterval)
	defer func() {
		// Stop ping ticker in order to avoid ticker leak.
		pingTicker.Stop()
		c.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			// Set write timeout.
			_ = c.connection.SetWriteDeadline(time.Now().Add(writeTimeout))
			// Check if connection close is requested from hub.
			if !ok {
				err := c.connection.WriteMessage(websocket.CloseMessage, []byte{})
				if err != nil {
					c.logger.Debug("write close message", zap.Error(err))
				}
				return
			}
			err := c.connection.WriteMessage(websocket.TextMessage, message)
			if err != nil {
				// We expect the read pump to fail as well.
				c.logger.Debug("write text message", zap.Error(err))
				return
			}
		case <-pingTicker.C:
			// Send ping.
			_ = c.connection.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("write ping", zap.Error(err))
				return
			}
		}
	}
}
