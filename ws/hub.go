package ws

import (
	"context"
	"go.uber.org/zap"
)

// Hub holds all active clients and manages registering and unregistering.
type Hub struct {
	logger *zap.Logger
	// clientListener is used for notifying of new clients or unregistered ones.
	clientListener ClientListener
	// clients holds all online clients.
	clients map[*Client]struct{}
	// register receives when a Client wants to register itself.
	register chan *Client
	// unregister receives when a Client wants to unregister itself.
	unregister chan *Client
}

// NewHub creates a new Hub. Start it with Hub.Run.
func NewHub(logger *zap.Logger, clientListener ClientListener) *Hub {
	return &Hub{
		logger:         logger,
		clientListener: clientListener,
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		clients:        make(map[*Client]struct{}),
	}
}

// Run the Hub until the given context.Context is done. All remaining clients
// are closed afterwards.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				c.Close()
			}
			return nil
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Info("client connected", zap.String("client_id", c.ID.String()))
			go h.clientListener.AcceptClient(ctx, c)
		case c := <-h.unregister:
			if _, ok := h.clients[c]; !ok {
				continue
			}
			delete(h.clients, c)
			h.clientListener.SayGoodbyeToClient(c)
			h.logger.Info("client disconnected", zap.String("client_id", c.ID.String()))
			// Close the send-channel which leads to stopping the write-pump.
			c.closeSend()
		}
	}
}
