// Package webserver serves the websocket endpoint and the read-only HTTP API.
package webserver

import (
	"context"
	nativeerrors "errors"
	"github.com/go-chi/chi/v5"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"go.uber.org/zap"
	"net/http"
	"time"
)

const (
	// DefaultServeAddr is the default address to serve on.
	DefaultServeAddr = ":8080"
	// DefaultWriteTimeout is the default timeout for writing.
	DefaultWriteTimeout = 15 * time.Second
	// DefaultReadTimeout is the default timeout for reading.
	DefaultReadTimeout = 15 * time.Second
	// shutdownTimeout is the timeout for graceful shutdown.
	shutdownTimeout = 15 * time.Second
)

// Lobby provides channel and room listings.
type Lobby interface {
	// List returns the info of all channels.
	List() []messages.ChannelInfo
	// RoomList returns the info of all rooms in the given channel.
	RoomList(channelID model.ChannelID) ([]messages.RoomInfo, error)
}

// Config is the configuration that is used in order to create and run a web
// server.
type Config struct {
	// ServeAddr is the address to listen on.
	ServeAddr string
	// WriteTimeout is the timeout for writing responses. Websocket connections
	// are hijacked and not affected.
	WriteTimeout time.Duration
	// ReadTimeout is the timeout for reading requests.
	ReadTimeout time.Duration
}

// WebServer serves http requests and websocket connections.
type WebServer struct {
	logger     *zap.Logger
	config     Config
	httpServer *http.Server
	router     chi.Router
}

// New creates a new WebServer with all routes populated. The given ws handler
// is served at /ws.
func New(logger *zap.Logger, config Config, lobby Lobby, ws http.HandlerFunc) (*WebServer, error) {
	if config.ServeAddr == "" {
		return nil, errors.Error{
			Code:    errors.ErrFatal,
			Kind:    errors.KindInvalidConfig,
			Message: "no serve addr provided",
		}
	}
	server := &WebServer{
		logger: logger,
		config: config,
		router: chi.NewRouter(),
	}
	server.populateRoutes(lobby, ws)
	server.httpServer = &http.Server{
		Handler:      server.router,
		Addr:         config.ServeAddr,
		WriteTimeout: config.WriteTimeout,
		ReadTimeout:  config.ReadTimeout,
	}
	return server, nil
}

// Handler returns the http.Handler with all routes.
func (server *WebServer) Handler() http.Handler {
	return server.router
}

// Run serves until the given context.Context is done and shuts down
// gracefully.
func (server *WebServer) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		server.logger.Info("web server running", zap.String("addr", server.config.ServeAddr))
		err := server.httpServer.ListenAndServe()
		if err != nil && !nativeerrors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return errors.Error{
				Code:    errors.ErrFatal,
				Err:     err,
				Message: "listen and serve",
				Details: errors.Details{"addr": server.config.ServeAddr},
			}
		}
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := server.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return errors.Wrap(err, "shutdown web server", nil)
	}
	return nil
}
