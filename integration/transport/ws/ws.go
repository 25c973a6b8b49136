package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/flowkit/core/broadcast"
	"github.com/dmitrymomot/flowkit/core/logger"
)

type wsConfig struct {
	upgrader     *websocket.Upgrader
	logger       *slog.Logger
	pingInterval time.Duration
	writeTimeout time.Duration
}

// Option configures the WebSocket handler.
type Option func(*wsConfig)

// WithReadBuffer sets the read buffer size of the upgraded connection.
func WithReadBuffer(size int) Option {
	return func(c *wsConfig) {
		c.upgrader.ReadBufferSize = size
	}
}

// WithWriteBuffer sets the write buffer size of the upgraded connection.
func WithWriteBuffer(size int) Option {
	return func(c *wsConfig) {
		c.upgrader.WriteBufferSize = size
	}
}

// WithOriginCheck sets a custom origin check for the upgrade handshake.
func WithOriginCheck(fn func(r *http.Request) bool) Option {
	return func(c *wsConfig) {
		c.upgrader.CheckOrigin = fn
	}
}

// WithAllowAnyOrigin disables the origin check. Intended for development.
func WithAllowAnyOrigin() Option {
	return func(c *wsConfig) {
		c.upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
}

// WithPingInterval sets how often the server pings idle connections.
// Default is 30 seconds.
func WithPingInterval(d time.Duration) Option {
	return func(c *wsConfig) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

// WithWriteTimeout sets the per-message write deadline. Default is
// 10 seconds.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *wsConfig) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// WithLogger configures structured logging for connection lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *wsConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// JSON returns an encoder that marshals values to JSON, for use with
// Handler.
func JSON[T any]() func(T) ([]byte, error) {
	return func(v T) ([]byte, error) {
		return json.Marshal(v)
	}
}

// Handler fans a shared broadcast out to WebSocket clients. Each connection
// subscribes to the source and receives every broadcast value, encoded as a
// text message. The subscription is closed when the client disconnects, so
// a WhileSubscribed sharing strategy sees WebSocket clients come and go like
// any other subscriber.
//
// Example:
//
//	events, err := sharing.Share(ctx, upstream, sharing.WithStrategy(ws))
//	if err != nil {
//	    return err
//	}
//	http.Handle("/events", wstransport.Handler(events, wstransport.JSON[Event]()))
func Handler[T any](source *broadcast.Readonly[T], encode func(T) ([]byte, error), opts ...Option) http.HandlerFunc {
	cfg := &wsConfig{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		pingInterval: 30 * time.Second,
		writeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if encode == nil {
		encode = JSON[T]()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := cfg.upgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.logger.Error("websocket upgrade failed",
				logger.Remote(r.RemoteAddr),
				logger.Error(err))
			return
		}
		defer conn.Close()

		start := time.Now()
		cfg.logger.Debug("websocket client connected", logger.Remote(r.RemoteAddr))
		defer func() {
			cfg.logger.Debug("websocket client disconnected",
				logger.Remote(r.RemoteAddr),
				logger.Elapsed(start))
		}()

		if err := serve(r.Context(), conn, source, encode, cfg); err != nil {
			if isExpectedClose(err) {
				return
			}
			cfg.logger.Error("websocket session failed",
				logger.Remote(r.RemoteAddr),
				logger.Error(err))
		}
	}
}

func serve[T any](ctx context.Context, conn *websocket.Conn, source *broadcast.Readonly[T], encode func(T) ([]byte, error), cfg *wsConfig) error {
	g, ctx := errgroup.WithContext(ctx)

	// The reader blocks in ReadMessage with no context of its own: closing
	// the connection when the group context ends is what unblocks it, so a
	// pump failure tears the whole session down instead of leaking the
	// reader until the client disconnects.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	sub := source.Subscribe(ctx)
	defer sub.Close()

	out := make(chan []byte)

	// Value pump: broadcast subscription into the writer.
	g.Go(func() error {
		for {
			v, err := sub.Next(ctx)
			if err != nil {
				return err
			}
			data, err := encode(v)
			if err != nil {
				return err
			}
			select {
			case out <- data:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	// Writer: serializes data messages and keepalive pings.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				deadline := time.Now().Add(cfg.writeTimeout)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
				return ctx.Err()
			case <-ticker.C:
				deadline := time.Now().Add(cfg.writeTimeout)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return err
				}
			case data := <-out:
				_ = conn.SetWriteDeadline(time.Now().Add(cfg.writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return err
				}
			}
		}
	})

	// Reader: consumes control frames and detects client disconnect.
	g.Go(func() error {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return err
			}
		}
	})

	return g.Wait()
}

func isExpectedClose(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, broadcast.ErrSubscriptionClosed) {
		return true
	}
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure)
}
