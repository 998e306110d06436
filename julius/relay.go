// =============================================================================
// relay.go - Websocket Relay and Metrics Endpoint
// =============================================================================
//
// With --relay the CLI also serves /ws. Every notification the engine
// produces is sent to every connected websocket client as a JSON envelope:
//
//	{"id":"cq0v8ad2...","kind":"RECOGOUT","timestamp":"...","payload":{...}}
//
// Browser front ends can then show recognition results without speaking
// the module protocol themselves. With --metrics the client counters are
// exposed on /metrics for Prometheus.
//
// =============================================================================

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/julius-go/julius/juliusprotocol"
)

const (
	// relayBufferSize is the number of envelopes queued per websocket client
	// before new ones are dropped for that client.
	relayBufferSize = 64

	// relayWriteTimeout bounds a single websocket write.
	relayWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds the graceful stop of the HTTP listeners.
	shutdownTimeout = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// envelope wraps one notification for websocket clients.
type envelope struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// GO CONCEPT: Fan-Out with Buffered Channels
// ------------------------------------------
// The relay must never stall the client's reader goroutine, which is the
// goroutine that calls handle. Each websocket client gets its own buffered
// channel and writer goroutine. handle only does non-blocking sends; a
// client that cannot keep up loses envelopes instead of slowing everyone
// else down.
//
// Compare with Python: an asyncio.Queue(maxsize=64) per client with
// `put_nowait` and a QueueFull handler gives the same behavior.

// relay broadcasts notifications to websocket clients.
type relay struct {
	logger zerolog.Logger

	mu      sync.RWMutex
	clients map[string]chan []byte
}

// newRelay creates a relay with no clients.
func newRelay(logger zerolog.Logger) *relay {
	return &relay{
		logger:  logger.With().Str("component", "relay").Logger(),
		clients: make(map[string]chan []byte),
	}
}

// routes returns the HTTP handler serving /ws.
func (r *relay) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", r.serveWS)
	return mux
}

// metricsRoutes returns the HTTP handler serving /metrics.
func metricsRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// handle is subscribed to every notification kind.
func (r *relay) handle(n juliusprotocol.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		// NaN numbers from malformed fields cannot be encoded as JSON.
		r.logger.Warn().Err(err).Str("kind", string(n.Kind())).Msg("notification not relayed")
		return
	}
	msg, err := json.Marshal(envelope{
		ID:        xid.New().String(),
		Kind:      string(n.Kind()),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		r.logger.Warn().Err(err).Msg("envelope encoding failed")
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, ch := range r.clients {
		select {
		case ch <- msg:
		default:
			r.logger.Warn().Str("client", id).Str("kind", string(n.Kind())).Msg("envelope dropped: client buffer full")
		}
	}
}

// clientCount returns the number of connected websocket clients.
func (r *relay) clientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *relay) serveWS(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	id := xid.New().String()
	ch := make(chan []byte, relayBufferSize)

	r.mu.Lock()
	r.clients[id] = ch
	r.mu.Unlock()
	r.logger.Info().Str("client", id).Str("remote", req.RemoteAddr).Msg("relay client connected")

	done := make(chan struct{})
	go r.writeLoop(conn, ch, done)

	// Reading is only needed to notice when the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	r.mu.Lock()
	delete(r.clients, id)
	r.mu.Unlock()
	close(ch)
	<-done

	conn.Close()
	r.logger.Info().Str("client", id).Msg("relay client disconnected")
}

// writeLoop sends queued envelopes until ch is closed or a write fails.
func (r *relay) writeLoop(conn *websocket.Conn, ch <-chan []byte, done chan<- struct{}) {
	defer close(done)
	for msg := range ch {
		conn.SetWriteDeadline(time.Now().Add(relayWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			conn.Close()
			// Drain so serveWS can close the channel without blocking anyone.
			for range ch {
			}
			return
		}
	}
}

// startHTTPServer serves handler on addr in the background.
func startHTTPServer(addr string, handler http.Handler, logger zerolog.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", addr).Msg("http listener started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("http listener failed")
		}
	}()
	return srv
}

// stopHTTPServers shuts the listeners down gracefully.
func stopHTTPServers(servers []*http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		srv.Shutdown(ctx)
	}
}
