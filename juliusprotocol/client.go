package juliusprotocol

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// ErrorHandler is a callback for records that could not be decoded.
type ErrorHandler func(err error)

// DisconnectHandler is a callback function called when the connection is lost.
type DisconnectHandler func(err error)

// Client is a TCP client for a Julius engine running in module mode.
//
// A reader goroutine turns the incoming line stream into records, decodes
// each record and publishes its notifications before reading the next line.
// Commands are written directly to the socket.
//
// Thread Safety:
// The client uses a mutex to protect its state and is safe for concurrent
// use from multiple goroutines.
type Client struct {
	mu sync.Mutex

	addr   string
	enc    encoding.Encoding
	logger zerolog.Logger
	events *Emitter

	conn        net.Conn
	isConnected bool

	// done is closed by the reader goroutine when it exits.
	done chan struct{}

	errorHandler      ErrorHandler
	disconnectHandler DisconnectHandler
}

// NewClient creates a client for the engine described by opts. When
// opts.AutoConnect is set the connection is opened before NewClient returns.
func NewClient(opts Options) (*Client, error) {
	enc, err := LookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	addr := Address(opts.Host, opts.Port)
	c := &Client{
		addr:   addr,
		enc:    enc,
		logger: logger.With().Str("component", "julius").Str("addr", addr).Logger(),
		events: NewEmitter(),
	}

	if opts.AutoConnect {
		if err := c.Connect(context.Background()); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Addr returns the engine address the client dials.
func (c *Client) Addr() string {
	return c.addr
}

// Events returns the notification registry used by the client.
func (c *Client) Events() *Emitter {
	return c.events
}

// Subscribe registers a handler for notifications of kind.
func (c *Client) Subscribe(kind Kind, h Handler) Subscription {
	return c.events.Subscribe(kind, h)
}

// Unsubscribe removes a handler registered with Subscribe.
func (c *Client) Unsubscribe(sub Subscription) bool {
	return c.events.Unsubscribe(sub)
}

// SetErrorHandler sets the callback for records with malformed markup.
func (c *Client) SetErrorHandler(handler ErrorHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorHandler = handler
}

// SetDisconnectHandler sets the callback for disconnection events.
func (c *Client) SetDisconnectHandler(handler DisconnectHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectHandler = handler
}

// IsConnected returns true if the client is currently connected.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected
}

// Connect dials the engine and starts the reader goroutine.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.isConnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	connectCtx, cancel := context.WithTimeout(ctx, ConnectionTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(connectCtx, "tcp", c.addr)
	if err != nil {
		return NewConnectionError("failed to connect", err)
	}

	c.mu.Lock()
	if c.isConnected {
		c.mu.Unlock()
		conn.Close()
		return ErrAlreadyConnected
	}
	c.conn = conn
	c.isConnected = true
	c.done = make(chan struct{})
	go c.readerLoop(conn, c.done)
	c.mu.Unlock()

	c.logger.Info().Msg("connected")
	return nil
}

// Disconnect closes the connection and waits for the reader goroutine to
// finish. The disconnect handler is not called.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.isConnected {
		c.mu.Unlock()
		return
	}
	c.isConnected = false
	conn := c.conn
	done := c.done
	c.mu.Unlock()

	conn.Close()
	<-done

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()

	c.logger.Info().Msg("disconnected")
}

// Send writes a command to the engine.
func (c *Client) Send(cmd Command) error {
	return c.write(cmd.FormatLine(), cmd.Format())
}

// SendRaw writes an arbitrary command line to the engine. A trailing line
// break is added if missing.
func (c *Client) SendRaw(line string) error {
	return c.write(strings.TrimRight(line, "\r\n")+"\n", "raw")
}

// Pause asks the engine to stop recognition after the current segment.
func (c *Client) Pause() error { return c.Send(NewPauseCommand()) }

// Resume asks the engine to restart recognition.
func (c *Client) Resume() error { return c.Send(NewResumeCommand()) }

// Terminate asks the engine to stop recognition immediately.
func (c *Client) Terminate() error { return c.Send(NewTerminateCommand()) }

// Die asks the engine to shut down.
func (c *Client) Die() error { return c.Send(NewDieCommand()) }

func (c *Client) write(line, label string) error {
	c.mu.Lock()
	if !c.isConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	conn := c.conn
	c.mu.Unlock()

	payload := line
	if c.enc != nil {
		encoded, err := c.enc.NewEncoder().String(line)
		if err != nil {
			return NewConnectionError("failed to encode command", err)
		}
		payload = encoded
	}

	if _, err := io.WriteString(conn, payload); err != nil {
		return NewConnectionError("failed to send command", err)
	}

	recordCommand(label)
	c.logger.Debug().Str("command", strings.TrimSpace(line)).Msg("command sent")
	return nil
}

// EngineInfo sends VERSION and waits for the next ENGINEINFO notification.
func (c *Client) EngineInfo(ctx context.Context) (EngineInfo, error) {
	n, err := c.request(ctx, NewVersionCommand())
	if err != nil {
		return EngineInfo{}, err
	}
	return n.(EngineInfo), nil
}

// SystemInfo sends STATUS and waits for the next SYSINFO notification.
func (c *Client) SystemInfo(ctx context.Context) (SystemInfo, error) {
	n, err := c.request(ctx, NewStatusCommand())
	if err != nil {
		return SystemInfo{}, err
	}
	return n.(SystemInfo), nil
}

// GrammarInfo sends GRAMINFO and waits for the next GRAMINFO notification.
func (c *Client) GrammarInfo(ctx context.Context) (Passthrough, error) {
	n, err := c.request(ctx, NewGrammarInfoCommand())
	if err != nil {
		return Passthrough{}, err
	}
	return n.(Passthrough), nil
}

// request registers the wait for the command's reply kind before sending the
// command, so a reply arriving immediately is not missed. It imposes no
// timeout of its own. Replies are matched by kind only.
func (c *Client) request(ctx context.Context, cmd Command) (Notification, error) {
	kind, ok := cmd.Reply()
	if !ok {
		return nil, newInvalidCommandError(cmd.Format())
	}

	c.mu.Lock()
	if !c.isConnected {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	done := c.done
	c.mu.Unlock()

	reply, cancel := c.events.Once(kind)
	defer cancel()

	if err := c.Send(cmd); err != nil {
		return nil, err
	}

	select {
	case n := <-reply:
		return n, nil
	case <-done:
		// A reply decoded just before the connection dropped still counts.
		select {
		case n := <-reply:
			return n, nil
		default:
			return nil, ErrDisconnected
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// readerLoop reads lines until the connection fails or is closed, feeding
// them through the framer and dispatching every completed record.
func (c *Client) readerLoop(conn net.Conn, done chan struct{}) {
	defer close(done)

	var src io.Reader = conn
	if c.enc != nil {
		src = transform.NewReader(conn, c.enc.NewDecoder())
	}
	reader := bufio.NewReader(src)

	var framer Framer
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			if record, ok := framer.Push(line); ok {
				c.processRecord(record)
			}
		}
		if err != nil {
			if pending := framer.Pending(); pending > 0 {
				c.logger.Debug().Int("bytes", pending).Msg("discarding incomplete record")
			}
			c.handleDisconnect(err)
			return
		}
	}
}

// processRecord decodes one record and publishes its notifications in order.
func (c *Client) processRecord(record string) {
	notes, err := Decode(record)
	recordRecord(notes, err)

	if err != nil {
		c.logger.Warn().Err(err).Msg("record decode failed")
		c.mu.Lock()
		handler := c.errorHandler
		c.mu.Unlock()
		if handler != nil {
			handler(err)
		}
		return
	}

	c.logger.Debug().Int("notifications", len(notes)).Msg("record decoded")
	for _, n := range notes {
		if u, ok := n.(Unrecognized); ok {
			c.logger.Warn().Str("tag", u.Tag).Msg("unrecognized tag")
		}
		c.events.Publish(n)
	}
}

// handleDisconnect handles an unexpected disconnection. It is a no-op when
// Disconnect already tore the connection down.
func (c *Client) handleDisconnect(err error) {
	c.mu.Lock()
	if !c.isConnected {
		c.mu.Unlock()
		return
	}
	c.isConnected = false
	conn := c.conn
	c.conn = nil
	handler := c.disconnectHandler
	c.mu.Unlock()

	conn.Close()

	if errors.Is(err, io.EOF) {
		c.logger.Info().Msg("engine closed the connection")
	} else {
		c.logger.Warn().Err(err).Msg("connection lost")
	}

	if handler != nil {
		handler(err)
	}
}
