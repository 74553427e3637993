package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/bit-cook/ClawX/internal/errors"
)

const (
	DefaultDialTimeout    = 10 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultPingInterval   = 30 * time.Second
	DefaultEventBuffer    = 64

	controlWriteWait = 10 * time.Second
)

// Options configures a gateway connection.
type Options struct {
	URL            string
	Token          string
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	PingInterval   time.Duration
	EventBuffer    int
}

func (o Options) withDefaults() Options {
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.PingInterval <= 0 {
		o.PingInterval = DefaultPingInterval
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = DefaultEventBuffer
	}
	return o
}

// Client multiplexes request/response calls and a push event stream over one
// WebSocket connection. Calls may run concurrently; responses are matched to
// callers by frame ID.
type Client struct {
	conn *websocket.Conn
	opts Options

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan envelope
	err     error
	closed  bool

	events chan ChatEvent
	done   chan struct{}
}

// Dial connects to the gateway and starts the read and keepalive loops.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	opts = opts.withDefaults()
	if opts.URL == "" {
		return nil, errors.InvalidInput("gateway url is empty")
	}
	if _, err := url.Parse(opts.URL); err != nil {
		return nil, errors.InvalidInput("gateway url: " + err.Error())
	}

	header := http.Header{}
	if opts.Token != "" {
		header.Set("Authorization", "Bearer "+opts.Token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
	conn, resp, err := dialer.DialContext(ctx, opts.URL, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, errors.Wrap(errors.MapError(err), "dial gateway")
	}

	c := &Client{
		conn:    conn,
		opts:    opts,
		pending: make(map[string]chan envelope),
		events:  make(chan ChatEvent, opts.EventBuffer),
		done:    make(chan struct{}),
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.readWait()))
	})

	go c.readLoop()
	go c.pingLoop()

	slog.Debug("gateway connected", "url", opts.URL)
	return c, nil
}

func (c *Client) readWait() time.Duration {
	return 2 * c.opts.PingInterval
}

// Events is the stream of chat push events. It is never closed; Done signals
// the end of the connection.
func (c *Client) Events() <-chan ChatEvent { return c.events }

// Done is closed when the connection is gone, cleanly or not.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err reports why the connection ended. Meaningful once Done is closed.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close tears the connection down and releases every in-flight call. Safe to
// call more than once.
func (c *Client) Close() error {
	c.fail(errors.GatewayClosed("client closed"))
	return nil
}

// fail records the first terminal error, closes done, and drops the socket.
// In-flight calls observe done and return.
func (c *Client) fail(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.err = err
	c.pending = make(map[string]chan envelope)
	c.mu.Unlock()

	close(c.done)
	_ = c.conn.Close()
}

func (c *Client) readLoop() {
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.readWait()))
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(errors.MapError(err))
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			slog.Debug("gateway frame malformed", "error", err)
			continue
		}

		switch env.Type {
		case frameResponse:
			c.dispatchResponse(env)
		case frameEvent:
			c.dispatchEvent(env)
		default:
			slog.Debug("gateway frame ignored", "type", env.Type)
		}
	}
}

func (c *Client) dispatchResponse(env envelope) {
	c.mu.Lock()
	ch, ok := c.pending[env.ID]
	if ok {
		delete(c.pending, env.ID)
	}
	c.mu.Unlock()

	if !ok {
		slog.Debug("gateway response without caller", "id", env.ID)
		return
	}
	ch <- env
}

func (c *Client) dispatchEvent(env envelope) {
	if env.Event != EventChat {
		slog.Debug("gateway event ignored", "event", env.Event)
		return
	}
	var ev ChatEvent
	if err := json.Unmarshal(env.Payload, &ev); err != nil {
		slog.Debug("chat event malformed", "error", err)
		return
	}

	// Block rather than drop: losing a terminal event would wedge the
	// session in its sending state. The socket provides the backpressure.
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(controlWriteWait)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.fail(errors.MapError(err))
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) write(env envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(env)
}

// call performs one request frame and waits for its matching response.
func (c *Client) call(ctx context.Context, method string, params any) (envelope, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return envelope{}, errors.Internal("marshal params: " + err.Error())
	}

	id := ulid.Make().String()
	ch := make(chan envelope, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return envelope{}, errors.GatewayClosed("call " + method)
	}
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.write(envelope{Type: frameRequest, ID: id, Method: method, Params: data}); err != nil {
		c.forget(id)
		return envelope{}, errors.Wrap(errors.MapError(err), "call "+method)
	}

	if c.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RequestTimeout)
		defer cancel()
	}

	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		c.forget(id)
		return envelope{}, errors.Wrap(errors.MapError(ctx.Err()), "call "+method)
	case <-c.done:
		err := c.Err()
		if err == nil {
			err = errors.ErrGatewayClosed
		}
		return envelope{}, errors.Wrap(err, "call "+method)
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// History fetches the persisted transcript of a session.
func (c *Client) History(ctx context.Context, sessionKey string, limit int) (HistoryAck, error) {
	res, err := c.call(ctx, MethodHistory, historyParams{SessionKey: sessionKey, Limit: limit})
	if err != nil {
		return HistoryAck{}, err
	}
	if !ackOK(res) {
		return HistoryAck{Err: res.Error}, nil
	}
	var out historyResult
	if len(res.Result) > 0 {
		if err := json.Unmarshal(res.Result, &out); err != nil {
			return HistoryAck{}, errors.Internal("decode history result: " + err.Error())
		}
	}
	return HistoryAck{OK: true, Messages: out.Messages}, nil
}

// Send submits a user message for the gateway to run.
func (c *Client) Send(ctx context.Context, sessionKey, message, idempotencyKey string) (SendAck, error) {
	params := sendParams{SessionKey: sessionKey, Message: message, IdempotencyKey: idempotencyKey}
	res, err := c.call(ctx, MethodSend, params)
	if err != nil {
		return SendAck{}, err
	}
	if !ackOK(res) {
		return SendAck{Err: res.Error}, nil
	}
	var out sendResult
	if len(res.Result) > 0 {
		if err := json.Unmarshal(res.Result, &out); err != nil {
			return SendAck{}, errors.Internal("decode send result: " + err.Error())
		}
	}
	return SendAck{OK: true, RunID: out.RunID, Status: out.Status}, nil
}

// Clear drops the session's history on the gateway.
func (c *Client) Clear(ctx context.Context, sessionKey string) (ClearAck, error) {
	res, err := c.call(ctx, MethodClear, clearParams{SessionKey: sessionKey})
	if err != nil {
		return ClearAck{}, err
	}
	if !ackOK(res) {
		return ClearAck{Err: res.Error}, nil
	}
	return ClearAck{OK: true}, nil
}
