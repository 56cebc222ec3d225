package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// rpcMessage is either a call response (ID set) or a subscription
// notification (Method + Params set).
type rpcMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *uint64          `json:"id,omitempty"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *rpcError        `json:"error,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  *rpcNotification `json:"params,omitempty"`
}

type rpcNotification struct {
	// Subscription ids arrive as numbers or strings depending on the node.
	Subscription json.RawMessage `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

type callResult struct {
	msg rpcMessage
	err error
}

// wsClient is a JSON-RPC 2.0 client over a single websocket connection,
// multiplexing calls and subscriptions.
type wsClient struct {
	url     string
	conn    *websocket.Conn
	timeout time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan callResult
	subs    map[string]func(json.RawMessage)
	closed  bool
	done    chan struct{}
}

func dialRPC(ctx context.Context, rpcURL string, timeout time.Duration) (*wsClient, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(ctx, rpcURL, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to dial %s: %w", rpcURL, err)
	}

	c := &wsClient{
		url:     rpcURL,
		conn:    conn,
		timeout: timeout,
		pending: make(map[uint64]chan callResult),
		subs:    make(map[string]func(json.RawMessage)),
		done:    make(chan struct{}),
	}
	go c.readLoop()

	return c, nil
}

func (c *wsClient) call(ctx context.Context, method string, params, out any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("rpc connection to %s is closed", c.url)
	}
	c.nextID++
	id := c.nextID
	ch := make(chan callResult, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	req := rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	c.writeMu.Lock()
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("rpc write %s failed: %w", method, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			return res.err
		}
		if res.msg.Error != nil {
			return fmt.Errorf("rpc call %s failed: %w", method, res.msg.Error)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(res.msg.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("rpc call %s timed out after %s", method, c.timeout)
	case <-c.done:
		return fmt.Errorf("rpc connection to %s is closed", c.url)
	}
}

// subscribe issues a subscription call and routes notifications to onMsg.
// The returned function unsubscribes.
func (c *wsClient) subscribe(ctx context.Context, method, unsubMethod string, params any, onMsg func(json.RawMessage)) (func(), error) {
	var rawID json.RawMessage
	if err := c.call(ctx, method, params, &rawID); err != nil {
		return nil, err
	}
	key := subscriptionKey(rawID)

	c.mu.Lock()
	c.subs[key] = onMsg
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		delete(c.subs, key)
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}

		unsubCtx, unsubCancel := context.WithTimeout(context.Background(), c.timeout)
		defer unsubCancel()
		if err := c.call(unsubCtx, unsubMethod, []json.RawMessage{rawID}, nil); err != nil {
			zap.L().Debug("Failed to unsubscribe",
				zap.String("method", unsubMethod),
				zap.Error(err))
		}
	}
	return cancel, nil
}

func (c *wsClient) readLoop() {
	for {
		var msg rpcMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.fail(fmt.Errorf("rpc connection to %s lost: %w", c.url, err))
			return
		}

		if msg.ID != nil {
			c.mu.Lock()
			ch, ok := c.pending[*msg.ID]
			c.mu.Unlock()
			if ok {
				ch <- callResult{msg: msg}
			}
			continue
		}

		if msg.Params != nil {
			c.mu.Lock()
			handler, ok := c.subs[subscriptionKey(msg.Params.Subscription)]
			c.mu.Unlock()
			if ok {
				handler(msg.Params.Result)
			}
		}
	}
}

// fail tears down the connection and unblocks every pending call.
func (c *wsClient) fail(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	pending := c.pending
	c.pending = make(map[uint64]chan callResult)
	c.subs = make(map[string]func(json.RawMessage))
	close(c.done)
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- callResult{err: err}
	}
	_ = c.conn.Close()
}

func (c *wsClient) close() error {
	c.fail(fmt.Errorf("rpc connection to %s closed by caller", c.url))
	return nil
}

func subscriptionKey(raw json.RawMessage) string {
	return strings.Trim(string(raw), `"`)
}
