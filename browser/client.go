// Package browser provides a client for the remote headless-browser
// service. The service exposes navigation, DOM interaction, and
// screenshot tools over JSON-RPC on a persistent websocket.
//
// Information Hiding:
// - Websocket lifecycle and reconnect policy
// - JSON-RPC protocol details and request ID tracking
// - Service topology (callers never see host/port in returned errors)

package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrUnavailable reports that the browser service cannot be reached.
// It deliberately carries no endpoint details; those go to the server
// log only.
var ErrUnavailable = errors.New("browser service unavailable")

// ToolError reports that the service accepted a tool call but the tool
// itself failed. It is meant to be fed back to the model as a result,
// not to abort the conversation.
type ToolError struct {
	Tool    string
	Code    int
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed (code %d): %s", e.Tool, e.Code, e.Message)
}

// Client communicates with the browser service via JSON-RPC over a
// persistent websocket. Calls from multiple goroutines are multiplexed
// over the single connection and correlated by request ID.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex // websocket allows one concurrent writer

	mu        sync.Mutex
	requestID uint64
	inflight  map[uint64]chan rpcResponse
	closed    bool
	readErr   error
}

// rpcRequest is a JSON-RPC request to the browser service.
type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// rpcResponse is a JSON-RPC response from the browser service.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is a JSON-RPC error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ToolInfo describes a tool available on the browser service.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// toolsListResult is the result of the tools/list method.
type toolsListResult struct {
	Tools []ToolInfo `json:"tools"`
}

// Dial connects to the browser service at the given websocket URL and
// performs the initialize handshake.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		log.Printf("browser: dial %s failed: %v", url, err)
		return nil, ErrUnavailable
	}

	client := &Client{
		conn:     conn,
		inflight: make(map[uint64]chan rpcResponse),
	}
	go client.readLoop()

	if err := client.initialize(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize browser client: %w", err)
	}

	return client, nil
}

// initialize sends the initialize request to the browser service.
func (c *Client) initialize(ctx context.Context) error {
	params := map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]interface{}{},
		"clientInfo": map[string]interface{}{
			"name":    "webpilot",
			"version": "0.1.0",
		},
	}

	_, err := c.call(ctx, "initialize", params)
	return err
}

// ListTools returns all tools available on the browser service.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	result, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}

	var toolsResult toolsListResult
	if err := json.Unmarshal(result, &toolsResult); err != nil {
		return nil, fmt.Errorf("failed to parse tools list: %w", err)
	}

	return toolsResult.Tools, nil
}

// CallTool calls a tool on the browser service with the given arguments.
// A JSON-RPC error from the service comes back as a *ToolError; a dead
// connection comes back as ErrUnavailable.
func (c *Client) CallTool(ctx context.Context, name string, arguments json.RawMessage) (json.RawMessage, error) {
	params := map[string]interface{}{
		"name":      name,
		"arguments": arguments,
	}

	result, err := c.call(ctx, "tools/call", params)
	if err != nil {
		var rpcErr *rpcError
		if errors.As(err, &rpcErr) {
			return nil, &ToolError{Tool: name, Code: rpcErr.Code, Message: rpcErr.Message}
		}
		return nil, err
	}
	return result, nil
}

// Screenshot captures the current page and returns it as a data URI.
func (c *Client) Screenshot(ctx context.Context) (string, error) {
	result, err := c.CallTool(ctx, "screenshot", json.RawMessage(`{}`))
	if err != nil {
		return "", err
	}

	var payload struct {
		Screenshot string `json:"screenshot"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return "", fmt.Errorf("failed to parse screenshot result: %w", err)
	}
	if payload.Screenshot == "" {
		return "", fmt.Errorf("screenshot result missing image data")
	}
	return payload.Screenshot, nil
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// call sends a JSON-RPC request and waits for the matching response.
func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrUnavailable
	}
	c.requestID++
	id := c.requestID
	ch := make(chan rpcResponse, 1)
	c.inflight[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, id)
		c.mu.Unlock()
	}()

	request := rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}

	c.writeMu.Lock()
	err := c.conn.WriteJSON(request)
	c.writeMu.Unlock()
	if err != nil {
		log.Printf("browser: write %s failed: %v", method, err)
		return nil, ErrUnavailable
	}

	select {
	case response, ok := <-ch:
		if !ok {
			return nil, ErrUnavailable
		}
		if response.Error != nil {
			return nil, response.Error
		}
		return response.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// readLoop reads responses off the websocket and routes each one to the
// waiting caller. On read failure every pending call fails.
func (c *Client) readLoop() {
	for {
		var response rpcResponse
		if err := c.conn.ReadJSON(&response); err != nil {
			c.mu.Lock()
			c.readErr = err
			c.closed = true
			for id, ch := range c.inflight {
				close(ch)
				delete(c.inflight, id)
			}
			c.mu.Unlock()
			return
		}

		c.mu.Lock()
		ch, ok := c.inflight[response.ID]
		c.mu.Unlock()
		if ok {
			ch <- response
		}
	}
}

// Close shuts the websocket down and fails any in-flight calls.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.conn.Close()
}
