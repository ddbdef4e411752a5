package browser

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

// fakeService upgrades one connection and answers JSON-RPC requests the
// way the browser service does.
func fakeService(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for {
			var req rpcRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}

			resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
			switch req.Method {
			case "initialize":
				resp.Result = json.RawMessage(`{"protocolVersion":"2024-11-05"}`)
			case "tools/list":
				resp.Result = json.RawMessage(`{"tools":[
					{"name":"navigate","description":"Open a URL","inputSchema":{"type":"object","properties":{"url":{"type":"string"}},"required":["url"]}},
					{"name":"screenshot","inputSchema":{"type":"object"}}
				]}`)
			case "tools/call":
				params, _ := req.Params.(map[string]interface{})
				name, _ := params["name"].(string)
				switch name {
				case "navigate":
					resp.Result = json.RawMessage(`{"ok":true}`)
				case "screenshot":
					resp.Result = json.RawMessage(`{"screenshot":"data:image/png;base64,AAAA"}`)
				default:
					resp.Error = &rpcError{Code: -32000, Message: "element not found"}
				}
			default:
				resp.Error = &rpcError{Code: -32601, Message: "method not found"}
			}

			if err := conn.WriteJSON(resp); err != nil {
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestDialAndListTools(t *testing.T) {
	server := fakeService(t)
	defer server.Close()

	client, err := Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer client.Close()

	tools, err := client.ListTools(context.Background())
	if err != nil {
		t.Fatalf("tools/list failed: %v", err)
	}
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	if tools[0].Name != "navigate" {
		t.Errorf("unexpected tool: %+v", tools[0])
	}

	defs := ToolDefinitions(tools)
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Description != "Open a URL" {
		t.Errorf("description lost: %+v", defs[0])
	}
	if _, ok := defs[0].Parameters["properties"]; !ok {
		t.Errorf("schema lost: %+v", defs[0].Parameters)
	}
}

func TestCallTool(t *testing.T) {
	server := fakeService(t)
	defer server.Close()

	client, err := Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer client.Close()

	result, err := client.CallTool(context.Background(), "navigate", json.RawMessage(`{"url":"https://example.com"}`))
	if err != nil {
		t.Fatalf("tools/call failed: %v", err)
	}
	if string(result) != `{"ok":true}` {
		t.Errorf("unexpected result: %s", result)
	}
}

func TestCallToolFailureIsToolError(t *testing.T) {
	server := fakeService(t)
	defer server.Close()

	client, err := Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer client.Close()

	_, err = client.CallTool(context.Background(), "click", json.RawMessage(`{"selector":"#gone"}`))
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *ToolError, got %v", err)
	}
	if toolErr.Tool != "click" || !strings.Contains(toolErr.Message, "element not found") {
		t.Errorf("unexpected tool error: %+v", toolErr)
	}
}

func TestScreenshot(t *testing.T) {
	server := fakeService(t)
	defer server.Close()

	client, err := Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer client.Close()

	uri, err := client.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("screenshot failed: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("unexpected screenshot payload: %q", uri)
	}
}

func TestDialFailureHidesTopology(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/rpc")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if strings.Contains(err.Error(), "127.0.0.1") {
		t.Errorf("error leaks endpoint: %v", err)
	}
}
