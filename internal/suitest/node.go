// Package suitest runs an in-process JSON-RPC server that stands in for a Sui full node in tests.
package suitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Handler answers one method call. Returning an error produces a JSON-RPC error response.
type Handler func(params []json.RawMessage) (any, error)

// Node is a scriptable fake full node.
type Node struct {
	server *httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	requests map[string][][]json.RawMessage
}

type request struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// NewNode starts the server; call Close when done.
func NewNode() *Node {
	n := &Node{
		handlers: make(map[string]Handler),
		requests: make(map[string][][]json.RawMessage),
	}
	n.server = httptest.NewServer(http.HandlerFunc(n.serve))
	return n
}

// URL is the HTTP endpoint of the node.
func (n *Node) URL() string { return n.server.URL }

// Close stops the server.
func (n *Node) Close() { n.server.Close() }

// Handle registers h for method, replacing any previous handler.
func (n *Node) Handle(method string, h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

// Requests returns the params of every call made to method, in arrival order.
func (n *Node) Requests(method string) [][]json.RawMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([][]json.RawMessage, len(n.requests[method]))
	copy(out, n.requests[method])
	return out
}

// Calls counts calls made to method.
func (n *Node) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.requests[method])
}

func (n *Node) serve(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n.mu.Lock()
	n.requests[req.Method] = append(n.requests[req.Method], req.Params)
	h := n.handlers[req.Method]
	n.mu.Unlock()

	resp := response{JSONRPC: "2.0", ID: req.ID}
	if h == nil {
		resp.Error = &rpcError{Code: -32601, Message: fmt.Sprintf("method %s not found", req.Method)}
	} else if result, err := h(req.Params); err != nil {
		resp.Error = &rpcError{Code: -32000, Message: err.Error()}
	} else {
		resp.Result = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Result wraps a literal JSON document so handlers can return canned payloads.
func Result(doc string) json.RawMessage { return json.RawMessage(doc) }

// Static answers every call with the same literal JSON.
func Static(doc string) Handler {
	return func([]json.RawMessage) (any, error) { return Result(doc), nil }
}

// String decodes a string parameter, returning "" when it is not a string.
func String(raw json.RawMessage) string {
	var s string
	_ = json.Unmarshal(raw, &s)
	return s
}
