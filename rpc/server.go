// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

// Package rpc implements the minimal JSON-RPC HTTP server named in §6: the
// method surface an external collaborator can call synchronously against
// this node's chain data, kept deliberately thin — reads only, glue from
// the chain store to wire types, no new business logic.
package rpc

import (
	"encoding/json"
	"net/http"

	"github.com/mana-ethereum/mana-sub006/log"
)

// Standard JSON-RPC 2.0 error codes, per §6's error taxonomy.
const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
	ErrCodeNotSupported   = -32604
	ErrCodeServer         = -32000
)

// Request is one JSON-RPC call, batched or single.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Error is a JSON-RPC error object. It implements the error interface so a
// handler can return one directly and have Server preserve its code.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// Response is one JSON-RPC reply, batched or single.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// HandlerFunc answers one already-decoded method call with its raw params.
type HandlerFunc func(params json.RawMessage) (interface{}, error)

// Server dispatches JSON-RPC requests by method name over HTTP, per §6's
// enumerated surface. Handlers are registered by the caller (cmd/sync,
// cmd/mana) once the chain store and peer set they close over exist.
type Server struct {
	methods map[string]HandlerFunc
	log     log.Logger
}

func NewServer() *Server {
	return &Server{methods: make(map[string]HandlerFunc), log: log.New("component", "rpc")}
}

// Register wires method to handler. Calling it twice for the same method
// replaces the handler, matching how a typical API module set-up works.
func (s *Server) Register(method string, handler HandlerFunc) {
	s.methods[method] = handler
}

// ServeHTTP implements http.Handler: it decodes either a single request or
// a batch (a JSON array), dispatches each, and writes back the
// corresponding single object or array of objects. IDs are echoed verbatim
// per §6, including string or number forms.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := decodeBody(r)
	if err != nil {
		writeJSON(w, &Response{JSONRPC: "2.0", Error: &Error{Code: ErrCodeParse, Message: "parse error"}})
		return
	}

	trimmed := trimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var reqs []Request
		if err := json.Unmarshal(trimmed, &reqs); err != nil {
			writeJSON(w, &Response{JSONRPC: "2.0", Error: &Error{Code: ErrCodeParse, Message: "parse error"}})
			return
		}
		if len(reqs) == 0 {
			writeJSON(w, &Response{JSONRPC: "2.0", Error: &Error{Code: ErrCodeInvalidRequest, Message: "empty batch"}})
			return
		}
		resps := make([]*Response, len(reqs))
		for i, req := range reqs {
			resps[i] = s.dispatch(&req)
		}
		writeJSON(w, resps)
		return
	}

	var req Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		writeJSON(w, &Response{JSONRPC: "2.0", Error: &Error{Code: ErrCodeParse, Message: "parse error"}})
		return
	}
	writeJSON(w, s.dispatch(&req))
}

func (s *Server) dispatch(req *Request) *Response {
	resp := &Response{JSONRPC: "2.0", ID: req.ID}
	if req.Method == "" {
		resp.Error = &Error{Code: ErrCodeInvalidRequest, Message: "missing method"}
		return resp
	}
	handler, ok := s.methods[req.Method]
	if !ok {
		resp.Error = &Error{Code: ErrCodeMethodNotFound, Message: "method not found: " + req.Method}
		return resp
	}
	result, err := handler(req.Params)
	if err != nil {
		if rpcErr, ok := err.(*Error); ok {
			resp.Error = rpcErr
			return resp
		}
		s.log.Warn("rpc handler failed", "method", req.Method, "err", err)
		resp.Error = &Error{Code: ErrCodeInternal, Message: err.Error()}
		return resp
	}
	resp.Result = result
	return resp
}

func decodeBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := r.Body.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			break
		}
	}
	return buf, nil
}

func trimSpace(b []byte) []byte {
	start := 0
	for start < len(b) && isSpace(b[start]) {
		start++
	}
	end := len(b)
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}
