// Package models defines the envelopes exchanged with gateway clients.
package models

import (
	"encoding/json"
)

// Request is a single inbound envelope.
type Request struct {
	// ID is echoed back byte-for-byte; it may be any JSON value.
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response carries exactly one of Result or Error.
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result interface{}     `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody is the error object of a failed response.
type ErrorBody struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code,omitempty"`
	Stack   string    `json:"stack,omitempty"`
}

// ParseRequest decodes a raw frame into a Request.
//
// Frames that are not valid JSON, or not a JSON object, return a nil Request.
// A well-formed object whose other fields have the wrong types still returns
// a Request carrying the id, so the error can be echoed to the caller.
// "id": null is kept and echoed as null.
func ParseRequest(raw []byte) (*Request, error) {
	var head struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		if !json.Valid(raw) {
			return nil, NewParseError(err)
		}
		return nil, NewInvalidRequestError("envelope must be a JSON object")
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return &Request{ID: head.ID}, NewInvalidRequestError("invalid envelope: " + err.Error())
	}
	req.ID = head.ID
	return &req, nil
}

// NewResult builds a success response. A nil result is sent as an empty object
// so the envelope always carries one of result or error.
func NewResult(id json.RawMessage, result interface{}) *Response {
	if result == nil {
		result = struct{}{}
	}
	return &Response{ID: id, Result: result}
}

// NewErrorResponse builds a failure response. The stack is included only when
// withStack is set.
func NewErrorResponse(id json.RawMessage, err error, withStack bool) *Response {
	body := &ErrorBody{
		Message: err.Error(),
		Code:    CodeOf(err),
	}
	if withStack {
		body.Stack = StackOf(err)
	}
	return &Response{ID: id, Error: body}
}
