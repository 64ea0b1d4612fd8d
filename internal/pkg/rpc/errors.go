package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	CodeMisc           = -1
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
)

// Error is an RPC error in the standard {code, message} shape.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("RPC code(%d) error: %s", e.Code, e.Message)
}

// MalformedError is an error object that could not be read as {code, message}.
type MalformedError struct {
	Raw json.RawMessage
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed RPC error object: %s", string(e.Raw))
}

var null = []byte("null")

// IsNull reports whether raw carries no value at all.
func IsNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, null)
}

// DecodeError reads an error object. Both fields must be present and typed
// as an integer code and a string message, otherwise a *MalformedError is
// returned.
func DecodeError(raw json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return &MalformedError{Raw: raw}
	}

	codeRaw, hasCode := fields["code"]
	messageRaw, hasMessage := fields["message"]
	if !hasCode || !hasMessage || IsNull(codeRaw) || IsNull(messageRaw) {
		return &MalformedError{Raw: raw}
	}

	var rpcErr Error
	if err := json.Unmarshal(codeRaw, &rpcErr.Code); err != nil {
		return &MalformedError{Raw: raw}
	}
	if err := json.Unmarshal(messageRaw, &rpcErr.Message); err != nil {
		return &MalformedError{Raw: raw}
	}

	return &rpcErr
}
