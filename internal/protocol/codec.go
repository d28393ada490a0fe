package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// Envelope is the outer layer of every message.
type Envelope struct {
	Method string          `json:"method"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// Encode builds the bytes of a message. body may be nil.
func Encode(method string, body interface{}) ([]byte, error) {
	env := Envelope{Method: method}
	if body != nil {
		raw, err := sonic.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", method, err)
		}
		env.Body = raw
	}
	return sonic.Marshal(&env)
}

// Decode parses the outer envelope of a message.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Method == "" {
		return nil, fmt.Errorf("decode envelope: missing method")
	}
	return &env, nil
}

// Bind decodes the body into v.
func (e *Envelope) Bind(v interface{}) error {
	if len(e.Body) == 0 {
		return fmt.Errorf("decode %s: empty body", e.Method)
	}
	if err := sonic.Unmarshal(e.Body, v); err != nil {
		return fmt.Errorf("decode %s: %w", e.Method, err)
	}
	return nil
}
