// Package codec provides a connect codec for plain Go structs.
package codec

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Name replaces connect's built-in protobuf JSON codec.
const Name = "json"

type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func NewJSONCodec() connect.Codec { return jsonCodec{} }

func (jsonCodec) Name() string { return Name }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal into %T: %w", msg, err)
	}
	return nil
}
