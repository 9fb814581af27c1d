package grpcrpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// codecName selects json framing on every call; the wire messages are the
// flat structs from the proto package, not generated protobufs.
const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
