package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodecName is negotiated through the content subtype, so clients send
// application/grpc+json.
const jsonCodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec lets plain Go structs travel over gRPC without generated messages.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}
