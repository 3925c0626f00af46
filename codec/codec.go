// Package codec implements the gRPC codec used by the hello.Greeter server and
// client.
//
// gRPC's default codec only understands generated protobuf messages. The hello
// messages are encoded by hand, so this codec dispatches on WireMessage first
// and falls back to the protobuf runtime for anything else. It is installed per
// server (grpc.ForceServerCodec) and per call (grpc.ForceCodec) instead of
// being registered globally, so other gRPC users in the process, such as the
// etcd client, keep the stock codec.
package codec

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

// Name is the content-subtype the codec answers to. It is the same as the
// stock protobuf codec because the bytes on the wire are protobuf.
const Name = "proto"

// WireMessage is a message that encodes itself in the protobuf wire format.
type WireMessage interface {
	AppendWire(b []byte) []byte
	UnmarshalWire(b []byte) error
}

// Codec implements encoding.Codec.
type Codec struct{}

var _ encoding.Codec = Codec{}

func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case WireMessage:
		return m.AppendWire(nil), nil
	case proto.Message:
		return proto.Marshal(m)
	default:
		return nil, fmt.Errorf("codec: cannot marshal %T", v)
	}
}

func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case WireMessage:
		return m.UnmarshalWire(data)
	case proto.Message:
		return proto.Unmarshal(data, m)
	default:
		return fmt.Errorf("codec: cannot unmarshal into %T", v)
	}
}

func (Codec) Name() string {
	return Name
}
