// Package hello defines the messages and the service descriptor of the
// hello.Greeter gRPC service.
//
// The messages are encoded by hand in the protobuf wire format, so they are
// byte-compatible with any client generated from:
//
//	syntax = "proto3";
//	package hello;
//
//	service Greeter {
//	  rpc SayHello (HelloRequest) returns (HelloReply);
//	}
//
//	message HelloRequest { string name = 1; }
//	message HelloReply { string message = 1; }
package hello

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// HelloRequest carries the name to greet. Any text is accepted, including "".
type HelloRequest struct {
	Name string // field 1
}

// HelloReply carries the greeting built from a HelloRequest.
type HelloReply struct {
	Message string // field 1
}

// AppendWire appends the wire encoding of m to b.
func (m *HelloRequest) AppendWire(b []byte) []byte {
	return appendString(b, 1, m.Name)
}

// UnmarshalWire resets m and decodes b into it.
func (m *HelloRequest) UnmarshalWire(b []byte) error {
	*m = HelloRequest{}
	return consumeString(b, 1, "hello.HelloRequest.name", &m.Name)
}

func (m *HelloRequest) String() string {
	if m == nil {
		return "<nil>"
	}
	return "name:" + strconv.Quote(m.Name)
}

// AppendWire appends the wire encoding of m to b.
func (m *HelloReply) AppendWire(b []byte) []byte {
	return appendString(b, 1, m.Message)
}

// UnmarshalWire resets m and decodes b into it.
func (m *HelloReply) UnmarshalWire(b []byte) error {
	*m = HelloReply{}
	return consumeString(b, 1, "hello.HelloReply.message", &m.Message)
}

func (m *HelloReply) String() string {
	if m == nil {
		return "<nil>"
	}
	return "message:" + strconv.Quote(m.Message)
}

// appendString follows proto3 semantics: the default value is not emitted.
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// consumeString decodes the single string field num into dst, skipping
// unknown fields. A repeated occurrence of num wins over earlier ones.
func consumeString(b []byte, num protowire.Number, field string, dst *string) error {
	for len(b) > 0 {
		n, typ, tagLen := protowire.ConsumeTag(b)
		if tagLen < 0 {
			return protowire.ParseError(tagLen)
		}
		b = b[tagLen:]

		if n != num {
			valLen := protowire.ConsumeFieldValue(n, typ, b)
			if valLen < 0 {
				return protowire.ParseError(valLen)
			}
			b = b[valLen:]
			continue
		}

		if typ != protowire.BytesType {
			return fmt.Errorf("%s: unexpected wire type %d", field, typ)
		}
		v, valLen := protowire.ConsumeBytes(b)
		if valLen < 0 {
			return protowire.ParseError(valLen)
		}
		if !utf8.Valid(v) {
			return fmt.Errorf("%s: string field contains invalid UTF-8", field)
		}
		*dst = string(v)
		b = b[valLen:]
	}
	return nil
}
