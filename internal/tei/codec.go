package tei

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// Message is implemented by every wire type in this package.
type Message interface {
	MarshalBinary() ([]byte, error)
	UnmarshalBinary([]byte) error
}

// Codec encodes Messages in proto3 binary form under the "proto" content
// subtype, so TEI servers see ordinary protobuf requests.
type Codec struct{}

var _ encoding.Codec = Codec{}

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("tei: cannot marshal %T", v)
	}
	return m.MarshalBinary()
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("tei: cannot unmarshal into %T", v)
	}
	return m.UnmarshalBinary(data)
}

func (Codec) Name() string { return "proto" }

// ServerCodec makes a grpc.Server decode requests with Codec.
func ServerCodec() grpc.ServerOption {
	return grpc.ForceServerCodec(Codec{})
}
