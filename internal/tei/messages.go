package tei

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// TruncationDirection selects which end of an over-long input is cut.
type TruncationDirection int32

const (
	TruncationRight TruncationDirection = 0
	TruncationLeft  TruncationDirection = 1
)

// EmbedBatchRequest asks the server to embed every input with one model.
type EmbedBatchRequest struct {
	Inputs              []string
	Truncate            bool
	Normalize           bool
	TruncationDirection TruncationDirection
	PromptName          *string
	Dimensions          *uint32
	Model               string
}

// Embedding is one output vector.
type Embedding struct {
	Values []float32
}

// EmbedBatchResponse holds one embedding per input, in input order.
type EmbedBatchResponse struct {
	Embeddings []*Embedding
}

// MarshalBinary encodes the request in proto3 wire format. proto3 strings
// must be valid UTF-8; a request that is not is refused.
func (m *EmbedBatchRequest) MarshalBinary() ([]byte, error) {
	for i, s := range m.Inputs {
		if !utf8.ValidString(s) {
			return nil, fmt.Errorf("tei: inputs[%d] is not valid UTF-8", i)
		}
	}
	if (m.PromptName != nil && !utf8.ValidString(*m.PromptName)) || !utf8.ValidString(m.Model) {
		return nil, errors.New("tei: prompt_name or model is not valid UTF-8")
	}

	var b []byte
	for _, s := range m.Inputs {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, s)
	}
	b = appendBool(b, 2, m.Truncate)
	b = appendBool(b, 3, m.Normalize)
	if m.TruncationDirection != TruncationRight {
		b = protowire.AppendTag(b, 4, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.TruncationDirection))
	}
	if m.PromptName != nil {
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendString(b, *m.PromptName)
	}
	if m.Dimensions != nil {
		b = protowire.AppendTag(b, 6, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(*m.Dimensions))
	}
	if m.Model != "" {
		b = protowire.AppendTag(b, 7, protowire.BytesType)
		b = protowire.AppendString(b, m.Model)
	}
	return b, nil
}

// UnmarshalBinary decodes a proto3 request. Unknown fields are skipped.
func (m *EmbedBatchRequest) UnmarshalBinary(data []byte) error {
	*m = EmbedBatchRequest{}
	return walk(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			m.Inputs = append(m.Inputs, v)
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Truncate = v != 0
			return check(n)
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Normalize = v != 0
			return check(n)
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.TruncationDirection = TruncationDirection(int32(v))
			return check(n)
		case num == 5 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			m.PromptName = &v
			return n, nil
		case num == 6 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			d := uint32(v)
			m.Dimensions = &d
			return check(n)
		case num == 7 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Model = v
			return check(n)
		}
		return 0, nil
	})
}

// MarshalBinary encodes values as a packed repeated float.
func (m *Embedding) MarshalBinary() ([]byte, error) {
	if len(m.Values) == 0 {
		return nil, nil
	}
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(4*len(m.Values)))
	for _, v := range m.Values {
		b = protowire.AppendFixed32(b, math.Float32bits(v))
	}
	return b, nil
}

// UnmarshalBinary accepts both packed and unpacked float encodings.
func (m *Embedding) UnmarshalBinary(data []byte) error {
	*m = Embedding{}
	return walk(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		switch typ {
		case protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			if len(packed)%4 != 0 {
				return 0, fmt.Errorf("tei: packed float field has %d bytes", len(packed))
			}
			if m.Values == nil {
				m.Values = make([]float32, 0, len(packed)/4)
			}
			for len(packed) > 0 {
				v, k := protowire.ConsumeFixed32(packed)
				m.Values = append(m.Values, math.Float32frombits(v))
				packed = packed[k:]
			}
			return n, nil
		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			m.Values = append(m.Values, math.Float32frombits(v))
			return n, nil
		}
		return 0, nil
	})
}

// MarshalBinary encodes the response in proto3 wire format.
func (m *EmbedBatchResponse) MarshalBinary() ([]byte, error) {
	var b []byte
	for _, e := range m.Embeddings {
		if e == nil {
			e = &Embedding{}
		}
		inner, err := e.MarshalBinary()
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	return b, nil
}

// UnmarshalBinary decodes a proto3 response. Unknown fields are skipped.
func (m *EmbedBatchResponse) UnmarshalBinary(data []byte) error {
	*m = EmbedBatchResponse{}
	return walk(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 || typ != protowire.BytesType {
			return 0, nil
		}
		inner, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		e := &Embedding{}
		if err := e.UnmarshalBinary(inner); err != nil {
			return 0, err
		}
		m.Embeddings = append(m.Embeddings, e)
		return n, nil
	})
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

// walk calls field for every field in data. field returns how many value
// bytes it consumed; 0 means the field is unknown and is skipped.
func walk(data []byte, field func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		m, err := field(num, typ, data)
		if err != nil {
			return err
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return protowire.ParseError(m)
			}
		}
		data = data[m:]
	}
	return nil
}

func check(n int) (int, error) {
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}
