package tei

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestEmbedBatchRequest_WireLayout(t *testing.T) {
	req := &EmbedBatchRequest{
		Inputs:    []string{"a", "bc"},
		Truncate:  true,
		Normalize: true,
		Model:     "m",
	}
	got, err := req.MarshalBinary()
	require.NoError(t, err)

	want := []byte{
		0x0a, 0x01, 'a', // inputs
		0x0a, 0x02, 'b', 'c',
		0x10, 0x01, // truncate
		0x18, 0x01, // normalize
		0x3a, 0x01, 'm', // model
	}
	assert.Equal(t, want, got)
}

func TestEmbedBatchRequest_OptionalFields(t *testing.T) {
	prompt := "query"
	dims := uint32(256)
	in := &EmbedBatchRequest{
		Inputs:              []string{"x"},
		TruncationDirection: TruncationLeft,
		PromptName:          &prompt,
		Dimensions:          &dims,
	}
	b, err := in.MarshalBinary()
	require.NoError(t, err)

	var out EmbedBatchRequest
	require.NoError(t, out.UnmarshalBinary(b))
	assert.Equal(t, *in, out)
	assert.False(t, out.Truncate)
}

func TestEmbedBatchRequest_SkipsUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendString(b, "ignored")
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, "kept")
	b = protowire.AppendTag(b, 100, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, 7)

	var req EmbedBatchRequest
	require.NoError(t, req.UnmarshalBinary(b))
	assert.Equal(t, []string{"kept"}, req.Inputs)
}

func TestEmbedding_PackedAndUnpacked(t *testing.T) {
	packed, err := (&Embedding{Values: []float32{0.5, -1, 2.25}}).MarshalBinary()
	require.NoError(t, err)

	var e Embedding
	require.NoError(t, e.UnmarshalBinary(packed))
	assert.Equal(t, []float32{0.5, -1, 2.25}, e.Values)

	var unpacked []byte
	for _, v := range []float32{1, 2} {
		unpacked = protowire.AppendTag(unpacked, 1, protowire.Fixed32Type)
		unpacked = protowire.AppendFixed32(unpacked, math.Float32bits(v))
	}
	require.NoError(t, e.UnmarshalBinary(unpacked))
	assert.Equal(t, []float32{1, 2}, e.Values)
}

func TestEmbedding_BadPackedLength(t *testing.T) {
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte{1, 2, 3})

	var e Embedding
	assert.Error(t, e.UnmarshalBinary(b))
}

func TestEmbedBatchResponse_PreservesOrder(t *testing.T) {
	resp := &EmbedBatchResponse{Embeddings: []*Embedding{
		{Values: []float32{1, 2}},
		{Values: []float32{3, 4}},
		{},
	}}
	b, err := resp.MarshalBinary()
	require.NoError(t, err)

	var out EmbedBatchResponse
	require.NoError(t, out.UnmarshalBinary(b))
	require.Len(t, out.Embeddings, 3)
	assert.Equal(t, []float32{1, 2}, out.Embeddings[0].Values)
	assert.Equal(t, []float32{3, 4}, out.Embeddings[1].Values)
	assert.Empty(t, out.Embeddings[2].Values)
}

func TestUnmarshal_Truncated(t *testing.T) {
	var resp EmbedBatchResponse
	assert.Error(t, resp.UnmarshalBinary([]byte{0x0a, 0x05, 0x0d}))

	var req EmbedBatchRequest
	assert.Error(t, req.UnmarshalBinary([]byte{0x0a}))
}

func TestEmbedBatchRequest_RejectsInvalidUTF8(t *testing.T) {
	_, err := (&EmbedBatchRequest{Inputs: []string{"ok", "\xc3\x28"}}).MarshalBinary()
	assert.ErrorContains(t, err, "inputs[1]")

	_, err = (&EmbedBatchRequest{Inputs: []string{"ok"}, Model: "\xff"}).MarshalBinary()
	assert.Error(t, err)

	_, err = Codec{}.Marshal(&EmbedBatchRequest{Inputs: []string{"\xff"}})
	assert.Error(t, err)
}

func TestCodec(t *testing.T) {
	c := Codec{}
	assert.Equal(t, "proto", c.Name())

	_, err := c.Marshal("not a message")
	assert.Error(t, err)
	assert.Error(t, c.Unmarshal(nil, new(int)))

	b, err := c.Marshal(&EmbedBatchRequest{Inputs: []string{"hi"}})
	require.NoError(t, err)
	var req EmbedBatchRequest
	require.NoError(t, c.Unmarshal(b, &req))
	assert.Equal(t, []string{"hi"}, req.Inputs)
}
