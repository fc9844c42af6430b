package tei

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type echoLengths struct {
	UnimplementedEmbedServer
	last *EmbedBatchRequest
}

func (s *echoLengths) EmbedBatch(_ context.Context, req *EmbedBatchRequest) (*EmbedBatchResponse, error) {
	s.last = req
	resp := &EmbedBatchResponse{}
	for _, in := range req.Inputs {
		resp.Embeddings = append(resp.Embeddings, &Embedding{Values: []float32{float32(len(in)), 1}})
	}
	return resp, nil
}

func dial(t *testing.T, srv EmbedServer) EmbedClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(ServerCodec())
	RegisterEmbedServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewEmbedClient(conn)
}

func TestEmbedClient_EmbedBatch(t *testing.T) {
	srv := &echoLengths{}
	client := dial(t, srv)

	resp, err := client.EmbedBatch(context.Background(), &EmbedBatchRequest{
		Inputs:    []string{"a", "abc"},
		Truncate:  true,
		Normalize: true,
		Model:     "sentence-transformers/all-MiniLM-L6-v2",
	})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 2)
	assert.Equal(t, []float32{1, 1}, resp.Embeddings[0].Values)
	assert.Equal(t, []float32{3, 1}, resp.Embeddings[1].Values)

	require.NotNil(t, srv.last)
	assert.Equal(t, "sentence-transformers/all-MiniLM-L6-v2", srv.last.Model)
	assert.True(t, srv.last.Truncate)
}

func TestEmbedClient_Unimplemented(t *testing.T) {
	client := dial(t, UnimplementedEmbedServer{})

	_, err := client.EmbedBatch(context.Background(), &EmbedBatchRequest{Inputs: []string{"a"}})
	require.Error(t, err)
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}
