package remote

import "github.com/fyrsmithlabs/embedd/internal/embedder"

const (
	MethodID   int32 = 1
	MethodName       = "grpc"
)

// Models is the remote catalog. Names are sent to the server verbatim.
var Models = embedder.Catalog{
	{ID: 0, Name: "sentence-transformers/all-MiniLM-L6-v2", Inputs: []embedder.InputType{embedder.InputText}, Dimension: 384},
	{ID: 1, Name: "sentence-transformers/bge-large-en-v1.5", Inputs: []embedder.InputType{embedder.InputText}, Dimension: 1024},
}
