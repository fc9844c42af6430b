// Package tei holds the wire types and gRPC stubs for the Text Embeddings
// Inference embed service (tei.v1.Embed).
//
// Messages are encoded by hand with protowire so no generated code or
// protoc step is needed. The schema lives in proto/tei/v1/tei.proto.
// Clients and servers select the codec per call (ForceCodec) or per server
// (ServerCodec); nothing is registered globally.
package tei
