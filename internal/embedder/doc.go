// Package embedder defines the embedding backend contract and the registry
// that resolves human-readable method and model names to stable numeric IDs.
//
// # Overview
//
// Every backend (local ONNX runtime, remote gRPC service) implements Embedder.
// Backends are handed to NewRegistry once at startup in a fixed order; the
// registry is read-only afterwards and safe for concurrent use.
//
// Callers resolve names at the boundary and keep only integers:
//
//	methodID, ok := reg.ResolveMethodName("fastembed")
//	modelID, ok := reg.ValidateModel(methodID, "AllMiniLML6V2", embedder.InputText)
//
// and then embed on a worker-owned context:
//
//	wc := embedder.NewWorkerContext(0)
//	defer wc.Close()
//	e, _ := reg.FindByMethodID(methodID)
//	res, err := e.Embed(ctx, wc, modelID, embedder.Texts{"hello", "world"})
//
// # Worker Contexts
//
// Heavy resources (loaded models, RPC clients) are cached in a WorkerContext.
// A WorkerContext belongs to exactly one goroutine and is never shared, so it
// carries no locks. At most one resource is built per (method, model, worker);
// failed builds are not cached.
//
// # Results
//
// Result is a flat row-major buffer: len(Flat) == Count*Dimension.
package embedder
