package http

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	Workers    int    `json:"workers"`
	QueueDepth int    `json:"queue_depth"`
}

// ModelResponse describes one catalog entry.
type ModelResponse struct {
	ID         int32    `json:"id"`
	Name       string   `json:"name"`
	InputTypes []string `json:"input_types"`
	Dimension  int      `json:"dimension,omitempty"`
}

// MethodResponse describes one backend and its catalog.
type MethodResponse struct {
	ID     int32           `json:"id"`
	Name   string          `json:"name"`
	Models []ModelResponse `json:"models"`
}

// MethodsResponse is the response body for GET /api/v1/methods.
type MethodsResponse struct {
	Methods []MethodResponse `json:"methods"`
}

// ValidateRequest is the request body for POST /api/v1/validate.
type ValidateRequest struct {
	Method string `json:"method"`
	Model  string `json:"model"`
	// InputType is "text" or "image". Empty means text.
	InputType string `json:"input_type"`
}

// ValidateResponse is the response body for POST /api/v1/validate.
type ValidateResponse struct {
	MethodID int32 `json:"method_id"`
	ModelID  int32 `json:"model_id"`
}

// EmbedRequest is the request body for POST /api/v1/embed.
type EmbedRequest struct {
	Method string   `json:"method"`
	Model  string   `json:"model"`
	Inputs []string `json:"inputs"`
}

// EmbedResponse is the response body for POST /api/v1/embed. Embeddings is
// row-major: row i is Embeddings[i*Dimension:(i+1)*Dimension].
type EmbedResponse struct {
	Method     string    `json:"method"`
	Model      string    `json:"model"`
	Count      int       `json:"count"`
	Dimension  int       `json:"dimension"`
	Embeddings []float32 `json:"embeddings"`
}
