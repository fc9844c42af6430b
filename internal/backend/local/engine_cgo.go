//go:build cgo

package local

import (
	fastembed "github.com/anush008/fastembed-go"
)

// flagEngine adapts fastembed.FlagEmbedding to Engine.
type flagEngine struct {
	model *fastembed.FlagEmbedding
}

// DefaultLoader loads models through fastembed-go. Models download into
// opts.CacheDir on first use.
func DefaultLoader(opts LoadOptions) (Engine, error) {
	showProgress := false
	model, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                fastembed.EmbeddingModel(opts.Code),
		CacheDir:             opts.CacheDir,
		MaxLength:            opts.MaxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, err
	}
	return &flagEngine{model: model}, nil
}

func (e *flagEngine) Embed(texts []string, batchSize int) ([][]float32, error) {
	return e.model.Embed(texts, batchSize)
}

func (e *flagEngine) Close() error {
	return e.model.Destroy()
}
