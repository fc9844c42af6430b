package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fyrsmithlabs/embedd/internal/dispatch"
	"github.com/fyrsmithlabs/embedd/internal/embedder"
	"github.com/spf13/cobra"
)

type embedOutput struct {
	Method     string      `json:"method"`
	Model      string      `json:"model"`
	Count      int         `json:"count"`
	Dimension  int         `json:"dimension"`
	Embeddings [][]float32 `json:"embeddings"`
}

func newEmbedCmd(a *app) *cobra.Command {
	var method, model, file string
	cmd := &cobra.Command{
		Use:   "embed [text...]",
		Short: "Embed texts in-process",
		Long: `Embed texts with the selected backend and print JSON with one row per
input. Texts come from arguments, or one per line from --file ("-" reads
stdin).

Examples:
  embedctl embed "hello world" "goodbye"
  embedctl embed --method grpc --model sentence-transformers/all-MiniLM-L6-v2 hello
  cat lines.txt | embedctl embed --file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := args
			if file != "" {
				lines, err := readLines(cmd, file)
				if err != nil {
					return err
				}
				texts = append(texts, lines...)
			}
			if len(texts) == 0 {
				return fmt.Errorf("no texts to embed")
			}

			cfg, reg, err := a.registry()
			if err != nil {
				return err
			}
			d := dispatch.New(reg, dispatch.Config{Workers: 1, QueueSize: cfg.Dispatch.QueueSize}, nil, nil)
			defer d.Close()

			target, err := d.Resolve(method, model, embedder.InputText)
			if err != nil {
				return err
			}
			res, err := d.Embed(cmd.Context(), target, embedder.Texts(texts))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(embedOutput{
				Method:     target.Method,
				Model:      target.Model,
				Count:      res.Count,
				Dimension:  res.Dimension,
				Embeddings: res.Rows(),
			})
		},
	}
	cmd.Flags().StringVar(&method, "method", "fastembed", "backend name")
	cmd.Flags().StringVar(&model, "model", "AllMiniLML6V2", "model name")
	cmd.Flags().StringVarP(&file, "file", "f", "", `read texts from file, one per line ("-" for stdin)`)
	return cmd
}

func readLines(cmd *cobra.Command, path string) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	// One item per line, byte for byte; only empty lines are skipped.
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
