package main

import (
	"fmt"

	"github.com/fyrsmithlabs/embedd/internal/embedder"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	var inputType string
	cmd := &cobra.Command{
		Use:   "validate <method> <model>",
		Short: "Resolve a method and model name to numeric IDs",
		Long: `Resolve names to (method_id, model_id) and check the model accepts the
input type. The error names the cause: unknown method, unknown model or
unsupported input type.

Examples:
  embedctl validate fastembed AllMiniLML6V2
  embedctl validate fastembed fast-bge-small-en-v1.5
  embedctl validate grpc sentence-transformers/all-MiniLM-L6-v2 --input-type image`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := embedder.ParseInputType(inputType)
			if err != nil {
				return err
			}
			_, reg, err := a.registry()
			if err != nil {
				return err
			}

			methodID, ok := reg.ResolveMethodName(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", embedder.ErrUnknownMethod, args[0])
			}
			modelID, err := reg.LookupModel(methodID, args[1], t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "method_id=%d model_id=%d\n", methodID, modelID)
			return nil
		},
	}
	cmd.Flags().StringVar(&inputType, "input-type", "text", "input modality (text, image)")
	return cmd
}

func inputNames(ts []embedder.InputType) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.String())
	}
	return out
}
