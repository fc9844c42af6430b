package main

import (
	"fmt"

	"github.com/fyrsmithlabs/embedd/internal/backend/local"
	"github.com/spf13/cobra"
)

func newONNXCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onnx",
		Short: "Manage the ONNX runtime used by the fastembed backend",
	}

	var force bool
	var onnxVersion string
	install := &cobra.Command{
		Use:   "install",
		Short: "Download the ONNX runtime library",
		Long: `Download the ONNX runtime library required by the fastembed backend.
The library is installed to:
  ~/.config/embedd/lib/

If the ONNX_PATH environment variable is set, that path takes precedence.

Examples:
  embedctl onnx install
  embedctl onnx install --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if onnxVersion == "" {
				cfg, err := a.loadConfig()
				if err != nil {
					return err
				}
				onnxVersion = cfg.FastEmbed.ONNXVersion
			}
			inst := &local.RuntimeInstaller{Version: onnxVersion}

			if !force {
				if path := inst.LibraryPath(); path != "" {
					cmd.Printf("ONNX runtime already installed at: %s\n", path)
					cmd.Println("Use --force to re-download.")
					return nil
				}
			}

			cmd.Printf("Downloading ONNX runtime v%s...\n", onnxVersion)
			if err := inst.Install(cmd.Context()); err != nil {
				return fmt.Errorf("failed to download ONNX runtime: %w", err)
			}
			path := inst.LibraryPath()
			if path == "" {
				return fmt.Errorf("download completed but library not found")
			}
			cmd.Printf("Successfully installed ONNX runtime to: %s\n", path)
			return nil
		},
	}
	install.Flags().BoolVarP(&force, "force", "f", false, "Force re-download even if ONNX runtime exists")
	install.Flags().StringVar(&onnxVersion, "runtime-version", "", "runtime version (default from config)")

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the ONNX runtime library path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := (&local.RuntimeInstaller{}).LibraryPath()
			if p == "" {
				return fmt.Errorf("onnx runtime not installed; run: embedctl onnx install")
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.AddCommand(install, path)
	return cmd
}
