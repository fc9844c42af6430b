package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// healthResponse matches the daemon's GET /health body.
type healthResponse struct {
	Status     string `json:"status"`
	Workers    int    `json:"workers"`
	QueueDepth int    `json:"queue_depth"`
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check embedd server health",
		Long: `Check the health status of a running embedd daemon.

Examples:
  embedctl health
  embedctl health --server http://10.0.0.5:9191`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url := fmt.Sprintf("%s/health", a.serverURL)
			client := &http.Client{Timeout: 5 * time.Second}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("failed to connect to %s: %w", url, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, readErr := io.ReadAll(resp.Body)
				if readErr != nil {
					return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
				}
				return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
			}

			var h healthResponse
			if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server Status: %s\n", h.Status)
			fmt.Fprintf(out, "Server URL: %s\n", a.serverURL)
			fmt.Fprintf(out, "Workers: %d (queued: %d)\n", h.Workers, h.QueueDepth)
			return nil
		},
	}
}
