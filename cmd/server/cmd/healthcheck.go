package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type healthResponse struct {
	Status string `json:"status"`
}

func newHealthcheckCommand() *cobra.Command {
	var (
		timeout time.Duration
		url     string
	)

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is healthy",
		Long: `Calls the liveness endpoint of a running server. Used as the container
HEALTHCHECK: exits 0 when the server answers {"status":"ok"}.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := url
			if target == "" {
				port := os.Getenv("SERVER_PORT")
				if port == "" {
					port = "8080"
				}
				target = fmt.Sprintf("http://localhost:%s/healthz", port)
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return runHealthcheck(ctx, target)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	cmd.Flags().StringVar(&url, "url", "", "health check URL (default: http://localhost:$SERVER_PORT/healthz)")
	return cmd
}

func runHealthcheck(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("parse health response: %w", err)
	}
	if body.Status != "ok" {
		return fmt.Errorf("unhealthy: status=%s", body.Status)
	}
	return nil
}
