package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check estimatord server health",
	Long: `Check the health status of the estimatord HTTP server.

Examples:
  # Check health
  estimate health

  # Check health on a different server
  estimate health --server http://localhost:8080`,
	RunE: runHealth,
}

// HealthResponse matches internal/http HealthResponse
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Sessions int               `json:"sessions"`
	Checks   map[string]string `json:"checks"`
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", serverURL)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
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

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Server Status: %s\n", healthResp.Status)
	fmt.Fprintf(out, "Server URL: %s\n", serverURL)
	if healthResp.Version != "" {
		fmt.Fprintf(out, "Version: %s\n", healthResp.Version)
	}
	fmt.Fprintf(out, "Active Sessions: %d\n", healthResp.Sessions)

	names := make([]string, 0, len(healthResp.Checks))
	for name := range healthResp.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %s\n", name, healthResp.Checks[name])
	}

	if healthResp.Status != "ok" {
		return fmt.Errorf("server is %s", healthResp.Status)
	}
	return nil
}
