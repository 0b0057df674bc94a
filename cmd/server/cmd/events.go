package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/studentaffairs/portal/internal/domain/events"
)

type eventsOptions struct {
	serverURL string
	search    string
	category  string
	timeframe string
	format    string
	verbose   bool
}

func newEventsCommand() *cobra.Command {
	opts := &eventsOptions{}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Query the public event listing",
		Long: `Query the public event listing of a running server.

Examples:
  # Upcoming sports events
  server events --category Sports --timeframe upcoming

  # Search titles and descriptions, raw JSON
  server events --q "blood drive" --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventsQuery(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.serverURL, "server", "http://localhost:8080", "portal server URL")
	cmd.Flags().StringVar(&opts.search, "q", "", "search text matched against title and description")
	cmd.Flags().StringVar(&opts.category, "category", "", "category name, or All")
	cmd.Flags().StringVar(&opts.timeframe, "timeframe", "", "all, upcoming, ongoing or past")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format (table, json)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "show detailed event information")
	return cmd
}

func runEventsQuery(out io.Writer, opts *eventsOptions) error {
	query := url.Values{}
	for key, value := range map[string]string{"q": opts.search, "category": opts.category, "timeframe": opts.timeframe} {
		if value != "" {
			query.Set(key, value)
		}
	}
	endpoint := strings.TrimRight(opts.serverURL, "/") + "/api/v1/events"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var listing events.Listing
	if err := json.Unmarshal(body, &listing); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if opts.format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(listing)
	}

	if len(listing.Items) == 0 {
		fmt.Fprintln(out, "No events found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d event(s):\n\n", listing.Count)
	for i, item := range listing.Items {
		e := item.Event
		fmt.Fprintf(out, "%d. %s [%s]\n", i+1, e.Title, item.Status)
		if !opts.verbose {
			fmt.Fprintf(out, "   %s\n", strings.Join(nonEmpty(e.Date, e.Time, e.Location), " | "))
			continue
		}
		fmt.Fprintf(out, "   ID:          %d\n", e.ID)
		fmt.Fprintf(out, "   Date:        %s\n", e.Date)
		fmt.Fprintf(out, "   Time:        %s\n", e.Time)
		fmt.Fprintf(out, "   Location:    %s\n", e.Location)
		fmt.Fprintf(out, "   Category:    %s\n", e.Category.Label())
		if desc := e.Description; desc != "" {
			if len(desc) > 100 {
				desc = desc[:97] + "..."
			}
			fmt.Fprintf(out, "   Description: %s\n", desc)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
