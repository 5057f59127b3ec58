package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zinc-sig/seance/internal/harness"
	"github.com/zinc-sig/seance/internal/upload"
	"github.com/zinc-sig/seance/internal/webhook"
)

// Parsed webhook configuration (internal use)
var (
	webhookConfigParsed *webhook.Config
	webhookRetryConfig  *webhook.RetryConfig
)

// parseWebhookConfig parses the webhook flags into client configuration
func parseWebhookConfig() error {
	if webhookURL == "" {
		return nil // No webhook configured
	}

	var webhookTimeoutDur time.Duration
	if webhookTimeout != "" {
		var err error
		webhookTimeoutDur, err = time.ParseDuration(webhookTimeout)
		if err != nil {
			return fmt.Errorf("invalid webhook timeout duration: %w", err)
		}
	} else {
		webhookTimeoutDur = 30 * time.Second
	}

	var retryDelay time.Duration
	if webhookRetryDelay != "" {
		var err error
		retryDelay, err = time.ParseDuration(webhookRetryDelay)
		if err != nil {
			return fmt.Errorf("invalid webhook retry delay: %w", err)
		}
	} else {
		retryDelay = 1 * time.Second
	}

	webhookConfigParsed = &webhook.Config{
		URL:       webhookURL,
		Method:    "POST",
		Timeout:   webhookTimeoutDur,
		AuthType:  webhookAuthType,
		AuthToken: webhookAuthToken,
	}

	webhookRetryConfig = &webhook.RetryConfig{
		MaxRetries:   webhookRetries,
		InitialDelay: retryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	return nil
}

// printReports writes the rendered reporter cases to stderr in a framed
// section, leaving stdout free for the JSON summary.
func printReports(cases []harness.CaseResult) {
	for _, c := range cases {
		if !c.Passed || c.Detail == "" {
			continue
		}
		fmt.Fprintln(os.Stderr, "========================================")
		fmt.Fprintln(os.Stderr, c.Name)
		fmt.Fprintln(os.Stderr, "========================================")
		fmt.Fprintln(os.Stderr, c.Detail)
	}
}

// publishArtifacts sends the rendered reports and the summary JSON to the
// configured report sink, keyed by run id.
func publishArtifacts(ctx context.Context, sink upload.Sink, summary *webhook.Summary, cases []harness.CaseResult) error {
	for _, c := range cases {
		if c.Detail == "" || !c.Passed {
			continue
		}
		name := fmt.Sprintf("%s/%s.txt", summary.RunID, sanitizeName(c.Name))
		if err := sink.Publish(ctx, strings.NewReader(c.Detail), name); err != nil {
			return fmt.Errorf("failed to publish report %s: %w", c.Name, err)
		}
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary for publishing: %w", err)
	}
	name := fmt.Sprintf("%s/summary.json", summary.RunID)
	if err := sink.Publish(ctx, strings.NewReader(string(data)), name); err != nil {
		return fmt.Errorf("failed to publish summary: %w", err)
	}
	return nil
}

// sanitizeName makes a case name safe to use as an object key segment
func sanitizeName(name string) string {
	replacer := strings.NewReplacer(" ", "-", "/", "-", ":", "-", "'", "")
	return replacer.Replace(strings.ToLower(name))
}

// outputJSON marshals and prints the summary as JSON
func outputJSON(summary *webhook.Summary) error {
	jsonOutput, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON output: %w", err)
	}

	fmt.Println(string(jsonOutput))
	return nil
}

// outputJSONAndWebhook outputs the summary to stdout and optionally sends
// it to the configured webhook first.
func outputJSONAndWebhook(summary *webhook.Summary, verbose bool) error {
	if webhookConfigParsed != nil && webhookConfigParsed.URL != "" {
		client := webhook.NewClient(webhookConfigParsed, webhookRetryConfig, verbose)

		if verbose {
			fmt.Fprintf(os.Stderr, "[WEBHOOK] Sending to %s\n", webhookConfigParsed.URL)
		}

		ctx := context.Background()
		if err := client.Send(ctx, summary); err != nil {
			// Log webhook error but don't fail the scenario
			fmt.Fprintf(os.Stderr, "[WEBHOOK] Error: %v\n", err)

			summary.WebhookSent = false
			summary.WebhookError = err.Error()
		} else {
			summary.WebhookSent = true
		}
	}

	// Always output to stdout
	return outputJSON(summary)
}
