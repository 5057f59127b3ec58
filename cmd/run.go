package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/zinc-sig/seance/internal/harness"
	"github.com/zinc-sig/seance/internal/party"
	"github.com/zinc-sig/seance/internal/predicate"
	"github.com/zinc-sig/seance/internal/record"
	"github.com/zinc-sig/seance/internal/report"
	"github.com/zinc-sig/seance/internal/scenario"
	"github.com/zinc-sig/seance/internal/simenv"
	"github.com/zinc-sig/seance/internal/upload"
	"github.com/zinc-sig/seance/internal/webhook"
)

var (
	fundAmounts []string
	actingIndex int
	amountStr   string
	feeStr      string
	reportSpecs []string
	verbose     bool

	// Webhook configuration
	webhookURL        string
	webhookAuthType   string
	webhookAuthToken  string
	webhookTimeout    string
	webhookRetries    int
	webhookRetryDelay string

	// Report sink flags
	sinkName       string
	sinkConfig     string
	sinkConfigKV   []string
	sinkConfigFile string
)

var runCmd = &cobra.Command{
	Use:   "run [flags]",
	Short: "Run the demo transfer scenario against a simulated ledger",
	Long: `Run a transfer scenario: the acting party sends funds to its first
counterparty on an in-memory ledger. The unit executes exactly once; the
captured record is evaluated against the scenario predicates and rendered
into diagnostic reports. The suite summary is printed as JSON and can be
delivered to a webhook; rendered reports can be published to a report sink.`,
	Example: `  seance run --fund 1000 --fund 500 --amount 100
  seance run --fund 1000 --fund 500 --fund 250 --acting 1 --report cost --report logs:transfer:warning
  seance run --fund 1000 --fund 500 --webhook-url https://ci.example.com/hooks/seance`,
	RunE: runScenario,
}

func runScenario(cmd *cobra.Command, args []string) error {
	if len(fundAmounts) < 2 {
		return fmt.Errorf("at least two --fund amounts are required (acting party plus a counterparty)")
	}

	spec := party.FundingSpec{}
	total := decimal.Zero
	for _, raw := range fundAmounts {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid fund amount %q: %w", raw, err)
		}
		spec = spec.Concat(party.Fund(amount))
		total = total.Add(amount)
	}

	registry, err := party.NewRegistry(spec)
	if err != nil {
		return err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("invalid transfer amount %q: %w", amountStr, err)
	}
	fee, err := decimal.NewFromString(feeStr)
	if err != nil {
		return fmt.Errorf("invalid fee %q: %w", feeStr, err)
	}

	options, err := buildReportOptions(reportSpecs)
	if err != nil {
		return err
	}

	ledger := simenv.NewLedger(registry)
	backend := simenv.Backend[string, string, string]{Ledger: ledger}

	group, err := harness.New("transfer scenario", backend, registry,
		transferUnit(amount, fee), harness.WithActingIndex(actingIndex))
	if err != nil {
		return err
	}

	expectedTotal := total.Sub(fee)
	preds := []predicate.Predicate[string, string, string]{
		predicate.ShouldSucceed[string, string, string](),
		predicate.StateIs[string, string, string]("done"),
		predicate.FundsSatisfies[string, string, string](
			"total funds minus fees are conserved",
			func(balances []party.Balance) bool {
				sum := decimal.Zero
				for _, b := range balances {
					sum = sum.Add(b.Amount)
				}
				return sum.Equal(expectedTotal)
			}),
	}

	// Setup report sink if configured
	var sink upload.Sink
	if sinkName != "" {
		sinkConf, err := scenario.BuildWithPrefix("SEANCE_SINK_CONFIG", sinkConfig, sinkConfigKV, sinkConfigFile)
		if err != nil {
			return fmt.Errorf("failed to build sink config: %w", err)
		}

		sink, err = upload.NewSink(sinkName)
		if err != nil {
			return fmt.Errorf("failed to create report sink: %w", err)
		}
		if err := sink.Configure(sinkConf); err != nil {
			return fmt.Errorf("failed to configure report sink: %w", err)
		}
	}

	ctx := context.Background()
	cases, evalErr := group.Evaluate(ctx, preds, options...)

	var summary *webhook.Summary
	if evalErr != nil {
		summary = webhook.NewErrorSummary(group.Name(), group.Acting().Name, evalErr)
	} else {
		summary = webhook.NewSummary(group.Name(), group.Acting().Name, cases)
		printReports(cases)
	}

	if sink != nil {
		if err := publishArtifacts(ctx, sink, summary, cases); err != nil {
			return err
		}
	}

	if err := outputJSONAndWebhook(summary, verbose); err != nil {
		return err
	}

	if evalErr != nil {
		return evalErr
	}
	if summary.Failed > 0 {
		return fmt.Errorf("scenario failed: %d of %d cases failed", summary.Failed, len(cases))
	}
	return nil
}

// transferUnit builds the demo unit of work: charge a fee, then move the
// amount from the acting party to its first counterparty.
func transferUnit(amount, fee decimal.Decimal) simenv.Unit[string, string, string] {
	return func(tx *simenv.Txn[string]) (string, *record.Failure[string]) {
		tx.SetState("initialized")
		tx.Log("transfer", record.Info, fmt.Sprintf("transferring %s from %s", amount, tx.Acting.Name))

		if len(tx.Others) == 0 {
			return "", record.Domain("no counterparty to receive the transfer")
		}

		tx.Charge("transfer fee", fee)

		if err := tx.Transfer(tx.Others[0].Name, amount); err != nil {
			tx.SetState("failed")
			tx.Log("transfer", record.Error, err.Error())
			return "", record.Domain(err.Error())
		}

		tx.SetState("done")
		tx.Log("transfer", record.Info, fmt.Sprintf("committed transfer to %s", tx.Others[0].Name))
		return fmt.Sprintf("sent %s to %s", amount, tx.Others[0].Name), nil
	}
}

// buildReportOptions parses --report specs: "cost", "logs", or
// "logs:<context>:<max-severity>".
func buildReportOptions(specs []string) ([]report.Option, error) {
	if len(specs) == 0 {
		return []report.Option{report.ShowCost(), report.ShowLogs()}, nil
	}

	options := make([]report.Option, 0, len(specs))
	for _, spec := range specs {
		switch {
		case spec == "cost":
			options = append(options, report.ShowCost())
		case spec == "logs":
			options = append(options, report.ShowLogs())
		case strings.HasPrefix(spec, "logs:"):
			parts := strings.SplitN(spec, ":", 3)
			if len(parts) != 3 {
				return nil, fmt.Errorf("invalid report spec %q, expected logs:<context>:<max-severity>", spec)
			}
			max, err := record.ParseSeverity(parts[2])
			if err != nil {
				return nil, fmt.Errorf("invalid report spec %q: %w", spec, err)
			}
			options = append(options, report.ShowLogsFor(parts[1], max))
		default:
			return nil, fmt.Errorf("unknown report spec %q", spec)
		}
	}
	return options, nil
}

func init() {
	runCmd.Flags().StringArrayVar(&fundAmounts, "fund", nil, "Initial amount for one party (repeat per party, registry order)")
	runCmd.Flags().IntVar(&actingIndex, "acting", 0, "Registry index of the acting party")
	runCmd.Flags().StringVar(&amountStr, "amount", "10", "Amount the acting party transfers to its first counterparty")
	runCmd.Flags().StringVar(&feeStr, "fee", "1", "Fee charged to the acting party for the transfer")
	runCmd.Flags().StringArrayVar(&reportSpecs, "report", nil, "Diagnostic report: cost, logs, or logs:<context>:<max-severity> (repeatable)")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show webhook delivery progress on stderr")

	_ = runCmd.MarkFlagRequired("fund")

	// Webhook flags
	runCmd.Flags().StringVar(&webhookURL, "webhook-url", "", "Webhook URL to send the suite summary to")
	runCmd.Flags().StringVar(&webhookAuthType, "webhook-auth-type", "none", "Authentication type: none, bearer, api-key")
	runCmd.Flags().StringVar(&webhookAuthToken, "webhook-auth-token", "", "Authentication token (use with --webhook-auth-type)")
	runCmd.Flags().IntVar(&webhookRetries, "webhook-retries", 3, "Maximum webhook retry attempts (0 = no retries)")
	runCmd.Flags().StringVar(&webhookRetryDelay, "webhook-retry-delay", "1s", "Initial delay between webhook retries")
	runCmd.Flags().StringVar(&webhookTimeout, "webhook-timeout", "30s", "Total timeout for webhook including retries")

	// Report sink flags
	runCmd.Flags().StringVar(&sinkName, "sink", "", "Report sink type (e.g., minio)")
	runCmd.Flags().StringVar(&sinkConfig, "sink-config", "", "Sink configuration as JSON string")
	runCmd.Flags().StringArrayVar(&sinkConfigKV, "sink-config-kv", nil, "Sink config key=value pairs (can be used multiple times)")
	runCmd.Flags().StringVar(&sinkConfigFile, "sink-config-file", "", "Path to JSON file containing sink configuration")

	runCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return parseWebhookConfig()
	}
}
