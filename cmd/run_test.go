package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zinc-sig/seance/internal/harness"
	"github.com/zinc-sig/seance/internal/party"
	"github.com/zinc-sig/seance/internal/predicate"
	"github.com/zinc-sig/seance/internal/record"
	"github.com/zinc-sig/seance/internal/simenv"
)

func TestBuildReportOptions(t *testing.T) {
	tests := []struct {
		name      string
		specs     []string
		wantNames []string
		wantErr   bool
	}{
		{
			name:      "defaults to cost and logs",
			specs:     nil,
			wantNames: []string{"resource cost report", "log report"},
		},
		{
			name:      "cost only",
			specs:     []string{"cost"},
			wantNames: []string{"resource cost report"},
		},
		{
			name:      "filtered logs",
			specs:     []string{"logs:transfer:warning"},
			wantNames: []string{"log report [transfer <= warning]"},
		},
		{
			name:      "order preserved",
			specs:     []string{"logs", "cost"},
			wantNames: []string{"log report", "resource cost report"},
		},
		{
			name:    "unknown spec",
			specs:   []string{"metrics"},
			wantErr: true,
		},
		{
			name:    "malformed filter",
			specs:   []string{"logs:transfer"},
			wantErr: true,
		},
		{
			name:    "unknown severity",
			specs:   []string{"logs:transfer:fatal"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options, err := buildReportOptions(tt.specs)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(options) != len(tt.wantNames) {
				t.Fatalf("expected %d options, got %d", len(tt.wantNames), len(options))
			}
			for i, want := range tt.wantNames {
				if options[i].Name() != want {
					t.Errorf("option %d: got %q, want %q", i, options[i].Name(), want)
				}
			}
		})
	}
}

func scenarioGroup(t *testing.T, funds []int64, amount, fee int64) (*harness.Group[string, string, string], *simenv.Ledger) {
	t.Helper()
	spec := party.FundingSpec{}
	for _, f := range funds {
		spec = spec.Concat(party.Fund(decimal.NewFromInt(f)))
	}
	reg, err := party.NewRegistry(spec)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}

	ledger := simenv.NewLedger(reg)
	backend := simenv.Backend[string, string, string]{Ledger: ledger}

	g, err := harness.New("transfer scenario", backend, reg,
		transferUnit(decimal.NewFromInt(amount), decimal.NewFromInt(fee)))
	if err != nil {
		t.Fatalf("building group: %v", err)
	}
	return g, ledger
}

func TestTransferUnitSucceeds(t *testing.T) {
	g, ledger := scenarioGroup(t, []int64{1000, 500}, 100, 1)

	preds := []predicate.Predicate[string, string, string]{
		predicate.ShouldSucceed[string, string, string](),
		predicate.StateIs[string, string, string]("done"),
		predicate.ShouldYield[string, string]("sent 100 to w2"),
		predicate.FundsSatisfies[string, string, string]("fee deducted from acting party", func(balances []party.Balance) bool {
			return balances[0].Amount.Equal(decimal.NewFromInt(899)) &&
				balances[1].Amount.Equal(decimal.NewFromInt(600))
		}),
	}

	cases, err := g.Evaluate(context.Background(), preds)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for _, c := range cases {
		if !c.Passed {
			t.Errorf("case %q failed:\n%s", c.Name, c.Detail)
		}
	}
	if n := ledger.Executions(); n != 1 {
		t.Errorf("unit executed %d times, want 1", n)
	}
}

func TestTransferUnitInsufficientFunds(t *testing.T) {
	g, _ := scenarioGroup(t, []int64{50, 500}, 100, 1)

	preds := []predicate.Predicate[string, string, string]{
		predicate.ShouldFail[string, string, string](),
		predicate.StateIs[string, string, string]("failed"),
		predicate.ErrorSatisfies[string, string, string]("insufficient funds error", func(e string) bool {
			return strings.Contains(e, "insufficient funds")
		}),
		predicate.FailReasonSatisfies[string, string, string]("domain failure", func(f *record.Failure[string]) bool {
			return f.Kind == record.ExecutionError
		}),
	}

	cases, err := g.Evaluate(context.Background(), preds)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for _, c := range cases {
		if !c.Passed {
			t.Errorf("case %q failed:\n%s", c.Name, c.Detail)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"resource cost report", "resource-cost-report"},
		{"log report [transfer <= warning]", "log-report-[transfer-<=-warning]"},
		{"should yield '42'", "should-yield-42"},
	}

	for _, tt := range tests {
		if got := sanitizeName(tt.input); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
