package report

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zinc-sig/seance/internal/record"
)

func TestRenderCostEmpty(t *testing.T) {
	out := RenderCost(nil)
	if !strings.Contains(out, "no cost data recorded") {
		t.Errorf("empty cost report missing fixed message:\n%s", out)
	}
}

func TestRenderCostEntries(t *testing.T) {
	entries := []record.CostEntry{
		{Operation: "mint", Amount: decimal.NewFromInt(12)},
		{Operation: "transfer", Amount: decimal.RequireFromString("3.5")},
	}

	out := RenderCost(entries)
	if strings.Contains(out, "no cost data recorded") {
		t.Errorf("non-empty cost report rendered the empty message:\n%s", out)
	}
	if !strings.Contains(out, "mint") || !strings.Contains(out, "12") {
		t.Errorf("cost report missing mint entry:\n%s", out)
	}
	if !strings.Contains(out, "transfer") || !strings.Contains(out, "3.5") {
		t.Errorf("cost report missing transfer entry:\n%s", out)
	}

	// Entries keep their original order
	if strings.Index(out, "mint") > strings.Index(out, "transfer") {
		t.Errorf("cost entries out of order:\n%s", out)
	}
}

func sampleLines() []record.Line {
	return []record.Line{
		{Context: "transfer", Level: record.Info, Text: "starting"},
		{Context: "mint", Level: record.Debug, Text: "minting"},
		{Context: "transfer", Level: record.Error, Text: "rejected"},
		{Context: "transfer", Level: record.Warning, Text: "retrying"},
		{Context: "transfer", Level: record.Debug, Text: "balance checked"},
	}
}

func TestRenderLogsIndexesFromZero(t *testing.T) {
	out := RenderLogs(sampleLines())

	for _, want := range []string{
		"0: [transfer/info] starting",
		"1: [mint/debug] minting",
		"2: [transfer/error] rejected",
		"3: [transfer/warning] retrying",
		"4: [transfer/debug] balance checked",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log report missing %q:\n%s", want, out)
		}
	}
}

func TestFilterReindexesFromZero(t *testing.T) {
	kept := Filter(sampleLines(), "transfer", record.Warning)

	// Only transfer-context lines at warning or below, original order kept
	if len(kept) != 3 {
		t.Fatalf("expected 3 kept lines, got %d", len(kept))
	}
	if kept[0].Text != "starting" || kept[1].Text != "retrying" || kept[2].Text != "balance checked" {
		t.Errorf("unexpected kept lines: %+v", kept)
	}

	out := RenderLogs(kept)
	for _, want := range []string{
		"0: [transfer/info] starting",
		"1: [transfer/warning] retrying",
		"2: [transfer/debug] balance checked",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("filtered report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "rejected") || strings.Contains(out, "minting") {
		t.Errorf("filtered report leaked excluded lines:\n%s", out)
	}
}

func TestOptionNames(t *testing.T) {
	tests := []struct {
		option Option
		want   string
	}{
		{ShowCost(), "resource cost report"},
		{ShowLogs(), "log report"},
		{ShowLogsFor("transfer", record.Warning), "log report [transfer <= warning]"},
	}

	for _, tt := range tests {
		if got := tt.option.Name(); got != tt.want {
			t.Errorf("option name: got %q, want %q", got, tt.want)
		}
	}
}

func TestOptionRender(t *testing.T) {
	lines := sampleLines()
	cost := []record.CostEntry{{Operation: "mint", Amount: decimal.NewFromInt(1)}}

	if out := ShowCost().Render(lines, cost); !strings.Contains(out, "mint") {
		t.Errorf("cost option did not render cost entries:\n%s", out)
	}
	if out := ShowLogs().Render(lines, cost); !strings.Contains(out, "minting") {
		t.Errorf("log option did not render all lines:\n%s", out)
	}
	if out := ShowLogsFor("mint", record.Debug).Render(lines, cost); !strings.Contains(out, "0: [mint/debug] minting") {
		t.Errorf("filtered option did not render the mint line reindexed:\n%s", out)
	}
}
