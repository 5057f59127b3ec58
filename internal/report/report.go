// Package report renders the diagnostic side-channels of a test group: a
// resource-cost summary and a structured-log dump. Reports are informational
// and never fail a run.
package report

import (
	"fmt"
	"strings"

	"github.com/zinc-sig/seance/internal/record"
)

type optionKind int

const (
	costReport optionKind = iota
	allLogs
	filteredLogs
)

// Option selects one diagnostic report for a test group. Options are passed
// as a list; their order determines report ordering after the predicate
// test cases.
type Option struct {
	kind    optionKind
	context string
	max     record.Severity
}

// ShowCost requests the resource-cost report.
func ShowCost() Option {
	return Option{kind: costReport}
}

// ShowLogs requests a dump of every log line in order.
func ShowLogs() Option {
	return Option{kind: allLogs}
}

// ShowLogsFor requests a dump of the log lines whose context matches and
// whose severity is at or below max.
func ShowLogsFor(context string, max record.Severity) Option {
	return Option{kind: filteredLogs, context: context, max: max}
}

// Name returns the test case name for the report.
func (o Option) Name() string {
	switch o.kind {
	case costReport:
		return "resource cost report"
	case allLogs:
		return "log report"
	default:
		return fmt.Sprintf("log report [%s <= %s]", o.context, o.max)
	}
}

// Render produces the report body from the shared record's logs and costs.
func (o Option) Render(logs []record.Line, cost []record.CostEntry) string {
	switch o.kind {
	case costReport:
		return RenderCost(cost)
	case allLogs:
		return RenderLogs(logs)
	default:
		return RenderLogs(Filter(logs, o.context, o.max))
	}
}

// RenderCost renders the per-operation cost entries as a framed table, or a
// fixed message when no cost data was recorded.
func RenderCost(entries []record.CostEntry) string {
	var b strings.Builder
	fmt.Fprintln(&b, "----------------------------------------")
	fmt.Fprintln(&b, "Resource Cost Report")
	fmt.Fprintln(&b, "----------------------------------------")

	if len(entries) == 0 {
		fmt.Fprintln(&b, "no cost data recorded")
	} else {
		for _, e := range entries {
			fmt.Fprintf(&b, "%-30s %s\n", e.Operation, e.Amount)
		}
	}

	b.WriteString("----------------------------------------")
	return b.String()
}

// RenderLogs renders log lines with a zero-based sequence index prefix.
func RenderLogs(lines []record.Line) string {
	var b strings.Builder
	fmt.Fprintln(&b, "----------------------------------------")
	fmt.Fprintln(&b, "Log Report")
	fmt.Fprintln(&b, "----------------------------------------")

	for i, line := range lines {
		fmt.Fprintf(&b, "%d: [%s/%s] %s\n", i, line.Context, line.Level, line.Text)
	}

	b.WriteString("----------------------------------------")
	return b.String()
}

// Filter keeps the lines whose context equals context and whose severity is
// sufficient for max, preserving original relative order.
func Filter(lines []record.Line, context string, max record.Severity) []record.Line {
	var kept []record.Line
	for _, line := range lines {
		if line.Context == context && line.Level.Sufficient(max) {
			kept = append(kept, line)
		}
	}
	return kept
}
