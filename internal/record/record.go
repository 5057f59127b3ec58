// Package record models the immutable snapshot of one execution of a unit
// under test: its outcome, accumulated state, structured logs, resource
// costs and the post-run balances of every party.
package record

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/zinc-sig/seance/internal/party"
)

// Severity orders log lines from most to least verbose.
type Severity int

const (
	Debug Severity = iota
	Info
	Warning
	Error
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity maps a severity name to its value.
func ParseSeverity(name string) (Severity, error) {
	switch name {
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "warning":
		return Warning, nil
	case "error":
		return Error, nil
	default:
		return 0, fmt.Errorf("record: unknown severity %q", name)
	}
}

// Sufficient reports whether s is at or below the given threshold.
func (s Severity) Sufficient(max Severity) bool {
	return s <= max
}

// Line is one structured log line emitted during a run.
type Line struct {
	Context string
	Level   Severity
	Text    string
}

// CostEntry is one per-operation resource charge.
type CostEntry struct {
	Operation string
	Amount    decimal.Decimal
}

// FailureKind distinguishes domain-level errors from intercepted faults.
type FailureKind int

const (
	// ExecutionError marks an error raised by the unit under test itself.
	ExecutionError FailureKind = iota
	// CaughtException marks an unexpected fault intercepted during the run.
	CaughtException
)

// Failure is the closed failure variant of a run outcome. Exactly one of
// Err (for ExecutionError) or Fault (for CaughtException) is meaningful.
type Failure[E any] struct {
	Kind  FailureKind
	Err   E
	Fault string
}

// Domain wraps a domain-level error raised by the unit under test.
func Domain[E any](err E) *Failure[E] {
	return &Failure[E]{Kind: ExecutionError, Err: err}
}

// Caught wraps an intercepted fault message. Faults never decode into the
// unit's error domain, so they carry only an untyped message.
func Caught[E any](msg string) *Failure[E] {
	return &Failure[E]{Kind: CaughtException, Fault: msg}
}

// String renders the failure for debug output.
func (f *Failure[E]) String() string {
	if f.Kind == CaughtException {
		return fmt.Sprintf("caught exception: %s", f.Fault)
	}
	return fmt.Sprintf("execution error: %v", f.Err)
}

// RunOutput carries the raw products of one run, as yielded by the run
// capability, before balances are attached. Exactly one of Failure or
// Value must be set.
type RunOutput[S, E, V any] struct {
	Failure *Failure[E]
	Value   *V
	State   S
	Logs    []Line
	Cost    []CostEntry
}

// Result is the captured execution record shared by every predicate and
// reporter in a test group. It is created by Capture and never mutated.
type Result[S, E, V any] struct {
	failure  *Failure[E]
	value    *V
	state    S
	logs     []Line
	cost     []CostEntry
	balances []party.Balance
}

// Capture builds the execution record from a run's output and the post-run
// balances. It is the only construction point and enforces that exactly
// one of failure and value is present.
func Capture[S, E, V any](out RunOutput[S, E, V], balances []party.Balance) (*Result[S, E, V], error) {
	if out.Failure == nil && out.Value == nil {
		return nil, fmt.Errorf("record: run yielded neither a value nor a failure")
	}
	if out.Failure != nil && out.Value != nil {
		return nil, fmt.Errorf("record: run yielded both a value and a failure")
	}

	return &Result[S, E, V]{
		failure:  out.Failure,
		value:    out.Value,
		state:    out.State,
		logs:     out.Logs,
		cost:     out.Cost,
		balances: balances,
	}, nil
}

// Failed reports whether the run ended in a failure of either kind.
func (r *Result[S, E, V]) Failed() bool {
	return r.failure != nil
}

// Value returns the success value, if any.
func (r *Result[S, E, V]) Value() (V, bool) {
	if r.value == nil {
		var zero V
		return zero, false
	}
	return *r.value, true
}

// Failure returns the failure reason, or nil on success.
func (r *Result[S, E, V]) Failure() *Failure[E] {
	return r.failure
}

// State returns the accumulated observable state. It is populated even
// when the run failed.
func (r *Result[S, E, V]) State() S {
	return r.state
}

// Logs returns the ordered log lines of the run.
func (r *Result[S, E, V]) Logs() []Line {
	return r.logs
}

// Cost returns the ordered per-operation cost entries. May be empty.
func (r *Result[S, E, V]) Cost() []CostEntry {
	return r.cost
}

// Balances returns the final balance of every party, acting party included,
// as observed one tick after the run completed.
func (r *Result[S, E, V]) Balances() []party.Balance {
	return r.balances
}
