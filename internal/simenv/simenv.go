// Package simenv is a deterministic in-memory ledger used as the backing
// environment for harness tests and the demo scenario. Time is a logical
// tick counter and all randomness is absent, so runs are repeatable.
package simenv

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"github.com/zinc-sig/seance/internal/party"
	"github.com/zinc-sig/seance/internal/record"
)

// Ledger holds the balances and the logical clock of the simulated
// environment. It also counts Execute invocations so tests can assert the
// harness's run-once guarantee.
type Ledger struct {
	mu         sync.Mutex
	balances   map[string]decimal.Decimal
	clock      int64
	executions int64
}

// NewLedger seeds a ledger from a registry's initial funding.
func NewLedger(registry *party.Registry) *Ledger {
	balances := make(map[string]decimal.Decimal, registry.Len())
	for _, p := range registry.All() {
		balances[p.Name] = p.Initial
	}
	return &Ledger{balances: balances}
}

// QueryBalance returns the current balance of a party.
func (l *Ledger) QueryBalance(ctx context.Context, p party.Party) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	amount, ok := l.balances[p.Name]
	if !ok {
		return decimal.Zero, fmt.Errorf("simenv: unknown party %s", p.Name)
	}
	return amount, nil
}

// AdvanceTime moves the logical clock forward.
func (l *Ledger) AdvanceTime(ctx context.Context, ticks int) error {
	if ticks < 0 {
		return fmt.Errorf("simenv: cannot advance time by %d ticks", ticks)
	}
	atomic.AddInt64(&l.clock, int64(ticks))
	return nil
}

// Clock returns the current logical time.
func (l *Ledger) Clock() int64 {
	return atomic.LoadInt64(&l.clock)
}

// Executions returns how many times a unit has been executed against this
// ledger.
func (l *Ledger) Executions() int64 {
	return atomic.LoadInt64(&l.executions)
}

// Txn is the view a unit of work gets while it runs: the acting party, the
// counterparties, and the effect surface. State, logs and costs accumulate
// on the transaction and survive into the record even when the run fails.
type Txn[S any] struct {
	ledger *Ledger
	Acting party.Party
	Others []party.Party

	state S
	logs  []record.Line
	cost  []record.CostEntry
}

// SetState records the observable state of the unit under test.
func (t *Txn[S]) SetState(s S) { t.state = s }

// Log appends one structured log line.
func (t *Txn[S]) Log(classifier string, level record.Severity, text string) {
	t.logs = append(t.logs, record.Line{Context: classifier, Level: level, Text: text})
}

// Charge records a per-operation cost and deducts it from the acting
// party's balance.
func (t *Txn[S]) Charge(operation string, amount decimal.Decimal) {
	t.cost = append(t.cost, record.CostEntry{Operation: operation, Amount: amount})

	t.ledger.mu.Lock()
	t.ledger.balances[t.Acting.Name] = t.ledger.balances[t.Acting.Name].Sub(amount)
	t.ledger.mu.Unlock()
}

// Transfer moves funds from the acting party to another party. It fails
// when the acting party's balance does not cover the amount.
func (t *Txn[S]) Transfer(to string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("simenv: cannot transfer negative amount %s", amount)
	}

	t.ledger.mu.Lock()
	defer t.ledger.mu.Unlock()

	from := t.ledger.balances[t.Acting.Name]
	if from.LessThan(amount) {
		return fmt.Errorf("simenv: insufficient funds: %s holds %s, needs %s", t.Acting.Name, from, amount)
	}

	t.ledger.balances[t.Acting.Name] = from.Sub(amount)
	t.ledger.balances[to] = t.ledger.balances[to].Add(amount)
	return nil
}

// Unit is the shape of an effectful unit of work run against the simulated
// ledger. Returning a non-nil failure marks a domain-level execution error;
// a panic inside the unit is intercepted as a caught exception.
type Unit[S, E, V any] func(tx *Txn[S]) (V, *record.Failure[E])

// Backend adapts a ledger to the harness's run capability for one choice of
// state, error and value types.
type Backend[S, E, V any] struct {
	Ledger *Ledger
}

// Execute runs the unit once, intercepting panics as caught exceptions.
// Accumulated state, logs and costs are preserved on every outcome.
func (b Backend[S, E, V]) Execute(ctx context.Context, acting party.Party, others []party.Party, unit any) (record.RunOutput[S, E, V], error) {
	fn, ok := unit.(Unit[S, E, V])
	if !ok {
		return record.RunOutput[S, E, V]{}, fmt.Errorf("simenv: unit must be a simenv.Unit, got %T", unit)
	}

	atomic.AddInt64(&b.Ledger.executions, 1)

	tx := &Txn[S]{ledger: b.Ledger, Acting: acting, Others: others}
	out := record.RunOutput[S, E, V]{}

	func() {
		defer func() {
			if r := recover(); r != nil {
				out.Failure = record.Caught[E](fmt.Sprint(r))
				out.Value = nil
			}
		}()
		v, failure := fn(tx)
		if failure != nil {
			out.Failure = failure
		} else {
			out.Value = &v
		}
	}()

	out.State = tx.state
	out.Logs = tx.logs
	out.Cost = tx.cost
	return out, nil
}

// QueryBalance delegates to the ledger.
func (b Backend[S, E, V]) QueryBalance(ctx context.Context, p party.Party) (decimal.Decimal, error) {
	return b.Ledger.QueryBalance(ctx, p)
}

// AdvanceTime delegates to the ledger.
func (b Backend[S, E, V]) AdvanceTime(ctx context.Context, ticks int) error {
	return b.Ledger.AdvanceTime(ctx, ticks)
}
