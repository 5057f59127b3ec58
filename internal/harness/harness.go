// Package harness executes a unit under test exactly once against a chosen
// acting party and fans the captured record out to many independent test
// cases: one per predicate, plus one per requested diagnostic report.
package harness

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zinc-sig/seance/internal/party"
	"github.com/zinc-sig/seance/internal/predicate"
	"github.com/zinc-sig/seance/internal/record"
	"github.com/zinc-sig/seance/internal/report"
)

// Backend is the opaque run capability the harness drives. All three calls
// are possibly-failing external operations; the harness never retries them.
type Backend[S, E, V any] interface {
	// Execute runs the unit of work on behalf of the acting party and
	// yields the raw run output. The unit is opaque to the harness.
	Execute(ctx context.Context, acting party.Party, others []party.Party, unit any) (record.RunOutput[S, E, V], error)

	// QueryBalance returns the current resource balance of a party.
	QueryBalance(ctx context.Context, p party.Party) (decimal.Decimal, error)

	// AdvanceTime advances the environment's logical clock.
	AdvanceTime(ctx context.Context, ticks int) error
}

// Group drives one run of a unit under test and shares the captured record
// across every test case derived from it. The run happens on first access
// from any consumer and at most once total; a run that never completes
// blocks the whole group, no timeout is imposed at this layer.
type Group[S, E, V any] struct {
	name     string
	backend  Backend[S, E, V]
	registry *party.Registry
	acting   party.Party
	others   []party.Party
	unit     any

	once sync.Once
	rec  *record.Result[S, E, V]
	err  error
}

// GroupOption configures a group at build time.
type GroupOption func(*groupConfig)

type groupConfig struct {
	actingIndex int
}

// WithActingIndex selects which registry position acts for the run.
// The default is index 0.
func WithActingIndex(index int) GroupOption {
	return func(c *groupConfig) { c.actingIndex = index }
}

// New wires a test group together. The acting index is validated against
// the registry here, strictly before any execution: an out-of-range index
// is a configuration error, never a mid-run failure.
func New[S, E, V any](name string, backend Backend[S, E, V], registry *party.Registry, unit any, opts ...GroupOption) (*Group[S, E, V], error) {
	cfg := groupConfig{actingIndex: 0}
	for _, opt := range opts {
		opt(&cfg)
	}

	acting, others, err := party.SelectActing(cfg.actingIndex, registry)
	if err != nil {
		return nil, fmt.Errorf("harness: %w", err)
	}

	return &Group[S, E, V]{
		name:     name,
		backend:  backend,
		registry: registry,
		acting:   acting,
		others:   others,
		unit:     unit,
	}, nil
}

// Name returns the caller-supplied group description.
func (g *Group[S, E, V]) Name() string { return g.name }

// Acting returns the acting party selected for the run.
func (g *Group[S, E, V]) Acting() party.Party { return g.acting }

// result forces the memoized run. The first forcer performs the run and
// blocks concurrent forcers until the record is cached; everyone else reads
// the cached value. A harness-level error is cached the same way so every
// consumer observes the same failure.
func (g *Group[S, E, V]) result(ctx context.Context) (*record.Result[S, E, V], error) {
	g.once.Do(func() {
		g.rec, g.err = g.build(ctx)
	})
	return g.rec, g.err
}

// build performs the primary run and the post-run augmentation pass: one
// logical tick, then a final balance query for every party including the
// acting one. Any failure here is a harness-level error, distinct from a
// unit-under-test failure, and aborts the whole group.
func (g *Group[S, E, V]) build(ctx context.Context) (*record.Result[S, E, V], error) {
	out, err := g.backend.Execute(ctx, g.acting, g.others, g.unit)
	if err != nil {
		return nil, fmt.Errorf("harness: run capability failed: %w", err)
	}

	if err := g.backend.AdvanceTime(ctx, 1); err != nil {
		return nil, fmt.Errorf("harness: advancing time after run: %w", err)
	}

	balances := make([]party.Balance, 0, g.registry.Len())
	for _, p := range g.registry.All() {
		amount, err := g.backend.QueryBalance(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("harness: querying final balance of %s: %w", p.Name, err)
		}
		balances = append(balances, party.Balance{Party: p.Name, Amount: amount})
	}

	rec, err := record.Capture(out, balances)
	if err != nil {
		return nil, fmt.Errorf("harness: %w", err)
	}
	return rec, nil
}

// Run fans the group out as subtests: one per predicate, named by its
// positive label, then one per funding assertion batch, then one per
// diagnostic option in caller order. Running any subtest never re-executes
// the unit under test. A harness-level failure fails every subtest with the
// same message, since no record could be produced.
func (g *Group[S, E, V]) Run(t *testing.T, preds []predicate.Predicate[S, E, V], opts ...report.Option) {
	t.Run(g.name, func(t *testing.T) {
		for _, p := range preds {
			t.Run(p.Label(), func(t *testing.T) {
				rec, err := g.result(context.Background())
				if err != nil {
					t.Fatal(err)
				}
				if !p.Check(rec) {
					t.Errorf("predicate failed: %s\n%s", p.Label(), p.Debug(rec))
				}
			})
		}

		if g.registry.HasAssertions() {
			t.Run("party funding assertions", func(t *testing.T) {
				rec, err := g.result(context.Background())
				if err != nil {
					t.Fatal(err)
				}
				if err := g.registry.CheckAssertions(rec.Balances()); err != nil {
					t.Error(err)
				}
			})
		}

		for _, o := range opts {
			t.Run(o.Name(), func(t *testing.T) {
				rec, err := g.result(context.Background())
				if err != nil {
					t.Fatal(err)
				}
				t.Log("\n" + o.Render(rec.Logs(), rec.Cost()))
			})
		}
	})
}

// CaseResult is the verdict of one test case when a group is evaluated
// outside of the go test runner.
type CaseResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Evaluate runs the group's test cases programmatically and returns one
// verdict per case, in the same order Run would schedule them. Reporter
// cases always pass; their rendered body is carried in Detail. A
// harness-level failure returns an error and no verdicts.
func (g *Group[S, E, V]) Evaluate(ctx context.Context, preds []predicate.Predicate[S, E, V], opts ...report.Option) ([]CaseResult, error) {
	rec, err := g.result(ctx)
	if err != nil {
		return nil, err
	}

	cases := make([]CaseResult, 0, len(preds)+len(opts)+1)
	for _, p := range preds {
		c := CaseResult{Name: p.Label(), Passed: p.Check(rec)}
		if !c.Passed {
			c.Detail = p.Debug(rec)
		}
		cases = append(cases, c)
	}

	if g.registry.HasAssertions() {
		c := CaseResult{Name: "party funding assertions", Passed: true}
		if err := g.registry.CheckAssertions(rec.Balances()); err != nil {
			c.Passed = false
			c.Detail = err.Error()
		}
		cases = append(cases, c)
	}

	for _, o := range opts {
		cases = append(cases, CaseResult{
			Name:   o.Name(),
			Passed: true,
			Detail: o.Render(rec.Logs(), rec.Cost()),
		})
	}

	return cases, nil
}

// Check is the one-call form: it wires a group and runs it, reporting a
// configuration error as a test failure before any execution is attempted.
func Check[S, E, V any](t *testing.T, name string, backend Backend[S, E, V], registry *party.Registry, unit any, preds []predicate.Predicate[S, E, V], opts ...report.Option) {
	g, err := New(name, backend, registry, unit)
	if err != nil {
		t.Fatal(err)
	}
	g.Run(t, preds, opts...)
}
