// Package predicate provides named, invertible checks over a captured
// execution record. Predicates are pure: they never re-execute the unit
// under test, never mutate the record, and reduce every failure mode to
// a false check plus a debug string.
package predicate

import (
	"fmt"

	"github.com/zinc-sig/seance/internal/party"
	"github.com/zinc-sig/seance/internal/record"
)

// Predicate is one declarative check against an execution record. The
// positive label names the test case; the negative label is used when the
// predicate is negated.
type Predicate[S, E, V any] struct {
	positive string
	negative string
	check    func(*record.Result[S, E, V]) bool
	debug    func(*record.Result[S, E, V]) string
}

// New builds a predicate from its label pair, check and debug renderer.
func New[S, E, V any](positive, negative string, check func(*record.Result[S, E, V]) bool, debug func(*record.Result[S, E, V]) string) Predicate[S, E, V] {
	return Predicate[S, E, V]{positive: positive, negative: negative, check: check, debug: debug}
}

// Label returns the positive label, used as the test case name.
func (p Predicate[S, E, V]) Label() string { return p.positive }

// Negative returns the logical opposite of the label.
func (p Predicate[S, E, V]) Negative() string { return p.negative }

// Check evaluates the predicate against a captured record.
func (p Predicate[S, E, V]) Check(r *record.Result[S, E, V]) bool { return p.check(r) }

// Debug renders diagnostic detail for a failed check. The rendering always
// reflects the raw record, even for negated predicates.
func (p Predicate[S, E, V]) Debug(r *record.Result[S, E, V]) string { return p.debug(r) }

// Negate swaps the label pair and inverts the check. The debug renderer is
// deliberately left on the original semantics so failure output still shows
// the raw record. Negating twice restores the original behavior.
func Negate[S, E, V any](p Predicate[S, E, V]) Predicate[S, E, V] {
	return Predicate[S, E, V]{
		positive: p.negative,
		negative: p.positive,
		check:    func(r *record.Result[S, E, V]) bool { return !p.check(r) },
		debug:    p.debug,
	}
}

// outcomeDebug renders the raw outcome of a record: the failure reason, or
// the success value when the run did not fail.
func outcomeDebug[S, E, V any](r *record.Result[S, E, V]) string {
	if f := r.Failure(); f != nil {
		return f.String()
	}
	v, _ := r.Value()
	return fmt.Sprintf("no failure raised; yielded value: %v", v)
}

// ShouldSucceed passes iff the run produced a success value.
func ShouldSucceed[S, E, V any]() Predicate[S, E, V] {
	return New[S, E, V]("should succeed", "should fail",
		func(r *record.Result[S, E, V]) bool { return !r.Failed() },
		outcomeDebug[S, E, V],
	)
}

// ShouldFail passes iff the run failed for any reason. It is the exact
// negation of ShouldSucceed.
func ShouldFail[S, E, V any]() Predicate[S, E, V] {
	return Negate(ShouldSucceed[S, E, V]())
}

// YieldSatisfies passes iff the run succeeded and the yielded value
// satisfies p. A failed run never satisfies it.
func YieldSatisfies[S, E, V any](msg string, p func(V) bool) Predicate[S, E, V] {
	return New[S, E, V](msg, negated(msg),
		func(r *record.Result[S, E, V]) bool {
			v, ok := r.Value()
			return ok && p(v)
		},
		func(r *record.Result[S, E, V]) string {
			if v, ok := r.Value(); ok {
				return fmt.Sprintf("observed value: %v", v)
			}
			return outcomeDebug(r)
		},
	)
}

// ShouldYield passes iff the run succeeded with exactly the expected value.
func ShouldYield[S, E any, V comparable](expected V) Predicate[S, E, V] {
	label := fmt.Sprintf("should yield '%v'", expected)
	return New[S, E, V](label, fmt.Sprintf("should not yield '%v'", expected),
		func(r *record.Result[S, E, V]) bool {
			v, ok := r.Value()
			return ok && v == expected
		},
		func(r *record.Result[S, E, V]) string {
			if v, ok := r.Value(); ok {
				return fmt.Sprintf("expected value: %v\nobserved value: %v", expected, v)
			}
			return outcomeDebug(r)
		},
	)
}

// StateSatisfies passes iff the accumulated state satisfies p. State is
// present on success and failure alike, so this checks both.
func StateSatisfies[S, E, V any](msg string, p func(S) bool) Predicate[S, E, V] {
	return New[S, E, V](msg, negated(msg),
		func(r *record.Result[S, E, V]) bool { return p(r.State()) },
		func(r *record.Result[S, E, V]) string {
			return fmt.Sprintf("observed state: %v", r.State())
		},
	)
}

// StateIs passes iff the accumulated state equals the expected state.
func StateIs[S comparable, E, V any](expected S) Predicate[S, E, V] {
	return New[S, E, V](
		fmt.Sprintf("state should be '%v'", expected),
		fmt.Sprintf("state should not be '%v'", expected),
		func(r *record.Result[S, E, V]) bool { return r.State() == expected },
		func(r *record.Result[S, E, V]) string {
			return fmt.Sprintf("expected state: %v\nobserved state: %v", expected, r.State())
		},
	)
}

// ErrorSatisfies passes iff the run failed with a domain-level execution
// error satisfying p. Caught exceptions and successful runs never match.
func ErrorSatisfies[S, E, V any](msg string, p func(E) bool) Predicate[S, E, V] {
	return New[S, E, V](msg, negated(msg),
		func(r *record.Result[S, E, V]) bool {
			f := r.Failure()
			return f != nil && f.Kind == record.ExecutionError && p(f.Err)
		},
		outcomeDebug[S, E, V],
	)
}

// ShouldThrow passes iff the run failed with exactly the expected
// domain-level error.
func ShouldThrow[S, V any, E comparable](expected E) Predicate[S, E, V] {
	label := fmt.Sprintf("should throw '%v'", expected)
	p := ErrorSatisfies[S, E, V](label, func(err E) bool { return err == expected })
	p.negative = fmt.Sprintf("should not throw '%v'", expected)
	return p
}

// FailReasonSatisfies passes iff the run failed, for either reason, and
// the full failure satisfies p. Successful runs never match.
func FailReasonSatisfies[S, E, V any](msg string, p func(*record.Failure[E]) bool) Predicate[S, E, V] {
	return New[S, E, V](msg, negated(msg),
		func(r *record.Result[S, E, V]) bool {
			f := r.Failure()
			return f != nil && p(f)
		},
		outcomeDebug[S, E, V],
	)
}

// FundsSatisfies passes iff the post-run final balances satisfy p. The
// balances cover every party, acting party included.
func FundsSatisfies[S, E, V any](msg string, p func([]party.Balance) bool) Predicate[S, E, V] {
	return New[S, E, V](msg, negated(msg),
		func(r *record.Result[S, E, V]) bool { return p(r.Balances()) },
		func(r *record.Result[S, E, V]) string {
			out := "observed final balances:"
			for _, b := range r.Balances() {
				out += fmt.Sprintf("\n  %s: %s", b.Party, b.Amount)
			}
			return out
		},
	)
}

func negated(msg string) string {
	return fmt.Sprintf("not (%s)", msg)
}
