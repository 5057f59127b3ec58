package party

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Party is one execution context in a simulated multi-party environment.
// Parties are addressed by registry position, never by name lookup.
type Party struct {
	Name    string
	Initial decimal.Decimal
}

// Balance is the observed final balance of a party after a run.
type Balance struct {
	Party  string          `json:"party"`
	Amount decimal.Decimal `json:"amount"`
}

// Assertion checks a party's final balance after a run.
type Assertion func(final decimal.Decimal) error

// Grant funds one party and optionally attaches a post-run balance check.
type Grant struct {
	Initial decimal.Decimal
	Assert  Assertion
}

// FundingSpec lists the grants used to build a registry, one per party,
// in registry order.
type FundingSpec []Grant

// Fund returns a single-party funding spec with the given initial amount.
func Fund(initial decimal.Decimal) FundingSpec {
	return FundingSpec{{Initial: initial}}
}

// FundWith returns a single-party funding spec with a post-run assertion.
func FundWith(initial decimal.Decimal, assert Assertion) FundingSpec {
	return FundingSpec{{Initial: initial, Assert: assert}}
}

// Concat appends other to s, preserving order. Concat is associative, so
// funding specs can be combined piecewise before the registry is built.
func (s FundingSpec) Concat(other FundingSpec) FundingSpec {
	combined := make(FundingSpec, 0, len(s)+len(other))
	combined = append(combined, s...)
	combined = append(combined, other...)
	return combined
}

// Registry is an ordered, fixed-length sequence of parties. It is built
// once per run from a funding spec and never reused across runs.
type Registry struct {
	parties []Party
	grants  []Grant
}

// NewRegistry builds a registry from a funding spec. Parties are named
// positionally (w1, w2, ...) in spec order.
func NewRegistry(spec FundingSpec) (*Registry, error) {
	if len(spec) == 0 {
		return nil, fmt.Errorf("party: funding spec is empty")
	}

	parties := make([]Party, len(spec))
	for i, grant := range spec {
		if grant.Initial.IsNegative() {
			return nil, fmt.Errorf("party: negative initial amount %s for party %d", grant.Initial, i+1)
		}
		parties[i] = Party{
			Name:    fmt.Sprintf("w%d", i+1),
			Initial: grant.Initial,
		}
	}

	return &Registry{parties: parties, grants: spec}, nil
}

// Len returns the number of parties in the registry.
func (r *Registry) Len() int {
	return len(r.parties)
}

// All returns the parties in registry order.
func (r *Registry) All() []Party {
	return r.parties
}

// SelectActing returns the party at index plus the remaining parties in
// original relative order with index removed. An out-of-range index is a
// configuration error; callers must surface it before any execution.
func SelectActing(index int, r *Registry) (Party, []Party, error) {
	if index < 0 || index >= len(r.parties) {
		return Party{}, nil, fmt.Errorf("party: acting index %d out of range for %d-party registry", index, len(r.parties))
	}

	others := make([]Party, 0, len(r.parties)-1)
	others = append(others, r.parties[:index]...)
	others = append(others, r.parties[index+1:]...)

	return r.parties[index], others, nil
}

// HasAssertions reports whether any grant attached a post-run balance check.
func (r *Registry) HasAssertions() bool {
	for _, grant := range r.grants {
		if grant.Assert != nil {
			return true
		}
	}
	return false
}

// CheckAssertions evaluates every grant assertion against the observed
// final balances. Balances are matched to grants by party name.
func (r *Registry) CheckAssertions(balances []Balance) error {
	byParty := make(map[string]decimal.Decimal, len(balances))
	for _, b := range balances {
		byParty[b.Party] = b.Amount
	}

	for i, grant := range r.grants {
		if grant.Assert == nil {
			continue
		}
		name := r.parties[i].Name
		final, ok := byParty[name]
		if !ok {
			return fmt.Errorf("party: no observed balance for %s", name)
		}
		if err := grant.Assert(final); err != nil {
			return fmt.Errorf("party: %s: %w", name, err)
		}
	}
	return nil
}
