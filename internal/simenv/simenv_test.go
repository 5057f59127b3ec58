package simenv

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zinc-sig/seance/internal/party"
	"github.com/zinc-sig/seance/internal/record"
)

func twoPartyLedger(t *testing.T) (*Ledger, *party.Registry) {
	t.Helper()
	spec := party.Fund(decimal.NewFromInt(100)).Concat(party.Fund(decimal.NewFromInt(50)))
	reg, err := party.NewRegistry(spec)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	return NewLedger(reg), reg
}

func execute(t *testing.T, ledger *Ledger, reg *party.Registry, unit Unit[string, string, int]) record.RunOutput[string, string, int] {
	t.Helper()
	backend := Backend[string, string, int]{Ledger: ledger}
	acting, others, err := party.SelectActing(0, reg)
	if err != nil {
		t.Fatalf("selecting acting party: %v", err)
	}
	out, err := backend.Execute(context.Background(), acting, others, unit)
	if err != nil {
		t.Fatalf("executing unit: %v", err)
	}
	return out
}

func TestTransferMovesFunds(t *testing.T) {
	ledger, reg := twoPartyLedger(t)

	out := execute(t, ledger, reg, Unit[string, string, int](func(tx *Txn[string]) (int, *record.Failure[string]) {
		if err := tx.Transfer(tx.Others[0].Name, decimal.NewFromInt(30)); err != nil {
			return 0, record.Domain(err.Error())
		}
		tx.SetState("done")
		return 1, nil
	}))

	if out.Failure != nil {
		t.Fatalf("unexpected failure: %s", out.Failure)
	}

	w1, err := ledger.QueryBalance(context.Background(), reg.All()[0])
	if err != nil {
		t.Fatalf("querying w1: %v", err)
	}
	w2, err := ledger.QueryBalance(context.Background(), reg.All()[1])
	if err != nil {
		t.Fatalf("querying w2: %v", err)
	}

	if !w1.Equal(decimal.NewFromInt(70)) {
		t.Errorf("w1 balance: got %s, want 70", w1)
	}
	if !w2.Equal(decimal.NewFromInt(80)) {
		t.Errorf("w2 balance: got %s, want 80", w2)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	ledger, reg := twoPartyLedger(t)

	out := execute(t, ledger, reg, Unit[string, string, int](func(tx *Txn[string]) (int, *record.Failure[string]) {
		tx.SetState("attempted")
		if err := tx.Transfer(tx.Others[0].Name, decimal.NewFromInt(500)); err != nil {
			return 0, record.Domain(err.Error())
		}
		return 1, nil
	}))

	if out.Failure == nil {
		t.Fatal("expected a domain failure")
	}
	if out.Failure.Kind != record.ExecutionError {
		t.Errorf("failure kind: got %v, want ExecutionError", out.Failure.Kind)
	}
	if !strings.Contains(out.Failure.Err, "insufficient funds") {
		t.Errorf("unexpected failure: %s", out.Failure.Err)
	}
	if out.State != "attempted" {
		t.Errorf("state discarded on failure: got %q", out.State)
	}
}

func TestPanicBecomesCaughtException(t *testing.T) {
	ledger, reg := twoPartyLedger(t)

	out := execute(t, ledger, reg, Unit[string, string, int](func(tx *Txn[string]) (int, *record.Failure[string]) {
		tx.SetState("about to fault")
		tx.Log("unit", record.Debug, "entering faulty branch")
		panic("slice index out of bounds")
	}))

	if out.Failure == nil {
		t.Fatal("expected a caught exception")
	}
	if out.Failure.Kind != record.CaughtException {
		t.Errorf("failure kind: got %v, want CaughtException", out.Failure.Kind)
	}
	if !strings.Contains(out.Failure.Fault, "slice index out of bounds") {
		t.Errorf("fault message lost: %q", out.Failure.Fault)
	}

	// State and logs accumulated before the fault survive
	if out.State != "about to fault" {
		t.Errorf("state discarded on fault: got %q", out.State)
	}
	if len(out.Logs) != 1 {
		t.Errorf("logs discarded on fault: got %d lines", len(out.Logs))
	}
}

func TestChargeRecordsCostAndDeducts(t *testing.T) {
	ledger, reg := twoPartyLedger(t)

	out := execute(t, ledger, reg, Unit[string, string, int](func(tx *Txn[string]) (int, *record.Failure[string]) {
		tx.Charge("storage rent", decimal.NewFromInt(7))
		tx.SetState("done")
		return 1, nil
	}))

	if len(out.Cost) != 1 || out.Cost[0].Operation != "storage rent" {
		t.Fatalf("unexpected cost entries: %+v", out.Cost)
	}
	if !out.Cost[0].Amount.Equal(decimal.NewFromInt(7)) {
		t.Errorf("cost amount: got %s, want 7", out.Cost[0].Amount)
	}

	w1, err := ledger.QueryBalance(context.Background(), reg.All()[0])
	if err != nil {
		t.Fatalf("querying w1: %v", err)
	}
	if !w1.Equal(decimal.NewFromInt(93)) {
		t.Errorf("w1 balance after charge: got %s, want 93", w1)
	}
}

func TestExecuteRejectsForeignUnitType(t *testing.T) {
	ledger, reg := twoPartyLedger(t)
	backend := Backend[string, string, int]{Ledger: ledger}

	acting, others, err := party.SelectActing(0, reg)
	if err != nil {
		t.Fatalf("selecting acting party: %v", err)
	}

	_, err = backend.Execute(context.Background(), acting, others, "not a unit")
	if err == nil {
		t.Fatal("expected an error for a foreign unit type")
	}
}

func TestClockAndUnknownParty(t *testing.T) {
	ledger, _ := twoPartyLedger(t)

	if err := ledger.AdvanceTime(context.Background(), 3); err != nil {
		t.Fatalf("advancing time: %v", err)
	}
	if ledger.Clock() != 3 {
		t.Errorf("clock: got %d, want 3", ledger.Clock())
	}
	if err := ledger.AdvanceTime(context.Background(), -1); err == nil {
		t.Error("expected error for negative ticks")
	}

	_, err := ledger.QueryBalance(context.Background(), party.Party{Name: "stranger"})
	if err == nil {
		t.Error("expected error for unknown party")
	}
}
