package split

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func entryFor(t *testing.T, entries []Entry, id uuid.UUID) Entry {
	t.Helper()
	for _, e := range entries {
		if e.MemberID == id {
			return e
		}
	}
	t.Fatalf("no entry for member %s", id)
	return Entry{}
}

func pairWith(e Entry, id uuid.UUID) (PairBalance, bool) {
	for _, p := range e.BalancesWith {
		if p.MemberID == id {
			return p, true
		}
	}
	return PairBalance{}, false
}

func TestBalanceSheetNetsOpposingDebts(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	names := map[uuid.UUID]string{a: "Alice", b: "Bob"}

	// Bob paid $30 that Alice owes in full; Alice paid $10 that Bob owes.
	expenses := []ExpenseShares{
		{PayerID: b, Shares: []Share{{MemberID: a, Percentage: 100, Amount: 30}}},
		{PayerID: a, Shares: []Share{{MemberID: b, Percentage: 100, Amount: 10}}},
	}

	entries := BalanceSheet(expenses, names)
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}

	alice := entryFor(t, entries, a)
	bob := entryFor(t, entries, b)

	bobView, ok := pairWith(bob, a)
	if !ok || bobView.Amount != 20 {
		t.Errorf("Bob's entry for Alice = %+v, want +20", bobView)
	}
	aliceView, ok := pairWith(alice, b)
	if !ok || aliceView.Amount != -20 {
		t.Errorf("Alice's entry for Bob = %+v, want -20", aliceView)
	}

	if bob.TotalOwed != 20 || bob.TotalOwing != 0 || bob.NetBalance != 20 {
		t.Errorf("Bob totals = %+v, want owed 20, owing 0, net 20", bob)
	}
	if alice.TotalOwed != 0 || alice.TotalOwing != 20 || alice.NetBalance != -20 {
		t.Errorf("Alice totals = %+v, want owed 0, owing 20, net -20", alice)
	}
}

func TestBalanceSheetPairSymmetry(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	names := map[uuid.UUID]string{ids[0]: "Ana", ids[1]: "Ben", ids[2]: "Cleo", ids[3]: "Dev"}

	rng := rand.New(rand.NewSource(7))
	var expenses []ExpenseShares
	for i := 0; i < 30; i++ {
		payer := ids[rng.Intn(len(ids))]
		var shares []Share
		for _, id := range ids {
			if rng.Intn(2) == 0 {
				continue
			}
			shares = append(shares, Share{MemberID: id, Amount: Round2(rng.Float64() * 40)})
		}
		expenses = append(expenses, ExpenseShares{PayerID: payer, Shares: shares})
	}

	entries := BalanceSheet(expenses, names)

	// For every pair, the two views must be exact mirrors, and a member's
	// totals must match the signs of their pair entries.
	for _, e := range entries {
		var owed, owing float64
		for _, p := range e.BalancesWith {
			if p.Amount == 0 {
				t.Errorf("zero-amount pair entry %s -> %s should be omitted", e.MemberName, p.MemberName)
			}
			counter, ok := pairWith(entryFor(t, entries, p.MemberID), e.MemberID)
			if !ok {
				t.Errorf("missing mirror entry for %s in %s", e.MemberName, p.MemberName)
				continue
			}
			if counter.Amount != -p.Amount {
				t.Errorf("asymmetric pair: %s sees %v, %s sees %v", e.MemberName, p.Amount, p.MemberName, counter.Amount)
			}
			if p.Amount > 0 {
				owed += p.Amount
			} else {
				owing += -p.Amount
			}
		}
		if Round2(owed) != e.TotalOwed || Round2(owing) != e.TotalOwing {
			t.Errorf("%s totals (%v, %v) don't match pair sums (%v, %v)",
				e.MemberName, e.TotalOwed, e.TotalOwing, Round2(owed), Round2(owing))
		}
		if e.NetBalance != Round2(e.TotalOwed-e.TotalOwing) {
			t.Errorf("%s net = %v, want %v", e.MemberName, e.NetBalance, Round2(e.TotalOwed-e.TotalOwing))
		}
	}
}

func TestBalanceSheetOrderIndependent(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	names := map[uuid.UUID]string{ids[0]: "Ana", ids[1]: "Ben", ids[2]: "Cleo"}

	expenses := []ExpenseShares{
		{PayerID: ids[0], Shares: []Share{{MemberID: ids[1], Amount: 12.34}, {MemberID: ids[2], Amount: 7.66}}},
		{PayerID: ids[1], Shares: []Share{{MemberID: ids[0], Amount: 20}, {MemberID: ids[2], Amount: 20}}},
		{PayerID: ids[2], Shares: []Share{{MemberID: ids[0], Amount: 5.5}}},
		{PayerID: ids[0], Shares: []Share{{MemberID: ids[0], Amount: 10}, {MemberID: ids[1], Amount: 10}}},
	}

	want := BalanceSheet(expenses, names)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]ExpenseShares, len(expenses))
		copy(shuffled, expenses)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		if got := BalanceSheet(shuffled, names); !reflect.DeepEqual(got, want) {
			t.Fatalf("trial %d: shuffled input produced different entries:\ngot  %+v\nwant %+v", trial, got, want)
		}
	}
}

func TestBalanceSheetExcludesPayerShareAndExternals(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	names := map[uuid.UUID]string{a: "Ana", b: "Ben"}

	// Ana paid $90: her own third cancels, Ben owes his, the external's
	// share stays out of the member ledger entirely.
	expenses := []ExpenseShares{
		{PayerID: a, Shares: []Share{
			{MemberID: a, Amount: 30},
			{MemberID: b, Amount: 30},
			{ExternalName: "Grandma", Amount: 30},
		}},
	}

	entries := BalanceSheet(expenses, names)
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2 (externals must not appear)", len(entries))
	}

	ana := entryFor(t, entries, a)
	if ana.TotalOwed != 30 {
		t.Errorf("Ana total owed = %v, want 30 (Ben's share only)", ana.TotalOwed)
	}
	ben := entryFor(t, entries, b)
	if ben.TotalOwing != 30 || ben.NetBalance != -30 {
		t.Errorf("Ben = %+v, want owing 30, net -30", ben)
	}
}

func TestBalanceSheetDeterministicOrdering(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	names := map[uuid.UUID]string{ids[0]: "Zoe", ids[1]: "Ana", ids[2]: "Mia"}

	expenses := []ExpenseShares{
		{PayerID: ids[0], Shares: []Share{{MemberID: ids[1], Amount: 10}, {MemberID: ids[2], Amount: 10}}},
	}

	entries := BalanceSheet(expenses, names)
	wantOrder := []string{"Ana", "Mia", "Zoe"}
	for i, e := range entries {
		if e.MemberName != wantOrder[i] {
			t.Errorf("entry %d = %s, want %s", i, e.MemberName, wantOrder[i])
		}
	}
}

func TestBalanceSheetEmptyInput(t *testing.T) {
	if entries := BalanceSheet(nil, nil); len(entries) != 0 {
		t.Errorf("len = %d, want 0", len(entries))
	}
}
