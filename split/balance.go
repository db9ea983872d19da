package split

import (
	"sort"

	"github.com/google/uuid"
)

// ExpenseShares is the minimal view of one expense needed for balance
// computation: who paid, and each participant's owed amount. For itemized
// expenses the shares are the AggregateItems output.
type ExpenseShares struct {
	PayerID uuid.UUID
	Shares  []Share
}

// PairBalance is one counterpart line of a member's balance sheet entry.
// Positive amount: the counterpart owes this member. Negative: this member
// owes the counterpart.
type PairBalance struct {
	MemberID   uuid.UUID
	MemberName string
	Amount     float64
}

// Entry is one member's netted position across a set of expenses.
type Entry struct {
	MemberID     uuid.UUID
	MemberName   string
	TotalOwed    float64
	TotalOwing   float64
	NetBalance   float64
	BalancesWith []PairBalance
}

// BalanceSheet nets out who owes whom across a set of expenses. Each member
// share is a debt to the expense's payer; the payer's own share cancels
// (you cannot owe yourself) and external participants are tracked for
// display only, never netted into the member ledger. Opposing debts between
// a pair collapse to a single net value. Accumulation is commutative per
// pair, so the result is independent of expense order; output is sorted by
// member name (then ID) for determinism.
func BalanceSheet(expenses []ExpenseShares, names map[uuid.UUID]string) []Entry {
	// owed[debtor][creditor] accumulates gross debts.
	owed := make(map[uuid.UUID]map[uuid.UUID]float64)
	memberSet := make(map[uuid.UUID]bool)

	addDebt := func(debtor, creditor uuid.UUID, amount float64) {
		if owed[debtor] == nil {
			owed[debtor] = make(map[uuid.UUID]float64)
		}
		owed[debtor][creditor] += amount
	}

	for _, e := range expenses {
		memberSet[e.PayerID] = true
		for _, s := range e.Shares {
			if s.MemberID == uuid.Nil {
				continue // external participant, not part of the member ledger
			}
			memberSet[s.MemberID] = true
			if s.MemberID == e.PayerID {
				continue // payer's own share
			}
			addDebt(s.MemberID, e.PayerID, s.Amount)
		}
	}

	members := make([]uuid.UUID, 0, len(memberSet))
	for id := range memberSet {
		members = append(members, id)
	}
	sort.Slice(members, func(i, j int) bool {
		ni, nj := names[members[i]], names[members[j]]
		if ni != nj {
			return ni < nj
		}
		return members[i].String() < members[j].String()
	})

	entries := make([]Entry, 0, len(members))
	for _, id := range members {
		entry := Entry{MemberID: id, MemberName: names[id]}

		for _, other := range members {
			if other == id {
				continue
			}
			// Net the pair: what they owe me minus what I owe them.
			net := Round2(owed[other][id] - owed[id][other])
			if net == 0 {
				continue
			}
			entry.BalancesWith = append(entry.BalancesWith, PairBalance{
				MemberID:   other,
				MemberName: names[other],
				Amount:     net,
			})
			if net > 0 {
				entry.TotalOwed += net
			} else {
				entry.TotalOwing += -net
			}
		}

		entry.TotalOwed = Round2(entry.TotalOwed)
		entry.TotalOwing = Round2(entry.TotalOwing)
		entry.NetBalance = Round2(entry.TotalOwed - entry.TotalOwing)
		entries = append(entries, entry)
	}

	return entries
}
