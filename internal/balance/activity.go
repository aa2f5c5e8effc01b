package balance

import (
	"context"
	"fmt"
	"sort"
)

// userAmount is one side of the greedy matching: a user and the positive
// amount they still owe (debtor) or are owed (creditor).
type userAmount struct {
	userID string
	amount int64
}

// ForActivity nets one activity's expenses into per-participant balances
// and emits the minimal transfer set that settles them.
//
// Each expense with an assigned payer credits the payer by the full amount
// and debits every share holder by their owed amount. Expenses without a
// payer contribute nothing. Debtors and creditors are then matched
// greedily, largest against largest, which bounds the transfer count by
// debtors+creditors-1.
func ForActivity(ctx context.Context, ledger Ledger, activityID string) (*ActivityBalance, error) {
	activity, err := ledger.Activity(ctx, activityID)
	if err != nil {
		return nil, err
	}

	expenses, err := ledger.Expenses(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	nets := make(map[string]int64, len(activity.Participants))
	for _, p := range activity.Participants {
		nets[p.ID] = 0
	}

	for _, expense := range expenses {
		if expense.PayerID == "" {
			continue
		}
		nets[expense.PayerID] += expense.AmountCents
		for _, share := range expense.Shares {
			nets[share.UserID] -= share.AmountOwedCents
		}
	}

	names := make(map[string]string, len(activity.Participants))
	for _, p := range activity.Participants {
		names[p.ID] = p.Name
	}

	transfers := make([]Transfer, 0)
	for _, t := range settle(nets) {
		transfers = append(transfers, Transfer{
			From:        UserRef{UserID: t.from, Name: names[t.from]},
			To:          UserRef{UserID: t.to, Name: names[t.to]},
			AmountCents: t.amount,
		})
	}

	return &ActivityBalance{
		ActivityID:   activity.ID,
		ActivityName: activity.Name,
		Transfers:    transfers,
	}, nil
}

type rawTransfer struct {
	from   string
	to     string
	amount int64
}

// settle matches debtors against creditors greedily and returns the
// transfers that zero out every net balance. Output is deterministic:
// both sides are sorted by amount descending with user ID as tiebreak.
func settle(nets map[string]int64) []rawTransfer {
	var debtors, creditors []userAmount
	for userID, net := range nets {
		switch {
		case net < 0:
			debtors = append(debtors, userAmount{userID: userID, amount: -net})
		case net > 0:
			creditors = append(creditors, userAmount{userID: userID, amount: net})
		}
	}

	byAmountDesc := func(entries []userAmount) func(i, j int) bool {
		return func(i, j int) bool {
			if entries[i].amount != entries[j].amount {
				return entries[i].amount > entries[j].amount
			}
			return entries[i].userID < entries[j].userID
		}
	}
	sort.Slice(debtors, byAmountDesc(debtors))
	sort.Slice(creditors, byAmountDesc(creditors))

	var transfers []rawTransfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := debtors[i].amount
		if creditors[j].amount < amount {
			amount = creditors[j].amount
		}

		transfers = append(transfers, rawTransfer{
			from:   debtors[i].userID,
			to:     creditors[j].userID,
			amount: amount,
		})

		debtors[i].amount -= amount
		creditors[j].amount -= amount

		if debtors[i].amount == 0 {
			i++
		}
		if creditors[j].amount == 0 {
			j++
		}
	}

	return transfers
}
