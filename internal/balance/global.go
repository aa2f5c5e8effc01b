package balance

import (
	"context"
	"fmt"
	"sort"
)

// pairAccumulator tracks one counterparty's running net against the user
// and its per-activity breakdown, in scan order.
type pairAccumulator struct {
	name       string
	net        int64
	activities []ActivityShare
}

// Global composes the pairwise compensation over every counterparty of one
// user into a single net position.
//
// Instead of invoking BetweenUsers once per counterparty (which would
// rescan every shared activity per pair), it loads each of the user's
// activities exactly once and folds all pair nets into an in-memory index
// keyed by counterparty. Per-activity nets of zero are dropped from the
// breakdowns; counterparties whose total net is zero are omitted entirely.
//
// Sign convention matches BetweenUsers: positive means the user owes the
// counterparty. Output lists are sorted by net amount descending with the
// counterparty ID as tiebreak.
func Global(ctx context.Context, ledger Ledger, userID string) (*GlobalBalance, error) {
	if _, err := ledger.User(ctx, userID); err != nil {
		return nil, err
	}

	activityIDs, err := ledger.Participations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participations: %w", err)
	}

	pairs := make(map[string]*pairAccumulator)
	var order []string

	for _, activityID := range activityIDs {
		activity, err := ledger.Activity(ctx, activityID)
		if err != nil {
			return nil, err
		}

		expenses, err := ledger.Expenses(ctx, activityID)
		if err != nil {
			return nil, fmt.Errorf("failed to load expenses: %w", err)
		}

		// One pass over this activity's expenses nets the user against
		// every co-participant at once.
		activityNets := make(map[string]int64)
		for _, expense := range expenses {
			if expense.PayerID == "" {
				continue
			}
			if expense.PayerID == userID {
				for _, share := range expense.Shares {
					if share.UserID != userID {
						activityNets[share.UserID] -= share.AmountOwedCents
					}
				}
				continue
			}
			for _, share := range expense.Shares {
				if share.UserID == userID {
					activityNets[expense.PayerID] += share.AmountOwedCents
				}
			}
		}

		for _, p := range activity.Participants {
			if p.ID == userID {
				continue
			}
			acc, ok := pairs[p.ID]
			if !ok {
				acc = &pairAccumulator{name: p.Name}
				pairs[p.ID] = acc
				order = append(order, p.ID)
			}
			net := activityNets[p.ID]
			if net == 0 {
				continue
			}
			acc.net += net
			acc.activities = append(acc.activities, ActivityShare{
				ActivityID:   activity.ID,
				ActivityName: activity.Name,
				AmountCents:  net,
			})
		}
	}

	result := &GlobalBalance{
		CompensatedDebts:   make([]CounterpartyBalance, 0),
		CompensatedCredits: make([]CounterpartyBalance, 0),
	}

	for _, counterpartyID := range order {
		acc := pairs[counterpartyID]
		if acc.net == 0 {
			// Fully compensated (or never transacted): omitted from
			// both lists.
			continue
		}

		result.NetBalanceCents += acc.net

		entry := CounterpartyBalance{
			UserID:     counterpartyID,
			Name:       acc.name,
			Activities: acc.activities,
		}
		if acc.net > 0 {
			entry.NetAmountCents = acc.net
			result.CompensatedDebts = append(result.CompensatedDebts, entry)
		} else {
			entry.NetAmountCents = -acc.net
			result.CompensatedCredits = append(result.CompensatedCredits, entry)
		}
	}

	byNetDesc := func(entries []CounterpartyBalance) func(i, j int) bool {
		return func(i, j int) bool {
			if entries[i].NetAmountCents != entries[j].NetAmountCents {
				return entries[i].NetAmountCents > entries[j].NetAmountCents
			}
			return entries[i].UserID < entries[j].UserID
		}
	}
	sort.Slice(result.CompensatedDebts, byNetDesc(result.CompensatedDebts))
	sort.Slice(result.CompensatedCredits, byNetDesc(result.CompensatedCredits))

	return result, nil
}
