package balance

import (
	"context"
	"fmt"

	"github.com/splitledger/splitledger/internal/models"
)

// BetweenUsers nets the relationship between users a and b across every
// activity they both participate in. This is the compensation primitive:
// opposite-direction debts in different activities cancel against each
// other.
//
// Sign convention: positive per-activity net means a owes b. Activities
// that net to zero internally are dropped from the detail list. If the
// cross-activity sum is exactly zero, no net balance is reported even
// when non-zero details exist.
func BetweenUsers(ctx context.Context, ledger Ledger, aID, bID string) (*PairwiseBalance, error) {
	shared, err := sharedActivities(ctx, ledger, aID, bID)
	if err != nil {
		return nil, err
	}
	if len(shared) == 0 {
		return &PairwiseBalance{Details: []ActivityDetail{}}, nil
	}

	a, err := ledger.User(ctx, aID)
	if err != nil {
		return nil, err
	}
	b, err := ledger.User(ctx, bID)
	if err != nil {
		return nil, err
	}

	details := make([]ActivityDetail, 0, len(shared))
	var net int64

	for _, activityID := range shared {
		activity, err := ledger.Activity(ctx, activityID)
		if err != nil {
			return nil, err
		}

		expenses, err := ledger.Expenses(ctx, activityID)
		if err != nil {
			return nil, fmt.Errorf("failed to load expenses: %w", err)
		}

		activityNet := pairNet(expenses, aID, bID)
		if activityNet == 0 {
			continue
		}

		from, to := a.Name, b.Name
		if activityNet < 0 {
			from, to = b.Name, a.Name
		}
		details = append(details, ActivityDetail{
			ActivityID:   activity.ID,
			ActivityName: activity.Name,
			FromUser:     from,
			ToUser:       to,
			AmountCents:  abs(activityNet),
		})
		net += activityNet
	}

	result := &PairwiseBalance{Details: details}
	if net != 0 {
		debtor, creditor := a, b
		if net < 0 {
			debtor, creditor = b, a
		}
		result.Net = &NetBalance{
			Debtor:      UserRef{UserID: debtor.ID, Name: debtor.Name},
			Creditor:    UserRef{UserID: creditor.ID, Name: creditor.Name},
			AmountCents: abs(net),
		}
	}
	return result, nil
}

// pairNet computes one activity's signed net between a and b:
// positive means a owes b. The two payer checks are independent so that
// a == b cancels to zero instead of leaving a one-sided subtraction.
func pairNet(expenses []models.Expense, aID, bID string) int64 {
	var net int64
	for _, expense := range expenses {
		if expense.PayerID == "" {
			continue
		}
		if expense.PayerID == aID {
			// a paid; b's share reduces what a owes b.
			for _, share := range expense.Shares {
				if share.UserID == bID {
					net -= share.AmountOwedCents
				}
			}
		}
		if expense.PayerID == bID {
			for _, share := range expense.Shares {
				if share.UserID == aID {
					net += share.AmountOwedCents
				}
			}
		}
	}
	return net
}

// sharedActivities returns the activities both users participate in,
// ordered by a's participation order for reproducible output.
func sharedActivities(ctx context.Context, ledger Ledger, aID, bID string) ([]string, error) {
	aActivities, err := ledger.Participations(ctx, aID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participations: %w", err)
	}
	bActivities, err := ledger.Participations(ctx, bID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participations: %w", err)
	}

	bSet := make(map[string]bool, len(bActivities))
	for _, id := range bActivities {
		bSet[id] = true
	}

	var shared []string
	for _, id := range aActivities {
		if bSet[id] {
			shared = append(shared, id)
		}
	}
	return shared, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
