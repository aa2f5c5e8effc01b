package balance

import (
	"context"
	"fmt"
)

// Detailed lists a user's uncompensated credits and debts.
//
// Credits: for each expense the user paid, one row per share holder.
// Paid expenses are looked up by payer directly, so credit rows survive
// the payer leaving the activity. Debts: for each share the user holds
// on an expense with an assigned payer, one row attributed to that
// payer. The two passes are independent and nothing is netted; recorded
// payments are not subtracted.
func Detailed(ctx context.Context, ledger Ledger, userID string) (*DetailedBalance, error) {
	result := &DetailedBalance{
		Credits: make([]CreditDetail, 0),
		Debts:   make([]DebtDetail, 0),
	}

	activityNames := make(map[string]string)
	activityName := func(id string) (string, error) {
		if name, ok := activityNames[id]; ok {
			return name, nil
		}
		activity, err := ledger.Activity(ctx, id)
		if err != nil {
			return "", err
		}
		activityNames[activity.ID] = activity.Name
		return activity.Name, nil
	}

	paid, err := ledger.ExpensesPaidBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load paid expenses: %w", err)
	}
	for _, expense := range paid {
		name, err := activityName(expense.ActivityID)
		if err != nil {
			return nil, err
		}
		for _, share := range expense.Shares {
			result.Credits = append(result.Credits, CreditDetail{
				DebtorID:     share.UserID,
				DebtorName:   share.UserName,
				AmountCents:  share.AmountOwedCents,
				ActivityID:   expense.ActivityID,
				ActivityName: name,
				ExpenseID:    expense.ID,
				ExpenseName:  expense.Name,
			})
			result.TotalCreditCents += share.AmountOwedCents
		}
	}

	activityIDs, err := ledger.Participations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participations: %w", err)
	}

	creditorNames := make(map[string]string)
	for _, activityID := range activityIDs {
		activity, err := ledger.Activity(ctx, activityID)
		if err != nil {
			return nil, err
		}
		activityNames[activity.ID] = activity.Name
		for _, p := range activity.Participants {
			creditorNames[p.ID] = p.Name
		}

		expenses, err := ledger.Expenses(ctx, activityID)
		if err != nil {
			return nil, fmt.Errorf("failed to load expenses: %w", err)
		}

		for _, expense := range expenses {
			if expense.PayerID == "" {
				continue
			}
			for _, share := range expense.Shares {
				if share.UserID != userID {
					continue
				}
				name, ok := creditorNames[expense.PayerID]
				if !ok {
					// The payer may have left the activity; resolve
					// their name directly.
					payer, err := ledger.User(ctx, expense.PayerID)
					if err != nil {
						return nil, err
					}
					name = payer.Name
					creditorNames[payer.ID] = name
				}
				result.Debts = append(result.Debts, DebtDetail{
					CreditorID:   expense.PayerID,
					CreditorName: name,
					AmountCents:  share.AmountOwedCents,
					ActivityID:   activity.ID,
					ActivityName: activity.Name,
					ExpenseID:    expense.ID,
					ExpenseName:  expense.Name,
				})
				result.TotalDebtCents += share.AmountOwedCents
			}
		}
	}

	return result, nil
}
