package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/splitledger/splitledger/internal/balance"
	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/storage"
)

// Ensure ledgerView implements balance.Ledger
var _ balance.Ledger = (*ledgerView)(nil)

// ledgerView adapts a querier (a transaction inside ViewLedger, or the
// bare connection) to the balance.Ledger read surface.
type ledgerView struct {
	q querier
}

func (l *ledgerView) Activity(ctx context.Context, id string) (*models.Activity, error) {
	return getActivity(ctx, l.q, id)
}

func (l *ledgerView) Expenses(ctx context.Context, activityID string) ([]models.Expense, error) {
	return listExpenses(ctx, l.q, activityID)
}

func (l *ledgerView) ExpensesPaidBy(ctx context.Context, userID string) ([]models.Expense, error) {
	return listExpensesPaidBy(ctx, l.q, userID)
}

func (l *ledgerView) Participations(ctx context.Context, userID string) ([]string, error) {
	return listParticipations(ctx, l.q, userID)
}

func (l *ledgerView) DebtShares(ctx context.Context, expenseID string) ([]models.DebtShare, error) {
	return listShares(ctx, l.q, expenseID)
}

func (l *ledgerView) Payments(ctx context.Context, expenseID, debtorID string) ([]models.Payment, error) {
	rows, err := l.q.QueryContext(ctx,
		`SELECT id, expense_id, debtor_id, amount_paid_cents, paid_at
		 FROM expense_payments WHERE expense_id = ? AND debtor_id = ?
		 ORDER BY paid_at, id`,
		expenseID, debtorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	defer rows.Close()
	return scanPayments(rows)
}

func (l *ledgerView) User(ctx context.Context, id string) (*models.User, error) {
	return getUserByID(ctx, l.q, id)
}

// --- shared read helpers ---

func getActivity(ctx context.Context, q querier, id string) (*models.Activity, error) {
	activity := &models.Activity{}
	err := q.QueryRowContext(ctx,
		"SELECT id, name, activity_date, created_at FROM activities WHERE id = ?",
		id,
	).Scan(&activity.ID, &activity.Name, &activity.ActivityDate, &activity.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("activity %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT u.id, u.email, u.name, u.created_at, u.updated_at
		 FROM activity_participants ap
		 JOIN users u ON u.id = ap.user_id
		 WHERE ap.activity_id = ?
		 ORDER BY ap.joined_at, u.id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		activity.Participants = append(activity.Participants, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return activity, nil
}

func listParticipations(ctx context.Context, q querier, userID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT activity_id FROM activity_participants
		 WHERE user_id = ? ORDER BY joined_at, activity_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participations: %w", err)
	}
	defer rows.Close()

	var activityIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		activityIDs = append(activityIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participations: %w", err)
	}
	return activityIDs, nil
}

func listExpenses(ctx context.Context, q querier, activityID string) ([]models.Expense, error) {
	return collectExpenses(ctx, q,
		`SELECT id, activity_id, name, amount_cents, payer_id, created_at
		 FROM expenses WHERE activity_id = ?
		 ORDER BY created_at, id`,
		activityID,
	)
}

func listExpensesPaidBy(ctx context.Context, q querier, userID string) ([]models.Expense, error) {
	return collectExpenses(ctx, q,
		`SELECT id, activity_id, name, amount_cents, payer_id, created_at
		 FROM expenses WHERE payer_id = ?
		 ORDER BY created_at, id`,
		userID,
	)
}

func collectExpenses(ctx context.Context, q querier, query string, args ...any) ([]models.Expense, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for i := range expenses {
		if err := loadExpenseChildren(ctx, q, &expenses[i]); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

func scanExpense(rows *sql.Rows) (*models.Expense, error) {
	expense := &models.Expense{}
	var payerID sql.NullString
	if err := rows.Scan(&expense.ID, &expense.ActivityID, &expense.Name,
		&expense.AmountCents, &payerID, &expense.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}
	if payerID.Valid {
		expense.PayerID = payerID.String
	}
	return expense, nil
}

func loadExpenseChildren(ctx context.Context, q querier, expense *models.Expense) error {
	shares, err := listShares(ctx, q, expense.ID)
	if err != nil {
		return err
	}
	expense.Shares = shares

	rows, err := q.QueryContext(ctx,
		`SELECT id, expense_id, debtor_id, amount_paid_cents, paid_at
		 FROM expense_payments WHERE expense_id = ?
		 ORDER BY paid_at, id`,
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get payments: %w", err)
	}
	defer rows.Close()

	payments, err := scanPayments(rows)
	if err != nil {
		return err
	}
	expense.Payments = payments
	return nil
}

func listShares(ctx context.Context, q querier, expenseID string) ([]models.DebtShare, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT es.expense_id, es.user_id, u.name, es.amount_owed_cents
		 FROM expense_shares es
		 JOIN users u ON u.id = es.user_id
		 WHERE es.expense_id = ?
		 ORDER BY es.user_id`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get debt shares: %w", err)
	}
	defer rows.Close()

	var shares []models.DebtShare
	for rows.Next() {
		var share models.DebtShare
		if err := rows.Scan(&share.ExpenseID, &share.UserID, &share.UserName, &share.AmountOwedCents); err != nil {
			return nil, fmt.Errorf("failed to scan debt share: %w", err)
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debt shares: %w", err)
	}
	return shares, nil
}

func scanPayments(rows *sql.Rows) ([]models.Payment, error) {
	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.ExpenseID, &p.DebtorID, &p.AmountPaidCents, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

func getUserByID(ctx context.Context, q querier, id string) (*models.User, error) {
	user := &models.User{}
	err := q.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
