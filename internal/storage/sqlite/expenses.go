package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/storage"
)

// nullablePayer maps an empty payer ID to SQL NULL.
func nullablePayer(payerID string) any {
	if payerID == "" {
		return nil
	}
	return payerID
}

// CreateExpense persists an expense and its debt shares atomically.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, activity_id, name, amount_cents, payer_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.ActivityID, expense.Name, expense.AmountCents,
		nullablePayer(expense.PayerID), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i := range expense.Shares {
		share := &expense.Shares[i]
		share.ExpenseID = expense.ID
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, user_id, amount_owed_cents) VALUES (?, ?, ?)",
			share.ExpenseID, share.UserID, share.AmountOwedCents,
		)
		if err != nil {
			return fmt.Errorf("failed to insert debt share: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense with its shares and payments.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	expense := &models.Expense{}
	var payerID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, activity_id, name, amount_cents, payer_id, created_at
		 FROM expenses WHERE id = ?`,
		id,
	).Scan(&expense.ID, &expense.ActivityID, &expense.Name,
		&expense.AmountCents, &payerID, &expense.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if payerID.Valid {
		expense.PayerID = payerID.String
	}

	if err := loadExpenseChildren(ctx, s.db, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateExpense rewrites the expense row and wholesale-replaces its debt
// shares in one transaction, so the share-sum invariant never holds
// partially.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE expenses SET name = ?, amount_cents = ?, payer_id = ? WHERE id = ?",
		expense.Name, expense.AmountCents, nullablePayer(expense.PayerID), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM expense_shares WHERE expense_id = ?", expense.ID,
	); err != nil {
		return fmt.Errorf("failed to delete debt shares: %w", err)
	}

	for i := range expense.Shares {
		share := &expense.Shares[i]
		share.ExpenseID = expense.ID
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, user_id, amount_owed_cents) VALUES (?, ?, ?)",
			share.ExpenseID, share.UserID, share.AmountOwedCents,
		)
		if err != nil {
			return fmt.Errorf("failed to insert debt share: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SetExpensePayer assigns the payer of an expense.
func (s *SQLiteStore) SetExpensePayer(ctx context.Context, expenseID, payerID string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET payer_id = ? WHERE id = ?",
		nullablePayer(payerID), expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to set payer: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// DeleteExpense removes an expense; shares and payments cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// AddPayment appends a payment after checking, inside the same
// transaction, that it does not exceed the debtor's remaining share.
func (s *SQLiteStore) AddPayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.PaidAt == 0 {
		payment.PaidAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var owed int64
	err = tx.QueryRowContext(ctx,
		"SELECT amount_owed_cents FROM expense_shares WHERE expense_id = ? AND user_id = ?",
		payment.ExpenseID, payment.DebtorID,
	).Scan(&owed)
	if err == sql.ErrNoRows {
		return fmt.Errorf("debt share %s/%s: %w", payment.ExpenseID, payment.DebtorID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get debt share: %w", err)
	}

	var paid int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_paid_cents), 0) FROM expense_payments
		 WHERE expense_id = ? AND debtor_id = ?`,
		payment.ExpenseID, payment.DebtorID,
	).Scan(&paid)
	if err != nil {
		return fmt.Errorf("failed to sum payments: %w", err)
	}

	if payment.AmountPaidCents > owed-paid {
		return storage.ErrPaymentExceedsDebt
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expense_payments (id, expense_id, debtor_id, amount_paid_cents, paid_at)
		 VALUES (?, ?, ?, ?, ?)`,
		payment.ID, payment.ExpenseID, payment.DebtorID, payment.AmountPaidCents, payment.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
