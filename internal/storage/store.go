// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/splitledger/splitledger/internal/balance"
	"github.com/splitledger/splitledger/internal/models"
)

// ErrNotFound is returned when a requested entity does not exist.
// Implementations wrap it with context; callers test with errors.Is.
var ErrNotFound = errors.New("not found")

// ErrPaymentExceedsDebt is returned when a payment would push a debtor's
// cumulative payments on an expense past their debt share.
var ErrPaymentExceedsDebt = errors.New("payment exceeds remaining debt")

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the handler layer.
type Store interface {
	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email, or (nil, nil) if absent.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID. Fails with ErrNotFound.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateActivity persists a new activity and enrolls the creator as
	// its first participant. The activity's ID field is populated.
	CreateActivity(ctx context.Context, activity *models.Activity, creatorID string) error

	// GetActivity retrieves an activity with its participant list.
	GetActivity(ctx context.Context, id string) (*models.Activity, error)

	// ListActivitiesForUser returns the activities the user belongs to,
	// in join order.
	ListActivitiesForUser(ctx context.Context, userID string) ([]models.Activity, error)

	// DeleteActivity removes an activity and, by cascade, its
	// participations, expenses, shares, and payments.
	DeleteActivity(ctx context.Context, id string) error

	// AddParticipant enrolls a user into an activity. Adding an existing
	// participant is a no-op.
	AddParticipant(ctx context.Context, activityID, userID string) error

	// RemoveParticipant removes a user from an activity.
	RemoveParticipant(ctx context.Context, activityID, userID string) error

	// IsParticipant reports whether the user belongs to the activity.
	IsParticipant(ctx context.Context, activityID, userID string) (bool, error)

	// CreateExpense persists an expense together with its debt shares in
	// one transaction. The expense's ID field is populated.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense with shares and payments.
	GetExpense(ctx context.Context, id string) (*models.Expense, error)

	// UpdateExpense rewrites an expense and wholesale-replaces its debt
	// shares in one transaction.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// SetExpensePayer assigns the payer of an expense.
	SetExpensePayer(ctx context.Context, expenseID, payerID string) error

	// DeleteExpense removes an expense and, by cascade, its shares and
	// payments.
	DeleteExpense(ctx context.Context, id string) error

	// AddPayment appends a payment, rejecting with ErrPaymentExceedsDebt
	// any amount that would exceed the debtor's remaining share. The
	// payment's ID field is populated.
	AddPayment(ctx context.Context, payment *models.Payment) error

	// ViewLedger runs fn against a read-only ledger view backed by a
	// single transaction, so every read within one computation observes
	// one consistent snapshot.
	ViewLedger(ctx context.Context, fn func(balance.Ledger) error) error

	// Close releases any resources held by the store.
	Close() error
}
