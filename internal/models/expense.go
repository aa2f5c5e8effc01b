package models

// Expense represents a single cost incurred within an activity.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// ActivityID is the activity this expense belongs to.
	ActivityID string

	// Name is the display name of the expense (e.g. "Hotel Room").
	Name string

	// AmountCents is the expense amount in minor currency units.
	AmountCents int64

	// PayerID identifies the participant who paid, or "" if no payer has
	// been assigned yet. Balance computations skip payerless expenses.
	PayerID string

	// CreatedAt is the Unix timestamp when the expense was created.
	CreatedAt int64

	// Shares is the debt distribution for this expense, one entry per
	// debtor. The share amounts always sum to AmountCents exactly.
	Shares []DebtShare

	// Payments are the recorded settlements against this expense.
	Payments []Payment
}

// DebtShare records how much one participant owes toward one expense.
// Shares are created atomically with their expense and wholesale-replaced
// on amount or participant updates.
type DebtShare struct {
	ExpenseID string
	UserID    string

	// UserName is the debtor's display name, carried along for responses.
	UserName string

	// AmountOwedCents is this debtor's portion of the expense amount.
	AmountOwedCents int64
}

// Payment is an append-only record of a debtor settling part of their
// debt share. Cumulative payments by a debtor on an expense never exceed
// that debtor's share; the write path enforces this.
type Payment struct {
	ID        string
	ExpenseID string
	DebtorID  string

	// AmountPaidCents is the amount settled by this payment.
	AmountPaidCents int64

	// PaidAt is the Unix timestamp when the payment was recorded.
	PaidAt int64
}
