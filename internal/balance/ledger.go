// Package balance implements the settlement engine: it turns raw ledger
// records (expenses, debt shares, payments) into minimal-transfer settlement
// sets per activity, uncompensated debt/credit listings, and compensated net
// positions between users across their whole shared history.
//
// Every computation is stateless and pure given a fixed snapshot of the
// ledger. Callers that need a consistent view should run the computation
// inside a single read-only transaction (see storage.Store.ViewLedger).
//
// All amounts are int64 minor currency units. Recorded payments are
// deliberately ignored here: these views show raw allocation. The one
// payment-aware view (remaining debt per expense) lives in the handler
// layer on top of Ledger.Payments.
package balance

import (
	"context"

	"github.com/splitledger/splitledger/internal/models"
)

// Ledger is the read-only data-access surface the engine computes from.
// Implementations return fully materialized, ordered collections and fail
// with a not-found error for absent activities or users.
type Ledger interface {
	// Activity returns the activity with its participant list populated.
	Activity(ctx context.Context, id string) (*models.Activity, error)

	// Expenses returns the activity's expenses in creation order, each
	// with payer, debt shares, and payments materialized.
	Expenses(ctx context.Context, activityID string) ([]models.Expense, error)

	// ExpensesPaidBy returns every expense the user is recorded as
	// payer of, across all activities, in creation order. Includes
	// expenses in activities the payer has since left.
	ExpensesPaidBy(ctx context.Context, userID string) ([]models.Expense, error)

	// Participations returns the IDs of the activities the user belongs
	// to, in join order.
	Participations(ctx context.Context, userID string) ([]string, error)

	// DebtShares returns the debt distribution of one expense.
	DebtShares(ctx context.Context, expenseID string) ([]models.DebtShare, error)

	// Payments returns the payments one debtor has made on one expense.
	Payments(ctx context.Context, expenseID, debtorID string) ([]models.Payment, error)

	// User returns the user with the given ID.
	User(ctx context.Context, id string) (*models.User, error)
}

// UserRef identifies a user in a balance result.
type UserRef struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// Transfer is a settlement instruction: From pays To the given amount.
type Transfer struct {
	From        UserRef `json:"from"`
	To          UserRef `json:"to"`
	AmountCents int64   `json:"amountInCents"`
}

// ActivityBalance is the minimal transfer set that settles one activity.
type ActivityBalance struct {
	ActivityID   string     `json:"activityId"`
	ActivityName string     `json:"activityName"`
	Transfers    []Transfer `json:"transfers"`
}

// CreditDetail is one row of money owed to the user: a debtor's share on an
// expense the user paid. Payments are not subtracted.
type CreditDetail struct {
	DebtorID     string `json:"debtorId"`
	DebtorName   string `json:"debtorName"`
	AmountCents  int64  `json:"amountInCents"`
	ActivityID   string `json:"activityId"`
	ActivityName string `json:"activityName"`
	ExpenseID    string `json:"expenseId"`
	ExpenseName  string `json:"expenseName"`
}

// DebtDetail is one row of money the user owes: their share on an expense
// somebody else paid. Payments are not subtracted.
type DebtDetail struct {
	CreditorID   string `json:"creditorId"`
	CreditorName string `json:"creditorName"`
	AmountCents  int64  `json:"amountInCents"`
	ActivityID   string `json:"activityId"`
	ActivityName string `json:"activityName"`
	ExpenseID    string `json:"expenseId"`
	ExpenseName  string `json:"expenseName"`
}

// DetailedBalance lists a user's uncompensated credits and debts across all
// activities. The two passes are independent: the same counterparty may
// appear on both sides, and no netting happens in this view.
type DetailedBalance struct {
	TotalCreditCents int64          `json:"totalOwedToUserInCents"`
	TotalDebtCents   int64          `json:"totalUserOwesInCents"`
	Credits          []CreditDetail `json:"credits"`
	Debts            []DebtDetail   `json:"debts"`
}

// NetBalance is the compensated position between two users.
type NetBalance struct {
	Debtor      UserRef `json:"debtor"`
	Creditor    UserRef `json:"creditor"`
	AmountCents int64   `json:"amountInCents"`
}

// ActivityDetail is one shared activity's non-zero net between two users.
type ActivityDetail struct {
	ActivityID   string `json:"activityId"`
	ActivityName string `json:"activityName"`
	FromUser     string `json:"fromUser"`
	ToUser       string `json:"toUser"`
	AmountCents  int64  `json:"amountInCents"`
}

// PairwiseBalance nets the relationship between exactly two users across
// every activity they share. Net is nil when the signed sum is zero, even
// if individual activities carry non-zero details.
type PairwiseBalance struct {
	Net     *NetBalance      `json:"netBalance,omitempty"`
	Details []ActivityDetail `json:"details"`
}

// ActivityShare is one activity's contribution to a compensated pair net,
// signed from the requesting user's perspective (positive = the user owes
// for that activity).
type ActivityShare struct {
	ActivityID   string `json:"activityId"`
	ActivityName string `json:"activityName"`
	AmountCents  int64  `json:"amountInCents"`
}

// CounterpartyBalance is the compensated net against one counterparty,
// with its per-activity breakdown. NetAmountCents is always positive; the
// list the entry appears in (debts vs credits) carries the direction.
type CounterpartyBalance struct {
	UserID         string          `json:"userId"`
	Name           string          `json:"name"`
	NetAmountCents int64           `json:"netAmountInCents"`
	Activities     []ActivityShare `json:"activities"`
}

// GlobalBalance is a user's compensated position against every
// counterparty. NetBalanceCents is the signed sum across all pairs:
// positive means the user is net in debt overall.
type GlobalBalance struct {
	NetBalanceCents    int64                 `json:"globalNetBalanceInCents"`
	CompensatedDebts   []CounterpartyBalance `json:"compensatedDebts"`
	CompensatedCredits []CounterpartyBalance `json:"compensatedCredits"`
}
