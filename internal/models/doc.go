// Package models defines the core domain models for Splitledger.
//
// # Models
//
//   - User: a registered account; referenced (never owned) by activities and expenses
//   - Activity: a shared event (trip, dinner, ...) owning participants and expenses
//   - Participation: (activity, user) membership, unique per pair
//   - Expense: a single cost inside an activity, optionally attributed to a payer
//   - DebtShare: the amount one participant owes toward one expense
//   - Payment: an append-only partial/full settlement by a debtor on their share
//
// # Money
//
// All amounts are int64 minor currency units (cents). No floating point is used
// anywhere in the system; equal splits distribute the integer remainder
// deterministically (see the balance package). int64 leaves headroom of about
// 9.2e18 cents for aggregates summed across many activities.
//
// # Ownership
//
// An Activity exclusively owns its Participations and Expenses; an Expense
// exclusively owns its DebtShares and Payments. Deleting the owner cascades.
// DebtShares are created atomically with their Expense and wholesale-replaced
// when the amount or participant set changes. Payments are never mutated or
// deleted.
package models
