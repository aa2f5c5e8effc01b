package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/splitledger/splitledger/internal/balance"
	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitledger-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func mustCreateUser(t *testing.T, store *SQLiteStore, id, name string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           id,
		Email:        id + "@example.com",
		Name:         name,
		PasswordHash: "x",
		CreatedAt:    1,
		UpdatedAt:    1,
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", id, err)
	}
	return user
}

func TestSQLiteStoreUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateUser and GetUserByID round-trip", func(t *testing.T) {
		mustCreateUser(t, store, "user-alice", "Alice")

		got, err := store.GetUserByID(ctx, "user-alice")
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if got.Name != "Alice" || got.Email != "user-alice@example.com" {
			t.Errorf("unexpected user: %+v", got)
		}
	})

	t.Run("GetUserByEmail finds existing user", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "user-alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got == nil || got.ID != "user-alice" {
			t.Errorf("unexpected user: %+v", got)
		}
	})

	t.Run("GetUserByEmail returns nil for unknown email", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "nobody@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil user, got %+v", got)
		}
	})

	t.Run("GetUserByID reports not found", func(t *testing.T) {
		_, err := store.GetUserByID(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStoreActivities(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "user-alice", "Alice")
	bob := mustCreateUser(t, store, "user-bob", "Bob")

	t.Run("CreateActivity generates ID and enrolls the creator", func(t *testing.T) {
		activity := &models.Activity{Name: "Weekend Trip", ActivityDate: 1700000000}
		if err := store.CreateActivity(ctx, activity, alice.ID); err != nil {
			t.Fatalf("CreateActivity failed: %v", err)
		}
		if activity.ID == "" {
			t.Error("Expected activity ID to be generated")
		}
		if activity.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}

		got, err := store.GetActivity(ctx, activity.ID)
		if err != nil {
			t.Fatalf("GetActivity failed: %v", err)
		}
		if got.Name != "Weekend Trip" {
			t.Errorf("Name = %q, want %q", got.Name, "Weekend Trip")
		}
		if len(got.Participants) != 1 || got.Participants[0].ID != alice.ID {
			t.Errorf("Participants = %+v, want just the creator", got.Participants)
		}
	})

	t.Run("AddParticipant is idempotent", func(t *testing.T) {
		activity := &models.Activity{Name: "Dinner"}
		if err := store.CreateActivity(ctx, activity, alice.ID); err != nil {
			t.Fatalf("CreateActivity failed: %v", err)
		}

		if err := store.AddParticipant(ctx, activity.ID, bob.ID); err != nil {
			t.Fatalf("AddParticipant failed: %v", err)
		}
		if err := store.AddParticipant(ctx, activity.ID, bob.ID); err != nil {
			t.Fatalf("repeated AddParticipant failed: %v", err)
		}

		got, err := store.GetActivity(ctx, activity.ID)
		if err != nil {
			t.Fatalf("GetActivity failed: %v", err)
		}
		if len(got.Participants) != 2 {
			t.Errorf("participant count = %d, want 2", len(got.Participants))
		}

		isMember, err := store.IsParticipant(ctx, activity.ID, bob.ID)
		if err != nil {
			t.Fatalf("IsParticipant failed: %v", err)
		}
		if !isMember {
			t.Error("expected bob to be a participant")
		}
	})

	t.Run("RemoveParticipant deletes the membership", func(t *testing.T) {
		activity := &models.Activity{Name: "Lunch"}
		if err := store.CreateActivity(ctx, activity, alice.ID); err != nil {
			t.Fatalf("CreateActivity failed: %v", err)
		}
		if err := store.AddParticipant(ctx, activity.ID, bob.ID); err != nil {
			t.Fatalf("AddParticipant failed: %v", err)
		}

		if err := store.RemoveParticipant(ctx, activity.ID, bob.ID); err != nil {
			t.Fatalf("RemoveParticipant failed: %v", err)
		}
		isMember, err := store.IsParticipant(ctx, activity.ID, bob.ID)
		if err != nil {
			t.Fatalf("IsParticipant failed: %v", err)
		}
		if isMember {
			t.Error("expected bob to be removed")
		}

		err = store.RemoveParticipant(ctx, activity.ID, bob.ID)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("second remove error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListActivitiesForUser returns only memberships", func(t *testing.T) {
		fresh := mustCreateUser(t, store, "user-carol", "Carol")
		activity := &models.Activity{Name: "Carol Only"}
		if err := store.CreateActivity(ctx, activity, fresh.ID); err != nil {
			t.Fatalf("CreateActivity failed: %v", err)
		}

		activities, err := store.ListActivitiesForUser(ctx, fresh.ID)
		if err != nil {
			t.Fatalf("ListActivitiesForUser failed: %v", err)
		}
		if len(activities) != 1 || activities[0].ID != activity.ID {
			t.Errorf("activities = %+v, want exactly the one created", activities)
		}
	})

	t.Run("DeleteActivity cascades to expenses", func(t *testing.T) {
		activity := &models.Activity{Name: "Doomed"}
		if err := store.CreateActivity(ctx, activity, alice.ID); err != nil {
			t.Fatalf("CreateActivity failed: %v", err)
		}
		expense := &models.Expense{
			ActivityID:  activity.ID,
			Name:        "Snacks",
			AmountCents: 500,
			PayerID:     alice.ID,
			Shares:      []models.DebtShare{{UserID: alice.ID, AmountOwedCents: 500}},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		if err := store.DeleteActivity(ctx, activity.ID); err != nil {
			t.Fatalf("DeleteActivity failed: %v", err)
		}
		if _, err := store.GetActivity(ctx, activity.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetActivity error = %v, want ErrNotFound", err)
		}
		if _, err := store.GetExpense(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetExpense error = %v, want ErrNotFound (cascade)", err)
		}
	})

	t.Run("GetActivity reports not found", func(t *testing.T) {
		_, err := store.GetActivity(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStoreExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "user-alice", "Alice")
	bob := mustCreateUser(t, store, "user-bob", "Bob")

	activity := &models.Activity{Name: "Trip"}
	if err := store.CreateActivity(ctx, activity, alice.ID); err != nil {
		t.Fatalf("CreateActivity failed: %v", err)
	}
	if err := store.AddParticipant(ctx, activity.ID, bob.ID); err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}

	t.Run("CreateExpense persists shares with user names", func(t *testing.T) {
		expense := &models.Expense{
			ActivityID:  activity.ID,
			Name:        "Hotel Room",
			AmountCents: 20000,
			PayerID:     alice.ID,
			Shares: []models.DebtShare{
				{UserID: alice.ID, AmountOwedCents: 10000},
				{UserID: bob.ID, AmountOwedCents: 10000},
			},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Error("Expected expense ID to be generated")
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.PayerID != alice.ID || got.AmountCents != 20000 {
			t.Errorf("unexpected expense: %+v", got)
		}
		if len(got.Shares) != 2 {
			t.Fatalf("share count = %d, want 2", len(got.Shares))
		}
		// Shares come back ordered by user ID, names joined in.
		if got.Shares[0].UserID != alice.ID || got.Shares[0].UserName != "Alice" {
			t.Errorf("first share = %+v", got.Shares[0])
		}
		if got.Shares[1].UserID != bob.ID || got.Shares[1].UserName != "Bob" {
			t.Errorf("second share = %+v", got.Shares[1])
		}
	})

	t.Run("payerless expense round-trips with empty payer", func(t *testing.T) {
		expense := &models.Expense{
			ActivityID:  activity.ID,
			Name:        "Unclaimed",
			AmountCents: 1000,
			Shares:      []models.DebtShare{{UserID: bob.ID, AmountOwedCents: 1000}},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.PayerID != "" {
			t.Errorf("PayerID = %q, want empty", got.PayerID)
		}
	})

	t.Run("UpdateExpense replaces shares wholesale", func(t *testing.T) {
		expense := &models.Expense{
			ActivityID:  activity.ID,
			Name:        "Dinner",
			AmountCents: 3000,
			PayerID:     alice.ID,
			Shares: []models.DebtShare{
				{UserID: alice.ID, AmountOwedCents: 1500},
				{UserID: bob.ID, AmountOwedCents: 1500},
			},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		expense.Name = "Fancy Dinner"
		expense.AmountCents = 5000
		expense.Shares = []models.DebtShare{{UserID: bob.ID, AmountOwedCents: 5000}}
		if err := store.UpdateExpense(ctx, expense); err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.Name != "Fancy Dinner" || got.AmountCents != 5000 {
			t.Errorf("unexpected expense after update: %+v", got)
		}
		if len(got.Shares) != 1 || got.Shares[0].UserID != bob.ID || got.Shares[0].AmountOwedCents != 5000 {
			t.Errorf("shares not replaced: %+v", got.Shares)
		}
	})

	t.Run("SetExpensePayer assigns and clears the payer", func(t *testing.T) {
		expense := &models.Expense{
			ActivityID:  activity.ID,
			Name:        "Taxi",
			AmountCents: 800,
			Shares:      []models.DebtShare{{UserID: alice.ID, AmountOwedCents: 800}},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		if err := store.SetExpensePayer(ctx, expense.ID, bob.ID); err != nil {
			t.Fatalf("SetExpensePayer failed: %v", err)
		}
		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.PayerID != bob.ID {
			t.Errorf("PayerID = %q, want %q", got.PayerID, bob.ID)
		}

		err = store.SetExpensePayer(ctx, "missing", bob.ID)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("DeleteExpense removes the row", func(t *testing.T) {
		expense := &models.Expense{
			ActivityID:  activity.ID,
			Name:        "Temp",
			AmountCents: 100,
			Shares:      []models.DebtShare{{UserID: alice.ID, AmountOwedCents: 100}},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if err := store.DeleteExpense(ctx, expense.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetExpense error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStorePayments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "user-alice", "Alice")
	bob := mustCreateUser(t, store, "user-bob", "Bob")

	activity := &models.Activity{Name: "Trip"}
	if err := store.CreateActivity(ctx, activity, alice.ID); err != nil {
		t.Fatalf("CreateActivity failed: %v", err)
	}
	if err := store.AddParticipant(ctx, activity.ID, bob.ID); err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}

	expense := &models.Expense{
		ActivityID:  activity.ID,
		Name:        "Hotel",
		AmountCents: 2000,
		PayerID:     alice.ID,
		Shares: []models.DebtShare{
			{UserID: alice.ID, AmountOwedCents: 1000},
			{UserID: bob.ID, AmountOwedCents: 1000},
		},
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	t.Run("AddPayment accepts partial payments up to the share", func(t *testing.T) {
		first := &models.Payment{ExpenseID: expense.ID, DebtorID: bob.ID, AmountPaidCents: 600}
		if err := store.AddPayment(ctx, first); err != nil {
			t.Fatalf("AddPayment failed: %v", err)
		}
		if first.ID == "" || first.PaidAt == 0 {
			t.Errorf("payment fields not populated: %+v", first)
		}

		second := &models.Payment{ExpenseID: expense.ID, DebtorID: bob.ID, AmountPaidCents: 400}
		if err := store.AddPayment(ctx, second); err != nil {
			t.Fatalf("second AddPayment failed: %v", err)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if len(got.Payments) != 2 {
			t.Errorf("payment count = %d, want 2", len(got.Payments))
		}
	})

	t.Run("AddPayment rejects exceeding the remaining debt", func(t *testing.T) {
		over := &models.Payment{ExpenseID: expense.ID, DebtorID: bob.ID, AmountPaidCents: 1}
		err := store.AddPayment(ctx, over)
		if !errors.Is(err, storage.ErrPaymentExceedsDebt) {
			t.Errorf("error = %v, want ErrPaymentExceedsDebt", err)
		}
	})

	t.Run("AddPayment requires an existing debt share", func(t *testing.T) {
		carol := mustCreateUser(t, store, "user-carol", "Carol")
		payment := &models.Payment{ExpenseID: expense.ID, DebtorID: carol.ID, AmountPaidCents: 100}
		err := store.AddPayment(ctx, payment)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestViewLedger(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "user-alice", "Alice")
	bob := mustCreateUser(t, store, "user-bob", "Bob")

	activity := &models.Activity{Name: "Trip"}
	if err := store.CreateActivity(ctx, activity, alice.ID); err != nil {
		t.Fatalf("CreateActivity failed: %v", err)
	}
	if err := store.AddParticipant(ctx, activity.ID, bob.ID); err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}

	expense := &models.Expense{
		ActivityID:  activity.ID,
		Name:        "Hotel",
		AmountCents: 2000,
		PayerID:     alice.ID,
		Shares: []models.DebtShare{
			{UserID: alice.ID, AmountOwedCents: 1000},
			{UserID: bob.ID, AmountOwedCents: 1000},
		},
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	payment := &models.Payment{ExpenseID: expense.ID, DebtorID: bob.ID, AmountPaidCents: 250}
	if err := store.AddPayment(ctx, payment); err != nil {
		t.Fatalf("AddPayment failed: %v", err)
	}

	t.Run("exposes a complete read surface", func(t *testing.T) {
		err := store.ViewLedger(ctx, func(ledger balance.Ledger) error {
			activityIDs, err := ledger.Participations(ctx, bob.ID)
			if err != nil {
				return err
			}
			if len(activityIDs) != 1 || activityIDs[0] != activity.ID {
				t.Errorf("Participations = %v, want [%s]", activityIDs, activity.ID)
			}

			got, err := ledger.Activity(ctx, activity.ID)
			if err != nil {
				return err
			}
			if len(got.Participants) != 2 {
				t.Errorf("participant count = %d, want 2", len(got.Participants))
			}

			expenses, err := ledger.Expenses(ctx, activity.ID)
			if err != nil {
				return err
			}
			if len(expenses) != 1 {
				t.Fatalf("expense count = %d, want 1", len(expenses))
			}
			if len(expenses[0].Shares) != 2 || len(expenses[0].Payments) != 1 {
				t.Errorf("children not materialized: shares=%d payments=%d",
					len(expenses[0].Shares), len(expenses[0].Payments))
			}

			paid, err := ledger.ExpensesPaidBy(ctx, alice.ID)
			if err != nil {
				return err
			}
			if len(paid) != 1 || paid[0].ID != expense.ID {
				t.Errorf("ExpensesPaidBy = %+v, want the hotel expense", paid)
			}

			payments, err := ledger.Payments(ctx, expense.ID, bob.ID)
			if err != nil {
				return err
			}
			if len(payments) != 1 || payments[0].AmountPaidCents != 250 {
				t.Errorf("Payments = %+v", payments)
			}

			user, err := ledger.User(ctx, alice.ID)
			if err != nil {
				return err
			}
			if user.Name != "Alice" {
				t.Errorf("User = %+v", user)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("ViewLedger failed: %v", err)
		}
	})

	t.Run("runs the settlement engine against live data", func(t *testing.T) {
		var result *balance.ActivityBalance
		err := store.ViewLedger(ctx, func(ledger balance.Ledger) error {
			var err error
			result, err = balance.ForActivity(ctx, ledger, activity.ID)
			return err
		})
		if err != nil {
			t.Fatalf("ViewLedger failed: %v", err)
		}
		if len(result.Transfers) != 1 {
			t.Fatalf("Transfers = %+v, want one", result.Transfers)
		}
		tr := result.Transfers[0]
		if tr.From.UserID != bob.ID || tr.To.UserID != alice.ID || tr.AmountCents != 1000 {
			t.Errorf("transfer = %+v, want bob pays alice 1000", tr)
		}
	})

	t.Run("propagates errors from the callback", func(t *testing.T) {
		err := store.ViewLedger(ctx, func(ledger balance.Ledger) error {
			_, err := ledger.User(ctx, "missing")
			return err
		})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("detailed balance survives the payer leaving the activity", func(t *testing.T) {
		if err := store.RemoveParticipant(ctx, activity.ID, alice.ID); err != nil {
			t.Fatalf("RemoveParticipant failed: %v", err)
		}

		var payer, debtor *balance.DetailedBalance
		err := store.ViewLedger(ctx, func(ledger balance.Ledger) error {
			var err error
			if payer, err = balance.Detailed(ctx, ledger, alice.ID); err != nil {
				return err
			}
			debtor, err = balance.Detailed(ctx, ledger, bob.ID)
			return err
		})
		if err != nil {
			t.Fatalf("ViewLedger failed: %v", err)
		}

		if payer.TotalCreditCents != 2000 || len(payer.Credits) != 2 {
			t.Errorf("payer credits = %+v (total %d), want both hotel shares", payer.Credits, payer.TotalCreditCents)
		}
		if len(debtor.Debts) != 1 {
			t.Fatalf("debtor debts = %+v, want one row", debtor.Debts)
		}
		if debtor.Debts[0].CreditorID != alice.ID || debtor.Debts[0].CreditorName != "Alice" {
			t.Errorf("debt row = %+v, want creditor Alice", debtor.Debts[0])
		}
	})
}
