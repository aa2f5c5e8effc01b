package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splitledger/splitledger/internal/balance"
	"github.com/splitledger/splitledger/internal/middleware"
	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/storage"
)

// ExpenseHandler serves expense, debt share, and payment management.
type ExpenseHandler struct {
	store storage.Store
}

// NewExpenseHandler creates an ExpenseHandler.
func NewExpenseHandler(store storage.Store) *ExpenseHandler {
	return &ExpenseHandler{store: store}
}

type createExpenseRequest struct {
	Title           string   `json:"title" binding:"required"`
	AmountCents     int64    `json:"amountInCents" binding:"required,gt=0"`
	PayerID         string   `json:"payerId"`
	ParticipantsIDs []string `json:"participantsIds" binding:"required,min=1"`
}

type shareResponse struct {
	UserID          string `json:"userId"`
	UserName        string `json:"userName"`
	AmountOwedCents int64  `json:"amountOwedInCents"`
}

type expenseResponse struct {
	ID          string          `json:"id"`
	ActivityID  string          `json:"activityId"`
	Name        string          `json:"name"`
	AmountCents int64           `json:"amountInCents"`
	PayerID     string          `json:"payerId,omitempty"`
	CreatedAt   int64           `json:"createdAt"`
	Shares      []shareResponse `json:"participants"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	resp := expenseResponse{
		ID:          e.ID,
		ActivityID:  e.ActivityID,
		Name:        e.Name,
		AmountCents: e.AmountCents,
		PayerID:     e.PayerID,
		CreatedAt:   e.CreatedAt,
		Shares:      make([]shareResponse, 0, len(e.Shares)),
	}
	for _, s := range e.Shares {
		resp.Shares = append(resp.Shares, shareResponse{
			UserID:          s.UserID,
			UserName:        s.UserName,
			AmountOwedCents: s.AmountOwedCents,
		})
	}
	return resp
}

// validateExpenseMembers checks that the payer (if set) and every debtor
// exist and belong to the activity. Returns false after aborting.
func (h *ExpenseHandler) validateExpenseMembers(c *gin.Context, activityID, payerID string, participantIDs []string) bool {
	ctx := c.Request.Context()

	check := func(userID, role string) bool {
		if _, err := h.store.GetUserByID(ctx, userID); err != nil {
			abortError(c, err)
			return false
		}
		ok, err := h.store.IsParticipant(ctx, activityID, userID)
		if err != nil {
			abortError(c, err)
			return false
		}
		if !ok {
			abortForbidden(c, role+" must be a participant of the activity")
			return false
		}
		return true
	}

	if payerID != "" && !check(payerID, "payer") {
		return false
	}
	for _, id := range participantIDs {
		if !check(id, "expense participant") {
			return false
		}
	}
	return true
}

// equalShares splits amountCents across the given users in order.
func equalShares(amountCents int64, userIDs []string) ([]models.DebtShare, error) {
	amounts, err := balance.EqualSplit(amountCents, len(userIDs))
	if err != nil {
		return nil, err
	}
	shares := make([]models.DebtShare, len(userIDs))
	for i, userID := range userIDs {
		shares[i] = models.DebtShare{UserID: userID, AmountOwedCents: amounts[i]}
	}
	return shares, nil
}

// Create records a new expense with an equal split across the given
// participants. Debt shares are written atomically with the expense.
func (h *ExpenseHandler) Create(c *gin.Context) {
	activityID := c.Param("activityID")

	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	if _, err := h.store.GetActivity(c.Request.Context(), activityID); err != nil {
		abortError(c, err)
		return
	}
	if !requireParticipant(c, h.store, activityID) {
		return
	}
	if !h.validateExpenseMembers(c, activityID, req.PayerID, req.ParticipantsIDs) {
		return
	}

	shares, err := equalShares(req.AmountCents, req.ParticipantsIDs)
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	expense := &models.Expense{
		ActivityID:  activityID,
		Name:        req.Title,
		AmountCents: req.AmountCents,
		PayerID:     req.PayerID,
		Shares:      shares,
	}
	if err := h.store.CreateExpense(c.Request.Context(), expense); err != nil {
		abortError(c, err)
		return
	}

	// Re-read to pick up share holder names.
	created, err := h.store.GetExpense(c.Request.Context(), expense.ID)
	if err != nil {
		abortError(c, err)
		return
	}

	slog.Info("Expense created", "expense_id", expense.ID, "activity_id", activityID, "amount_cents", req.AmountCents)
	c.JSON(http.StatusCreated, toExpenseResponse(created))
}

type expenseListItem struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	AmountCents       int64  `json:"amountInCents"`
	PayerID           string `json:"payerId,omitempty"`
	ParticipantsCount int    `json:"participantsCount"`
	CreatedAt         int64  `json:"createdAt"`
}

// List returns the activity's expenses in creation order.
func (h *ExpenseHandler) List(c *gin.Context) {
	activityID := c.Param("activityID")

	if _, err := h.store.GetActivity(c.Request.Context(), activityID); err != nil {
		abortError(c, err)
		return
	}
	if !requireParticipant(c, h.store, activityID) {
		return
	}

	var items []expenseListItem
	err := h.store.ViewLedger(c.Request.Context(), func(ledger balance.Ledger) error {
		expenses, err := ledger.Expenses(c.Request.Context(), activityID)
		if err != nil {
			return err
		}
		items = make([]expenseListItem, 0, len(expenses))
		for _, e := range expenses {
			items = append(items, expenseListItem{
				ID:                e.ID,
				Name:              e.Name,
				AmountCents:       e.AmountCents,
				PayerID:           e.PayerID,
				ParticipantsCount: len(e.Shares),
				CreatedAt:         e.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expenses": items})
}

type participantDebtResponse struct {
	UserID             string `json:"userId"`
	UserName           string `json:"userName"`
	AmountOwedCents    int64  `json:"amountOwedInCents"`
	AmountPaidCents    int64  `json:"amountPaidInCents"`
	RemainingDebtCents int64  `json:"remainingDebtInCents"`
}

type paymentResponse struct {
	ID              string `json:"id"`
	DebtorID        string `json:"debtorId"`
	AmountPaidCents int64  `json:"amountPaidInCents"`
	PaidAt          int64  `json:"paidAt"`
}

type expenseDetailResponse struct {
	ID           string                    `json:"id"`
	Name         string                    `json:"name"`
	AmountCents  int64                     `json:"amountInCents"`
	PayerID      string                    `json:"payerId,omitempty"`
	ActivityID   string                    `json:"activityId"`
	Participants []participantDebtResponse `json:"participants"`
	Payments     []paymentResponse         `json:"payments"`
	CreatedAt    int64                     `json:"createdAt"`
}

// Detail returns one expense with payment-aware remaining debt per
// participant. This is the only payment-aware view: balance computations
// deliberately work from raw allocations.
func (h *ExpenseHandler) Detail(c *gin.Context) {
	expenseID := c.Param("expenseID")

	expense, err := h.store.GetExpense(c.Request.Context(), expenseID)
	if err != nil {
		abortError(c, err)
		return
	}
	if !requireParticipant(c, h.store, expense.ActivityID) {
		return
	}

	paidBy := make(map[string]int64)
	payments := make([]paymentResponse, 0, len(expense.Payments))
	for _, p := range expense.Payments {
		paidBy[p.DebtorID] += p.AmountPaidCents
		payments = append(payments, paymentResponse{
			ID:              p.ID,
			DebtorID:        p.DebtorID,
			AmountPaidCents: p.AmountPaidCents,
			PaidAt:          p.PaidAt,
		})
	}

	participants := make([]participantDebtResponse, 0, len(expense.Shares))
	for _, share := range expense.Shares {
		paid := paidBy[share.UserID]
		remaining := share.AmountOwedCents - paid
		if remaining < 0 {
			remaining = 0
		}
		participants = append(participants, participantDebtResponse{
			UserID:             share.UserID,
			UserName:           share.UserName,
			AmountOwedCents:    share.AmountOwedCents,
			AmountPaidCents:    paid,
			RemainingDebtCents: remaining,
		})
	}

	c.JSON(http.StatusOK, expenseDetailResponse{
		ID:           expense.ID,
		Name:         expense.Name,
		AmountCents:  expense.AmountCents,
		PayerID:      expense.PayerID,
		ActivityID:   expense.ActivityID,
		Participants: participants,
		Payments:     payments,
		CreatedAt:    expense.CreatedAt,
	})
}

type updateExpenseRequest struct {
	Title           *string  `json:"title"`
	AmountCents     *int64   `json:"amountInCents"`
	PayerID         *string  `json:"payerId"`
	ParticipantsIDs []string `json:"participantsIds"`
}

// Update applies partial changes to an expense. Changing the amount or
// the participant set wholesale-replaces the debt shares with a fresh
// equal split, triggering full recalculation.
func (h *ExpenseHandler) Update(c *gin.Context) {
	expenseID := c.Param("expenseID")

	var req updateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	expense, err := h.store.GetExpense(c.Request.Context(), expenseID)
	if err != nil {
		abortError(c, err)
		return
	}
	if !requireParticipant(c, h.store, expense.ActivityID) {
		return
	}

	if req.Title != nil {
		expense.Name = *req.Title
	}
	recalculate := false
	if req.AmountCents != nil {
		expense.AmountCents = *req.AmountCents
		recalculate = true
	}

	payerID := expense.PayerID
	if req.PayerID != nil {
		payerID = *req.PayerID
	}

	debtorIDs := make([]string, 0, len(expense.Shares))
	if req.ParticipantsIDs != nil {
		debtorIDs = req.ParticipantsIDs
		recalculate = true
	} else {
		for _, s := range expense.Shares {
			debtorIDs = append(debtorIDs, s.UserID)
		}
	}

	if !h.validateExpenseMembers(c, expense.ActivityID, payerID, debtorIDs) {
		return
	}
	expense.PayerID = payerID

	if recalculate {
		shares, err := equalShares(expense.AmountCents, debtorIDs)
		if err != nil {
			abortBadRequest(c, err)
			return
		}
		expense.Shares = shares
	}

	if err := h.store.UpdateExpense(c.Request.Context(), expense); err != nil {
		abortError(c, err)
		return
	}

	updated, err := h.store.GetExpense(c.Request.Context(), expenseID)
	if err != nil {
		abortError(c, err)
		return
	}

	slog.Info("Expense updated", "expense_id", expenseID, "recalculated", recalculate)
	c.JSON(http.StatusOK, toExpenseResponse(updated))
}

type setPayerRequest struct {
	PayerID string `json:"payerId" binding:"required"`
}

// SetPayer assigns who paid the expense.
func (h *ExpenseHandler) SetPayer(c *gin.Context) {
	expenseID := c.Param("expenseID")

	var req setPayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	expense, err := h.store.GetExpense(c.Request.Context(), expenseID)
	if err != nil {
		abortError(c, err)
		return
	}
	if !requireParticipant(c, h.store, expense.ActivityID) {
		return
	}
	if !h.validateExpenseMembers(c, expense.ActivityID, req.PayerID, nil) {
		return
	}

	if err := h.store.SetExpensePayer(c.Request.Context(), expenseID, req.PayerID); err != nil {
		abortError(c, err)
		return
	}

	slog.Info("Expense payer set", "expense_id", expenseID, "payer_id", req.PayerID)
	c.Status(http.StatusNoContent)
}

type markPaymentRequest struct {
	AmountCents int64 `json:"amountInCents" binding:"required,gt=0"`
}

// MarkPayment records the requester settling part of their debt share.
// Payments that would exceed the remaining debt are rejected.
func (h *ExpenseHandler) MarkPayment(c *gin.Context) {
	expenseID := c.Param("expenseID")

	var req markPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	expense, err := h.store.GetExpense(c.Request.Context(), expenseID)
	if err != nil {
		abortError(c, err)
		return
	}
	if !requireParticipant(c, h.store, expense.ActivityID) {
		return
	}

	payment := &models.Payment{
		ExpenseID:       expenseID,
		DebtorID:        middleware.GetUserID(c),
		AmountPaidCents: req.AmountCents,
	}
	if err := h.store.AddPayment(c.Request.Context(), payment); err != nil {
		abortError(c, err)
		return
	}

	slog.Info("Payment recorded", "expense_id", expenseID, "debtor_id", payment.DebtorID, "amount_cents", req.AmountCents)
	c.JSON(http.StatusCreated, paymentResponse{
		ID:              payment.ID,
		DebtorID:        payment.DebtorID,
		AmountPaidCents: payment.AmountPaidCents,
		PaidAt:          payment.PaidAt,
	})
}

// Delete removes an expense together with its shares and payments.
func (h *ExpenseHandler) Delete(c *gin.Context) {
	expenseID := c.Param("expenseID")

	expense, err := h.store.GetExpense(c.Request.Context(), expenseID)
	if err != nil {
		abortError(c, err)
		return
	}
	if !requireParticipant(c, h.store, expense.ActivityID) {
		return
	}

	if err := h.store.DeleteExpense(c.Request.Context(), expenseID); err != nil {
		abortError(c, err)
		return
	}

	slog.Info("Expense deleted", "expense_id", expenseID)
	c.Status(http.StatusNoContent)
}
