package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splitledger/splitledger/internal/balance"
	"github.com/splitledger/splitledger/internal/middleware"
	"github.com/splitledger/splitledger/internal/storage"
)

// BalanceHandler exposes the settlement engine. Every computation runs
// inside one ViewLedger snapshot so its multi-step reads are consistent.
type BalanceHandler struct {
	store storage.Store
}

// NewBalanceHandler creates a BalanceHandler.
func NewBalanceHandler(store storage.Store) *BalanceHandler {
	return &BalanceHandler{store: store}
}

// Activity returns the minimal transfer set settling one activity.
func (h *BalanceHandler) Activity(c *gin.Context) {
	activityID := c.Param("activityID")

	if !requireParticipant(c, h.store, activityID) {
		return
	}

	var result *balance.ActivityBalance
	err := h.store.ViewLedger(c.Request.Context(), func(ledger balance.Ledger) error {
		var err error
		result, err = balance.ForActivity(c.Request.Context(), ledger, activityID)
		return err
	})
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Detailed returns the requester's uncompensated credits and debts.
func (h *BalanceHandler) Detailed(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var result *balance.DetailedBalance
	err := h.store.ViewLedger(c.Request.Context(), func(ledger balance.Ledger) error {
		var err error
		result, err = balance.Detailed(c.Request.Context(), ledger, userID)
		return err
	})
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// With returns the compensated net between the requester and one other
// user across all their shared activities.
func (h *BalanceHandler) With(c *gin.Context) {
	userID := middleware.GetUserID(c)
	otherID := c.Param("userID")

	var result *balance.PairwiseBalance
	err := h.store.ViewLedger(c.Request.Context(), func(ledger balance.Ledger) error {
		var err error
		result, err = balance.BetweenUsers(c.Request.Context(), ledger, userID, otherID)
		return err
	})
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Global returns the requester's compensated position against every
// counterparty.
func (h *BalanceHandler) Global(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var result *balance.GlobalBalance
	err := h.store.ViewLedger(c.Request.Context(), func(ledger balance.Ledger) error {
		var err error
		result, err = balance.Global(c.Request.Context(), ledger, userID)
		return err
	})
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
