package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splitledger/splitledger/internal/middleware"
	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/storage"
)

// ActivityHandler serves activity and participation management.
type ActivityHandler struct {
	store storage.Store
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(store storage.Store) *ActivityHandler {
	return &ActivityHandler{store: store}
}

type createActivityRequest struct {
	Name         string `json:"name" binding:"required"`
	ActivityDate int64  `json:"activityDate" binding:"required"`
}

type activityResponse struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	ActivityDate int64          `json:"activityDate"`
	CreatedAt    int64          `json:"createdAt"`
	Participants []userResponse `json:"participants,omitempty"`
}

func toActivityResponse(a *models.Activity) activityResponse {
	resp := activityResponse{
		ID:           a.ID,
		Name:         a.Name,
		ActivityDate: a.ActivityDate,
		CreatedAt:    a.CreatedAt,
	}
	for i := range a.Participants {
		resp.Participants = append(resp.Participants, toUserResponse(&a.Participants[i]))
	}
	return resp
}

// requireParticipant aborts unless the requester belongs to the activity.
// Returns false after aborting.
func (h *ActivityHandler) requireParticipant(c *gin.Context, activityID string) bool {
	return requireParticipant(c, h.store, activityID)
}

func requireParticipant(c *gin.Context, store storage.Store, activityID string) bool {
	ok, err := store.IsParticipant(c.Request.Context(), activityID, middleware.GetUserID(c))
	if err != nil {
		abortError(c, err)
		return false
	}
	if !ok {
		abortForbidden(c, "you must be a participant of this activity")
		return false
	}
	return true
}

// Create registers a new activity with the requester as first participant.
func (h *ActivityHandler) Create(c *gin.Context) {
	var req createActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	activity := &models.Activity{Name: req.Name, ActivityDate: req.ActivityDate}
	if err := h.store.CreateActivity(c.Request.Context(), activity, middleware.GetUserID(c)); err != nil {
		abortError(c, err)
		return
	}

	slog.Info("Activity created", "activity_id", activity.ID, "name", activity.Name)
	c.JSON(http.StatusCreated, toActivityResponse(activity))
}

// List returns the requester's activities.
func (h *ActivityHandler) List(c *gin.Context) {
	activities, err := h.store.ListActivitiesForUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		abortError(c, err)
		return
	}

	resp := make([]activityResponse, 0, len(activities))
	for i := range activities {
		resp = append(resp, toActivityResponse(&activities[i]))
	}
	c.JSON(http.StatusOK, gin.H{"activities": resp})
}

// Get returns one activity with its participants.
func (h *ActivityHandler) Get(c *gin.Context) {
	activityID := c.Param("activityID")
	activity, err := h.store.GetActivity(c.Request.Context(), activityID)
	if err != nil {
		abortError(c, err)
		return
	}
	if !h.requireParticipant(c, activityID) {
		return
	}
	c.JSON(http.StatusOK, toActivityResponse(activity))
}

// Delete removes an activity and everything it owns.
func (h *ActivityHandler) Delete(c *gin.Context) {
	activityID := c.Param("activityID")
	if _, err := h.store.GetActivity(c.Request.Context(), activityID); err != nil {
		abortError(c, err)
		return
	}
	if !h.requireParticipant(c, activityID) {
		return
	}
	if err := h.store.DeleteActivity(c.Request.Context(), activityID); err != nil {
		abortError(c, err)
		return
	}
	slog.Info("Activity deleted", "activity_id", activityID)
	c.Status(http.StatusNoContent)
}

type addParticipantRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// AddParticipant enrolls another user into the activity.
func (h *ActivityHandler) AddParticipant(c *gin.Context) {
	activityID := c.Param("activityID")

	var req addParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	if _, err := h.store.GetActivity(c.Request.Context(), activityID); err != nil {
		abortError(c, err)
		return
	}
	if !h.requireParticipant(c, activityID) {
		return
	}
	if _, err := h.store.GetUserByID(c.Request.Context(), req.UserID); err != nil {
		abortError(c, err)
		return
	}

	if err := h.store.AddParticipant(c.Request.Context(), activityID, req.UserID); err != nil {
		abortError(c, err)
		return
	}

	slog.Info("Participant added", "activity_id", activityID, "user_id", req.UserID)
	c.Status(http.StatusNoContent)
}

// ListParticipants returns the activity's membership.
func (h *ActivityHandler) ListParticipants(c *gin.Context) {
	activityID := c.Param("activityID")
	activity, err := h.store.GetActivity(c.Request.Context(), activityID)
	if err != nil {
		abortError(c, err)
		return
	}
	if !h.requireParticipant(c, activityID) {
		return
	}

	participants := make([]userResponse, 0, len(activity.Participants))
	for i := range activity.Participants {
		participants = append(participants, toUserResponse(&activity.Participants[i]))
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

// RemoveParticipant removes a user from the activity.
func (h *ActivityHandler) RemoveParticipant(c *gin.Context) {
	activityID := c.Param("activityID")
	userID := c.Param("userID")

	if _, err := h.store.GetActivity(c.Request.Context(), activityID); err != nil {
		abortError(c, err)
		return
	}
	if !h.requireParticipant(c, activityID) {
		return
	}

	if err := h.store.RemoveParticipant(c.Request.Context(), activityID, userID); err != nil {
		abortError(c, err)
		return
	}

	slog.Info("Participant removed", "activity_id", activityID, "user_id", userID)
	c.Status(http.StatusNoContent)
}
