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

// CreateActivity persists a new activity and enrolls the creator.
func (s *SQLiteStore) CreateActivity(ctx context.Context, activity *models.Activity, creatorID string) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.CreatedAt == 0 {
		activity.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO activities (id, name, activity_date, created_at) VALUES (?, ?, ?, ?)",
		activity.ID, activity.Name, activity.ActivityDate, activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO activity_participants (activity_id, user_id, joined_at) VALUES (?, ?, ?)",
		activity.ID, creatorID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert creator participation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetActivity retrieves an activity by ID with its participant list.
func (s *SQLiteStore) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	return getActivity(ctx, s.db, id)
}

// ListActivitiesForUser returns the activities the user belongs to.
func (s *SQLiteStore) ListActivitiesForUser(ctx context.Context, userID string) ([]models.Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.name, a.activity_date, a.created_at
		 FROM activities a
		 JOIN activity_participants ap ON ap.activity_id = a.id
		 WHERE ap.user_id = ?
		 ORDER BY ap.joined_at, a.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.Name, &a.ActivityDate, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}
	return activities, nil
}

// DeleteActivity removes an activity; participations, expenses, shares,
// and payments go with it via foreign key cascades.
func (s *SQLiteStore) DeleteActivity(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("activity %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// AddParticipant enrolls a user into an activity. Existing membership is
// left untouched.
func (s *SQLiteStore) AddParticipant(ctx context.Context, activityID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_participants (activity_id, user_id, joined_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (activity_id, user_id) DO NOTHING`,
		activityID, userID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

// RemoveParticipant removes a user from an activity.
func (s *SQLiteStore) RemoveParticipant(ctx context.Context, activityID, userID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM activity_participants WHERE activity_id = ? AND user_id = ?",
		activityID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("participation %s/%s: %w", activityID, userID, storage.ErrNotFound)
	}
	return nil
}

// IsParticipant reports whether the user belongs to the activity.
func (s *SQLiteStore) IsParticipant(ctx context.Context, activityID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM activity_participants WHERE activity_id = ? AND user_id = ?",
		activityID, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check participation: %w", err)
	}
	return true, nil
}
