package models

// Activity represents a shared event (a trip, a dinner, a household month)
// whose participants record expenses against it.
type Activity struct {
	// ID is the unique identifier for the activity (UUID format).
	ID string

	// Name is the display name of the activity (e.g. "Weekend Trip").
	Name string

	// ActivityDate is the Unix timestamp of the day the activity took place.
	ActivityDate int64

	// CreatedAt is the Unix timestamp when the activity was created.
	CreatedAt int64

	// Participants are the users who belong to this activity.
	// Populated by reads that materialize the membership.
	Participants []User

	// Expenses are the expenses recorded against this activity.
	// Populated only by reads that ask for them.
	Expenses []Expense
}

// Participation is the (activity, user) membership record.
// Unique per pair; an activity cascade-deletes its participations.
type Participation struct {
	ActivityID string
	UserID     string

	// JoinedAt is the Unix timestamp when the user joined the activity.
	JoinedAt int64
}
