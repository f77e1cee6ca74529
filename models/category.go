package models

// Category is an age or ability grouping of athletes, e.g. "U10".
type Category struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
}

// CoachCategory links a coach to a category they follow.
// The pair (CoachID, CategoryID) is unique.
type CoachCategory struct {
	ID         int64 `db:"id" json:"id"`
	CoachID    int64 `db:"coach_id" json:"coach_id"`
	CategoryID int64 `db:"category_id" json:"category_id"`
}
