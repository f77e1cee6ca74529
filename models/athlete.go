package models

// Athlete belongs to at most one category. CategoryID is nil when the athlete
// is unassigned or its category was deleted.
type Athlete struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	BirthYear  *int   `db:"birth_year" json:"birth_year,omitempty"`
	CategoryID *int64 `db:"category_id" json:"category_id,omitempty"`
}

// InCategory reports whether the athlete currently belongs to categoryID.
func (a *Athlete) InCategory(categoryID int64) bool {
	return a != nil && a.CategoryID != nil && *a.CategoryID == categoryID
}

// ParentAthlete links a parent user to an athlete. The pair is unique.
type ParentAthlete struct {
	ID        int64 `db:"id" json:"id"`
	ParentID  int64 `db:"parent_id" json:"parent_id"`
	AthleteID int64 `db:"athlete_id" json:"athlete_id"`
}
