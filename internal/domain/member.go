package domain

import "time"

// RawMember is a member profile as returned by the backend
type RawMember map[string]any

// MemberProfile holds the profile fields needed to derive a daily calorie goal
type MemberProfile struct {
	ID             string    `json:"id"`
	Nickname       string    `json:"nickname"`
	BirthAt        time.Time `json:"birthAt,omitempty"`
	Gender         string    `json:"gender"`
	Height         float64   `json:"height"` // cm
	Weight         float64   `json:"weight"` // kg
	ActivityLevel  string    `json:"activityLevel"`
	TargetCalories float64   `json:"targetCalories"`
}

// Viewer is the explicit per-request state every view is computed for.
// Dates are grouped and rendered in Location.
type Viewer struct {
	MemberID string
	Location *time.Location
}

// Loc returns the viewer's location, falling back to UTC
func (v Viewer) Loc() *time.Location {
	if v.Location == nil {
		return time.UTC
	}
	return v.Location
}
