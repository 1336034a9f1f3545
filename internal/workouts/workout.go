package workouts

import (
	"errors"
	"time"
)

// DateLayout is the wire and storage format for workout dates.
const DateLayout = "2006-01-02"

var (
	ErrWorkoutNotFound = errors.New("workout not found")
	ErrInvalidWorkout  = errors.New("invalid workout")
)

type Workout struct {
	ID        int        `json:"id"`
	Exercise  string     `json:"exercise"`
	Duration  int        `json:"duration"`
	Date      string     `json:"date"`
	Notes     string     `json:"notes,omitempty"`
	Calories  int        `json:"calories"`
	UserID    *int       `json:"userId,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Validate checks the fields required for a new workout.
func (w Workout) Validate() error {
	if w.Exercise == "" {
		return errors.New("exercise is required")
	}
	if w.Duration <= 0 {
		return errors.New("duration must be a positive number of minutes")
	}
	if w.Date == "" {
		return errors.New("date is required")
	}
	if _, err := time.Parse(DateLayout, w.Date); err != nil {
		return errors.New("date must be in YYYY-MM-DD format")
	}
	if w.Calories < 0 {
		return errors.New("calories cannot be negative")
	}
	return nil
}

// UpdateWorkoutRequest carries a partial update, nil fields are left untouched.
type UpdateWorkoutRequest struct {
	Exercise *string `json:"exercise,omitempty"`
	Duration *int    `json:"duration,omitempty"`
	Date     *string `json:"date,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	Calories *int    `json:"calories,omitempty"`
}

// ApplyTo merges the non-nil request fields into the workout.
func (req UpdateWorkoutRequest) ApplyTo(w *Workout) {
	if req.Exercise != nil {
		w.Exercise = *req.Exercise
	}
	if req.Duration != nil {
		w.Duration = *req.Duration
	}
	if req.Date != nil {
		w.Date = *req.Date
	}
	if req.Notes != nil {
		w.Notes = *req.Notes
	}
	if req.Calories != nil {
		w.Calories = *req.Calories
	}
}

type Stats struct {
	TotalWorkout  int `json:"totalWorkout"`
	TotalDuration int `json:"totalDuration"`
	TotalCalories int `json:"totalCalories"`
	AvgDuration   int `json:"avgDuration"`
	ThisWeek      int `json:"thisWeek"`
}
