package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrWorkoutNotFound = errors.New("workout not found")

	// ErrServerUnreachable is returned by auth operations when the backend
	// cannot be reached. Identity is never synthesized locally, so the
	// caller gets this instead of an offline fallback. The message is
	// shown to the user as-is.
	ErrServerUnreachable = errors.New("Gagal menghubungi server. Pastikan server berjalan.")

	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

// APIError is a structured error the backend sent in its response
// envelope. It never triggers the offline fallback.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api error: status %d", e.StatusCode)
}

// WorkoutID is the canonical identifier representation. The backend
// assigns numeric ids while offline-created records get uuid strings,
// so both JSON forms decode into the same string type and compare
// without numeric coercion.
type WorkoutID string

func (id *WorkoutID) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*id = WorkoutID(asString)
		return nil
	}

	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*id = WorkoutID(asNumber.String())
		return nil
	}

	return fmt.Errorf("workout id must be a string or a number, got: %s", data)
}

func (id WorkoutID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(id))), nil
}

type Workout struct {
	ID        WorkoutID  `json:"id"`
	Exercise  string     `json:"exercise"`
	Duration  int        `json:"duration"`
	Date      string     `json:"date"`
	Notes     string     `json:"notes,omitempty"`
	Calories  int        `json:"calories"`
	UserID    *int       `json:"userId,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type CreateWorkoutRequest struct {
	Exercise string `json:"exercise"`
	Duration int    `json:"duration"`
	Date     string `json:"date"`
	Notes    string `json:"notes,omitempty"`
	Calories int    `json:"calories"`
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

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Nim      string `json:"nim,omitempty"`
	Kelompok string `json:"kelompok,omitempty"`
}

// UpdateProfileRequest carries a partial profile update.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	Nim      *string `json:"nim,omitempty"`
	Kelompok *string `json:"kelompok,omitempty"`
}
