package schedules

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var ErrScheduleNotFound = errors.New("schedule not found")

// Reps describes a repetition prescription. Seed data mixes plain
// numbers ("12") and ranges ("10-12"), so both JSON forms are accepted.
type Reps string

func (r *Reps) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*r = Reps(asString)
		return nil
	}

	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*r = Reps(asNumber.String())
		return nil
	}

	return fmt.Errorf("reps must be a string or a number, got: %s", data)
}

func (r Reps) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(r))), nil
}

type ExerciseItem struct {
	Name string `json:"name"`
	Sets int    `json:"sets"`
	Reps Reps   `json:"reps"`
}

// ScheduleEntry is one day of the weekly workout plan. Day holds the
// localized day name, DayEn the english one.
type ScheduleEntry struct {
	ID        int            `json:"id"`
	Day       string         `json:"day"`
	DayEn     string         `json:"dayEn"`
	Workout   string         `json:"workout"`
	Color     string         `json:"color,omitempty"`
	Exercises []ExerciseItem `json:"exercises"`
	Tips      string         `json:"tips,omitempty"`
}
