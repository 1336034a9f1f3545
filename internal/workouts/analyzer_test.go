package workouts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateStats_Empty(t *testing.T) {
	stats := CalculateStats(nil, time.Now())
	assert.Equal(t, 0, stats.TotalWorkout)
	assert.Equal(t, 0, stats.TotalDuration)
	assert.Equal(t, 0, stats.TotalCalories)
	assert.Equal(t, 0, stats.AvgDuration)
	assert.Equal(t, 0, stats.ThisWeek)
}

func TestCalculateStats(t *testing.T) {
	now, err := time.Parse(DateLayout, "2024-05-20")
	assert.NoError(t, err)

	workouts := []Workout{
		{Exercise: "Running", Duration: 30, Date: "2024-05-20", Calories: 250},
		{Exercise: "Cycling", Duration: 45, Date: "2024-05-14", Calories: 400},
		{Exercise: "Yoga", Duration: 20, Date: "2024-05-12", Calories: 80},
		{Exercise: "Swimming", Duration: 50, Date: "2024-04-01", Calories: 500},
	}

	stats := CalculateStats(workouts, now)
	assert.Equal(t, 4, stats.TotalWorkout)
	assert.Equal(t, 145, stats.TotalDuration)
	assert.Equal(t, 1230, stats.TotalCalories)
	assert.Equal(t, 36, stats.AvgDuration) // 145/4 = 36.25, rounded down

	// window is 7 days back, inclusive: 2024-05-13 and later
	assert.Equal(t, 2, stats.ThisWeek)
}

func TestCalculateStats_AvgRoundsUp(t *testing.T) {
	workouts := []Workout{
		{Exercise: "Running", Duration: 10, Date: "2024-05-20"},
		{Exercise: "Running", Duration: 11, Date: "2024-05-20"},
	}
	stats := CalculateStats(workouts, time.Now())
	assert.Equal(t, 11, stats.AvgDuration) // 10.5 rounds up
}
