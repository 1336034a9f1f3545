package apiclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScheduleWeek(t *testing.T) {
	week := defaultScheduleWeek()
	detailed := defaultScheduleWeekDetailed()
	require.Len(t, week, 7)
	require.Len(t, detailed, 7)

	for i := range week {
		assert.Equal(t, week[i].Day, detailed[i].Day)
		assert.Equal(t, week[i].DayEn, detailed[i].DayEn)
		assert.Equal(t, week[i].Workout, detailed[i].Workout)
		assert.NotEmpty(t, week[i].Color)

		// slim week has no exercise details
		assert.Empty(t, week[i].Exercises)
		assert.NotEmpty(t, detailed[i].Tips)
	}

	// every training day in the detailed week carries exercises
	for _, entry := range detailed {
		if entry.Workout == "Istirahat" {
			assert.Empty(t, entry.Exercises)
			continue
		}
		assert.NotEmpty(t, entry.Exercises, "day: %s", entry.Day)
	}
}
