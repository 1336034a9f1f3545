package apiclient

import (
	"github.com/adityapw/fittrack/internal/schedules"
)

// defaultScheduleWeek is the fallback weekly plan served when the
// backend cannot be reached for the full schedule list. It carries day
// names, labels and color tags but no exercises. The single-day
// fallback below is richer; the asymmetry is inherited behavior, kept
// as-is.
func defaultScheduleWeek() []schedules.ScheduleEntry {
	return []schedules.ScheduleEntry{
		{ID: 1, Day: "Senin", DayEn: "Monday", Workout: "Upper Body", Color: "red", Exercises: []schedules.ExerciseItem{}},
		{ID: 2, Day: "Selasa", DayEn: "Tuesday", Workout: "Cardio", Color: "orange", Exercises: []schedules.ExerciseItem{}},
		{ID: 3, Day: "Rabu", DayEn: "Wednesday", Workout: "Lower Body", Color: "yellow", Exercises: []schedules.ExerciseItem{}},
		{ID: 4, Day: "Kamis", DayEn: "Thursday", Workout: "Core & Abs", Color: "green", Exercises: []schedules.ExerciseItem{}},
		{ID: 5, Day: "Jumat", DayEn: "Friday", Workout: "Full Body", Color: "blue", Exercises: []schedules.ExerciseItem{}},
		{ID: 6, Day: "Sabtu", DayEn: "Saturday", Workout: "Cardio Ringan", Color: "purple", Exercises: []schedules.ExerciseItem{}},
		{ID: 7, Day: "Minggu", DayEn: "Sunday", Workout: "Istirahat", Color: "gray", Exercises: []schedules.ExerciseItem{}},
	}
}

// defaultScheduleWeekDetailed is the fallback used for single-day
// lookups, with full exercise lists and tips.
func defaultScheduleWeekDetailed() []schedules.ScheduleEntry {
	return []schedules.ScheduleEntry{
		{
			ID: 1, Day: "Senin", DayEn: "Monday", Workout: "Upper Body", Color: "red",
			Exercises: []schedules.ExerciseItem{
				{Name: "Push Up", Sets: 3, Reps: "12"},
				{Name: "Pull Up", Sets: 3, Reps: "8-10"},
				{Name: "Shoulder Press", Sets: 3, Reps: "10"},
				{Name: "Bicep Curl", Sets: 3, Reps: "12"},
			},
			Tips: "Fokus pada form, bukan beban. Istirahat 60-90 detik antar set.",
		},
		{
			ID: 2, Day: "Selasa", DayEn: "Tuesday", Workout: "Cardio", Color: "orange",
			Exercises: []schedules.ExerciseItem{
				{Name: "Jogging", Sets: 1, Reps: "30 menit"},
				{Name: "Jumping Jack", Sets: 3, Reps: "20"},
				{Name: "Mountain Climber", Sets: 3, Reps: "15"},
			},
			Tips: "Jaga detak jantung di zona aerobik, jangan lupa minum air.",
		},
		{
			ID: 3, Day: "Rabu", DayEn: "Wednesday", Workout: "Lower Body", Color: "yellow",
			Exercises: []schedules.ExerciseItem{
				{Name: "Squat", Sets: 4, Reps: "12"},
				{Name: "Lunges", Sets: 3, Reps: "10"},
				{Name: "Calf Raise", Sets: 3, Reps: "15"},
				{Name: "Glute Bridge", Sets: 3, Reps: "12"},
			},
			Tips: "Lutut jangan melewati ujung kaki saat squat.",
		},
		{
			ID: 4, Day: "Kamis", DayEn: "Thursday", Workout: "Core & Abs", Color: "green",
			Exercises: []schedules.ExerciseItem{
				{Name: "Plank", Sets: 3, Reps: "45 detik"},
				{Name: "Sit Up", Sets: 3, Reps: "15"},
				{Name: "Russian Twist", Sets: 3, Reps: "20"},
				{Name: "Leg Raise", Sets: 3, Reps: "12"},
			},
			Tips: "Tarik napas teratur, jangan tahan napas saat plank.",
		},
		{
			ID: 5, Day: "Jumat", DayEn: "Friday", Workout: "Full Body", Color: "blue",
			Exercises: []schedules.ExerciseItem{
				{Name: "Burpee", Sets: 3, Reps: "10"},
				{Name: "Deadlift", Sets: 3, Reps: "10"},
				{Name: "Push Up", Sets: 3, Reps: "12"},
				{Name: "Squat Jump", Sets: 3, Reps: "10"},
			},
			Tips: "Hari terberat minggu ini, pastikan sudah makan 1-2 jam sebelumnya.",
		},
		{
			ID: 6, Day: "Sabtu", DayEn: "Saturday", Workout: "Cardio Ringan", Color: "purple",
			Exercises: []schedules.ExerciseItem{
				{Name: "Jalan Santai", Sets: 1, Reps: "45 menit"},
				{Name: "Stretching", Sets: 1, Reps: "15 menit"},
			},
			Tips: "Recovery aktif, jaga intensitas tetap rendah.",
		},
		{
			ID: 7, Day: "Minggu", DayEn: "Sunday", Workout: "Istirahat", Color: "gray",
			Exercises: []schedules.ExerciseItem{},
			Tips:      "Istirahat total, tidur cukup untuk pemulihan otot.",
		},
	}
}
