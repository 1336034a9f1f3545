package schedules

import (
	"context"
	"fmt"

	"github.com/adityapw/fittrack/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// List returns the full weekly plan, exercises included.
func (r *Repo) List(ctx context.Context) (_ []ScheduleEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedules.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT
			s.id, s.day, s.day_en, s.workout, s.color, s.tips,
			se.name, se.sets, se.reps
		FROM schedules s
		LEFT JOIN schedule_exercises se ON se.schedule_id = s.id
		ORDER BY s.id, se.position;`,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return r.rows2schedules(rows)
}

// GetByDay looks a schedule up by its localized or english day name,
// case-insensitively.
func (r *Repo) GetByDay(ctx context.Context, day string) (_ *ScheduleEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedules.getByDay")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("day", day))

	rows, err := r.db.Query(
		ctx,
		`SELECT
			s.id, s.day, s.day_en, s.workout, s.color, s.tips,
			se.name, se.sets, se.reps
		FROM schedules s
		LEFT JOIN schedule_exercises se ON se.schedule_id = s.id
		WHERE s.day ILIKE $1 OR s.day_en ILIKE $1
		ORDER BY se.position;`,
		day,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	entries, err := r.rows2schedules(rows)
	if err != nil {
		return nil, err
	}

	if len(entries) != 1 {
		return nil, ErrScheduleNotFound
	}

	return &entries[0], nil
}

func (r *Repo) rows2schedules(rows pgx.Rows) ([]ScheduleEntry, error) {
	var entries []ScheduleEntry
	byID := make(map[int]int) // schedule id -> index in entries
	for rows.Next() {
		var id int
		var day, dayEn, workout string
		var color, tips *string
		var exName *string
		var exSets *int
		var exReps *string
		if err := rows.Scan(&id, &day, &dayEn, &workout, &color, &tips, &exName, &exSets, &exReps); err != nil {
			return nil, err
		}

		idx, seen := byID[id]
		if !seen {
			entry := ScheduleEntry{
				ID:        id,
				Day:       day,
				DayEn:     dayEn,
				Workout:   workout,
				Exercises: make([]ExerciseItem, 0),
			}
			if color != nil {
				entry.Color = *color
			}
			if tips != nil {
				entry.Tips = *tips
			}
			entries = append(entries, entry)
			idx = len(entries) - 1
			byID[id] = idx
		}

		// LEFT JOIN: a schedule without exercises yields null exercise columns
		if exName != nil {
			item := ExerciseItem{Name: *exName}
			if exSets != nil {
				item.Sets = *exSets
			}
			if exReps != nil {
				item.Reps = Reps(*exReps)
			}
			entries[idx].Exercises = append(entries[idx].Exercises, item)
		}
	}

	if entries == nil {
		entries = make([]ScheduleEntry, 0)
	}

	return entries, nil
}
