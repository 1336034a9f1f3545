package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

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

func (r *Repo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now := time.Now()
	rows, err := r.db.Query(
		ctx,
		`INSERT INTO workouts
				(exercise, duration, date, notes, calories, user_id, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			RETURNING id;`,
		workout.Exercise, workout.Duration, workout.Date,
		workout.Notes, workout.Calories, workout.UserID, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("workout.id", id))

	workout.ID = id
	workout.CreatedAt = &now
	workout.UpdatedAt = &now
	return &workout, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, exercise, duration, date, notes, calories, user_id, created_at, updated_at
			FROM workouts
			WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, err
	}

	if len(workouts) != 1 {
		return nil, ErrWorkoutNotFound
	}

	return &workouts[0], nil
}

// List returns all workouts, newest date first.
func (r *Repo) List(ctx context.Context) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, exercise, duration, date, notes, calories, user_id, created_at, updated_at
			FROM workouts
			ORDER BY date DESC, id DESC;`,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2workouts: %w", err)
	}
	return workouts, nil
}

func (r *Repo) Update(ctx context.Context, id int, req UpdateWorkoutRequest) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	workout, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(workout)
	if err := workout.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWorkout, err)
	}

	now := time.Now()
	tag, err := r.db.Exec(
		ctx,
		`UPDATE workouts
			SET exercise = $1, duration = $2, date = $3, notes = $4, calories = $5, updated_at = $6
			WHERE id = $7;`,
		workout.Exercise, workout.Duration, workout.Date,
		workout.Notes, workout.Calories, now, id,
	)
	if err != nil {
		return nil, err
	}

	if tag.RowsAffected() == 0 {
		return nil, ErrWorkoutNotFound
	}

	workout.UpdatedAt = &now
	return workout, nil
}

// Delete removes the workout and returns the removed record.
func (r *Repo) Delete(ctx context.Context, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	workout, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workouts WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrWorkoutNotFound
	}
	return workout, nil
}

func (r *Repo) rows2workouts(rows pgx.Rows) ([]Workout, error) {
	var workouts []Workout
	for rows.Next() {
		var id int
		var exercise string
		var duration int
		var date time.Time
		var notes *string
		var calories int
		var userID *int
		var createdAt, updatedAt *time.Time
		if err := rows.Scan(&id, &exercise, &duration, &date, &notes, &calories, &userID, &createdAt, &updatedAt); err != nil {
			return nil, err
		}

		w := Workout{
			ID:        id,
			Exercise:  exercise,
			Duration:  duration,
			Date:      date.Format(DateLayout),
			Calories:  calories,
			UserID:    userID,
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		}
		if notes != nil {
			w.Notes = *notes
		}

		workouts = append(workouts, w)
	}

	if workouts == nil {
		workouts = make([]Workout, 0)
	}

	return workouts, nil
}
