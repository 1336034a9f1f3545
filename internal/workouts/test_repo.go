package workouts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// TestRepo is an in-memory repo used in handler and analyzer tests.
type TestRepo struct {
	mutex    sync.RWMutex
	Workouts map[int]*Workout
	nextID   int

	returnErr error
}

func NewTestRepo() *TestRepo {
	return &TestRepo{
		Workouts: make(map[int]*Workout),
		nextID:   1,
	}
}

func (r *TestRepo) SetError(err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.returnErr = err
}

func (r *TestRepo) Add(_ context.Context, workout Workout) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.returnErr != nil {
		return nil, r.returnErr
	}

	now := time.Now()
	workout.ID = r.nextID
	workout.CreatedAt = &now
	workout.UpdatedAt = &now
	r.nextID++
	r.Workouts[workout.ID] = &workout

	addedWorkout := workout
	return &addedWorkout, nil
}

func (r *TestRepo) Get(_ context.Context, id int) (*Workout, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if r.returnErr != nil {
		return nil, r.returnErr
	}

	workout, ok := r.Workouts[id]
	if !ok {
		return nil, ErrWorkoutNotFound
	}
	workoutCopy := *workout
	return &workoutCopy, nil
}

func (r *TestRepo) List(_ context.Context) ([]Workout, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if r.returnErr != nil {
		return nil, r.returnErr
	}

	workouts := make([]Workout, 0, len(r.Workouts))
	for _, w := range r.Workouts {
		workouts = append(workouts, *w)
	}
	sort.Slice(workouts, func(i, j int) bool {
		if workouts[i].Date != workouts[j].Date {
			return workouts[i].Date > workouts[j].Date
		}
		return workouts[i].ID > workouts[j].ID
	})
	return workouts, nil
}

func (r *TestRepo) Update(_ context.Context, id int, req UpdateWorkoutRequest) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.returnErr != nil {
		return nil, r.returnErr
	}

	workout, ok := r.Workouts[id]
	if !ok {
		return nil, ErrWorkoutNotFound
	}

	updated := *workout
	req.ApplyTo(&updated)
	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWorkout, err)
	}

	now := time.Now()
	updated.UpdatedAt = &now
	r.Workouts[id] = &updated

	updatedCopy := updated
	return &updatedCopy, nil
}

func (r *TestRepo) Delete(_ context.Context, id int) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.returnErr != nil {
		return nil, r.returnErr
	}

	workout, ok := r.Workouts[id]
	if !ok {
		return nil, ErrWorkoutNotFound
	}
	delete(r.Workouts, id)
	return workout, nil
}
