package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adityapw/fittrack/internal/users"
)

// Store is the local persistent cache backing the client's offline
// mode: auth token, cached profile, the workout mirror and per-day
// completed-exercise indices, all in one JSON document on disk.
// Writes go through a mutex and land atomically via tmp+rename, so a
// crash mid-write never leaves a corrupt file. Racing writers from two
// client processes can still lose updates, that is accepted.
type Store struct {
	mu    sync.Mutex
	path  string
	state storeState
}

type storeState struct {
	Token     string           `json:"token,omitempty"`
	Profile   *users.User      `json:"profile,omitempty"`
	Workouts  []Workout        `json:"workouts"`
	Completed map[string][]int `json:"completed,omitempty"`
}

// OpenStore loads the state file, a missing file yields an empty store.
func OpenStore(path string) (*Store, error) {
	s := &Store{
		path: path,
		state: storeState{
			Workouts:  make([]Workout, 0),
			Completed: make(map[string][]int),
		},
	}

	stateBytes, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}

	if err := json.Unmarshal(stateBytes, &s.state); err != nil {
		return nil, fmt.Errorf("unmarshal store file %s: %w", path, err)
	}
	if s.state.Workouts == nil {
		s.state.Workouts = make([]Workout, 0)
	}
	if s.state.Completed == nil {
		s.state.Completed = make(map[string][]int)
	}

	return s, nil
}

func (s *Store) persist() error {
	stateBytes, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store state: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := os.WriteFile(tmpPath, stateBytes, 0o600); err != nil {
		return fmt.Errorf("write store tmp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename store tmp file: %w", err)
	}
	return nil
}

func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = token
	return s.persist()
}

func (s *Store) Profile() *users.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Profile == nil {
		return nil
	}
	profile := *s.state.Profile
	return &profile
}

func (s *Store) SetProfile(profile *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if profile == nil {
		s.state.Profile = nil
	} else {
		profileCopy := *profile
		s.state.Profile = &profileCopy
	}
	return s.persist()
}

// ClearSession drops the token and the cached profile. The workout
// mirror is left untouched on purpose.
func (s *Store) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = ""
	s.state.Profile = nil
	return s.persist()
}

func (s *Store) Workouts() []Workout {
	s.mu.Lock()
	defer s.mu.Unlock()
	workouts := make([]Workout, len(s.state.Workouts))
	copy(workouts, s.state.Workouts)
	return workouts
}

func (s *Store) Workout(id WorkoutID) (*Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Workouts {
		if s.state.Workouts[i].ID == id {
			workout := s.state.Workouts[i]
			return &workout, nil
		}
	}
	return nil, ErrWorkoutNotFound
}

// AppendWorkout adds a new record. Identifiers must be unique within
// the cache at insertion time.
func (s *Store) AppendWorkout(workout Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Workouts {
		if s.state.Workouts[i].ID == workout.ID {
			return fmt.Errorf("workout id %s already present in cache", workout.ID)
		}
	}
	s.state.Workouts = append(s.state.Workouts, workout)
	return s.persist()
}

// UpsertWorkout mirrors a server-confirmed record: replaces the cached
// one with the same id, or appends it when absent.
func (s *Store) UpsertWorkout(workout Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Workouts {
		if s.state.Workouts[i].ID == workout.ID {
			s.state.Workouts[i] = workout
			return s.persist()
		}
	}
	s.state.Workouts = append(s.state.Workouts, workout)
	return s.persist()
}

// MergeWorkout applies a partial update to the cached record in place
// and returns the merged result.
func (s *Store) MergeWorkout(id WorkoutID, req UpdateWorkoutRequest) (*Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Workouts {
		if s.state.Workouts[i].ID == id {
			req.ApplyTo(&s.state.Workouts[i])
			merged := s.state.Workouts[i]
			if err := s.persist(); err != nil {
				return nil, err
			}
			return &merged, nil
		}
	}
	return nil, ErrWorkoutNotFound
}

// RemoveWorkout deletes the cached record and returns it.
func (s *Store) RemoveWorkout(id WorkoutID) (*Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Workouts {
		if s.state.Workouts[i].ID == id {
			removed := s.state.Workouts[i]
			s.state.Workouts = append(s.state.Workouts[:i], s.state.Workouts[i+1:]...)
			if err := s.persist(); err != nil {
				return nil, err
			}
			return &removed, nil
		}
	}
	return nil, ErrWorkoutNotFound
}

// ReplaceWorkouts overwrites the whole mirror with the server's list.
func (s *Store) ReplaceWorkouts(workouts []Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Workouts = make([]Workout, len(workouts))
	copy(s.state.Workouts, workouts)
	return s.persist()
}

// CompletedExercises returns the checked-off exercise indices for a
// schedule day.
func (s *Store) CompletedExercises(day string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	indices := make([]int, len(s.state.Completed[day]))
	copy(indices, s.state.Completed[day])
	return indices
}

func (s *Store) SetCompletedExercises(day string, indices []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	indicesCopy := make([]int, len(indices))
	copy(indicesCopy, indices)
	s.state.Completed[day] = indicesCopy
	return s.persist()
}
