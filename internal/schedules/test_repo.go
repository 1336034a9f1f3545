package schedules

import (
	"context"
	"strings"
	"sync"
)

// TestRepo is an in-memory repo used in handler tests.
type TestRepo struct {
	mutex   sync.RWMutex
	Entries []ScheduleEntry

	returnErr error
}

func NewTestRepo(entries ...ScheduleEntry) *TestRepo {
	return &TestRepo{
		Entries: entries,
	}
}

func (r *TestRepo) SetError(err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.returnErr = err
}

func (r *TestRepo) List(_ context.Context) ([]ScheduleEntry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if r.returnErr != nil {
		return nil, r.returnErr
	}

	entries := make([]ScheduleEntry, len(r.Entries))
	copy(entries, r.Entries)
	return entries, nil
}

func (r *TestRepo) GetByDay(_ context.Context, day string) (*ScheduleEntry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if r.returnErr != nil {
		return nil, r.returnErr
	}

	for i := range r.Entries {
		if strings.EqualFold(r.Entries[i].Day, day) || strings.EqualFold(r.Entries[i].DayEn, day) {
			entry := r.Entries[i]
			return &entry, nil
		}
	}
	return nil, ErrScheduleNotFound
}
