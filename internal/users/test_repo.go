package users

import (
	"context"
	"strings"
	"sync"
	"time"
)

// TestRepo is an in-memory repo used in handler tests.
type TestRepo struct {
	mutex  sync.RWMutex
	Users  map[int]*User
	nextID int

	returnErr error
}

func NewTestRepo() *TestRepo {
	return &TestRepo{
		Users:  make(map[int]*User),
		nextID: 1,
	}
}

func (r *TestRepo) SetError(err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.returnErr = err
}

func (r *TestRepo) Add(_ context.Context, user User) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.returnErr != nil {
		return nil, r.returnErr
	}

	user.Email = strings.ToLower(user.Email)
	for _, existing := range r.Users {
		if existing.Email == user.Email {
			return nil, ErrEmailTaken
		}
	}

	now := time.Now()
	user.ID = r.nextID
	user.CreatedAt = &now
	r.nextID++
	r.Users[user.ID] = &user

	addedUser := user
	return &addedUser, nil
}

func (r *TestRepo) Get(_ context.Context, id int) (*User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if r.returnErr != nil {
		return nil, r.returnErr
	}

	user, ok := r.Users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (r *TestRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if r.returnErr != nil {
		return nil, r.returnErr
	}

	email = strings.ToLower(email)
	for _, user := range r.Users {
		if user.Email == email {
			userCopy := *user
			return &userCopy, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *TestRepo) Update(_ context.Context, user *User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.returnErr != nil {
		return r.returnErr
	}

	if _, ok := r.Users[user.ID]; !ok {
		return ErrUserNotFound
	}

	user.Email = strings.ToLower(user.Email)
	for id, existing := range r.Users {
		if id != user.ID && existing.Email == user.Email {
			return ErrEmailTaken
		}
	}

	userCopy := *user
	r.Users[user.ID] = &userCopy
	return nil
}
