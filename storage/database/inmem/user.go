package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/eduspace/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (r *userRepository) query() []user.User {
	res := make([]user.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		res = append(res, *u)
	}
	return res
}

func (r *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, usr := range r.query() {
		if usr.Email != email {
			continue
		}
		var excluded bool
		for _, excl := range excludedUsers {
			if excl.ID == usr.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (r *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	// unique (email), as enforced by the SQL schema
	for _, u := range r.db.users {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}

	r.db.userPK++
	usr.ID = r.db.userPK
	r.db.users[usr.ID] = &usr
	return usr, nil
}

func (r *userRepository) QueryAllUsers(_ context.Context) ([]user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.query(), nil
}

func (r *userRepository) GetUserByID(_ context.Context, id int) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if usr, ok := r.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (r *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, usr := range r.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *userRepository) SetLastLogin(_ context.Context, usr user.User) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	u.LastLogin = time.Now().UTC()
	return *u, nil
}

func (r *userRepository) DeleteUsersByID(_ context.Context, ids ...int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, id := range ids {
		delete(r.db.users, id)
	}
	return nil
}
