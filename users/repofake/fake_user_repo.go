package fakeuserrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-google-auth/internal/errors"
	"github.com/jrsteele09/go-google-auth/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[uint]*users.User
	emailIds map[string]uint // email to user id
	nextID   uint
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[uint]*users.User),
		emailIds: make(map[string]uint),
		nextID:   1,
	}
}

func (ur *FakeUserRepo) Upsert(_ context.Context, params users.UpsertParams) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if id, ok := ur.emailIds[params.Email]; ok {
		user := ur.users[id]
		user.FullName = params.FullName
		user.Picture = params.Picture
		user.GoogleID = params.GoogleID
		if params.GoogleRefreshToken != "" {
			user.GoogleRefreshToken = params.GoogleRefreshToken
		}
		copied := *user
		return &copied, nil
	}

	user := &users.User{
		ID:                 ur.nextID,
		Email:              params.Email,
		FullName:           params.FullName,
		Picture:            params.Picture,
		GoogleID:           params.GoogleID,
		GoogleRefreshToken: params.GoogleRefreshToken,
		IsActive:           true,
		CreatedAt:          time.Now().UTC(),
	}
	ur.nextID++
	ur.users[user.ID] = user
	ur.emailIds[user.Email] = user.ID
	copied := *user
	return &copied, nil
}

func (ur *FakeUserRepo) FindByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	copied := *ur.users[id]
	return &copied, nil
}

func (ur *FakeUserRepo) FindByID(_ context.Context, id uint) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (ur *FakeUserRepo) List(_ context.Context) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	all := make([]*users.User, 0, len(ur.users))
	for _, user := range ur.users {
		copied := *user
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

// Delete removes a user. Nothing in the service deletes users; tests use
// this to simulate a subject embedded in a valid token whose row is gone.
func (ur *FakeUserRepo) Delete(email string) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return
	}
	delete(ur.emailIds, email)
	delete(ur.users, id)
}
