package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/claimlab/apiserver/internal/store"
	"github.com/claimlab/apiserver/types"
)

type fakeClaimRepo struct {
	mu     sync.Mutex
	nextID int
	claims map[int]types.Claim
}

func newFakeClaimRepo(seed ...types.Claim) *fakeClaimRepo {
	repo := &fakeClaimRepo{nextID: 1, claims: map[int]types.Claim{}}
	for _, c := range seed {
		if c.ID >= repo.nextID {
			repo.nextID = c.ID + 1
		}
		repo.claims[c.ID] = c
	}
	return repo
}

func (f *fakeClaimRepo) Get(_ context.Context, id int) (types.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claim, ok := f.claims[id]
	if !ok {
		return types.Claim{}, store.ErrNotFound
	}
	return claim, nil
}

func (f *fakeClaimRepo) ListVisible(_ context.Context, userID int) ([]types.Claim, error) {
	return f.filter(func(c types.Claim) bool {
		return c.UserID == userID || (c.Category != nil && *c.Category == types.SharedCategory)
	}), nil
}

func (f *fakeClaimRepo) ListAll(context.Context) ([]types.Claim, error) {
	return f.filter(func(types.Claim) bool { return true }), nil
}

func (f *fakeClaimRepo) filter(keep func(types.Claim) bool) []types.Claim {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Claim, 0)
	for _, c := range f.claims {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakeClaimRepo) Create(_ context.Context, claim types.Claim) (types.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claim.ID = f.nextID
	f.nextID++
	f.claims[claim.ID] = claim
	return claim, nil
}

func (f *fakeClaimRepo) UpdateOwned(_ context.Context, id, userID int, changes types.ClaimChanges) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	claim, ok := f.claims[id]
	if !ok || claim.UserID != userID {
		return store.ErrNotFound
	}
	if changes.Title == nil || changes.Amount == nil {
		return errors.New("NOT NULL constraint failed: claims.title")
	}
	claim.Title = *changes.Title
	claim.Description = changes.Description
	claim.Amount = *changes.Amount
	claim.Category = changes.Category
	f.claims[id] = claim
	return nil
}

func (f *fakeClaimRepo) SetReceiptOwned(_ context.Context, id, userID int, key, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	claim, ok := f.claims[id]
	if !ok || claim.UserID != userID {
		return store.ErrNotFound
	}
	claim.ReceiptKey = &key
	claim.ReceiptContentType = &contentType
	f.claims[id] = claim
	return nil
}

func (f *fakeClaimRepo) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.claims[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.claims, id)
	return nil
}

type fakeReceipts struct {
	objects map[string][]byte
	uploads int
}

func newFakeReceipts() *fakeReceipts {
	return &fakeReceipts{objects: map[string][]byte{}}
}

func (f *fakeReceipts) Configured() bool { return f != nil }

func (f *fakeReceipts) Upload(_ context.Context, claimID int, filename string, r io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.uploads++
	key := fmt.Sprintf("receipts/%d/%d-%s", claimID, f.uploads, filename)
	f.objects[key] = data
	return key, nil
}

func (f *fakeReceipts) Remove(_ context.Context, key string) error {
	if _, ok := f.objects[key]; !ok {
		return errors.New("object not found")
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeReceipts) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type recordingPublisher struct {
	events []types.ClaimEvent
	err    error
}

func (r *recordingPublisher) PublishClaimEvent(_ context.Context, event types.ClaimEvent) error {
	r.events = append(r.events, event)
	return r.err
}

type fakeUserRepo struct {
	users  map[string]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]types.User{}, nextID: 1}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	u, ok := f.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) List(context.Context) ([]types.UserSummary, error) {
	out := make([]types.UserSummary, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, types.UserSummary{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	if _, ok := f.users[user.Username]; ok {
		return types.User{}, store.ErrDuplicate
	}
	user.ID = f.nextID
	f.nextID++
	f.users[user.Username] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, username, role string) error {
	u, ok := f.users[username]
	if !ok {
		return store.ErrNotFound
	}
	u.Role = role
	f.users[username] = u
	return nil
}
