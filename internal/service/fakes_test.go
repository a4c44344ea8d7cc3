package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/model"
	"github.com/sakif/snippets/internal/repository"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// WHAT IS A FAKE?
// An in-memory implementation of a repository interface. The services can't
// tell it apart from sqlite.DB, which is the point: these tests exercise the
// business rules only, with no database setup and no disk I/O.
//
// Each fake stores copies, never the caller's pointers, so a test can't
// accidentally change "stored" data by mutating a returned record.
// failErr, when set, is returned from every write to simulate a broken DB.

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func idString(id int64) string { return strconv.FormatInt(id, 10) }

func page[T any](items []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(items) {
		return []T{}
	}
	items = items[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}

// --- snippets ---

type fakeSnippetRepo struct {
	mu       sync.Mutex
	snippets map[int64]model.Snippet
	nextID   int64
	failErr  error
}

func newFakeSnippetRepo() *fakeSnippetRepo {
	return &fakeSnippetRepo{snippets: make(map[int64]model.Snippet)}
}

func (f *fakeSnippetRepo) Create(_ context.Context, s *model.Snippet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.nextID++
	s.ID = f.nextID
	s.Created = time.Now().UTC()
	f.snippets[s.ID] = *s
	return nil
}

func (f *fakeSnippetRepo) GetByID(_ context.Context, id int64) (*model.Snippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", idString(id))
	}
	return &s, nil
}

func (f *fakeSnippetRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Snippet, 0, len(f.snippets))
	for _, s := range f.snippets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, opts), nil
}

func (f *fakeSnippetRepo) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snippets), nil
}

func (f *fakeSnippetRepo) Update(_ context.Context, s *model.Snippet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	if _, ok := f.snippets[s.ID]; !ok {
		return apperror.NotFound("snippet", idString(s.ID))
	}
	f.snippets[s.ID] = *s
	return nil
}

func (f *fakeSnippetRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.snippets[id]; !ok {
		return apperror.NotFound("snippet", idString(id))
	}
	delete(f.snippets, id)
	return nil
}

// --- users ---

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[int64]model.User
	nextID  int64
	failErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]model.User)}
}

func copyUser(u model.User) *model.User {
	u.GroupIDs = append([]int64(nil), u.GroupIDs...)
	return &u
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return apperror.Conflict("user", u.Username)
		}
	}
	f.nextID++
	u.ID = f.nextID
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
	f.users[u.ID] = *copyUser(*u)
	return nil
}

func (f *fakeUserRepo) find(match func(model.User) bool, label string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, apperror.NotFound("user", label)
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	return f.find(func(u model.User) bool { return u.ID == id }, idString(id))
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return f.find(func(u model.User) bool { return u.Username == username }, username)
}

func (f *fakeUserRepo) GetUserByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	return f.find(func(u model.User) bool { return u.GitHubID != 0 && u.GitHubID == githubID }, idString(githubID))
}

func (f *fakeUserRepo) UsernameTaken(_ context.Context, username string, exceptID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username && u.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) ListUsers(_ context.Context, opts repository.ListOptions) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateJoined.Equal(out[j].DateJoined) {
			return out[i].DateJoined.After(out[j].DateJoined)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, opts), nil
}

func (f *fakeUserRepo) CountUsers(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users), nil
}

func (f *fakeUserRepo) UpdateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	if _, ok := f.users[u.ID]; !ok {
		return apperror.NotFound("user", idString(u.ID))
	}
	f.users[u.ID] = *copyUser(*u)
	return nil
}

func (f *fakeUserRepo) DeleteUser(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", idString(id))
	}
	delete(f.users, id)
	return nil
}

// --- groups ---

type fakeGroupRepo struct {
	mu      sync.Mutex
	groups  map[int64]model.Group
	nextID  int64
	failErr error
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: make(map[int64]model.Group)}
}

func (f *fakeGroupRepo) CreateGroup(_ context.Context, g *model.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.nextID++
	g.ID = f.nextID
	f.groups[g.ID] = *g
	return nil
}

func (f *fakeGroupRepo) GetGroupByID(_ context.Context, id int64) (*model.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return nil, apperror.NotFound("group", idString(id))
	}
	return &g, nil
}

func (f *fakeGroupRepo) MissingGroups(_ context.Context, ids []int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var missing []int64
	for _, id := range ids {
		if _, ok := f.groups[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (f *fakeGroupRepo) GroupNameTaken(_ context.Context, name string, exceptID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groups {
		if g.Name == name && g.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGroupRepo) ListGroups(_ context.Context, opts repository.ListOptions) ([]model.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Group, 0, len(f.groups))
	for _, g := range f.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, opts), nil
}

func (f *fakeGroupRepo) CountGroups(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.groups), nil
}

func (f *fakeGroupRepo) UpdateGroup(_ context.Context, g *model.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	if _, ok := f.groups[g.ID]; !ok {
		return apperror.NotFound("group", idString(g.ID))
	}
	f.groups[g.ID] = *g
	return nil
}

func (f *fakeGroupRepo) DeleteGroup(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[id]; !ok {
		return apperror.NotFound("group", idString(id))
	}
	delete(f.groups, id)
	return nil
}
