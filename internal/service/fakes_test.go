package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/smart-todo/internal/analysis"
	"github.com/Tomlord1122/smart-todo/internal/domain"
	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
	"github.com/Tomlord1122/smart-todo/internal/localstore"
	"github.com/Tomlord1122/smart-todo/internal/logger"
	"github.com/Tomlord1122/smart-todo/internal/search"
	"github.com/Tomlord1122/smart-todo/internal/validation"
)

type fakeTodoRepo struct {
	mu      sync.Mutex
	todos   map[string]domain.Todo
	seq     int
	failing bool
}

func newFakeTodoRepo() *fakeTodoRepo {
	return &fakeTodoRepo{todos: map[string]domain.Todo{}}
}

var errStoreDown = domainerrors.New("connection refused")

func (r *fakeTodoRepo) stamp(t *domain.Todo) {
	r.seq++
	t.CreatedAt = time.Date(2026, 1, 1, 0, 0, r.seq, 0, time.UTC)
	t.UpdatedAt = t.CreatedAt
}

func (r *fakeTodoRepo) Create(_ context.Context, todo *domain.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errStoreDown
	}
	r.stamp(todo)
	r.todos[todo.ID] = *todo
	return nil
}

func (r *fakeTodoRepo) FindByID(_ context.Context, userID, id string) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok || t.UserID != userID {
		return nil, domainerrors.NotFound("Todo not found")
	}
	return &t, nil
}

func (r *fakeTodoRepo) FindAnyByID(_ context.Context, id string) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok {
		return nil, domainerrors.NotFound("Todo not found")
	}
	return &t, nil
}

func (r *fakeTodoRepo) filter(keep func(domain.Todo) bool) []domain.Todo {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Todo
	for _, t := range r.todos {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeTodoRepo) ListByOwner(_ context.Context, userID string) ([]domain.Todo, error) {
	return r.filter(func(t domain.Todo) bool { return t.UserID == userID && t.SharedListID == nil }), nil
}

func (r *fakeTodoRepo) ListBySharedList(_ context.Context, listID string) ([]domain.Todo, error) {
	return r.filter(func(t domain.Todo) bool { return t.SharedListID != nil && *t.SharedListID == listID }), nil
}

func (r *fakeTodoRepo) ListByParent(_ context.Context, parentID string) ([]domain.Todo, error) {
	return r.filter(func(t domain.Todo) bool { return t.ParentID != nil && *t.ParentID == parentID }), nil
}

func (r *fakeTodoRepo) ScanAll(_ context.Context) ([]domain.Todo, error) {
	return r.filter(func(domain.Todo) bool { return true }), nil
}

func (r *fakeTodoRepo) Update(_ context.Context, userID, id string, f domain.TodoFields) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok || t.UserID != userID {
		return nil, domainerrors.NotFound("Todo not found")
	}
	if f.Text != nil {
		t.Text = *f.Text
	}
	if f.Completed != nil {
		t.Completed = *f.Completed
	}
	if f.Annotation != nil {
		t.Annotate(*f.Annotation)
	}
	if f.SubtaskIDs != nil {
		t.SubtaskIDs = *f.SubtaskIDs
	}
	t.UpdatedAt = t.UpdatedAt.Add(time.Minute)
	r.todos[id] = t
	return &t, nil
}

func (r *fakeTodoRepo) Delete(_ context.Context, userID, id string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok || t.UserID != userID {
		return nil, domainerrors.NotFound("Todo not found")
	}
	removed := []string{id}
	for cid, c := range r.todos {
		if c.ParentID != nil && *c.ParentID == id {
			removed = append(removed, cid)
			delete(r.todos, cid)
		}
	}
	delete(r.todos, id)
	if t.IsSubtask() {
		if p, ok := r.todos[*t.ParentID]; ok {
			p.SubtaskIDs = p.SubtaskIDs.Without(id)
			r.todos[p.ID] = p
		}
	}
	return removed, nil
}

func (r *fakeTodoRepo) CreateSubtask(_ context.Context, child *domain.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.todos[*child.ParentID]
	if !ok || p.UserID != child.UserID {
		return domainerrors.NotFound("Parent todo not found")
	}
	r.stamp(child)
	r.todos[child.ID] = *child
	p.SubtaskIDs = append(p.SubtaskIDs, child.ID)
	r.todos[p.ID] = p
	return nil
}

func (r *fakeTodoRepo) DeleteSubtask(_ context.Context, userID, parentID, childID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.todos[parentID]
	if !ok || p.UserID != userID {
		return domainerrors.NotFound("Parent todo not found")
	}
	c, ok := r.todos[childID]
	if !ok || c.ParentID == nil || *c.ParentID != parentID {
		return domainerrors.NotFound("Subtask not found")
	}
	delete(r.todos, childID)
	p.SubtaskIDs = p.SubtaskIDs.Without(childID)
	r.todos[parentID] = p
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.Email = domain.NormalizeEmail(u.Email)
	if _, ok := r.users[u.Email]; ok {
		return domainerrors.AlreadyExists("User already exists with this email")
	}
	u.CreatedAt = time.Now()
	r.users[u.Email] = *u
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domainerrors.NotFound("User not found")
	}
	return &u, nil
}

func (r *fakeUserRepo) FindByUserID(_ context.Context, userID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.UserID == userID {
			return &u, nil
		}
	}
	return nil, domainerrors.NotFound("User not found")
}

func (r *fakeUserRepo) ScanAll(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, email string, f domain.UserFields) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domainerrors.NotFound("User not found")
	}
	if f.Name != nil {
		u.Name = *f.Name
	}
	if f.PasswordHash != nil {
		u.PasswordHash = *f.PasswordHash
	}
	if f.IsActive != nil {
		u.IsActive = *f.IsActive
	}
	if f.IsAdmin != nil {
		u.IsAdmin = *f.IsAdmin
	}
	r.users[u.Email] = u
	return &u, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = domain.NormalizeEmail(email)
	if _, ok := r.users[email]; !ok {
		return domainerrors.NotFound("User not found")
	}
	delete(r.users, email)
	return nil
}

type fakeListRepo struct {
	mu    sync.Mutex
	lists map[string]domain.SharedList
}

func newFakeListRepo() *fakeListRepo {
	return &fakeListRepo{lists: map[string]domain.SharedList{}}
}

func (r *fakeListRepo) Create(_ context.Context, l *domain.SharedList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists[l.ID] = *l
	return nil
}

func (r *fakeListRepo) FindByID(_ context.Context, id string) (*domain.SharedList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lists[id]
	if !ok {
		return nil, domainerrors.NotFound("Shared list not found")
	}
	return &l, nil
}

func (r *fakeListRepo) ScanAll(_ context.Context) ([]domain.SharedList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.SharedList, 0, len(r.lists))
	for _, l := range r.lists {
		out = append(out, l)
	}
	return out, nil
}

func (r *fakeListRepo) UpdateMembers(_ context.Context, id string, members domain.StringList, perms domain.PermissionMap) (*domain.SharedList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lists[id]
	if !ok {
		return nil, domainerrors.NotFound("Shared list not found")
	}
	l.Members = append(domain.StringList{}, members...)
	l.Permissions = domain.PermissionMap{}
	for k, v := range perms {
		l.Permissions[k] = v
	}
	r.lists[id] = l
	return &l, nil
}

// fixture wires every service over fakes, an in-memory badger store and an
// in-memory bleve index.
type fixture struct {
	todoRepo *fakeTodoRepo
	userRepo *fakeUserRepo
	listRepo *fakeListRepo
	store    *localstore.Store
	index    *search.Index

	todos    TodoService
	lists    SharedListService
	identity IdentityService
	analysis AnalysisService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Discard()

	store, err := localstore.Open("", log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	index, err := search.New(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	tokens := newTokens(t)
	v := validation.New()
	analyzer := analysis.New(nil, log)

	f := &fixture{
		todoRepo: newFakeTodoRepo(),
		userRepo: newFakeUserRepo(),
		listRepo: newFakeListRepo(),
		store:    store,
		index:    index,
	}
	f.lists = NewSharedListService(f.listRepo, f.userRepo, v, log)
	f.todos = NewTodoService(f.todoRepo, f.lists, analyzer, index, v, log)
	f.identity = NewIdentityService(f.userRepo, tokens, store, store, func(email string) bool {
		return email == "admin@example.com"
	}, v, log)
	f.analysis = NewAnalysisService(analyzer, v)
	return f
}

// signUp registers a user and returns its cached session.
func (f *fixture) signUp(t *testing.T, email string) *domain.Session {
	t.Helper()
	resp, err := f.identity.SignUp(context.Background(), SignUpRequest{Email: email, Password: "secret123", Name: "Test"})
	require.NoError(t, err)
	session, err := f.identity.Authenticate(context.Background(), resp.Token)
	require.NoError(t, err)
	return session
}
