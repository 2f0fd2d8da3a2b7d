package repository

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Tomlord1122/smart-todo/internal/database"
	"github.com/Tomlord1122/smart-todo/internal/database/dbtest"
	"github.com/Tomlord1122/smart-todo/internal/domain"
	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
	"github.com/Tomlord1122/smart-todo/internal/logger"
)

var (
	testDB     *gorm.DB
	skipReason string
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	c, err := dbtest.Start(ctx)
	if err != nil {
		skipReason = err.Error()
		os.Exit(m.Run())
	}

	srv, err := database.Open(c.DSN, database.Options{MaxOpenConns: 10}, logger.Discard())
	if err == nil {
		err = srv.Migrate()
	}
	if err != nil {
		skipReason = err.Error()
	} else {
		testDB = srv.GetDB()
	}

	code := m.Run()
	if srv != nil {
		_ = srv.Close()
	}
	if err := c.Terminate(); err != nil {
		log.Printf("could not teardown postgres container: %v", err)
	}
	os.Exit(code)
}

func requireDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres unavailable: " + skipReason)
	}
	return testDB
}

func newTodo(userID, text string) *domain.Todo {
	t := &domain.Todo{ID: uuid.NewString(), UserID: userID, Text: text}
	t.Annotate(domain.Annotation{
		Category:     domain.CategoryWork,
		Priority:     domain.PriorityFor(domain.PriorityHigh),
		Sentiment:    domain.Sentiment{Mood: domain.MoodNeutral, Emoji: "😐", Color: "#9E9E9E"},
		TimeEstimate: domain.TimeEstimate{Minutes: 90, Display: "1h 30m", Confidence: domain.ConfidenceHigh},
	})
	return t
}

func TestTodoRepository_CRUD(t *testing.T) {
	repo := NewGormTodoRepository(requireDB(t))
	ctx := context.Background()
	user := uuid.NewString()

	todo := newTodo(user, "write report")
	require.NoError(t, repo.Create(ctx, todo))

	got, err := repo.FindByID(ctx, user, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "write report", got.Text)
	assert.Equal(t, domain.PriorityFor(domain.PriorityHigh), got.Priority)
	assert.Equal(t, 90, got.TimeEstimate.Minutes)
	assert.Empty(t, got.SubtaskIDs)

	_, err = repo.FindByID(ctx, uuid.NewString(), todo.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	list, err := repo.ListByOwner(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 1)

	removed, err := repo.Delete(ctx, user, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{todo.ID}, removed)

	_, err = repo.FindAnyByID(ctx, todo.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = repo.Delete(ctx, user, todo.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestTodoRepository_PartialUpdateKeepsOtherFields(t *testing.T) {
	repo := NewGormTodoRepository(requireDB(t))
	ctx := context.Background()
	user := uuid.NewString()

	todo := newTodo(user, "write report")
	require.NoError(t, repo.Create(ctx, todo))

	done := true
	updated, err := repo.Update(ctx, user, todo.ID, domain.TodoFields{Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "write report", updated.Text)
	assert.Equal(t, domain.CategoryWork, updated.Category)
	assert.Equal(t, domain.PriorityHigh, updated.Priority.Level)
	assert.False(t, updated.UpdatedAt.Before(todo.UpdatedAt))

	text := "write the quarterly report"
	ann := domain.Annotation{Category: domain.CategoryFinance, Priority: domain.PriorityFor(domain.PriorityLow)}
	updated, err = repo.Update(ctx, user, todo.ID, domain.TodoFields{Text: &text, Annotation: &ann})
	require.NoError(t, err)
	assert.Equal(t, text, updated.Text)
	assert.True(t, updated.Completed)
	assert.Equal(t, domain.CategoryFinance, updated.Category)
	assert.Equal(t, domain.PriorityLow, updated.Priority.Level)

	_, err = repo.Update(ctx, uuid.NewString(), todo.ID, domain.TodoFields{Completed: &done})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestTodoRepository_Subtasks(t *testing.T) {
	repo := NewGormTodoRepository(requireDB(t))
	ctx := context.Background()
	user := uuid.NewString()

	parent := newTodo(user, "plan trip")
	require.NoError(t, repo.Create(ctx, parent))

	var children []*domain.Todo
	for _, text := range []string{"book flights", "reserve hotel", "pack"} {
		child := newTodo(user, text)
		child.ParentID = &parent.ID
		require.NoError(t, repo.CreateSubtask(ctx, child))
		children = append(children, child)
	}

	got, err := repo.FindByID(ctx, user, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StringList{children[0].ID, children[1].ID, children[2].ID}, got.SubtaskIDs)

	subs, err := repo.ListByParent(ctx, parent.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 3)

	require.NoError(t, repo.DeleteSubtask(ctx, user, parent.ID, children[1].ID))
	got, err = repo.FindByID(ctx, user, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StringList{children[0].ID, children[2].ID}, got.SubtaskIDs)

	err = repo.DeleteSubtask(ctx, user, parent.ID, children[1].ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	// deleting a subtask directly unlinks it from the parent
	_, err = repo.Delete(ctx, user, children[2].ID)
	require.NoError(t, err)
	got, err = repo.FindByID(ctx, user, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StringList{children[0].ID}, got.SubtaskIDs)

	removed, err := repo.Delete(ctx, user, parent.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{parent.ID, children[0].ID}, removed)
	_, err = repo.FindAnyByID(ctx, children[0].ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestTodoRepository_SubtaskNeedsParent(t *testing.T) {
	repo := NewGormTodoRepository(requireDB(t))
	ctx := context.Background()

	orphan := newTodo(uuid.NewString(), "orphan")
	missing := uuid.NewString()
	orphan.ParentID = &missing
	assert.ErrorIs(t, repo.CreateSubtask(ctx, orphan), domainerrors.ErrNotFound)

	_, err := repo.FindAnyByID(ctx, orphan.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	assert.ErrorIs(t, repo.CreateSubtask(ctx, newTodo("u", "no parent")), domainerrors.ErrValidation)
}

func TestTodoRepository_SharedList(t *testing.T) {
	repo := NewGormTodoRepository(requireDB(t))
	ctx := context.Background()
	listID := uuid.NewString()
	owner, editor := uuid.NewString(), uuid.NewString()

	a := newTodo(owner, "buy snacks")
	a.SharedListID = &listID
	b := newTodo(editor, "bring games")
	b.SharedListID = &listID
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	shared, err := repo.ListBySharedList(ctx, listID)
	require.NoError(t, err)
	assert.Len(t, shared, 2)

	personal, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, personal)

	all, err := repo.ScanAll(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), 2)
}

func TestUserRepository(t *testing.T) {
	repo := NewGormUserRepository(requireDB(t))
	ctx := context.Background()
	email := uuid.NewString() + "@Example.com"

	user := &domain.User{Email: "  " + email, UserID: uuid.NewString(), Name: "Ada", PasswordHash: "hash", IsActive: true}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, domain.NormalizeEmail(email), user.Email)

	dup := &domain.User{Email: email, UserID: uuid.NewString(), PasswordHash: "hash"}
	assert.ErrorIs(t, repo.Create(ctx, dup), domainerrors.ErrAlreadyExists)

	got, err := repo.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, got.UserID)

	got, err = repo.FindByUserID(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)

	inactive := false
	updated, err := repo.Update(ctx, email, domain.UserFields{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Ada", updated.Name)
	assert.Equal(t, "hash", updated.PasswordHash)

	users, err := repo.ScanAll(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, users)

	require.NoError(t, repo.Delete(ctx, email))
	assert.ErrorIs(t, repo.Delete(ctx, email), domainerrors.ErrNotFound)
	_, err = repo.FindByEmail(ctx, email)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSharedListRepository(t *testing.T) {
	repo := NewGormSharedListRepository(requireDB(t))
	ctx := context.Background()
	owner, member := uuid.NewString(), uuid.NewString()

	list := &domain.SharedList{ID: uuid.NewString(), Name: "Party", OwnerID: owner}
	list.AddMember(owner, domain.PermissionOwner)
	require.NoError(t, repo.Create(ctx, list))

	list.AddMember(member, domain.PermissionViewer)
	updated, err := repo.UpdateMembers(ctx, list.ID, list.Members, list.Permissions)
	require.NoError(t, err)
	assert.Equal(t, domain.StringList{owner, member}, updated.Members)
	assert.Equal(t, "Party", updated.Name)

	got, err := repo.FindByID(ctx, list.ID)
	require.NoError(t, err)
	p, ok := got.PermissionOf(member)
	require.True(t, ok)
	assert.Equal(t, domain.PermissionViewer, p)

	_, err = repo.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = repo.UpdateMembers(ctx, uuid.NewString(), nil, nil)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	lists, err := repo.ScanAll(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, lists)
}
