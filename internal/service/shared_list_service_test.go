package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/smart-todo/internal/domain"
	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
)

func TestSharedListService_CreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner@example.com").User
	other := f.signUp(t, "other@example.com").User

	list, err := f.lists.CreateSharedList(ctx, owner, CreateSharedListRequest{Name: "Groceries", Description: "Weekly shop"})
	require.NoError(t, err)
	assert.Equal(t, owner.UserID, list.OwnerID)
	assert.Equal(t, []string{owner.UserID}, list.Members)
	assert.Equal(t, domain.PermissionOwner, list.Permissions[owner.UserID])

	mine, err := f.lists.ListSharedLists(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.lists.ListSharedLists(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	_, err = f.lists.CreateSharedList(ctx, owner, CreateSharedListRequest{})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestSharedListService_AddMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signUp(t, "owner@example.com").User
	member := f.signUp(t, "member@example.com").User

	list, err := f.lists.CreateSharedList(ctx, owner, CreateSharedListRequest{Name: "Chores"})
	require.NoError(t, err)

	t.Run("owner adds editor", func(t *testing.T) {
		got, err := f.lists.AddMember(ctx, owner, list.ID, AddMemberRequest{Email: "Member@Example.com", Permission: domain.PermissionEditor})
		require.NoError(t, err)
		assert.Contains(t, got.Members, member.UserID)
		assert.Equal(t, domain.PermissionEditor, got.Permissions[member.UserID])
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		_, err := f.lists.AddMember(ctx, member, list.ID, AddMemberRequest{Email: "owner@example.com", Permission: domain.PermissionViewer})
		require.ErrorIs(t, err, domainerrors.ErrForbidden)
		assert.Equal(t, "Only list owners can add members", err.Error())
	})

	t.Run("owner permission cannot be granted", func(t *testing.T) {
		_, err := f.lists.AddMember(ctx, owner, list.ID, AddMemberRequest{Email: "member@example.com", Permission: domain.PermissionOwner})
		assert.ErrorIs(t, err, domainerrors.ErrValidation)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.lists.AddMember(ctx, owner, list.ID, AddMemberRequest{Email: "ghost@example.com", Permission: domain.PermissionViewer})
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})

	t.Run("unknown list", func(t *testing.T) {
		_, err := f.lists.AddMember(ctx, owner, "missing", AddMemberRequest{Email: "member@example.com", Permission: domain.PermissionViewer})
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})

	t.Run("access reports permission", func(t *testing.T) {
		_, p, err := f.lists.Access(ctx, member, list.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PermissionEditor, p)
		assert.True(t, p.CanEdit())
	})
}
