package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/serializer"
)

func groupInput(t *testing.T, body string) *serializer.GroupInput {
	t.Helper()
	in, err := serializer.DecodeGroup(strings.NewReader(body))
	require.NoError(t, err)
	return in
}

func TestGroupService_CRUD(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewGroupService(repo, quietLogger())
	ctx := context.Background()

	g, err := svc.Create(ctx, groupInput(t, `{"name": " editors "}`))
	require.NoError(t, err)
	assert.Equal(t, "editors", g.Name)

	got, err := svc.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g, got)

	updated, err := svc.Update(ctx, g.ID, groupInput(t, `{"name": "writers"}`), false)
	require.NoError(t, err)
	assert.Equal(t, "writers", updated.Name)

	require.NoError(t, svc.Delete(ctx, g.ID))
	_, err = svc.GetByID(ctx, g.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGroupService_NameRules(t *testing.T) {
	svc := NewGroupService(newFakeGroupRepo(), quietLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, groupInput(t, `{}`))
	assert.Equal(t, []string{serializer.MsgRequired}, fields(t, err)["name"])

	first, err := svc.Create(ctx, groupInput(t, `{"name": "ops"}`))
	require.NoError(t, err)

	_, err = svc.Create(ctx, groupInput(t, `{"name": "ops"}`))
	assert.Equal(t, []string{MsgGroupNameTaken}, fields(t, err)["name"])

	// Renaming a group to its own name is fine.
	_, err = svc.Update(ctx, first.ID, groupInput(t, `{"name": "ops"}`), false)
	assert.NoError(t, err)
}

func TestGroupService_ListAlphabetical(t *testing.T) {
	svc := NewGroupService(newFakeGroupRepo(), quietLogger())
	ctx := context.Background()
	for _, name := range []string{"c", "a", "b"} {
		_, err := svc.Create(ctx, groupInput(t, `{"name": "`+name+`"}`))
		require.NoError(t, err)
	}

	groups, total, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	var names []string
	for _, g := range groups {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}
