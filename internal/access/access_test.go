package access

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hugh/go-companies/internal/database/models"
	"github.com/hugh/go-companies/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePosts struct {
	posts map[uint]*models.Post
	calls []uint
	err   error
}

func (f *fakePosts) Get(ctx context.Context, id uint) (*models.Post, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return nil, f.err
	}
	post, ok := f.posts[id]
	if !ok {
		return nil, fmt.Errorf("getting post %d: %w", id, store.ErrNotFound)
	}
	return post, nil
}

func newFakePosts() *fakePosts {
	return &fakePosts{posts: map[uint]*models.Post{
		1: {Base: models.Base{ID: 1}, UserID: 7},
		2: {Base: models.Base{ID: 2}, UserID: 7},
		3: {Base: models.Base{ID: 3}, UserID: 9},
	}}
}

func ref(id uint) PostRef {
	return PostRef{ID: id, Valid: true}
}

func TestIsAdminTier(t *testing.T) {
	assert.True(t, IsAdminTier(models.RoleSuperAdmin))
	assert.True(t, IsAdminTier(models.RoleAdmin))
	assert.False(t, IsAdminTier(models.RoleClient))
	assert.False(t, IsAdminTier(models.Role("")))
	assert.False(t, IsAdminTier(models.Role("owner")))
}

func TestCanCreateUserWithRole(t *testing.T) {
	tests := []struct {
		caller    models.Role
		requested models.Role
		allowed   bool
	}{
		{models.RoleSuperAdmin, models.RoleSuperAdmin, true},
		{models.RoleSuperAdmin, models.RoleAdmin, true},
		{models.RoleSuperAdmin, models.RoleClient, true},
		{models.RoleSuperAdmin, models.Role("root"), false},
		{models.RoleAdmin, models.RoleClient, true},
		{models.RoleAdmin, models.RoleAdmin, false},
		{models.RoleAdmin, models.RoleSuperAdmin, false},
		{models.RoleClient, models.RoleClient, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s creates %s", tt.caller, tt.requested), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanCreateUserWithRole(tt.caller, tt.requested))
		})
	}
}

func TestCanCreatePostFor(t *testing.T) {
	client := Caller{ID: 7, Role: models.RoleClient}
	assert.True(t, CanCreatePostFor(client, 7))
	assert.False(t, CanCreatePostFor(client, 9))

	admin := Caller{ID: 1, Role: models.RoleAdmin}
	assert.True(t, CanCreatePostFor(admin, 9))
}

func TestCanAccessPost(t *testing.T) {
	ctx := context.Background()
	owner := Caller{ID: 7, Role: models.RoleClient}
	stranger := Caller{ID: 8, Role: models.RoleClient}

	t.Run("owner allowed", func(t *testing.T) {
		ok, err := CanAccessPost(ctx, newFakePosts(), owner, ref(1))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("stranger denied", func(t *testing.T) {
		ok, err := CanAccessPost(ctx, newFakePosts(), stranger, ref(1))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("admin allowed without lookup", func(t *testing.T) {
		posts := newFakePosts()
		ok, err := CanAccessPost(ctx, posts, Caller{ID: 1, Role: models.RoleAdmin}, ref(3))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, posts.calls)
	})

	t.Run("missing post deferred to handler", func(t *testing.T) {
		ok, err := CanAccessPost(ctx, newFakePosts(), stranger, ref(500))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("invalid id deferred to handler", func(t *testing.T) {
		ok, err := CanAccessPost(ctx, newFakePosts(), stranger, PostRef{})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		posts := newFakePosts()
		posts.err = errors.New("connection reset")
		_, err := CanAccessPost(ctx, posts, stranger, ref(1))
		assert.Error(t, err)
	})
}

func TestCanBulkUpdatePosts(t *testing.T) {
	ctx := context.Background()
	owner := Caller{ID: 7, Role: models.RoleClient}

	t.Run("owner of all allowed", func(t *testing.T) {
		ok, err := CanBulkUpdatePosts(ctx, newFakePosts(), owner, []PostRef{ref(1), ref(2)})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("foreign post denies and short circuits", func(t *testing.T) {
		posts := newFakePosts()
		ok, err := CanBulkUpdatePosts(ctx, posts, owner, []PostRef{ref(3), ref(1)})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, []uint{3}, posts.calls)
	})

	t.Run("invalid id before foreign post allows", func(t *testing.T) {
		ok, err := CanBulkUpdatePosts(ctx, newFakePosts(), owner, []PostRef{ref(1), {}, ref(3)})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing post before foreign post allows", func(t *testing.T) {
		ok, err := CanBulkUpdatePosts(ctx, newFakePosts(), owner, []PostRef{ref(404), ref(3)})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("admin allowed", func(t *testing.T) {
		ok, err := CanBulkUpdatePosts(ctx, newFakePosts(), Caller{Role: models.RoleSuperAdmin}, []PostRef{ref(3)})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("empty batch allowed", func(t *testing.T) {
		ok, err := CanBulkUpdatePosts(ctx, newFakePosts(), owner, nil)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
