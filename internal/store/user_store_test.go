package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arbordev/arbor/internal/database"
)

func newTestStore(t *testing.T) *UserStore {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return NewUserStore(db)
}

func strPtr(s string) *string { return &s }

func TestCreateAndGet(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	created, err := s.Create("alice", "hash-a", nil)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "alice", created.Username)
	require.Nil(t, created.ParentUserID)
	require.Empty(t, created.PasswordHash, "Create must not return the hash")

	byID, err := s.GetByID(created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, byID.ID)
	require.Empty(t, byID.PasswordHash)

	byName, err := s.GetByUsername("alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, byName.ID)
	require.Equal(t, "hash-a", byName.PasswordHash, "sign-in lookup needs the hash")
}

func TestCreateAndUpdate_ReturnPersistedRow(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	created, err := s.Create("ivan", "hash", nil)
	require.NoError(t, err)
	require.False(t, created.CreatedAt.IsZero(), "return value must carry the stored row, not the inputs")

	fetched, err := s.GetByID(created.ID)
	require.NoError(t, err)
	require.Equal(t, fetched, created)

	updated, err := s.Update(created.ID, UserPatch{Username: strPtr("ivan2")})
	require.NoError(t, err)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.Equal(t, "ivan2", updated.Username)
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.GetByID("no-such-id")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetByUsername("nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreate_DuplicateUsername(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.Create("bob", "hash-1", nil)
	require.NoError(t, err)

	_, err = s.Create("bob", "hash-2", nil)
	require.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestCreate_WithParent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	parent, err := s.Create("root", "hash", nil)
	require.NoError(t, err)

	child, err := s.Create("child", "hash", &parent.ID)
	require.NoError(t, err)
	require.NotNil(t, child.ParentUserID)
	require.Equal(t, parent.ID, *child.ParentUserID)
}

func TestCreate_InvalidParentLeavesNoRecord(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.Create("orphan", "hash", strPtr("missing-parent"))
	require.ErrorIs(t, err, ErrInvalidParent)

	_, err = s.GetByUsername("orphan")
	require.ErrorIs(t, err, ErrNotFound, "failed create must not persist a partial record")
}

func TestUpdate_Fields(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	parent, err := s.Create("parent", "hash", nil)
	require.NoError(t, err)
	user, err := s.Create("carol", "old-hash", nil)
	require.NoError(t, err)

	updated, err := s.Update(user.ID, UserPatch{
		Username:     strPtr("caroline"),
		PasswordHash: strPtr("new-hash"),
		ParentUserID: &parent.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "caroline", updated.Username)
	require.NotNil(t, updated.ParentUserID)
	require.Equal(t, parent.ID, *updated.ParentUserID)

	byName, err := s.GetByUsername("caroline")
	require.NoError(t, err)
	require.Equal(t, "new-hash", byName.PasswordHash)
}

func TestUpdate_NilFieldsUntouched(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	user, err := s.Create("dave", "hash-d", nil)
	require.NoError(t, err)

	updated, err := s.Update(user.ID, UserPatch{Username: strPtr("david")})
	require.NoError(t, err)
	require.Equal(t, "david", updated.Username)
	require.Nil(t, updated.ParentUserID)

	byName, err := s.GetByUsername("david")
	require.NoError(t, err)
	require.Equal(t, "hash-d", byName.PasswordHash, "password must survive an unrelated patch")
}

func TestUpdate_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.Update("no-such-id", UserPatch{Username: strPtr("x")})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_InvalidParentAborts(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	user, err := s.Create("erin", "hash", nil)
	require.NoError(t, err)

	_, err = s.Update(user.ID, UserPatch{
		Username:     strPtr("renamed"),
		ParentUserID: strPtr("missing-parent"),
	})
	require.ErrorIs(t, err, ErrInvalidParent)

	current, err := s.GetByID(user.ID)
	require.NoError(t, err)
	require.Equal(t, "erin", current.Username, "rejected patch must not apply partially")
}

func TestUpdate_DuplicateUsername(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.Create("frank", "hash", nil)
	require.NoError(t, err)
	user, err := s.Create("grace", "hash", nil)
	require.NoError(t, err)

	_, err = s.Update(user.ID, UserPatch{Username: strPtr("frank")})
	require.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestDelete(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	user, err := s.Create("heidi", "hash", nil)
	require.NoError(t, err)

	require.NoError(t, s.Delete(user.ID))

	_, err = s.GetByID(user.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, s.Delete(user.ID), ErrNotFound)
}

func TestListAll_StableOrder(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, name := range []string{"u1", "u2", "u3"} {
		_, err := s.Create(name, "hash", nil)
		require.NoError(t, err)
	}

	first, err := s.ListAll()
	require.NoError(t, err)
	require.Len(t, first, 3)
	for _, u := range first {
		require.Empty(t, u.PasswordHash, "listing must not expose hashes")
	}

	second, err := s.ListAll()
	require.NoError(t, err)
	require.Equal(t, first, second, "repeated scans over unchanged data must agree")
}
