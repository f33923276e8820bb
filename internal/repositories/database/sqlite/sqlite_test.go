package sqlite_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	"github.com/mistakebook/mistakebook/internal/models"
	"github.com/mistakebook/mistakebook/internal/repositories/database/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	store, err := sqlite.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDocStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	q := models.Question{
		ID:        "q1",
		CreatedAt: 1000,
		Stem:      "2+2=?",
		Options:   []string{"3", "4", "5", "6"},
		Category:  models.Quantity,
	}
	require.NoError(t, store.Questions.Put(ctx, q.ID, "u1", q))

	got, err := store.Questions.Get(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, q, *got)

	q.Stem = "3+3=?"
	require.NoError(t, store.Questions.Put(ctx, q.ID, "u1", q))
	got, err = store.Questions.Get(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "3+3=?", got.Stem)

	require.NoError(t, store.Questions.Delete(ctx, "q1"))
	_, err = store.Questions.Get(ctx, "q1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDocStoreGetAllOwnerFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Questions.Put(ctx, "q1", "u1", models.Question{ID: "q1"}))
	require.NoError(t, store.Questions.Put(ctx, "q2", "u1", models.Question{ID: "q2"}))
	require.NoError(t, store.Questions.Put(ctx, "q3", "u2", models.Question{ID: "q3"}))

	mine, err := store.Questions.GetAll(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := store.Questions.GetAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUserStoreGetByUsername(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	u := models.User{ID: "u1", Username: "alice", PasswordHash: "x", CreatedAt: 1}
	require.NoError(t, store.Users.Put(ctx, u.ID, "", u))

	got, err := store.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	_, err = store.Users.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestImageRepositoryPutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Images.Put(ctx, "k1", "payload"))

	data, ok, err := store.Images.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "payload", data)

	// overwrite semantics
	require.NoError(t, store.Images.Put(ctx, "k1", "payload2"))
	data, _, _ = store.Images.Get(ctx, "k1")
	assert.Equal(t, "payload2", data)

	require.NoError(t, store.Images.Delete(ctx, "k1"))
	_, ok, err = store.Images.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestImageRepositoryDeleteManyBestEffort(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Images.Put(ctx, "a", "1"))
	require.NoError(t, store.Images.Put(ctx, "b", "2"))

	// missing keys in the batch are not failures
	require.NoError(t, store.Images.DeleteMany(ctx, []string{"a", "missing", "b"}))

	_, ok, _ := store.Images.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = store.Images.Get(ctx, "b")
	assert.False(t, ok)
}

func TestImageRepositoryKeysWithPrefix(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, key := range []string{"q1_mat_0", "q1_mat_2", "q1_note", "q1_rte_123_0", "q10_mat_0", "q2_mat_0"} {
		require.NoError(t, store.Images.Put(ctx, key, "x"))
	}
	// The underscore in the prefix is a literal, not a LIKE wildcard:
	// "q1X..." style keys must not leak into the scan.
	require.NoError(t, store.Images.Put(ctx, "q1Xmat_0", "x"))

	keys, err := store.Images.KeysWithPrefix(ctx, "q1_")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"q1_mat_0", "q1_mat_2", "q1_note", "q1_rte_123_0"}, keys)
}

func TestMigrationState(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	done, err := store.MigrationState.Completed(ctx, "some_migration")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, store.MigrationState.MarkCompleted(ctx, "some_migration"))

	done, err = store.MigrationState.Completed(ctx, "some_migration")
	require.NoError(t, err)
	assert.True(t, done)

	// marking twice is harmless
	require.NoError(t, store.MigrationState.MarkCompleted(ctx, "some_migration"))
}
