package models

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *KeepfileStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewKeepfileStore(db)
}

func strPtr(s string) *string { return &s }

func TestKeepfileStore_CreateAndFind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	k := Keepfile{Name: "trip", Desc: strPtr("beach")}
	require.NoError(t, store.Create(ctx, &k))
	assert.NotZero(t, k.ID)
	assert.False(t, k.CreatedAt.IsZero())

	got, err := store.Find(ctx, k.ID)
	require.NoError(t, err)
	assert.Equal(t, "trip", got.Name)
	assert.Nil(t, got.Image)
	require.NotNil(t, got.Desc)
	assert.Equal(t, "beach", *got.Desc)
}

func TestKeepfileStore_FindMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Find(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeepfileStore_ListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		require.NoError(t, store.Create(ctx, &Keepfile{Name: name}))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Name)
	assert.Equal(t, "second", list[1].Name)
	assert.Equal(t, "first", list[2].Name)
}

func TestKeepfileStore_ListEmpty(t *testing.T) {
	store := newTestStore(t)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestKeepfileStore_Update(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	k := Keepfile{Name: "trip", Desc: strPtr("beach")}
	require.NoError(t, store.Create(ctx, &k))

	next := k
	next.Name = "trip2"
	next.Desc = nil
	next.Image = strPtr("abc.png")

	updated, err := store.Update(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "trip2", updated.Name)

	got, err := store.Find(ctx, k.ID)
	require.NoError(t, err)
	assert.Equal(t, "trip2", got.Name)
	assert.Nil(t, got.Desc)
	require.NotNil(t, got.Image)
	assert.Equal(t, "abc.png", *got.Image)
	assert.Equal(t, k.CreatedAt.Unix(), got.CreatedAt.Unix())

	// the original value is untouched
	assert.Equal(t, "trip", k.Name)
}

func TestKeepfileStore_UpdateMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Update(context.Background(), Keepfile{ID: 7, Name: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list, "update must not insert")
}

func TestKeepfileStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	k := Keepfile{Name: "trip"}
	require.NoError(t, store.Create(ctx, &k))

	require.NoError(t, store.Delete(ctx, k.ID))

	_, err := store.Find(ctx, k.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, k.ID), ErrNotFound)
}

func TestKeepfileStore_Ping(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
