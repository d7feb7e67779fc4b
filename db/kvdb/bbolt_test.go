package kvdb

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/meghashyamc/searchbadges/config"
	"github.com/meghashyamc/searchbadges/logger"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, assert *require.Assertions) *BoltDB {
	t.Setenv("STORAGE_PATH", t.TempDir())
	cfg, err := config.Load("test")
	assert.NoError(err, "could not load config")

	db, err := New(logger.NewWithWriter(os.Stderr, slog.LevelDebug), cfg)
	assert.NoError(err, "could not open kv database")
	t.Cleanup(func() { assert.NoError(db.Close()) })
	return db
}

func TestSetGetDelete(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t, assert)

	assert.NoError(db.Set(FragmentsBucket, "doc-1", `{"url":"/docs/"}`))
	value, err := db.Get(FragmentsBucket, "doc-1")
	assert.NoError(err)
	assert.Equal(`{"url":"/docs/"}`, value)

	_, err = db.Get(FilesBucket, "doc-1")
	assert.ErrorIs(err, ErrNotFound, "buckets should be isolated")

	assert.NoError(db.Delete(FragmentsBucket, "doc-1"))
	_, err = db.Get(FragmentsBucket, "doc-1")
	var notFoundErr *NotFoundError
	assert.True(errors.As(err, &notFoundErr))
	assert.Equal(FragmentsBucket, notFoundErr.Bucket)
}

func TestEmptyKeyIsRejected(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t, assert)

	assert.ErrorIs(db.Set(FilesBucket, "", "x"), ErrInvalidKey)
	_, err := db.Get(FilesBucket, "")
	assert.ErrorIs(err, ErrInvalidKey)
	assert.ErrorIs(db.Delete(FilesBucket, ""), ErrInvalidKey)
}

func TestUnknownBucket(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t, assert)

	assert.Error(db.Set("nope", "k", "v"))
	_, err := db.GetAllKeys("nope")
	assert.Error(err)
}

func TestGetAllKeys(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t, assert)

	keys, err := db.GetAllKeys(FilesBucket)
	assert.NoError(err)
	assert.Empty(keys)

	for _, key := range []string{"/site/b.html", "/site/a.html"} {
		assert.NoError(db.Set(FilesBucket, key, "{}"))
	}
	assert.NoError(db.Set(RequestsBucket, "req", "10"))

	keys, err = db.GetAllKeys(FilesBucket)
	assert.NoError(err)
	assert.Equal([]string{"/site/a.html", "/site/b.html"}, keys)
}
