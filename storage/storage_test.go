package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenCreatesEmptyDataDirectory(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.Nil(t, s.GetDatabase("anything"))
}

func TestCreateDatabaseThenReopenStorageReproducesCatalog(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	_, err = s.CreateDatabase("movies", Config{QkvVecSize: 8})
	require.NoError(t, err)
	_, err = s.CreateDatabase("articles", Config{QkvVecSize: 16})
	require.NoError(t, err)

	reopened, err := Open(dir)
	require.NoError(t, err)

	movies := reopened.GetDatabase("movies")
	require.NotNil(t, movies)
	require.Equal(t, uint32(8), movies.QkvVecSize())

	articles := reopened.GetDatabase("articles")
	require.NotNil(t, articles)
	require.Equal(t, uint32(16), articles.QkvVecSize())
}

func TestCreateDatabaseRejectsDuplicateName(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	_, err = s.CreateDatabase("d", Config{QkvVecSize: 4})
	require.NoError(t, err)

	_, err = s.CreateDatabase("d", Config{QkvVecSize: 4})
	require.Error(t, err)
	var already *AlreadyExistsError
	require.ErrorAs(t, err, &already)
	require.Equal(t, "database", already.Type)
}

func TestEndToEndCreateBucketInsertAndFold(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	db, err := s.CreateDatabase("d", Config{QkvVecSize: 2})
	require.NoError(t, err)

	b, err := db.CreateBucket("b")
	require.NoError(t, err)

	rows := []Row{
		{Key: []float32{1, 0}, Value: []float32{1, 1}},
		{Key: []float32{0, 1}, Value: []float32{2, 2}},
	}
	require.NoError(t, b.Insert(rows))

	var total int
	err = b.ReduceBatched(1, nil, func(_ any, keys, values []float32) {
		total += len(keys)
	})
	require.NoError(t, err)
	require.Equal(t, len(rows)*2, total)
}
