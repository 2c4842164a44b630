package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connection refused")

func newMock(t *testing.T) (sqlmock.Sqlmock, *EntryStore, *CategoryStore) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, NewEntryStore(db, 50*time.Millisecond), NewCategoryStore(db, 50*time.Millisecond)
}

func TestErrorTypes(t *testing.T) {
	ve := &ValidationError{Field: "category", Value: "podcast", Reason: "unknown category"}
	assert.Equal(t, `invalid category "podcast": unknown category`, ve.Error())
	assert.True(t, IsValidation(fmt.Errorf("save: %w", ve)))
	assert.False(t, IsStorage(ve))

	se := &StorageError{Op: "add entry", Err: errConnRefused}
	assert.Contains(t, se.Error(), "add entry")
	assert.ErrorIs(t, se, errConnRefused)
	assert.True(t, IsStorage(fmt.Errorf("save: %w", se)))
	assert.False(t, IsValidation(se))
}

func TestAddEntryStorageFailure(t *testing.T) {
	mock, entries, _ := newMock(t)

	mock.ExpectQuery("SELECT EXISTS").WillReturnError(errConnRefused)

	_, err := entries.AddEntry(context.Background(), nil, "x", "book")
	require.Error(t, err)
	assert.True(t, IsStorage(err))
	assert.ErrorIs(t, err, errConnRefused)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddEntryInsertFailure(t *testing.T) {
	mock, entries, _ := newMock(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("book").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("INSERT INTO entries").WillReturnError(errConnRefused)

	_, err := entries.AddEntry(context.Background(), nil, "x", "book")
	require.Error(t, err)
	assert.True(t, IsStorage(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreTimeoutSurfacesStorageError(t *testing.T) {
	mock, entries, _ := newMock(t)

	mock.ExpectQuery("SELECT EXISTS").
		WillDelayFor(time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	start := time.Now()
	_, err := entries.AddEntry(context.Background(), nil, "x", "book")
	require.Error(t, err)
	assert.True(t, IsStorage(err))
	assert.Less(t, time.Since(start), 500*time.Millisecond, "store call should not wait past its timeout")
}

func TestRetireStorageFailure(t *testing.T) {
	mock, entries, _ := newMock(t)

	mock.ExpectExec("UPDATE entries SET retired").WithArgs(int64(5)).WillReturnError(errConnRefused)

	ok, err := entries.Retire(context.Background(), 5)
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, IsStorage(err))
}

func TestRetireNoRowsIsNotAnError(t *testing.T) {
	mock, entries, _ := newMock(t)

	mock.ExpectExec("UPDATE entries SET retired").WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := entries.Retire(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateCategoryStorageFailure(t *testing.T) {
	mock, entries, _ := newMock(t)

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("UPDATE entries SET category").WillReturnError(errConnRefused)

	ok, err := entries.UpdateCategory(context.Background(), 1, "movie")
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, IsStorage(err))
}

func TestSampleStorageFailure(t *testing.T) {
	mock, entries, _ := newMock(t)

	mock.ExpectQuery("FROM entries").WillReturnError(errConnRefused)

	_, err := entries.SampleByCategory(context.Background(), "movie", 3)
	require.Error(t, err)
	assert.True(t, IsStorage(err))
}

func TestListCategoriesStorageFailure(t *testing.T) {
	mock, _, categories := newMock(t)

	mock.ExpectQuery("FROM categories").WillReturnError(errConnRefused)

	_, err := categories.ListCategories(context.Background())
	require.Error(t, err)
	assert.True(t, IsStorage(err))
}
