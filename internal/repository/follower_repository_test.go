package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStringRows implements pgx.Rows over a fixed list of single-column
// string results.
type mockStringRows struct {
	data      []string
	index     int
	errOnScan error
	errOnRows error
}

func (m *mockStringRows) Close()     {}
func (m *mockStringRows) Err() error { return m.errOnRows }

func (m *mockStringRows) Next() bool {
	if m.index < len(m.data) {
		m.index++
		return true
	}
	return false
}

func (m *mockStringRows) Scan(dest ...any) error {
	if m.errOnScan != nil {
		return m.errOnScan
	}
	if m.index > 0 && m.index <= len(m.data) {
		*(dest[0].(*string)) = m.data[m.index-1]
	}
	return nil
}

func (m *mockStringRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *mockStringRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockStringRows) RawValues() [][]byte                          { return nil }
func (m *mockStringRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockStringRows) Conn() *pgx.Conn                              { return nil }

func TestFollowerRepository_GetFollowers_Success(t *testing.T) {
	mock := &mockPool{
		queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &mockStringRows{data: []string{"user-1", "user-2"}}, nil
		},
	}

	repo := NewFollowerRepositoryWithPool(mock)
	users, err := repo.GetFollowers(context.Background(), "biz-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"user-1", "user-2"}, users)
}

func TestFollowerRepository_GetFollowers_Empty(t *testing.T) {
	mock := &mockPool{
		queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &mockStringRows{}, nil
		},
	}

	repo := NewFollowerRepositoryWithPool(mock)
	users, err := repo.GetFollowers(context.Background(), "biz-1")

	require.NoError(t, err)
	require.NotNil(t, users, "should return empty slice, not nil")
	assert.Len(t, users, 0)
}

func TestFollowerRepository_GetFollowers_QueryError(t *testing.T) {
	dbErr := errors.New("database connection failed")
	mock := &mockPool{
		queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return nil, dbErr
		},
	}

	repo := NewFollowerRepositoryWithPool(mock)
	users, err := repo.GetFollowers(context.Background(), "biz-1")

	require.Error(t, err)
	assert.Nil(t, users)
	assert.True(t, errors.Is(err, dbErr))
}
