package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferRepository_GetByID_Success(t *testing.T) {
	qty := 100
	created := time.Now()
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			assert.Contains(t, sql, "FROM offers")
			assert.Equal(t, []any{"offer-1"}, args)
			return &mockRow{scanFn: func(dest ...any) error {
				*(dest[0].(*string)) = "offer-1"
				*(dest[1].(*string)) = "biz-1"
				*(dest[2].(*string)) = "Two-for-one espresso"
				*(dest[3].(**int)) = &qty
				*(dest[4].(*float64)) = 2.5
				*(dest[5].(**float64)) = nil
				*(dest[6].(*string)) = "weekdays only"
				*(dest[7].(**time.Time)) = nil
				*(dest[8].(**time.Time)) = nil
				*(dest[9].(*time.Time)) = created
				return nil
			}}
		},
	}

	repo := NewOfferRepositoryWithPool(mock)
	offer, err := repo.GetByID(context.Background(), "offer-1")

	require.NoError(t, err)
	require.NotNil(t, offer)
	assert.Equal(t, "offer-1", offer.ID)
	assert.Equal(t, "biz-1", offer.BusinessID)
	require.NotNil(t, offer.TotalQuantity)
	assert.Equal(t, 100, *offer.TotalQuantity)
	assert.Nil(t, offer.Value)
}

func TestOfferRepository_GetByID_NotFound(t *testing.T) {
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}

	repo := NewOfferRepositoryWithPool(mock)
	offer, err := repo.GetByID(context.Background(), "missing")

	require.NoError(t, err)
	assert.Nil(t, offer)
}

func TestOfferRepository_GetByID_StoreError(t *testing.T) {
	dbErr := errors.New("database connection failed")
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error { return dbErr }}
		},
	}

	repo := NewOfferRepositoryWithPool(mock)
	offer, err := repo.GetByID(context.Background(), "offer-1")

	require.Error(t, err)
	assert.Nil(t, offer)
}
