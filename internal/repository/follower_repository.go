package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FollowerRepository reads a business's follower list, which targeted
// issuance fans out over.
type FollowerRepository struct {
	pool PoolInterface
}

// NewFollowerRepository creates a new FollowerRepository with the given pool.
func NewFollowerRepository(pool *pgxpool.Pool) *FollowerRepository {
	return &FollowerRepository{pool: pool}
}

// NewFollowerRepositoryWithPool creates a FollowerRepository with a custom
// pool interface. This is primarily used for testing.
func NewFollowerRepositoryWithPool(pool PoolInterface) *FollowerRepository {
	return &FollowerRepository{pool: pool}
}

// GetFollowers retrieves the user ids following a business.
// On success, returns an empty slice (not nil) when there are no followers.
func (r *FollowerRepository) GetFollowers(ctx context.Context, businessID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM business_followers WHERE business_id = $1 ORDER BY user_id`, businessID)
	if err != nil {
		return nil, fmt.Errorf("get followers for business %s: %w", businessID, err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan follower user_id: %w", err)
		}
		users = append(users, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follower rows: %w", err)
	}

	if users == nil {
		users = []string{}
	}

	return users, nil
}
