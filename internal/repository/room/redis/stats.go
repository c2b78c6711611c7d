package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const usersCountKey = "stats:users"

func (r repo) IncUsers(ctx context.Context) error {
	if err := r.rc.Incr(ctx, usersCountKey).Err(); err != nil {
		return fmt.Errorf("failed to increment users count: %w", err)
	}

	return nil
}

func (r repo) DecUsers(ctx context.Context) error {
	if err := r.rc.Decr(ctx, usersCountKey).Err(); err != nil {
		return fmt.Errorf("failed to decrement users count: %w", err)
	}

	return nil
}

func (r repo) GetUsersCount(ctx context.Context) (int, error) {
	res, err := r.rc.Get(ctx, usersCountKey).Int()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}

		return 0, fmt.Errorf("failed to get users count: %w", err)
	}

	return res, nil
}
