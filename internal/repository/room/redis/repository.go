// Package redis stores each room record as a single JSON document guarded
// by a monotonically increasing version field, so writers can detect that
// the record changed under them.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
	casScript      string
	createScript   string
}

func NewRepo(rc *redis.Client, expireDuration time.Duration) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
		casScript: rc.ScriptLoad(context.Background(), `
			local current = redis.call('HGET', KEYS[1], 'version')
			if current == false then
				return -1
			end
			if tonumber(current) ~= tonumber(ARGV[1]) then
				return 0
			end
			redis.call('HSET', KEYS[1], 'data', ARGV[2], 'version', tonumber(current) + 1)
			return 1
		`).Val(),
		createScript: rc.ScriptLoad(context.Background(), `
			if redis.call('EXISTS', KEYS[1]) == 1 then
				return 0
			end
			redis.call('HSET', KEYS[1], 'data', ARGV[1], 'version', 1)
			return 1
		`).Val(),
	}
}

func (r repo) getRoomKey(roomID string) string {
	return "room:" + roomID
}
