package scheduling

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"healthcare-booking-api/internal/model"
)

const availabilityKeyPrefix = "availability:"

// RedisDirectory stores availability records as JSON strings with no TTL,
// so they survive process restarts.
type RedisDirectory struct {
	rdb redis.Cmdable
}

func NewRedisDirectory(rdb redis.Cmdable) *RedisDirectory {
	return &RedisDirectory{rdb: rdb}
}

func availabilityKey(doctorID string) string { return availabilityKeyPrefix + doctorID }

func (d *RedisDirectory) Get(ctx context.Context, doctorID string) (*model.Availability, bool, error) {
	b, err := d.rdb.Get(ctx, availabilityKey(doctorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var a model.Availability
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, false, err
	}
	if a.TimeRanges == nil {
		a.TimeRanges = []map[string]any{}
	}
	if a.UnavailableDates == nil {
		a.UnavailableDates = []model.Date{}
	}
	return &a, true, nil
}

func (d *RedisDirectory) Put(ctx context.Context, doctorID string, a *model.Availability) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return d.rdb.Set(ctx, availabilityKey(doctorID), b, 0).Err()
}
