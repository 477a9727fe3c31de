// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// errStaleWrite reports that an invalidation ran between reading a
// generation and writing the value computed under it.
var errStaleWrite = errors.New("cache: generation changed")

// generation returns the counter stored at key, zero when unset.
func generation(ctx context.Context, c redis.Cmdable, key string) (int64, error) {
	n, err := c.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// writeIfCurrent runs write in a transaction that only commits while key
// still holds want. Invalidations bump key before deleting entries, so a
// value rendered from data older than the last invalidation is dropped.
func writeIfCurrent(ctx context.Context, client *redis.Client, key string, want int64, write func(pipe redis.Pipeliner)) error {
	return client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := generation(ctx, tx, key)
		if err != nil {
			return err
		}
		if cur != want {
			return errStaleWrite
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			write(pipe)
			return nil
		})
		return err
	}, key)
}

// isStale reports whether err is a write discarded by writeIfCurrent.
func isStale(err error) bool {
	return errors.Is(err, errStaleWrite) || errors.Is(err, redis.TxFailedErr)
}
