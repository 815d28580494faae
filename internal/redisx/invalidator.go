package redisx

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Invalidator announces changed list views on a pub/sub channel; front ends subscribed
// to it re-fetch those views.
type Invalidator struct {
	rdb *redis.Client
}

func NewInvalidator(rdb *redis.Client) *Invalidator { return &Invalidator{rdb: rdb} }

func (i *Invalidator) Invalidate(ctx context.Context, views ...string) error {
	for _, v := range views {
		if err := i.rdb.Publish(ctx, ChannelInvalidate, v).Err(); err != nil {
			return err
		}
	}
	return nil
}
