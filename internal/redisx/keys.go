package redisx

import (
	"fmt"
	"time"
)

const (
	// Cart per user: cart:{user_id} -> JSON array of cart items
	KeyCart = "cart:%s"

	// Pub/sub channel for list-view invalidation; message body is the view name
	ChannelInvalidate = "equiploan:invalidate"
)

var TTLCart = 30 * 24 * time.Hour

func cartKey(userID string) string { return fmt.Sprintf(KeyCart, userID) }
