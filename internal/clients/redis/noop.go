package redis

import (
	"context"
	"time"
)

// Noop is used when REDIS_ADDR is unset: every read misses and every claim
// succeeds, so callers fall through to the database.
type Noop struct{}

func (Noop) GetJSON(context.Context, string, interface{}) error                { return ErrMiss }
func (Noop) SetJSON(context.Context, string, interface{}, time.Duration) error { return nil }
func (Noop) Delete(context.Context, ...string) error                           { return nil }
func (Noop) Claim(context.Context, string, time.Duration) (bool, error)        { return true, nil }
func (Noop) Ping(context.Context) error                                        { return nil }
func (Noop) Close() error                                                      { return nil }
