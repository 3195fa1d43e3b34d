package cache

import (
	"context"
	"time"
)

// NullCache is the "none" backend: every lookup misses and writes are
// dropped, so each registry request goes to the network.
type NullCache struct{}

// NewNullCache returns the "none" backend.
func NewNullCache() Cache {
	return NullCache{}
}

func (NullCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NullCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (NullCache) Delete(context.Context, string) error {
	return nil
}

func (NullCache) Close() error {
	return nil
}

var _ Cache = NullCache{}
