// Package kv provides the small durable key-value capability the cart store
// and the terminal client persist their state through.
package kv

import (
	"context"
	"errors"
	"strings"
)

// Well-known keys.
const (
	KeyCart  = "cart"
	KeyToken = "token"
)

var ErrEmptyKey = errors.New("kv: key is required")

// Storage reads and writes opaque string values. Get reports absence with
// ok=false rather than an error.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Deleter is implemented by stores that can drop a key.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}
