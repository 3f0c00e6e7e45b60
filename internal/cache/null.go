package cache

import (
	"context"
	"time"
)

type null struct{}

// NewNullCache returns a do nothing cache
func NewNullCache() Cache {
	return &null{}
}

// Set does nothing
func (n *null) Set(_ context.Context, _ string, _ any, _ time.Duration) error {
	return nil
}

// Get never finds anything
func (n *null) Get(_ context.Context, _ string, _ any) bool {
	return false
}

// Exists always returns false
func (n *null) Exists(_ context.Context, _ string) bool {
	return false
}

// Delete does nothing
func (n *null) Delete(_ context.Context, _ string) error {
	return nil
}
