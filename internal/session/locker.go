package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Locker serializes work on a session. A session holds the busy mark from
// signature submission until finalization; a second submission meanwhile must
// fail fast instead of racing. Marks expire after TTL so a crashed in-flight
// operation cannot wedge a session forever.
type Locker struct {
	TTL  time.Duration
	data sync.Map
}

type busyEntry struct {
	ExpiresAt time.Time
}

// NewLocker returns a new Locker
func NewLocker(ttl time.Duration) *Locker {
	return &Locker{TTL: ttl}
}

// TryAcquire marks the session busy. Returns false if it is already busy.
func (l *Locker) TryAcquire(id uuid.UUID) bool {
	now := time.Now()
	entry, loaded := l.data.LoadOrStore(id, busyEntry{ExpiresAt: now.Add(l.TTL)})
	if !loaded {
		return true
	}

	busy, ok := entry.(busyEntry)
	if ok && now.Before(busy.ExpiresAt) {
		return false
	}

	// expired mark, take it over
	l.data.Store(id, busyEntry{ExpiresAt: now.Add(l.TTL)})
	return true
}

// Release frees the busy mark for the session
func (l *Locker) Release(id uuid.UUID) {
	l.data.Delete(id)
}

// CleaningBackground starts a go routine for cleaning expired entries
func (l *Locker) CleaningBackground(cleaning time.Duration) {
	go func() {
		for now := range time.Tick(cleaning) {
			l.data.Range(func(k, v interface{}) bool {
				if busy, ok := v.(busyEntry); ok && now.After(busy.ExpiresAt) {
					l.data.Delete(k)
				}
				return true
			})
		}
	}()
}
