package memoize

import (
	"sync/atomic"
)

// Stats holds pool statistics
type Stats struct {
	hits         int64
	misses       int64
	saves        int64
	saveFailures int64
	errors       int64
}

// Hits returns the number of lookups served from the pool
func (s *Stats) Hits() int64 {
	return atomic.LoadInt64(&s.hits)
}

// Misses returns the number of lookups that found nothing
func (s *Stats) Misses() int64 {
	return atomic.LoadInt64(&s.misses)
}

// Saves returns the number of successful saves
func (s *Stats) Saves() int64 {
	return atomic.LoadInt64(&s.saves)
}

// SaveFailures returns the number of saves the backend rejected
func (s *Stats) SaveFailures() int64 {
	return atomic.LoadInt64(&s.saveFailures)
}

// Errors returns the number of backend errors swallowed by the pool
func (s *Stats) Errors() int64 {
	return atomic.LoadInt64(&s.errors)
}

// HitRate returns the hit rate as a percentage (0-100)
func (s *Stats) HitRate() float64 {
	hits := s.Hits()
	total := hits + s.Misses()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Reset resets all statistics to zero
func (s *Stats) Reset() {
	atomic.StoreInt64(&s.hits, 0)
	atomic.StoreInt64(&s.misses, 0)
	atomic.StoreInt64(&s.saves, 0)
	atomic.StoreInt64(&s.saveFailures, 0)
	atomic.StoreInt64(&s.errors, 0)
}

func (s *Stats) incHits()         { atomic.AddInt64(&s.hits, 1) }
func (s *Stats) incMisses()       { atomic.AddInt64(&s.misses, 1) }
func (s *Stats) incSaves()        { atomic.AddInt64(&s.saves, 1) }
func (s *Stats) incSaveFailures() { atomic.AddInt64(&s.saveFailures, 1) }
func (s *Stats) incErrors()       { atomic.AddInt64(&s.errors, 1) }
