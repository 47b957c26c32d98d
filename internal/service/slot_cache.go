package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pulse-server/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	// Redis key prefix for the per-(doctor, date) booked-slot cache
	bookedSlotsKeyPrefix = "slots:booked:"

	// Interval for cleaning up stale slot mutexes
	mutexCleanupInterval = 10 * time.Minute

	// How long a mutex must be unused before cleanup
	mutexStaleThreshold = 10 * time.Minute
)

// SlotCacheService is the read side of the booking ledger. The appointments
// table is the single source of truth; Redis holds a per-(doctor, date)
// cache of booked time labels that is only ever rebuilt from the table and
// dropped whenever a booking or cancellation touches that date.
//
// It also owns the per-(doctor, date) mutexes that serialize check-and-insert
// during booking. The partial unique index on active appointments is the
// cross-instance guard; the mutex keeps the common single-instance path from
// ever surfacing a constraint violation.
type SlotCacheService struct {
	db              *gorm.DB
	redisClient     *redis.Client
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	ttl             time.Duration

	// Per-(doctor, date) mutex for booking serialization
	slotMu sync.Map // map[string]*mutexWithTimestamp

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// mutexWithTimestamp tracks mutex usage for cleanup
type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix timestamp
}

// NewSlotCacheService creates a new SlotCacheService.
// Starts background goroutine for mutex cleanup.
// Call Stop() during graceful shutdown.
func NewSlotCacheService(
	db *gorm.DB,
	redisClient *redis.Client,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	ttl time.Duration,
) *SlotCacheService {
	svc := &SlotCacheService{
		db:              db,
		redisClient:     redisClient,
		log:             log,
		appointmentRepo: appointmentRepo,
		ttl:             ttl,
		stopChan:        make(chan struct{}),
	}

	svc.wg.Add(1)
	go svc.cleanupMutexMapLoop()

	return svc
}

// Stop gracefully shuts down the service.
// Safe to call multiple times.
func (s *SlotCacheService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("SlotCacheService stopped")
	}
}

// BookedSlots returns the booked time labels for a doctor on a date,
// serving from Redis when possible and rebuilding from the appointments
// table on a miss. Redis being down degrades to a plain table read.
func (s *SlotCacheService) BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	key := s.cacheKey(doctorID, date.Format("2006-01-02"))

	cached, err := s.redisClient.Get(ctx, key).Result()
	if err == nil {
		var times []string
		if jsonErr := json.Unmarshal([]byte(cached), &times); jsonErr == nil {
			return times, nil
		}
		s.log.Warnf("Corrupt slot cache entry %s, rebuilding", key)
	} else if err != redis.Nil {
		s.log.Warnf("Slot cache read failed for %s (non-fatal): %+v", key, err)
	}

	times, err := s.appointmentRepo.FindActiveTimes(s.db.WithContext(ctx), doctorID, date)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(times); jsonErr == nil {
		if setErr := s.redisClient.Set(ctx, key, payload, s.ttl).Err(); setErr != nil {
			s.log.Warnf("Slot cache write failed for %s (non-fatal): %+v", key, setErr)
		}
	}

	return times, nil
}

// Invalidate drops the cached booked slots for a doctor/date. Called after
// every successful booking and after a cancellation frees a slot. Failure
// is non-fatal: the entry expires on its TTL anyway.
func (s *SlotCacheService) Invalidate(ctx context.Context, doctorID uuid.UUID, dateKey string) {
	key := s.cacheKey(doctorID, dateKey)
	if err := s.redisClient.Del(ctx, key).Err(); err != nil {
		s.log.Warnf("Failed to invalidate slot cache %s (non-fatal): %+v", key, err)
	}
}

// LockSlotDate acquires the mutex serializing bookings for one doctor/date.
// The returned function releases it.
func (s *SlotCacheService) LockSlotDate(doctorID uuid.UUID, dateKey string) func() {
	mt := s.getSlotMutex(doctorID.String() + ":" + dateKey)
	mt.mu.Lock()
	return mt.mu.Unlock
}

func (s *SlotCacheService) cacheKey(doctorID uuid.UUID, dateKey string) string {
	return fmt.Sprintf("%s%s:%s", bookedSlotsKeyPrefix, doctorID.String(), dateKey)
}

// getSlotMutex returns the mutex for a doctor:date key
func (s *SlotCacheService) getSlotMutex(key string) *mutexWithTimestamp {
	mt, _ := s.slotMu.LoadOrStore(key, &mutexWithTimestamp{})
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

// cleanupMutexMapLoop runs in background to clean stale mutexes
func (s *SlotCacheService) cleanupMutexMapLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			s.log.Debug("Slot mutex cleanup goroutine stopping")
			return
		case <-ticker.C:
			s.cleanupStaleMutexes()
		}
	}
}

// cleanupStaleMutexes removes unused mutexes using TryLock for safety
func (s *SlotCacheService) cleanupStaleMutexes() {
	cutoffTime := time.Now().Add(-mutexStaleThreshold).Unix()
	var cleaned int

	s.slotMu.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}

		if mt.mu.TryLock() {
			if mt.lastUsed.Load() < cutoffTime {
				s.slotMu.Delete(key)
				cleaned++
			}
			mt.mu.Unlock()
		}
		return true
	})

	if cleaned > 0 {
		s.log.Debugf("Cleaned %d stale slot mutexes", cleaned)
	}
}
