package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"pulse-server/internal/domain/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ledgerRepo is a stub AppointmentRepository; only FindActiveTimes is
// exercised by the cache.
type ledgerRepo struct {
	times map[string][]string
	calls int
}

func (r *ledgerRepo) Create(db *gorm.DB, appointment *entity.Appointment) error { return nil }
func (r *ledgerRepo) FindByIDAndDoctor(db *gorm.DB, id, doctorID uuid.UUID) (*entity.Appointment, error) {
	return nil, nil
}
func (r *ledgerRepo) FindActiveBySlot(db *gorm.DB, doctorID uuid.UUID, date time.Time, slot string) (*entity.Appointment, error) {
	return nil, nil
}
func (r *ledgerRepo) FindActiveTimes(db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]string, error) {
	r.calls++
	return r.times[doctorID.String()+":"+date.Format("2006-01-02")], nil
}
func (r *ledgerRepo) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error) {
	return nil, nil
}
func (r *ledgerRepo) FindByUserID(db *gorm.DB, userID uuid.UUID) ([]entity.Appointment, error) {
	return nil, nil
}
func (r *ledgerRepo) UpdateStatus(db *gorm.DB, id uuid.UUID, status entity.AppointmentStatus, fields map[string]interface{}) error {
	return nil
}

func newCacheFixture(t *testing.T, repo *ledgerRepo) (*SlotCacheService, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	svc := NewSlotCacheService(db, client, log, repo, 5*time.Minute)
	t.Cleanup(svc.Stop)
	return svc, client
}

func TestBookedSlotsReadThrough(t *testing.T) {
	doctorID := uuid.New()
	date := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	repo := &ledgerRepo{times: map[string][]string{
		doctorID.String() + ":2025-03-07": {"09:30", "15:00"},
	}}
	svc, client := newCacheFixture(t, repo)
	ctx := context.Background()

	// First read hits the table and populates the cache
	times, err := svc.BookedSlots(ctx, doctorID, date)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:30", "15:00"}, times)
	assert.Equal(t, 1, repo.calls)

	cached, err := client.Get(ctx, "slots:booked:"+doctorID.String()+":2025-03-07").Result()
	require.NoError(t, err)
	var decoded []string
	require.NoError(t, json.Unmarshal([]byte(cached), &decoded))
	assert.Equal(t, []string{"09:30", "15:00"}, decoded)

	// Second read is served from Redis
	times, err = svc.BookedSlots(ctx, doctorID, date)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:30", "15:00"}, times)
	assert.Equal(t, 1, repo.calls)
}

func TestBookedSlotsInvalidate(t *testing.T) {
	doctorID := uuid.New()
	date := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	key := doctorID.String() + ":2025-03-07"
	repo := &ledgerRepo{times: map[string][]string{key: {"09:30"}}}
	svc, _ := newCacheFixture(t, repo)
	ctx := context.Background()

	_, err := svc.BookedSlots(ctx, doctorID, date)
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls)

	// After invalidation the next read rebuilds from the table
	repo.times[key] = []string{"09:30", "10:00"}
	svc.Invalidate(ctx, doctorID, "2025-03-07")

	times, err := svc.BookedSlots(ctx, doctorID, date)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:30", "10:00"}, times)
	assert.Equal(t, 2, repo.calls)
}

func TestBookedSlotsCorruptEntry(t *testing.T) {
	doctorID := uuid.New()
	date := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	repo := &ledgerRepo{times: map[string][]string{
		doctorID.String() + ":2025-03-07": {"11:00"},
	}}
	svc, client := newCacheFixture(t, repo)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "slots:booked:"+doctorID.String()+":2025-03-07", "not-json", 0).Err())

	times, err := svc.BookedSlots(ctx, doctorID, date)
	require.NoError(t, err)
	assert.Equal(t, []string{"11:00"}, times)
	assert.Equal(t, 1, repo.calls)
}

func TestLockSlotDateSerializes(t *testing.T) {
	svc, _ := newCacheFixture(t, &ledgerRepo{})
	doctorID := uuid.New()

	var order []int
	var mu sync.Mutex

	unlock := svc.LockSlotDate(doctorID, "2025-03-07")

	done := make(chan struct{})
	go func() {
		innerUnlock := svc.LockSlotDate(doctorID, "2025-03-07")
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		innerUnlock()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	unlock()

	<-done
	assert.Equal(t, []int{1, 2}, order)
}

func TestLockSlotDateIndependentKeys(t *testing.T) {
	svc, _ := newCacheFixture(t, &ledgerRepo{})
	doctorID := uuid.New()

	unlock := svc.LockSlotDate(doctorID, "2025-03-07")
	defer unlock()

	// A different date must not block
	acquired := make(chan struct{})
	go func() {
		otherUnlock := svc.LockSlotDate(doctorID, "2025-03-08")
		otherUnlock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock on a different date blocked")
	}
}
