package usecase

import (
	"context"
	"testing"

	"pulse-server/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAvailableSlots(t *testing.T) {
	db := newTestDB(t)
	log := testLogger()

	t.Run("invalid date is rejected before any lookup", func(t *testing.T) {
		uc := NewAvailabilityUsecase(db, log, newFakeDoctorRepo(), &fakeLedger{})
		_, err := uc.GetAvailableSlots(context.Background(), uuid.New(), "07-03-2025")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("unknown doctor", func(t *testing.T) {
		uc := NewAvailabilityUsecase(db, log, newFakeDoctorRepo(), &fakeLedger{})
		_, err := uc.GetAvailableSlots(context.Background(), uuid.New(), "2025-03-07")
		assert.ErrorIs(t, err, ErrDoctorNotFound)
	})

	t.Run("no bookings yields the full catalog", func(t *testing.T) {
		doctor := &entity.Doctor{ID: uuid.New(), Available: true}
		uc := NewAvailabilityUsecase(db, log, newFakeDoctorRepo(doctor), &fakeLedger{})

		resp, err := uc.GetAvailableSlots(context.Background(), doctor.ID, "2025-03-07")
		require.NoError(t, err)

		assert.Equal(t, []string(entity.DefaultSlots), resp.AvailableSlots)
		assert.Empty(t, resp.BookedSlots)
		assert.Equal(t, 14, resp.TotalSlots)
		assert.Equal(t, 14, resp.AvailableCount)
	})

	t.Run("booked slots are subtracted and both sides sorted", func(t *testing.T) {
		doctor := &entity.Doctor{ID: uuid.New(), Available: true}
		ledger := &fakeLedger{booked: map[string][]string{
			doctor.ID.String() + ":2025-03-07": {"15:00", "09:30"},
		}}
		uc := NewAvailabilityUsecase(db, log, newFakeDoctorRepo(doctor), ledger)

		resp, err := uc.GetAvailableSlots(context.Background(), doctor.ID, "2025-03-07")
		require.NoError(t, err)

		assert.Equal(t, []string{"09:30", "15:00"}, resp.BookedSlots)
		assert.Len(t, resp.AvailableSlots, 12)
		assert.NotContains(t, resp.AvailableSlots, "09:30")
		assert.NotContains(t, resp.AvailableSlots, "15:00")
		assert.Contains(t, resp.AvailableSlots, "09:00")
		assert.Equal(t, 14, resp.TotalSlots)
		assert.Equal(t, 12, resp.AvailableCount)

		// Disjoint: nothing both available and booked.
		for _, s := range resp.AvailableSlots {
			assert.NotContains(t, resp.BookedSlots, s)
		}
	})

	t.Run("first read persists the default catalog", func(t *testing.T) {
		doctor := &entity.Doctor{ID: uuid.New(), Available: true}
		repo := newFakeDoctorRepo(doctor)
		uc := NewAvailabilityUsecase(db, log, repo, &fakeLedger{})

		_, err := uc.GetAvailableSlots(context.Background(), doctor.ID, "2025-03-07")
		require.NoError(t, err)
		assert.Equal(t, entity.DefaultSlots, repo.slotsWritten[doctor.ID])

		// Second read sees the configured list and writes nothing more.
		repo.slotsWritten = map[uuid.UUID]entity.StringList{}
		resp, err := uc.GetAvailableSlots(context.Background(), doctor.ID, "2025-03-07")
		require.NoError(t, err)
		assert.Empty(t, repo.slotsWritten)
		assert.Equal(t, 14, resp.TotalSlots)
	})

	t.Run("persist failure does not fail the read", func(t *testing.T) {
		doctor := &entity.Doctor{ID: uuid.New(), Available: true}
		repo := newFakeDoctorRepo(doctor)
		repo.updateErr = assert.AnError
		uc := NewAvailabilityUsecase(db, log, repo, &fakeLedger{})

		resp, err := uc.GetAvailableSlots(context.Background(), doctor.ID, "2025-03-07")
		require.NoError(t, err)
		assert.Equal(t, 14, resp.TotalSlots)
	})

	t.Run("configured doctor uses own catalog", func(t *testing.T) {
		doctor := &entity.Doctor{
			ID:             uuid.New(),
			Available:      true,
			AvailableSlots: entity.StringList{"08:00", "08:30", "09:00"},
		}
		ledger := &fakeLedger{booked: map[string][]string{
			doctor.ID.String() + ":2025-03-07": {"08:30"},
		}}
		uc := NewAvailabilityUsecase(db, log, newFakeDoctorRepo(doctor), ledger)

		resp, err := uc.GetAvailableSlots(context.Background(), doctor.ID, "2025-03-07")
		require.NoError(t, err)
		assert.Equal(t, []string{"08:00", "09:00"}, resp.AvailableSlots)
		assert.Equal(t, 3, resp.TotalSlots)
	})
}
